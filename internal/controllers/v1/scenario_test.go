package v1_test

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	v1 "github.com/salesops/target-planner/internal/controllers/v1"
	"github.com/salesops/target-planner/internal/models"
	"github.com/salesops/target-planner/internal/planning"
	"github.com/salesops/target-planner/internal/report"
	"github.com/salesops/target-planner/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const scenarioURL = "http://example.com/v1/scenarios/2025/1"

func getScenario(t *testing.T, url string) v1.Scenario {
	r := test.Request(t, http.MethodGet, url, "")
	test.AssertHTTPStatus(t, &r, http.StatusOK)

	var response v1.ScenarioResponse
	test.DecodeResponse(t, &r, &response)
	require.NotNil(t, response.Data)

	return *response.Data
}

func patchScenario(t *testing.T, url string, patch v1.ScenarioPatch, expectedStatus int) v1.ScenarioResponse {
	r := test.Request(t, http.MethodPatch, url, patch)
	test.AssertHTTPStatus(t, &r, expectedStatus)

	var response v1.ScenarioResponse
	test.DecodeResponse(t, &r, &response)
	return response
}

func allocate(t *testing.T, url string, request map[string]any, expectedStatus int) v1.AllocationResponse {
	r := test.Request(t, http.MethodPost, url+"/allocations", request)
	test.AssertHTTPStatus(t, &r, expectedStatus)

	var response v1.AllocationResponse
	test.DecodeResponse(t, &r, &response)
	return response
}

// setupSalesTeam creates three entities and their weights for 2024.
func setupSalesTeam(t *testing.T) (kim, lee, park string) {
	kim = createTestEntity(t, models.EntityEditable{Name: "Kim", GroupLabel: "Sales 1", Position: 1}).Data.ID.String()
	lee = createTestEntity(t, models.EntityEditable{Name: "Lee", GroupLabel: "Sales 1", Position: 2}).Data.ID.String()
	park = createTestEntity(t, models.EntityEditable{Name: "Park", GroupLabel: "Sales 2"}).Data.ID.String()

	createTestWeights(t, []models.WeightEditable{
		{EntityName: "Kim", Year: 2024, SubCategory: "TNT", Amount: decimal.NewFromInt(300)},
		{EntityName: "Lee", Year: 2024, SubCategory: "TNT", Amount: decimal.NewFromInt(100)},
		{EntityName: "Park", Year: 2024, SubCategory: "TNT", Amount: decimal.NewFromInt(100)},
		{EntityName: "Kim", Year: 2023, SubCategory: "TNT", Amount: decimal.NewFromInt(100000)},
	})

	return
}

func (suite *TestSuiteStandard) TestScenarioOptions() {
	tests := []struct {
		path  string
		allow string
	}{
		{"", "OPTIONS, GET, PATCH"},
		{"/allocations", "OPTIONS, POST"},
		{"/confirm", "OPTIONS, POST"},
		{"/export", "OPTIONS, GET"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.path, func(t *testing.T) {
			r := test.Request(t, http.MethodOptions, scenarioURL+tt.path, "")
			test.AssertHTTPStatus(t, &r, http.StatusNoContent)
			assert.Equal(t, tt.allow, r.Header().Get("allow"))
		})
	}
}

func (suite *TestSuiteStandard) TestScenarioGetEmpty() {
	s := getScenario(suite.T(), scenarioURL)

	assert.Equal(suite.T(), 2025, s.Year)
	assert.Equal(suite.T(), planning.VersionBest, s.Version)
	assert.Equal(suite.T(), "Best", s.VersionName)
	assert.Equal(suite.T(), planning.StageDraft, s.Stage)
	assert.Equal(suite.T(), "기안중", s.StageLabel)
	assert.Equal(suite.T(), int64(0), s.Revision)
	assert.False(suite.T(), s.ReadOnly)
	assert.Empty(suite.T(), s.CompanyTotals)
	assert.Empty(suite.T(), s.Assignments)
	assert.NotNil(suite.T(), s.Warnings)
	assert.Equal(suite.T(), scenarioURL+"/allocations", s.Links.Allocations)
}

func (suite *TestSuiteStandard) TestScenarioInvalidURI() {
	tests := []struct {
		name string
		path string
	}{
		{"Year too small", "1899/1"},
		{"Year too large", "10000/1"},
		{"Year not a number", "next/1"},
		{"Version zero", "2025/0"},
		{"Version negative", "2025/-1"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/scenarios/%s", tt.path), "")
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
		})
	}
}

func (suite *TestSuiteStandard) TestScenarioUpdate() {
	kim, lee, _ := setupSalesTeam(suite.T())

	response := patchScenario(suite.T(), scenarioURL, v1.ScenarioPatch{
		Revision:      0,
		CompanyTotals: map[string]int64{"TNT": 100, " DYS ": 5},
		Assignments: map[string]map[string]int64{
			kim: {"TNT": 60},
			lee: {"TNT": 40, "DYS": -3},
		},
	}, http.StatusOK)

	s := response.Data
	assert.Equal(suite.T(), int64(1), s.Revision)
	assert.Equal(suite.T(), map[string]int64{"TNT": 100, "DYS": 5}, s.CompanyTotals)
	assert.Equal(suite.T(), int64(0), s.Assignments[lee]["DYS"], "negative amounts are stored as 0")

	// DYS has a total of 5 but nothing assigned
	require.Len(suite.T(), s.Warnings, 1)
	assert.Equal(suite.T(), "DYS", s.Warnings[0].SubCategory)

	// The saved state is returned on reload
	reloaded := getScenario(suite.T(), scenarioURL)
	assert.Equal(suite.T(), s.Revision, reloaded.Revision)
	assert.Equal(suite.T(), s.Assignments, reloaded.Assignments)

	// Stale revision
	response = patchScenario(suite.T(), scenarioURL, v1.ScenarioPatch{
		Revision:      0,
		CompanyTotals: map[string]int64{"TNT": 200},
	}, http.StatusConflict)
	assert.Contains(suite.T(), *response.Error, planning.ErrRevisionConflict.Error())

	// Current revision
	response = patchScenario(suite.T(), scenarioURL, v1.ScenarioPatch{
		Revision:      1,
		CompanyTotals: map[string]int64{"TNT": 200},
	}, http.StatusOK)
	assert.Equal(suite.T(), int64(2), response.Data.Revision)
	assert.Equal(suite.T(), int64(200), response.Data.CompanyTotals["TNT"])
}

func (suite *TestSuiteStandard) TestScenarioUpdateErrors() {
	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"Empty body", "", http.StatusBadRequest},
		{"Broken body", `{ "revision": "latest" }`, http.StatusBadRequest},
		{"Unknown entity", v1.ScenarioPatch{Assignments: map[string]map[string]int64{"ghost": {"TNT": 1}}}, http.StatusBadRequest},
		{"Empty sub category", v1.ScenarioPatch{CompanyTotals: map[string]int64{" ": 1}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPatch, scenarioURL, tt.body)
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}

	// Nothing has been saved
	assert.Equal(suite.T(), int64(0), getScenario(suite.T(), scenarioURL).Revision)
}

func (suite *TestSuiteStandard) TestScenarioReadOnlyVersion() {
	url := "http://example.com/v1/scenarios/2025/2"

	s := getScenario(suite.T(), url)
	assert.True(suite.T(), s.ReadOnly)
	assert.Equal(suite.T(), "Moderate", s.VersionName)

	response := patchScenario(suite.T(), url, v1.ScenarioPatch{CompanyTotals: map[string]int64{"TNT": 1}}, http.StatusForbidden)
	assert.Equal(suite.T(), planning.ErrVersionReadOnly.Error(), *response.Error)

	allocate(suite.T(), url, map[string]any{"subCategory": "TNT"}, http.StatusForbidden)

	r := test.Request(suite.T(), http.MethodPost, url+"/confirm", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusForbidden)
}

func (suite *TestSuiteStandard) TestScenarioAllocation() {
	kim, lee, park := setupSalesTeam(suite.T())

	response := allocate(suite.T(), scenarioURL, map[string]any{"subCategory": "TNT", "total": 1000}, http.StatusOK)
	result := response.Data.Report

	assert.Equal(suite.T(), "TNT", result.SubCategory)
	assert.Equal(suite.T(), 2024, result.WeightYear)
	assert.Equal(suite.T(), int64(1000), result.Total)
	assert.Equal(suite.T(), int64(1000), result.Assigned)
	assert.False(suite.T(), result.Unweighted)
	assert.Nil(suite.T(), result.Inconsistency)

	require.Len(suite.T(), result.Shares, 3)
	assert.Equal(suite.T(), kim, result.Shares[0].EntityID)
	assert.Equal(suite.T(), int64(600), result.Shares[0].Amount)
	assert.Equal(suite.T(), int64(200), result.Shares[1].Amount)
	assert.Equal(suite.T(), int64(200), result.Shares[2].Amount)

	s := response.Data.Scenario
	assert.Equal(suite.T(), int64(1), s.Revision)
	assert.Equal(suite.T(), int64(1000), s.CompanyTotals["TNT"])
	assert.Equal(suite.T(), int64(600), s.Assignments[kim]["TNT"])
	assert.Equal(suite.T(), int64(200), s.Assignments[lee]["TNT"])
	assert.Equal(suite.T(), int64(200), s.Assignments[park]["TNT"])
	assert.Empty(suite.T(), s.Warnings)
}

func (suite *TestSuiteStandard) TestScenarioAllocationScope() {
	kim, lee, park := setupSalesTeam(suite.T())

	response := allocate(suite.T(), scenarioURL, map[string]any{"subCategory": "TNT", "total": 100}, http.StatusOK)
	assert.Equal(suite.T(), int64(20), response.Data.Scenario.Assignments[park]["TNT"])

	// Only the first group is reallocated, so the sum exceeds the total
	response = allocate(suite.T(), scenarioURL, map[string]any{"subCategory": "TNT", "scope": "Sales 1", "revision": 1}, http.StatusOK)
	result := response.Data.Report

	require.Len(suite.T(), result.Shares, 2)
	assert.Equal(suite.T(), int64(75), response.Data.Scenario.Assignments[kim]["TNT"])
	assert.Equal(suite.T(), int64(25), response.Data.Scenario.Assignments[lee]["TNT"])
	assert.Equal(suite.T(), int64(20), response.Data.Scenario.Assignments[park]["TNT"])

	require.NotNil(suite.T(), result.Inconsistency)
	assert.Equal(suite.T(), int64(120), result.Inconsistency.Assigned)
	assert.Len(suite.T(), response.Data.Scenario.Warnings, 1)

	// Stale revision
	allocate(suite.T(), scenarioURL, map[string]any{"subCategory": "TNT", "revision": 1}, http.StatusConflict)
}

func (suite *TestSuiteStandard) TestScenarioAllocationRemovedEntity() {
	kim, lee, _ := setupSalesTeam(suite.T())
	leaving := createTestEntity(suite.T(), models.EntityEditable{Name: "Choi", GroupLabel: "Sales 1"})

	patchScenario(suite.T(), scenarioURL, v1.ScenarioPatch{
		Assignments: map[string]map[string]int64{leaving.Data.ID.String(): {"TNT": 25}},
	}, http.StatusOK)

	r := test.Request(suite.T(), http.MethodDelete, leaving.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	response := allocate(suite.T(), scenarioURL, map[string]any{"subCategory": "TNT", "scope": "Sales 1", "total": 100}, http.StatusOK)
	result := response.Data.Report

	// The assignment of the removed entity is kept and not corrected
	assert.Equal(suite.T(), int64(75), response.Data.Scenario.Assignments[kim]["TNT"])
	assert.Equal(suite.T(), int64(25), response.Data.Scenario.Assignments[lee]["TNT"])
	assert.Equal(suite.T(), int64(25), response.Data.Scenario.Assignments[leaving.Data.ID.String()]["TNT"])

	require.NotNil(suite.T(), result.Inconsistency)
	assert.Equal(suite.T(), int64(100), result.Inconsistency.Total)
	assert.Equal(suite.T(), int64(125), result.Inconsistency.Assigned)
}

func (suite *TestSuiteStandard) TestScenarioAllocationUnweighted() {
	createTestEntity(suite.T(), models.EntityEditable{Name: "Newcomer"})

	response := allocate(suite.T(), scenarioURL, map[string]any{"subCategory": "TNT", "total": 100}, http.StatusOK)
	result := response.Data.Report

	assert.True(suite.T(), result.Unweighted)
	assert.Equal(suite.T(), int64(0), result.Assigned)
	assert.Nil(suite.T(), result.Inconsistency)
}

func (suite *TestSuiteStandard) TestScenarioAllocationErrors() {
	tests := []struct {
		name    string
		request any
		status  int
	}{
		{"Empty body", "", http.StatusBadRequest},
		{"No sub category", map[string]any{"total": 100}, http.StatusBadRequest},
		{"Blank sub category", map[string]any{"subCategory": "  "}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, scenarioURL+"/allocations", tt.request)
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestScenarioConfirm() {
	setupSalesTeam(suite.T())
	allocate(suite.T(), scenarioURL, map[string]any{"subCategory": "TNT", "total": 1000}, http.StatusOK)

	r := test.Request(suite.T(), http.MethodPost, scenarioURL+"/confirm", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.ScenarioResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Equal(suite.T(), planning.StageConfirmed, response.Data.Stage)
	assert.Equal(suite.T(), "확정", response.Data.StageLabel)
	assert.Equal(suite.T(), int64(1), response.Data.Revision)

	// Confirmed scenarios can not be changed
	patch := patchScenario(suite.T(), scenarioURL, v1.ScenarioPatch{Revision: 1, CompanyTotals: map[string]int64{"TNT": 1}}, http.StatusForbidden)
	assert.Equal(suite.T(), planning.ErrScenarioConfirmed.Error(), *patch.Error)
	allocate(suite.T(), scenarioURL, map[string]any{"subCategory": "TNT"}, http.StatusForbidden)

	// Confirming again does nothing
	r = test.Request(suite.T(), http.MethodPost, scenarioURL+"/confirm", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	s := getScenario(suite.T(), scenarioURL)
	assert.Equal(suite.T(), planning.StageConfirmed, s.Stage)
	assert.Equal(suite.T(), int64(1000), s.CompanyTotals["TNT"])
}

func (suite *TestSuiteStandard) TestScenarioConfirmUnsaved() {
	r := test.Request(suite.T(), http.MethodPost, scenarioURL+"/confirm", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	s := getScenario(suite.T(), scenarioURL)
	assert.Equal(suite.T(), planning.StageConfirmed, s.Stage)
	assert.Equal(suite.T(), int64(1), s.Revision)
}

func (suite *TestSuiteStandard) TestScenarioConfirmRevision() {
	patchScenario(suite.T(), scenarioURL, v1.ScenarioPatch{CompanyTotals: map[string]int64{"TNT": 100}}, http.StatusOK)
	patchScenario(suite.T(), scenarioURL, v1.ScenarioPatch{Revision: 1, CompanyTotals: map[string]int64{"TNT": 999}}, http.StatusOK)

	// Based on a revision that has been overwritten
	r := test.Request(suite.T(), http.MethodPost, scenarioURL+"/confirm", map[string]any{"revision": 1})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusConflict)
	assert.Equal(suite.T(), planning.StageDraft, getScenario(suite.T(), scenarioURL).Stage)

	r = test.Request(suite.T(), http.MethodPost, scenarioURL+"/confirm", `{ "revision": "latest" }`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	r = test.Request(suite.T(), http.MethodPost, scenarioURL+"/confirm", map[string]any{"revision": 2})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	s := getScenario(suite.T(), scenarioURL)
	assert.Equal(suite.T(), planning.StageConfirmed, s.Stage)
	assert.Equal(suite.T(), int64(999), s.CompanyTotals["TNT"])

	// Confirming again is a no-op, also with an old revision
	r = test.Request(suite.T(), http.MethodPost, scenarioURL+"/confirm", map[string]any{"revision": 1})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)
}

func (suite *TestSuiteStandard) TestScenarioLockedBeforeRevision() {
	// A stale revision on a read only version is still forbidden
	url := "http://example.com/v1/scenarios/2025/2"
	patchScenario(suite.T(), url, v1.ScenarioPatch{Revision: 7, CompanyTotals: map[string]int64{"TNT": 1}}, http.StatusForbidden)
	allocate(suite.T(), url, map[string]any{"subCategory": "TNT", "revision": 7}, http.StatusForbidden)

	r := test.Request(suite.T(), http.MethodPost, url+"/confirm", map[string]any{"revision": 7})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusForbidden)

	// Same for confirmed scenarios
	r = test.Request(suite.T(), http.MethodPost, scenarioURL+"/confirm", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	response := patchScenario(suite.T(), scenarioURL, v1.ScenarioPatch{Revision: 0, CompanyTotals: map[string]int64{"TNT": 1}}, http.StatusForbidden)
	assert.Equal(suite.T(), planning.ErrScenarioConfirmed.Error(), *response.Error)
	allocate(suite.T(), scenarioURL, map[string]any{"subCategory": "TNT", "revision": 0}, http.StatusForbidden)
}

func (suite *TestSuiteStandard) TestScenarioExport() {
	setupSalesTeam(suite.T())
	allocate(suite.T(), scenarioURL, map[string]any{"subCategory": "TNT", "total": 1000}, http.StatusOK)

	r := test.Request(suite.T(), http.MethodGet, scenarioURL+"/export", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)
	assert.Equal(suite.T(), report.ContentType, r.Header().Get("Content-Type"))
	assert.Contains(suite.T(), r.Header().Get("Content-Disposition"), "targets-2025-Best.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(r.Body.Bytes()))
	require.NoError(suite.T(), err)
	defer f.Close()

	assert.Equal(suite.T(), []string{report.SheetSummary, report.SheetAssignments}, f.GetSheetList())

	rows, err := f.GetRows(report.SheetAssignments)
	require.NoError(suite.T(), err)
	require.GreaterOrEqual(suite.T(), len(rows), 4)
	assert.Equal(suite.T(), []string{"Sales 1", "Kim", "600"}, rows[1])
}

func (suite *TestSuiteStandard) TestScenarioDBClosed() {
	suite.CloseDB()

	r := test.Request(suite.T(), http.MethodGet, scenarioURL, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusInternalServerError)

	r = test.Request(suite.T(), http.MethodGet, scenarioURL+"/export", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusInternalServerError)
}
