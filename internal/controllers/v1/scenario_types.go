package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/salesops/target-planner/internal/models"
	"github.com/salesops/target-planner/internal/planning"
)

type ScenarioLinks struct {
	Self        string `json:"self" example:"https://example.com/api/v1/scenarios/2025/1"`                    // The scenario itself
	Allocations string `json:"allocations" example:"https://example.com/api/v1/scenarios/2025/1/allocations"` // Endpoint to run allocations
	Confirm     string `json:"confirm" example:"https://example.com/api/v1/scenarios/2025/1/confirm"`         // Endpoint to confirm the scenario
	Export      string `json:"export" example:"https://example.com/api/v1/scenarios/2025/1/export"`           // Spreadsheet export
}

// Scenario is the API representation of a planning scenario.
type Scenario struct {
	Year          int                         `json:"year" example:"2025"`        // Year of the scenario
	Version       planning.VersionNo          `json:"version" example:"1"`        // Version number
	VersionName   string                      `json:"versionName" example:"Best"` // Name of the version
	Stage         planning.Stage              `json:"stage" example:"Draft"`      // Lifecycle stage
	StageLabel    string                      `json:"stageLabel" example:"기안중"`   // Display label of the stage
	Revision      int64                       `json:"revision" example:"3"`       // Revision, needs to be sent with updates
	ReadOnly      bool                        `json:"readOnly" example:"false"`   // Is the version read only?
	CompanyTotals map[string]int64            `json:"companyTotals"`              // Company total per sub category
	Assignments   map[string]map[string]int64 `json:"assignments"`                // Entity ID to sub category to amount
	Warnings      []*planning.Inconsistency   `json:"warnings"`                   // Sub categories whose assignments do not add up to the company total
	Links         ScenarioLinks               `json:"links"`
}

func newScenario(c *gin.Context, session *planning.Session) Scenario {
	url := c.GetString(string(models.DBContextURL))
	s := session.Scenario()
	self := fmt.Sprintf("%s/v1/scenarios/%d/%d", url, s.Key.Year, s.Key.Version)

	warnings := s.Inconsistencies()
	if warnings == nil {
		warnings = make([]*planning.Inconsistency, 0)
	}

	return Scenario{
		Year:          s.Key.Year,
		Version:       s.Key.Version,
		VersionName:   s.Key.Version.String(),
		Stage:         s.Stage,
		StageLabel:    s.Stage.Label(),
		Revision:      s.Revision,
		ReadOnly:      session.ReadOnly(),
		CompanyTotals: s.CompanyTotals,
		Assignments:   s.Assignments,
		Warnings:      warnings,
		Links: ScenarioLinks{
			Self:        self,
			Allocations: self + "/allocations",
			Confirm:     self + "/confirm",
			Export:      self + "/export",
		},
	}
}

type ScenarioResponse struct {
	Data  *Scenario `json:"data"`                                                             // Data for the scenario
	Error *string   `json:"error" example:"the scenario is confirmed and can not be changed"` // The error, if any occurred
}

// ScenarioPatch is a set of edits to a scenario.
//
// The revision must be the revision the edits were made on.
type ScenarioPatch struct {
	Revision      int64                       `json:"revision" example:"3"`
	CompanyTotals map[string]int64            `json:"companyTotals"`
	Assignments   map[string]map[string]int64 `json:"assignments"`
}

type AllocationRequest struct {
	SubCategory string `json:"subCategory" binding:"required" example:"TNT"` // Sub category to allocate
	Scope       string `json:"scope" example:"영업*"`                          // Glob for the group labels to allocate to. Empty for all entities
	Total       *int64 `json:"total" example:"1000"`                         // Sets the company total before the allocation
	Revision    *int64 `json:"revision" example:"3"`                         // If set, must match the current revision
}

type ConfirmationRequest struct {
	Revision *int64 `json:"revision" example:"3"` // If set, must match the current revision
}

type Allocation struct {
	Report   planning.AllocationReport `json:"report"`
	Scenario Scenario                  `json:"scenario"`
}

type AllocationResponse struct {
	Data  *Allocation `json:"data"`                                               // The allocation report and the updated scenario
	Error *string     `json:"error" example:"the sub category must not be empty"` // The error, if any occurred
}
