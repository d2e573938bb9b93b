package v1

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/salesops/target-planner/internal/httputil"
	"github.com/salesops/target-planner/internal/planning"
	"github.com/salesops/target-planner/internal/report"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// RegisterScenarioRoutes registers the routes for scenarios with
// the RouterGroup that is passed.
func (co Controller) RegisterScenarioRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/:year/:version", co.OptionsScenario)
	r.GET("/:year/:version", co.GetScenario)
	r.PATCH("/:year/:version", co.UpdateScenario)

	r.OPTIONS("/:year/:version/allocations", co.OptionsScenarioAction)
	r.POST("/:year/:version/allocations", co.CreateAllocation)

	r.OPTIONS("/:year/:version/confirm", co.OptionsScenarioAction)
	r.POST("/:year/:version/confirm", co.ConfirmScenario)

	r.OPTIONS("/:year/:version/export", co.OptionsScenarioExport)
	r.GET("/:year/:version/export", co.ExportScenario)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Scenarios
// @Success		204
// @Param			year	path	int	true	"Year"
// @Param			version	path	int	true	"Version number"
// @Router			/v1/scenarios/{year}/{version} [options]
func (co Controller) OptionsScenario(c *gin.Context) {
	httputil.OptionsGetPatch(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Scenarios
// @Success		204
// @Router			/v1/scenarios/{year}/{version}/allocations [options]
// @Router			/v1/scenarios/{year}/{version}/confirm [options]
func (co Controller) OptionsScenarioAction(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Scenarios
// @Success		204
// @Router			/v1/scenarios/{year}/{version}/export [options]
func (co Controller) OptionsScenarioExport(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Get scenario
// @Description	Returns the scenario. Scenarios that have never been saved are returned as empty drafts.
// @Tags			Scenarios
// @Produce		json
// @Success		200		{object}	ScenarioResponse
// @Failure		400		{object}	ScenarioResponse
// @Failure		500		{object}	ScenarioResponse
// @Param			year	path		int	true	"Year"
// @Param			version	path		int	true	"Version number"
// @Router			/v1/scenarios/{year}/{version} [get]
func (co Controller) GetScenario(c *gin.Context) {
	session, ok := co.sessionOrError(c)
	if !ok {
		return
	}

	data := newScenario(c, session)
	c.JSON(http.StatusOK, ScenarioResponse{Data: &data})
}

// @Summary		Update scenario
// @Description	Sets company totals and assignments and saves the scenario as draft
// @Tags			Scenarios
// @Accept			json
// @Produce		json
// @Success		200			{object}	ScenarioResponse
// @Failure		400			{object}	ScenarioResponse
// @Failure		403			{object}	ScenarioResponse
// @Failure		409			{object}	ScenarioResponse
// @Failure		500			{object}	ScenarioResponse
// @Param			year		path		int				true	"Year"
// @Param			version		path		int				true	"Version number"
// @Param			scenario	body		ScenarioPatch	true	"Edits"
// @Router			/v1/scenarios/{year}/{version} [patch]
func (co Controller) UpdateScenario(c *gin.Context) {
	session, ok := co.sessionOrError(c)
	if !ok {
		return
	}

	var patch ScenarioPatch
	err := httputil.BindData(c, &patch)
	if err == nil {
		err = applyPatch(session, patch)
	}

	if err == nil {
		err = session.Save(c.Request.Context())
	}

	if err != nil {
		e := err.Error()
		c.JSON(status(err), ScenarioResponse{Error: &e})
		return
	}

	data := newScenario(c, session)
	c.JSON(http.StatusOK, ScenarioResponse{Data: &data})
}

// checkRevision verifies that the request is based on the current revision.
// Scenarios that can not be changed are rejected first.
func checkRevision(session *planning.Session, revision int64) error {
	if err := session.CheckMutable(); err != nil {
		return err
	}

	if current := session.Scenario().Revision; current != revision {
		return fmt.Errorf("%w: the scenario is at revision %d, the request is based on %d", planning.ErrRevisionConflict, current, revision)
	}
	return nil
}

// applyPatch applies the edits in a stable order, company totals first.
func applyPatch(session *planning.Session, patch ScenarioPatch) error {
	if err := checkRevision(session, patch.Revision); err != nil {
		return err
	}

	subs := maps.Keys(patch.CompanyTotals)
	slices.Sort(subs)
	for _, sub := range subs {
		if err := session.SetCompanyTotal(sub, patch.CompanyTotals[sub]); err != nil {
			return err
		}
	}

	ids := maps.Keys(patch.Assignments)
	slices.Sort(ids)
	for _, id := range ids {
		subs := maps.Keys(patch.Assignments[id])
		slices.Sort(subs)

		for _, sub := range subs {
			if err := session.SetAssignment(id, sub, patch.Assignments[id][sub]); err != nil {
				return fmt.Errorf("%w: %s", err, id)
			}
		}
	}

	return nil
}

// @Summary		Run allocation
// @Description	Distributes the company total of a sub category to the entities by their weights of the previous year and saves the scenario as draft.
// @Description	If the assignments do not add up to the company total afterwards, the report contains the inconsistency.
// @Tags			Scenarios
// @Accept			json
// @Produce		json
// @Success		200			{object}	AllocationResponse
// @Failure		400			{object}	AllocationResponse
// @Failure		403			{object}	AllocationResponse
// @Failure		409			{object}	AllocationResponse
// @Failure		500			{object}	AllocationResponse
// @Param			year		path		int					true	"Year"
// @Param			version		path		int					true	"Version number"
// @Param			allocation	body		AllocationRequest	true	"Allocation"
// @Router			/v1/scenarios/{year}/{version}/allocations [post]
func (co Controller) CreateAllocation(c *gin.Context) {
	session, ok := co.sessionOrError(c)
	if !ok {
		return
	}

	var request AllocationRequest
	if err := httputil.BindData(c, &request); err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	result, err := co.allocate(c, session, request)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, AllocationResponse{Data: &Allocation{
		Report:   result,
		Scenario: newScenario(c, session),
	}})
}

func (co Controller) allocate(c *gin.Context, session *planning.Session, request AllocationRequest) (planning.AllocationReport, error) {
	if request.Revision != nil {
		if err := checkRevision(session, *request.Revision); err != nil {
			return planning.AllocationReport{}, err
		}
	}

	if request.Total != nil {
		if err := session.SetCompanyTotal(request.SubCategory, *request.Total); err != nil {
			return planning.AllocationReport{}, err
		}
	}

	result, err := session.RunAllocation(c.Request.Context(), request.SubCategory, request.Scope)
	if err != nil {
		return planning.AllocationReport{}, err
	}

	if err := session.Save(c.Request.Context()); err != nil {
		return planning.AllocationReport{}, err
	}

	return result, nil
}

// @Summary		Confirm scenario
// @Description	Sets the stage of the scenario to confirmed. Confirmed scenarios can not be changed anymore.
// @Description	The stored revision must match the revision in the body, if one is sent.
// @Tags			Scenarios
// @Accept			json
// @Produce		json
// @Success		200			{object}	ScenarioResponse
// @Failure		400			{object}	ScenarioResponse
// @Failure		403			{object}	ScenarioResponse
// @Failure		409			{object}	ScenarioResponse
// @Failure		500			{object}	ScenarioResponse
// @Param			year		path		int					true	"Year"
// @Param			version		path		int					true	"Version number"
// @Param			confirmation	body		ConfirmationRequest	false	"Confirmation"
// @Router			/v1/scenarios/{year}/{version}/confirm [post]
func (co Controller) ConfirmScenario(c *gin.Context) {
	session, ok := co.sessionOrError(c)
	if !ok {
		return
	}

	// The body is optional
	var request ConfirmationRequest
	err := httputil.BindData(c, &request)
	if err != nil && !errors.Is(err, httputil.ErrRequestBodyEmpty) {
		e := err.Error()
		c.JSON(status(err), ScenarioResponse{Error: &e})
		return
	}

	// Confirming a confirmed scenario is a no-op regardless of the revision
	if request.Revision != nil && session.Scenario().Stage != planning.StageConfirmed {
		if err := checkRevision(session, *request.Revision); err != nil {
			e := err.Error()
			c.JSON(status(err), ScenarioResponse{Error: &e})
			return
		}
	}

	if err := session.Confirm(c.Request.Context()); err != nil {
		e := err.Error()
		c.JSON(status(err), ScenarioResponse{Error: &e})
		return
	}

	data := newScenario(c, session)
	c.JSON(http.StatusOK, ScenarioResponse{Data: &data})
}

// @Summary		Export scenario
// @Description	Returns the scenario as XLSX workbook
// @Tags			Scenarios
// @Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success		200
// @Failure		400		{object}	httpError
// @Failure		500		{object}	httpError
// @Param			year	path		int	true	"Year"
// @Param			version	path		int	true	"Version number"
// @Router			/v1/scenarios/{year}/{version}/export [get]
func (co Controller) ExportScenario(c *gin.Context) {
	session, err := co.session(c)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	scenario := session.Scenario()

	var buf bytes.Buffer
	if err := report.Write(&buf, scenario, session.Entities()); err != nil {
		c.JSON(http.StatusInternalServerError, httpError{Error: err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", report.Filename(scenario.Key)))
	c.Data(http.StatusOK, report.ContentType, buf.Bytes())
}
