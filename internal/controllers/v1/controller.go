// Package v1 contains the handlers of the v1 API.
package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/salesops/target-planner/internal/httputil"
	"github.com/salesops/target-planner/internal/models"
	"github.com/salesops/target-planner/internal/planning"
)

// Controller holds the dependencies of the handlers.
type Controller struct {
	Store   *models.Store
	Manager *planning.Manager
}

// NewController returns a Controller.
func NewController(store *models.Store, manager *planning.Manager) Controller {
	return Controller{
		Store:   store,
		Manager: manager,
	}
}

type httpError struct {
	Error string `json:"error" example:"the specified resource ID is not a valid UUID"`
}

// clientErrors are caused by the request and answered with 400.
var clientErrors = []error{
	httputil.ErrInvalidBody,
	httputil.ErrRequestBodyEmpty,
	httputil.ErrInvalidUUID,
	httputil.ErrInvalidQueryString,
	httputil.ErrInvalidPath,
	models.ErrEntityNameEmpty,
	models.ErrWeightNegative,
	models.ErrWeightYear,
	planning.ErrUnknownEntity,
	planning.ErrSubCategoryEmpty,
	planning.ErrInvalidKey,
	planning.ErrUnknownStage,
}

// status returns the appropriate HTTP status for an error.
//
// Errors that are not known to be caused by the request are server errors.
func status(err error) int {
	switch {
	case errors.Is(err, models.ErrGeneral):
		return http.StatusInternalServerError
	case errors.Is(err, models.ErrResourceNotFound), errors.Is(err, planning.ErrScenarioNotFound):
		return http.StatusNotFound
	case errors.Is(err, planning.ErrRevisionConflict):
		return http.StatusConflict
	case errors.Is(err, planning.ErrScenarioConfirmed), errors.Is(err, planning.ErrVersionReadOnly):
		return http.StatusForbidden
	}

	for _, e := range clientErrors {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}

	return http.StatusInternalServerError
}

// session loads the planning session for the scenario in the URI.
func (co Controller) session(c *gin.Context) (*planning.Session, error) {
	var uri URIScenario
	if err := c.ShouldBindUri(&uri); err != nil {
		return nil, fmt.Errorf("%w: %w", httputil.ErrInvalidPath, err)
	}

	entities, err := co.Store.PlanningEntities(c.Request.Context())
	if err != nil {
		return nil, err
	}

	return co.Manager.Load(c.Request.Context(), uri.key(), entities)
}

// sessionOrError loads the session and writes the error response if that fails.
func (co Controller) sessionOrError(c *gin.Context) (*planning.Session, bool) {
	session, err := co.session(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ScenarioResponse{Error: &e})
		return nil, false
	}

	return session, true
}
