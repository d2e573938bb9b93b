package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/salesops/target-planner/internal/models"
)

type EntityLinks struct {
	Self string `json:"self" example:"https://example.com/api/v1/entities/3b1ea324-d438-4419-882a-2fc91d71772f"` // The entity itself
}

type Entity struct {
	models.Entity
	Links EntityLinks `json:"links"`
}

func newEntity(c *gin.Context, model models.Entity) Entity {
	url := c.GetString(string(models.DBContextURL))

	return Entity{
		Entity: model,
		Links: EntityLinks{
			Self: fmt.Sprintf("%s/v1/entities/%s", url, model.ID),
		},
	}
}

// EntityPatch contains the fields of an entity that can be updated. Fields that are
// not set are not changed.
type EntityPatch struct {
	Name       *string `json:"name" example:"김민수"`
	GroupLabel *string `json:"groupLabel" example:"영업1팀"`
	Position   *int    `json:"position" example:"3"`
	Note       *string `json:"note" example:"Joined in March"`
}

func (p EntityPatch) apply(e *models.Entity) {
	if p.Name != nil {
		e.Name = *p.Name
	}

	if p.GroupLabel != nil {
		e.GroupLabel = *p.GroupLabel
	}

	if p.Position != nil {
		e.Position = *p.Position
	}

	if p.Note != nil {
		e.Note = *p.Note
	}
}

type EntityQueryFilter struct {
	Group string `form:"group"` // Glob for the group label
	Name  string `form:"name"`  // Glob for the name
}

type EntityListResponse struct {
	Data  []Entity `json:"data"`                                                          // List of entities
	Error *string  `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type EntityCreateResponse struct {
	Data  []EntityResponse `json:"data"`                                                          // List of the created entities or their respective error
	Error *string          `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (e *EntityCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	e.Data = append(e.Data, EntityResponse{Error: &s})

	// Set status code to error status. If the previous status
	// was already an error, keep it
	if currentStatus == http.StatusCreated {
		return status(err)
	}

	return currentStatus
}

type EntityResponse struct {
	Data  *Entity `json:"data"`                                                          // Data for the entity
	Error *string `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred for this entity
}
