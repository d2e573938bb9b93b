package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ryanuber/go-glob"
	"github.com/salesops/target-planner/internal/httputil"
	"github.com/salesops/target-planner/internal/models"
)

// RegisterEntityRoutes registers the routes for entities with
// the RouterGroup that is passed.
func (co Controller) RegisterEntityRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", co.OptionsEntityList)
		r.GET("", co.GetEntities)
		r.POST("", co.CreateEntities)
	}

	// Entity with ID
	{
		r.OPTIONS("/:id", co.OptionsEntityDetail)
		r.GET("/:id", co.GetEntity)
		r.PATCH("/:id", co.UpdateEntity)
		r.DELETE("/:id", co.DeleteEntity)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Entities
// @Success		204
// @Router			/v1/entities [options]
func (co Controller) OptionsEntityList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Entities
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/entities/{id} [options]
func (co Controller) OptionsEntityDetail(c *gin.Context) {
	_, err := getEntity(c)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// getEntity returns the entity with the ID in the URI.
func getEntity(c *gin.Context) (models.Entity, error) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		return models.Entity{}, fmt.Errorf("%w: %w", httputil.ErrInvalidPath, err)
	}

	id, err := uri.parse()
	if err != nil {
		return models.Entity{}, err
	}

	var entity models.Entity
	err = models.DB.WithContext(c.Request.Context()).First(&entity, "id = ?", id).Error
	if err != nil {
		return models.Entity{}, err
	}

	return entity, nil
}

// @Summary		Create entities
// @Description	Creates new entities
// @Tags			Entities
// @Produce		json
// @Success		201			{object}	EntityCreateResponse
// @Failure		400			{object}	EntityCreateResponse
// @Failure		500			{object}	EntityCreateResponse
// @Param			entities	body		[]models.EntityEditable	true	"Entities"
// @Router			/v1/entities [post]
func (co Controller) CreateEntities(c *gin.Context) {
	var editables []models.EntityEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EntityCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := EntityCreateResponse{}

	for _, editable := range editables {
		entity := models.Entity{EntityEditable: editable}

		err = models.DB.WithContext(c.Request.Context()).Create(&entity).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newEntity(c, entity)
		r.Data = append(r.Data, EntityResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get entities
// @Description	Returns all entities in display order
// @Tags			Entities
// @Produce		json
// @Success		200		{object}	EntityListResponse
// @Failure		500		{object}	EntityListResponse
// @Param			group	query		string	false	"Glob for the group label"
// @Param			name	query		string	false	"Glob for the name"
// @Router			/v1/entities [get]
func (co Controller) GetEntities(c *gin.Context) {
	var filter EntityQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	entities, err := co.Store.Entities(c.Request.Context())
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EntityListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Entity, 0)
	for _, entity := range entities {
		if filter.Group != "" && !glob.Glob(filter.Group, entity.GroupLabel) {
			continue
		}

		if filter.Name != "" && !glob.Glob(filter.Name, entity.Name) {
			continue
		}

		data = append(data, newEntity(c, entity))
	}

	c.JSON(http.StatusOK, EntityListResponse{
		Data: data,
	})
}

// @Summary		Get entity
// @Description	Returns a specific entity
// @Tags			Entities
// @Produce		json
// @Success		200	{object}	EntityResponse
// @Failure		400	{object}	EntityResponse
// @Failure		404	{object}	EntityResponse
// @Failure		500	{object}	EntityResponse
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/entities/{id} [get]
func (co Controller) GetEntity(c *gin.Context) {
	entity, err := getEntity(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EntityResponse{
			Error: &e,
		})
		return
	}

	data := newEntity(c, entity)
	c.JSON(http.StatusOK, EntityResponse{
		Data: &data,
	})
}

// @Summary		Update entity
// @Description	Updates an entity. Only values to be updated need to be specified.
// @Tags			Entities
// @Accept			json
// @Produce		json
// @Success		200		{object}	EntityResponse
// @Failure		400		{object}	EntityResponse
// @Failure		404		{object}	EntityResponse
// @Failure		500		{object}	EntityResponse
// @Param			id		path		string		true	"ID formatted as string"
// @Param			entity	body		EntityPatch	true	"Entity"
// @Router			/v1/entities/{id} [patch]
func (co Controller) UpdateEntity(c *gin.Context) {
	entity, err := getEntity(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EntityResponse{
			Error: &e,
		})
		return
	}

	var patch EntityPatch
	err = httputil.BindData(c, &patch)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EntityResponse{
			Error: &e,
		})
		return
	}

	patch.apply(&entity)
	err = models.DB.WithContext(c.Request.Context()).Save(&entity).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EntityResponse{
			Error: &e,
		})
		return
	}

	data := newEntity(c, entity)
	c.JSON(http.StatusOK, EntityResponse{
		Data: &data,
	})
}

// @Summary		Delete entity
// @Description	Deletes an entity. Assignments of the entity are kept in their scenarios.
// @Tags			Entities
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/entities/{id} [delete]
func (co Controller) DeleteEntity(c *gin.Context) {
	entity, err := getEntity(c)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.WithContext(c.Request.Context()).Delete(&entity).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}
