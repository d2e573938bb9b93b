package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/salesops/target-planner/internal/httputil"
	"github.com/salesops/target-planner/internal/models"
	"github.com/salesops/target-planner/internal/planning"
)

// RegisterWeightRoutes registers the routes for weights with
// the RouterGroup that is passed.
func (co Controller) RegisterWeightRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", co.OptionsWeightList)
	r.GET("", co.GetWeights)
	r.POST("", co.CreateWeights)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Weights
// @Success		204
// @Router			/v1/weights [options]
func (co Controller) OptionsWeightList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Create weights
// @Description	Creates historical weights. Weights for the same name, year and sub category add up.
// @Tags			Weights
// @Produce		json
// @Success		201		{object}	WeightCreateResponse
// @Failure		400		{object}	WeightCreateResponse
// @Failure		500		{object}	WeightCreateResponse
// @Param			weights	body		[]models.WeightEditable	true	"Weights"
// @Router			/v1/weights [post]
func (co Controller) CreateWeights(c *gin.Context) {
	var editables []models.WeightEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), WeightCreateResponse{
			Error: &e,
		})
		return
	}

	status := http.StatusCreated
	r := WeightCreateResponse{}

	for _, editable := range editables {
		weight := models.Weight{WeightEditable: editable}

		err = models.DB.WithContext(c.Request.Context()).Create(&weight).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		r.Data = append(r.Data, WeightResponse{Data: &weight})
	}

	c.JSON(status, r)
}

// @Summary		Get weights
// @Description	Returns a list of weights
// @Tags			Weights
// @Produce		json
// @Success		200			{object}	WeightListResponse
// @Failure		400			{object}	WeightListResponse
// @Failure		500			{object}	WeightListResponse
// @Param			year		query		int		false	"Filter by year"
// @Param			name		query		string	false	"Filter by entity name"
// @Param			subCategory	query		string	false	"Filter by sub category"
// @Router			/v1/weights [get]
func (co Controller) GetWeights(c *gin.Context) {
	var filter WeightQueryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		e := httputil.ErrInvalidQueryString.Error()
		c.JSON(http.StatusBadRequest, WeightListResponse{
			Error: &e,
		})
		return
	}

	q := models.DB.WithContext(c.Request.Context()).Order("year DESC, entity_name ASC, sub_category ASC")

	if filter.Year != 0 {
		q = q.Where("year = ?", filter.Year)
	}

	if filter.Name != "" {
		q = q.Where("entity_name = ?", planning.NormalizeName(filter.Name))
	}

	if filter.SubCategory != "" {
		q = q.Where("sub_category = ?", strings.TrimSpace(filter.SubCategory))
	}

	weights := make([]models.Weight, 0)
	err := q.Find(&weights).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), WeightListResponse{
			Error: &e,
		})
		return
	}

	c.JSON(http.StatusOK, WeightListResponse{
		Data: weights,
	})
}
