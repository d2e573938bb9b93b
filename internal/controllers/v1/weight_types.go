package v1

import (
	"net/http"

	"github.com/salesops/target-planner/internal/models"
)

type WeightQueryFilter struct {
	Year        int    `form:"year" binding:"omitempty,gte=1900,lte=9999"` // By year
	Name        string `form:"name"`                                       // By entity name
	SubCategory string `form:"subCategory"`                                // By sub category
}

type WeightListResponse struct {
	Data  []models.Weight `json:"data"`                                                      // List of weights
	Error *string         `json:"error" example:"the year of a weight must be between 1900"` // The error, if any occurred
}

type WeightCreateResponse struct {
	Data  []WeightResponse `json:"data"`                                                          // List of the created weights or their respective error
	Error *string          `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (w *WeightCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	w.Data = append(w.Data, WeightResponse{Error: &s})

	if currentStatus == http.StatusCreated {
		return status(err)
	}

	return currentStatus
}

type WeightResponse struct {
	Data  *models.Weight `json:"data"`                                         // Data for the weight
	Error *string        `json:"error" example:"weights must not be negative"` // The error, if any occurred for this weight
}
