package models

import (
	"strings"

	"github.com/salesops/target-planner/internal/planning"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Weight is a historical figure of an entity, e.g. the sales of a year for one company.
//
// Weights reference entities by display name, not by ID. Several rows for the same
// name, year and sub category are summed up.
type Weight struct {
	DefaultModel
	WeightEditable
}

type WeightEditable struct {
	EntityName  string          `json:"entityName" gorm:"index:weight_lookup" example:"김민수"`                                                  // Display name of the entity
	Year        int             `json:"year" gorm:"index:weight_lookup;check:weight_year_range,year >= 1900 AND year <= 9999" example:"2024"` // Year the figure was recorded in
	SubCategory string          `json:"subCategory" example:"TNT"`                                                                            // Company or business area
	Amount      decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8);check:weight_amount_not_negative,amount >= 0" example:"1523.5"`       // The figure. Must not be negative
}

func (w *Weight) BeforeSave(_ *gorm.DB) error {
	w.EntityName = planning.NormalizeName(w.EntityName)
	w.SubCategory = strings.TrimSpace(w.SubCategory)
	return nil
}
