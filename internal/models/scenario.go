package models

import "github.com/salesops/target-planner/internal/planning"

// Scenario is the header row of a planning scenario. It holds the stage and the
// revision used to detect lost updates.
type Scenario struct {
	Timestamps
	Year     int                `gorm:"primaryKey;autoIncrement:false"`
	Version  planning.VersionNo `gorm:"primaryKey;autoIncrement:false"`
	Stage    planning.Stage
	Revision int64
}

// CompanyTarget is the company total of one sub category in a scenario.
type CompanyTarget struct {
	Timestamps
	Year        int                `gorm:"primaryKey;autoIncrement:false"`
	Version     planning.VersionNo `gorm:"primaryKey;autoIncrement:false"`
	SubCategory string             `gorm:"primaryKey"`
	Total       int64
	Stage       planning.Stage
}

// Assignment is the amount assigned to an entity for one sub category in a scenario.
type Assignment struct {
	Timestamps
	Year        int                `gorm:"primaryKey;autoIncrement:false"`
	Version     planning.VersionNo `gorm:"primaryKey;autoIncrement:false"`
	EntityID    string             `gorm:"primaryKey"`
	SubCategory string             `gorm:"primaryKey"`
	Amount      int64
	Stage       planning.Stage
}
