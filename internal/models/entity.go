package models

import (
	"strings"

	"github.com/salesops/target-planner/internal/planning"
	"gorm.io/gorm"
)

// Entity is a target of the allocation, usually a salesperson.
//
// Names are not unique. The same person can be listed in several groups.
type Entity struct {
	DefaultModel
	EntityEditable
}

type EntityEditable struct {
	Name       string `json:"name" gorm:"index" example:"김민수"`           // Display name, used to look up weights
	GroupLabel string `json:"groupLabel" gorm:"index" example:"영업1팀"`    // Organizational group. Only used for display and allocation scopes
	Position   int    `json:"position" example:"3" default:"0"`          // Sort position within the group
	Note       string `json:"note" example:"Joined in March" default:""` // A note
}

func (e *Entity) BeforeSave(_ *gorm.DB) error {
	e.Name = planning.NormalizeName(e.Name)
	e.GroupLabel = strings.TrimSpace(e.GroupLabel)
	e.Note = strings.TrimSpace(e.Note)

	if e.Name == "" {
		return ErrEntityNameEmpty
	}

	return nil
}

// Planning returns the entity as used by the planning package.
func (e Entity) Planning() planning.Entity {
	return planning.Entity{
		ID:         e.ID.String(),
		Name:       e.Name,
		GroupLabel: e.GroupLabel,
	}
}
