package planning

import (
	"errors"
	"fmt"
)

var (
	ErrScenarioNotFound        = errors.New("there is no scenario for this year and version")
	ErrScenarioConfirmed       = errors.New("the scenario is confirmed and can not be changed")
	ErrVersionReadOnly         = errors.New("this scenario version is read only")
	ErrRevisionConflict        = errors.New("the scenario has been changed by someone else, reload it and try again")
	ErrUnknownEntity           = errors.New("the entity is not part of this scenario")
	ErrUnknownStage            = errors.New("unknown stage")
	ErrInvalidKey              = errors.New("invalid scenario key")
	ErrSubCategoryEmpty        = errors.New("the sub category must not be empty")
	ErrAllocationInconsistency = errors.New("the assigned amounts do not add up to the company total")
	ErrDuplicateEntity         = errors.New("an entity can only be part of a scenario once")
)

// Inconsistency describes a mismatch between a company total and the sum of its assignments
// that was observed after an allocation run.
type Inconsistency struct {
	Key         Key    `json:"key"`
	SubCategory string `json:"subCategory"`
	Total       int64  `json:"total"`
	Assigned    int64  `json:"assigned"`
}

func (i *Inconsistency) Error() string {
	return fmt.Sprintf("%s: %s %s: total %d, assigned %d", ErrAllocationInconsistency, i.Key, i.SubCategory, i.Total, i.Assigned)
}

func (i *Inconsistency) Unwrap() error {
	return ErrAllocationInconsistency
}
