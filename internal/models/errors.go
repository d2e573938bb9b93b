package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")
	ErrWeightNegative   = errors.New("weights must not be negative")
	ErrWeightYear       = errors.New("the year of a weight must be between 1900 and 9999")
	ErrEntityNameEmpty  = errors.New("the name of an entity must not be empty")
)
