package v1

import (
	"github.com/google/uuid"
	"github.com/salesops/target-planner/internal/httputil"
	"github.com/salesops/target-planner/internal/planning"
)

type URIID struct {
	ID string `uri:"id" binding:"required" format:"UUID"` // ID of the resource
}

func (u URIID) parse() (uuid.UUID, error) {
	return httputil.UUIDFromString(u.ID)
}

type URIScenario struct {
	Year    int `uri:"year" binding:"required,gte=1900,lte=9999" example:"2025"` // Year of the scenario
	Version int `uri:"version" binding:"required,gte=1" example:"1"`             // Version number of the scenario
}

func (u URIScenario) key() planning.Key {
	return planning.Key{Year: u.Year, Version: planning.VersionNo(u.Version)}
}
