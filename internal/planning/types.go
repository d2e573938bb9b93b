package planning

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/text/unicode/norm"
)

// VersionNo identifies one planning alternative for a year.
type VersionNo int

const (
	VersionBest     VersionNo = 1
	VersionModerate VersionNo = 2
)

func (v VersionNo) String() string {
	switch v {
	case VersionBest:
		return "Best"
	case VersionModerate:
		return "Moderate"
	default:
		return fmt.Sprintf("v%d", int(v))
	}
}

// Stage is the lifecycle position of a scenario.
type Stage string

const (
	StageDraft     Stage = "Draft"
	StageConfirmed Stage = "Confirmed"
)

// Labels used by the sales console for the stages.
const (
	labelDraft     = "기안중"
	labelConfirmed = "확정"
)

// ParseStage parses both the English and the Korean stage names.
func ParseStage(s string) (Stage, error) {
	switch strings.TrimSpace(s) {
	case "", string(StageDraft), "draft", labelDraft:
		return StageDraft, nil
	case string(StageConfirmed), "confirmed", labelConfirmed:
		return StageConfirmed, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownStage, s)
}

// Label returns the Korean label of the stage.
func (s Stage) Label() string {
	if s == StageConfirmed {
		return labelConfirmed
	}
	return labelDraft
}

func (s Stage) MarshalText() ([]byte, error) {
	if s == "" {
		return []byte(StageDraft), nil
	}
	return []byte(s), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	parsed, err := ParseStage(string(text))
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}

// Key identifies a scenario.
type Key struct {
	Year    int       `json:"year"`
	Version VersionNo `json:"version"`
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%s", k.Year, k.Version)
}

// Validate checks that the key can identify a scenario.
func (k Key) Validate() error {
	if k.Year < 1900 || k.Year > 9999 {
		return fmt.Errorf("%w: year %d is out of range", ErrInvalidKey, k.Year)
	}

	if k.Version < 1 {
		return fmt.Errorf("%w: version must be 1 or larger", ErrInvalidKey)
	}

	return nil
}

// Entity is a target of the allocation, usually a salesperson.
type Entity struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	GroupLabel string `json:"groupLabel"`
}

// NormalizeName returns the form of a display name used to join entities with
// their weights.
//
// TODO: join weights on a stable entity identifier once the weight source exposes one.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Scenario is one (year, version) combination of company totals and per-entity assignments.
type Scenario struct {
	Key           Key                         `json:"key"`
	Stage         Stage                       `json:"stage"`
	Revision      int64                       `json:"revision"`
	CompanyTotals map[string]int64            `json:"companyTotals"`
	Assignments   map[string]map[string]int64 `json:"assignments"` // entity ID -> sub category -> amount
}

// NewScenario returns an empty draft scenario.
func NewScenario(key Key) Scenario {
	return Scenario{
		Key:           key,
		Stage:         StageDraft,
		CompanyTotals: make(map[string]int64),
		Assignments:   make(map[string]map[string]int64),
	}
}

// Clone returns a deep copy of the scenario.
func (s Scenario) Clone() Scenario {
	c := s
	c.CompanyTotals = maps.Clone(s.CompanyTotals)
	if c.CompanyTotals == nil {
		c.CompanyTotals = make(map[string]int64)
	}

	c.Assignments = make(map[string]map[string]int64, len(s.Assignments))
	for id, amounts := range s.Assignments {
		c.Assignments[id] = maps.Clone(amounts)
	}

	return c
}

// Editable reports whether the stage allows edits.
func (s Scenario) Editable() bool {
	return s.Stage != StageConfirmed
}

// AssignedSum returns the sum of all assignments for a sub category.
func (s Scenario) AssignedSum(subCategory string) int64 {
	var sum int64
	for _, amounts := range s.Assignments {
		sum += amounts[subCategory]
	}
	return sum
}

// Inconsistencies returns a mismatch for every sub category whose assignments do not
// add up to its company total.
func (s Scenario) Inconsistencies() []*Inconsistency {
	var result []*Inconsistency
	for _, sub := range s.SubCategories() {
		total, assigned := s.CompanyTotals[sub], s.AssignedSum(sub)
		if total != assigned {
			result = append(result, &Inconsistency{Key: s.Key, SubCategory: sub, Total: total, Assigned: assigned})
		}
	}
	return result
}

// SubCategories returns all sub categories with a total or an assignment, sorted by name.
func (s Scenario) SubCategories() []string {
	set := make(map[string]struct{})
	for sub := range s.CompanyTotals {
		set[sub] = struct{}{}
	}

	for _, amounts := range s.Assignments {
		for sub := range amounts {
			set[sub] = struct{}{}
		}
	}

	subs := maps.Keys(set)
	slices.Sort(subs)
	return subs
}
