package planning

import "context"

// TotalEntry is a company total for one sub category.
type TotalEntry struct {
	SubCategory string
	Total       int64
}

// Entry is one persisted assignment.
type Entry struct {
	EntityID    string
	SubCategory string
	Amount      int64
	Stage       Stage
}

// UpsertRequest is a bulk write of a scenario.
type UpsertRequest struct {
	Key   Key
	Stage Stage

	// ExpectedRevision must match the stored revision, 0 for scenarios that have
	// never been written.
	ExpectedRevision int64

	CompanyTotals []TotalEntry
	Entries       []Entry
}

// Gateway stores scenarios.
type Gateway interface {
	// FetchScenario returns the scenario or an error wrapping ErrScenarioNotFound.
	FetchScenario(ctx context.Context, key Key) (Scenario, error)

	// UpsertScenario writes all totals and entries atomically and returns the new revision.
	// A revision mismatch fails with ErrRevisionConflict.
	UpsertScenario(ctx context.Context, req UpsertRequest) (int64, error)

	// ConfirmScenario marks every row of the scenario as confirmed. A stored revision
	// other than expectedRevision fails with ErrRevisionConflict.
	ConfirmScenario(ctx context.Context, key Key, expectedRevision int64) error
}

// WeightProvider returns historical weights for entities, joined by display name.
type WeightProvider interface {
	// FetchWeights returns name -> sub category -> weight for the reference year.
	// Names without weights may be missing from the result.
	FetchWeights(ctx context.Context, names []string, year int) (map[string]map[string]float64, error)
}
