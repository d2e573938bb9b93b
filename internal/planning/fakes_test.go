package planning_test

import (
	"context"
	"sync"

	"github.com/salesops/target-planner/internal/planning"
)

// memoryGateway is an in-memory Gateway and WeightProvider.
type memoryGateway struct {
	mu        sync.Mutex
	scenarios map[planning.Key]planning.Scenario
	weights   map[int]map[string]map[string]float64 // year -> name -> sub category -> weight

	fetchErr   error
	upsertErr  error
	confirmErr error
	weightErr  error

	upserts      int
	confirms     int
	weightYears  []int
	weightLookup [][]string
}

func newMemoryGateway() *memoryGateway {
	return &memoryGateway{
		scenarios: make(map[planning.Key]planning.Scenario),
		weights:   make(map[int]map[string]map[string]float64),
	}
}

func (g *memoryGateway) setWeight(year int, name, sub string, value float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.weights[year] == nil {
		g.weights[year] = make(map[string]map[string]float64)
	}
	if g.weights[year][name] == nil {
		g.weights[year][name] = make(map[string]float64)
	}
	g.weights[year][name][sub] += value
}

func (g *memoryGateway) FetchScenario(_ context.Context, key planning.Key) (planning.Scenario, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fetchErr != nil {
		return planning.Scenario{}, g.fetchErr
	}

	s, ok := g.scenarios[key]
	if !ok {
		return planning.Scenario{}, planning.ErrScenarioNotFound
	}
	return s.Clone(), nil
}

func (g *memoryGateway) UpsertScenario(_ context.Context, req planning.UpsertRequest) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.upsertErr != nil {
		return 0, g.upsertErr
	}

	current, ok := g.scenarios[req.Key]
	if !ok {
		current = planning.NewScenario(req.Key)
	}

	if current.Revision != req.ExpectedRevision {
		return 0, planning.ErrRevisionConflict
	}

	if current.Stage == planning.StageConfirmed {
		return 0, planning.ErrScenarioConfirmed
	}

	for _, t := range req.CompanyTotals {
		current.CompanyTotals[t.SubCategory] = t.Total
	}

	for _, e := range req.Entries {
		if current.Assignments[e.EntityID] == nil {
			current.Assignments[e.EntityID] = make(map[string]int64)
		}
		current.Assignments[e.EntityID][e.SubCategory] = e.Amount
	}

	current.Stage = req.Stage
	current.Revision++
	g.scenarios[req.Key] = current
	g.upserts++

	return current.Revision, nil
}

func (g *memoryGateway) ConfirmScenario(_ context.Context, key planning.Key, expectedRevision int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.confirmErr != nil {
		return g.confirmErr
	}

	s, ok := g.scenarios[key]
	if !ok {
		return planning.ErrScenarioNotFound
	}

	if s.Revision != expectedRevision {
		return planning.ErrRevisionConflict
	}

	s.Stage = planning.StageConfirmed
	g.scenarios[key] = s
	g.confirms++
	return nil
}

func (g *memoryGateway) FetchWeights(_ context.Context, names []string, year int) (map[string]map[string]float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.weightYears = append(g.weightYears, year)
	g.weightLookup = append(g.weightLookup, names)

	if g.weightErr != nil {
		return nil, g.weightErr
	}

	result := make(map[string]map[string]float64)
	for _, name := range names {
		if subs, ok := g.weights[year][name]; ok {
			result[name] = subs
		}
	}
	return result, nil
}
