package planning

import (
	"context"

	"github.com/ryanuber/go-glob"
	"github.com/salesops/target-planner/internal/allocation"
)

// ShareReport is the allocation result for one entity.
type ShareReport struct {
	EntityID string  `json:"entityId"`
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Amount   int64   `json:"amount"`
}

// AllocationReport describes an allocation run.
type AllocationReport struct {
	SubCategory string        `json:"subCategory"`
	Scope       string        `json:"scope"`
	WeightYear  int           `json:"weightYear"`
	Total       int64         `json:"total"`
	Assigned    int64         `json:"assigned"`   // Sum of all assignments of the sub category after the run
	Unweighted  bool          `json:"unweighted"` // No entity in scope had a positive weight, nothing could be distributed
	Shares      []ShareReport `json:"shares"`

	Inconsistency *Inconsistency `json:"inconsistency"`
}

// inScope returns the session entities whose group label matches the scope glob.
// An empty scope matches every entity.
func (s *Session) inScope(scope string) []Entity {
	if scope == "" {
		return s.Entities()
	}

	var entities []Entity
	for _, e := range s.entities {
		if glob.Glob(scope, e.GroupLabel) {
			entities = append(entities, e)
		}
	}
	return entities
}

// entityWeights looks up the weight of every entity in scope for the sub category.
//
// Weights are joined by display name. Entities sharing a name can not be told apart
// by the weight source, so each occurrence in the whole session receives an equal
// part of the summed weight, also when some of them are outside the scope.
func entityWeights(entities, all []Entity, byName map[string]map[string]float64, subCategory string) []allocation.Weight {
	summed := make(map[string]float64, len(byName))
	for name, subs := range byName {
		summed[NormalizeName(name)] += subs[subCategory]
	}

	occurrences := make(map[string]int, len(all))
	for _, e := range all {
		occurrences[NormalizeName(e.Name)]++
	}

	weights := make([]allocation.Weight, len(entities))
	for i, e := range entities {
		name := NormalizeName(e.Name)
		weights[i] = allocation.Weight{
			EntityID: e.ID,
			Value:    summed[name] / float64(occurrences[name]),
		}
	}

	return weights
}

func uniqueNames(entities []Entity) []string {
	seen := make(map[string]struct{}, len(entities))
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		name := NormalizeName(e.Name)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// RunAllocation distributes the company total of a sub category across the entities in
// scope, weighted by their historical figures, and overwrites their assignments.
//
// scope is a glob matched against the group label of the entities, empty for all
// entities. After the run, the sum of all assignments of the sub category is compared
// with the company total. A mismatch is reported and logged but never corrected.
func (s *Session) RunAllocation(ctx context.Context, subCategory, scope string) (AllocationReport, error) {
	if err := s.CheckMutable(); err != nil {
		return AllocationReport{}, err
	}

	sub, err := normalizeSubCategory(subCategory)
	if err != nil {
		return AllocationReport{}, err
	}

	key := s.scenario.Key
	report := AllocationReport{
		SubCategory: sub,
		Scope:       scope,
		WeightYear:  s.manager.WeightYear(key.Year),
		Total:       s.scenario.CompanyTotals[sub],
	}

	entities := s.inScope(scope)
	byName, err := s.manager.weights.FetchWeights(ctx, uniqueNames(entities), report.WeightYear)
	if err != nil {
		s.manager.log.Error().Err(err).Str("scenario", key.String()).Msg("fetching weights failed")
		return AllocationReport{}, err
	}

	weights := entityWeights(entities, s.entities, byName, sub)
	result := allocation.Allocate(report.Total, weights)

	report.Unweighted = report.Total > 0 && result.Sum() == 0
	report.Shares = make([]ShareReport, len(entities))
	for i, share := range result {
		s.assign(share.EntityID, sub, share.Amount)
		report.Shares[i] = ShareReport{
			EntityID: share.EntityID,
			Name:     entities[i].Name,
			Weight:   weights[i].Value,
			Amount:   share.Amount,
		}
	}

	s.dirty = true
	allocationRuns.WithLabelValues(key.Version.String()).Inc()

	// Without weights the engine distributes nothing. That gap is reported as
	// unweighted, but rows outside the run still make the sum an inconsistency.
	report.Assigned = s.scenario.AssignedSum(sub)
	engineGap := report.Unweighted && report.Assigned == 0
	if report.Assigned != report.Total && !engineGap {
		report.Inconsistency = &Inconsistency{
			Key:         key,
			SubCategory: sub,
			Total:       report.Total,
			Assigned:    report.Assigned,
		}
		s.warnings = append(s.warnings, report.Inconsistency)
		allocationInconsistencies.WithLabelValues(key.Version.String()).Inc()

		s.manager.log.Warn().
			Str("scenario", key.String()).
			Str("subCategory", sub).
			Int64("total", report.Total).
			Int64("assigned", report.Assigned).
			Msg("assignments do not add up to the company total after allocation")
	}

	s.changed(ReasonAllocated)
	return report, nil
}
