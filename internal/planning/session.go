package planning

import (
	"context"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Session holds the editable state of one scenario.
//
// A Session is not safe for concurrent use.
type Session struct {
	manager  *Manager
	scenario Scenario
	entities []Entity
	index    map[string]int
	readOnly bool
	dirty    bool
	warnings []*Inconsistency
}

// Scenario returns a copy of the current in-memory scenario.
func (s *Session) Scenario() Scenario {
	return s.scenario.Clone()
}

// Entities returns the entities of the session in their allocation order.
func (s *Session) Entities() []Entity {
	return slices.Clone(s.entities)
}

// ReadOnly reports whether the session's version rejects all edits.
func (s *Session) ReadOnly() bool {
	return s.readOnly
}

// Dirty reports whether there are edits that have not been saved.
func (s *Session) Dirty() bool {
	return s.dirty
}

// Warnings returns the inconsistencies observed by allocation runs of this session.
func (s *Session) Warnings() []*Inconsistency {
	return slices.Clone(s.warnings)
}

// CheckMutable returns ErrVersionReadOnly or ErrScenarioConfirmed when the
// scenario can not be changed.
func (s *Session) CheckMutable() error {
	if s.readOnly {
		return ErrVersionReadOnly
	}

	if !s.scenario.Editable() {
		return ErrScenarioConfirmed
	}

	return nil
}

func (s *Session) changed(reason Reason) {
	s.manager.notify(ScenarioChanged{
		Key:      s.scenario.Key,
		Stage:    s.scenario.Stage,
		Revision: s.scenario.Revision,
		Reason:   reason,
	})
}

// SetCompanyTotal sets the company total of a sub category. Negative totals are stored as 0.
func (s *Session) SetCompanyTotal(subCategory string, total int64) error {
	if err := s.CheckMutable(); err != nil {
		return err
	}

	sub, err := normalizeSubCategory(subCategory)
	if err != nil {
		return err
	}

	s.scenario.CompanyTotals[sub] = max(total, 0)
	s.dirty = true
	s.changed(ReasonEdited)
	return nil
}

// SetAssignment overrides the amount assigned to an entity. Negative amounts are stored as 0.
func (s *Session) SetAssignment(entityID, subCategory string, amount int64) error {
	if err := s.CheckMutable(); err != nil {
		return err
	}

	sub, err := normalizeSubCategory(subCategory)
	if err != nil {
		return err
	}

	if _, ok := s.index[entityID]; !ok {
		return ErrUnknownEntity
	}

	s.assign(entityID, sub, max(amount, 0))
	s.dirty = true
	s.changed(ReasonEdited)
	return nil
}

func (s *Session) assign(entityID, sub string, amount int64) {
	amounts, ok := s.scenario.Assignments[entityID]
	if !ok {
		amounts = make(map[string]int64)
		s.scenario.Assignments[entityID] = amounts
	}
	amounts[sub] = amount
}

// entryOrder returns the IDs of all assigned entities: session entities first, in
// their order, then entities only known from storage, sorted.
func (s *Session) entryOrder() []string {
	ids := make([]string, 0, len(s.scenario.Assignments))
	for _, e := range s.entities {
		if _, ok := s.scenario.Assignments[e.ID]; ok {
			ids = append(ids, e.ID)
		}
	}

	var unknown []string
	for id := range s.scenario.Assignments {
		if _, ok := s.index[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	slices.Sort(unknown)

	return append(ids, unknown...)
}

func (s *Session) upsertRequest() UpsertRequest {
	req := UpsertRequest{
		Key:              s.scenario.Key,
		Stage:            StageDraft,
		ExpectedRevision: s.scenario.Revision,
	}

	subs := maps.Keys(s.scenario.CompanyTotals)
	slices.Sort(subs)
	for _, sub := range subs {
		req.CompanyTotals = append(req.CompanyTotals, TotalEntry{SubCategory: sub, Total: s.scenario.CompanyTotals[sub]})
	}

	for _, id := range s.entryOrder() {
		amounts := s.scenario.Assignments[id]
		subs := maps.Keys(amounts)
		slices.Sort(subs)

		for _, sub := range subs {
			req.Entries = append(req.Entries, Entry{
				EntityID:    id,
				SubCategory: sub,
				Amount:      amounts[sub],
				Stage:       StageDraft,
			})
		}
	}

	return req
}

// Save persists the scenario as a draft. Saving can be repeated any number of times.
//
// If the gateway fails, the in-memory edits are kept so that saving can be retried.
func (s *Session) Save(ctx context.Context) error {
	if err := s.CheckMutable(); err != nil {
		return err
	}

	revision, err := s.manager.gateway.UpsertScenario(ctx, s.upsertRequest())
	if err != nil {
		s.manager.log.Error().Err(err).Str("scenario", s.scenario.Key.String()).Msg("saving scenario failed")
		return err
	}

	s.scenario.Revision = revision
	s.scenario.Stage = StageDraft
	s.dirty = false
	s.changed(ReasonSaved)
	return nil
}

// Confirm saves pending edits and locks the scenario. Confirming a confirmed scenario
// does nothing.
func (s *Session) Confirm(ctx context.Context) error {
	if s.readOnly {
		return ErrVersionReadOnly
	}

	if s.scenario.Stage == StageConfirmed {
		return nil
	}

	if s.dirty || s.scenario.Revision == 0 {
		if err := s.Save(ctx); err != nil {
			return err
		}
	}

	err := s.manager.gateway.ConfirmScenario(ctx, s.scenario.Key, s.scenario.Revision)
	if err != nil {
		s.manager.log.Error().Err(err).Str("scenario", s.scenario.Key.String()).Msg("confirming scenario failed")
		return err
	}

	s.scenario.Stage = StageConfirmed
	s.changed(ReasonConfirmed)
	return nil
}
