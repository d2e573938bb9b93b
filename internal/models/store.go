package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/salesops/target-planner/internal/planning"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists scenarios and serves weights from the database.
type Store struct {
	db *gorm.DB
}

// NewStore returns a Store using db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var (
	_ planning.Gateway        = (*Store)(nil)
	_ planning.WeightProvider = (*Store)(nil)
)

func scenarioScope(key planning.Key) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("year = ? AND version = ?", key.Year, key.Version)
	}
}

func (s *Store) header(tx *gorm.DB, key planning.Key) (Scenario, error) {
	var header Scenario
	err := tx.Scopes(scenarioScope(key)).First(&header).Error
	if errors.Is(err, ErrResourceNotFound) {
		return Scenario{}, fmt.Errorf("%w: %s", planning.ErrScenarioNotFound, key)
	}

	return header, err
}

// FetchScenario loads a scenario with all of its totals and assignments.
func (s *Store) FetchScenario(ctx context.Context, key planning.Key) (planning.Scenario, error) {
	db := s.db.WithContext(ctx)

	header, err := s.header(db, key)
	if err != nil {
		return planning.Scenario{}, err
	}

	var targets []CompanyTarget
	err = db.Scopes(scenarioScope(key)).Find(&targets).Error
	if err != nil {
		return planning.Scenario{}, err
	}

	var assignments []Assignment
	err = db.Scopes(scenarioScope(key)).Find(&assignments).Error
	if err != nil {
		return planning.Scenario{}, err
	}

	scenario := planning.NewScenario(key)
	scenario.Stage = header.Stage
	scenario.Revision = header.Revision

	for _, t := range targets {
		scenario.CompanyTotals[t.SubCategory] = t.Total
	}

	for _, a := range assignments {
		if scenario.Assignments[a.EntityID] == nil {
			scenario.Assignments[a.EntityID] = make(map[string]int64)
		}
		scenario.Assignments[a.EntityID][a.SubCategory] = a.Amount
	}

	return scenario, nil
}

// UpsertScenario writes the scenario in one transaction.
//
// The stored revision must match the expected revision of the request. Scenarios that
// do not exist yet can only be written with an expected revision of 0.
func (s *Store) UpsertScenario(ctx context.Context, req planning.UpsertRequest) (revision int64, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header, err := s.header(tx, req.Key)
		if err != nil && !errors.Is(err, planning.ErrScenarioNotFound) {
			return err
		}

		if errors.Is(err, planning.ErrScenarioNotFound) {
			if req.ExpectedRevision != 0 {
				return fmt.Errorf("%w: %s does not exist", planning.ErrRevisionConflict, req.Key)
			}

			revision = 1
			err = tx.Create(&Scenario{
				Year:     req.Key.Year,
				Version:  req.Key.Version,
				Stage:    req.Stage,
				Revision: revision,
			}).Error
			if err != nil {
				return err
			}
		} else {
			if header.Stage == planning.StageConfirmed {
				return fmt.Errorf("%w: %s", planning.ErrScenarioConfirmed, req.Key)
			}

			if header.Revision != req.ExpectedRevision {
				return fmt.Errorf("%w: %s is at revision %d, expected %d", planning.ErrRevisionConflict, req.Key, header.Revision, req.ExpectedRevision)
			}

			revision = header.Revision + 1
			err = tx.Model(&Scenario{}).Scopes(scenarioScope(req.Key)).Updates(map[string]any{
				"stage":    req.Stage,
				"revision": revision,
			}).Error
			if err != nil {
				return err
			}
		}

		targets := make([]CompanyTarget, 0, len(req.CompanyTotals))
		for _, t := range req.CompanyTotals {
			targets = append(targets, CompanyTarget{
				Year:        req.Key.Year,
				Version:     req.Key.Version,
				SubCategory: t.SubCategory,
				Total:       t.Total,
				Stage:       req.Stage,
			})
		}

		if len(targets) > 0 {
			err = tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&targets).Error
			if err != nil {
				return err
			}
		}

		assignments := make([]Assignment, 0, len(req.Entries))
		for _, e := range req.Entries {
			assignments = append(assignments, Assignment{
				Year:        req.Key.Year,
				Version:     req.Key.Version,
				EntityID:    e.EntityID,
				SubCategory: e.SubCategory,
				Amount:      e.Amount,
				Stage:       e.Stage,
			})
		}

		if len(assignments) > 0 {
			err = tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&assignments).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return revision, nil
}

// ConfirmScenario sets the stage of the scenario and all of its rows to confirmed.
//
// The stored revision must match the expected revision, so that only the state the
// caller has seen gets locked.
func (s *Store) ConfirmScenario(ctx context.Context, key planning.Key, expectedRevision int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header, err := s.header(tx, key)
		if err != nil {
			return err
		}

		if header.Revision != expectedRevision {
			return fmt.Errorf("%w: %s is at revision %d, expected %d", planning.ErrRevisionConflict, key, header.Revision, expectedRevision)
		}

		for _, model := range []any{&Scenario{}, &CompanyTarget{}, &Assignment{}} {
			err := tx.Model(model).Scopes(scenarioScope(key)).Update("stage", planning.StageConfirmed).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// FetchWeights sums the weights of the year per name and sub category.
func (s *Store) FetchWeights(ctx context.Context, names []string, year int) (map[string]map[string]float64, error) {
	result := make(map[string]map[string]float64)

	normalized := make([]string, 0, len(names))
	for _, name := range names {
		n := planning.NormalizeName(name)
		if n != "" && !slices.Contains(normalized, n) {
			normalized = append(normalized, n)
		}
	}

	if len(normalized) == 0 {
		return result, nil
	}

	var weights []Weight
	err := s.db.WithContext(ctx).Where("entity_name IN ? AND year = ?", normalized, year).Find(&weights).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[string]map[string]decimal.Decimal)
	for _, w := range weights {
		if sums[w.EntityName] == nil {
			sums[w.EntityName] = make(map[string]decimal.Decimal)
		}
		sums[w.EntityName][w.SubCategory] = sums[w.EntityName][w.SubCategory].Add(w.Amount)
	}

	for name, subs := range sums {
		result[name] = make(map[string]float64, len(subs))
		for sub, sum := range subs {
			result[name][sub] = sum.InexactFloat64()
		}
	}

	return result, nil
}

// Entities returns all entities in the order they are displayed in.
func (s *Store) Entities(ctx context.Context) ([]Entity, error) {
	var entities []Entity
	err := s.db.WithContext(ctx).Order("group_label, position, name").Find(&entities).Error
	if err != nil {
		return nil, err
	}

	return entities, nil
}

// PlanningEntities returns all entities for use in a planning session.
func (s *Store) PlanningEntities(ctx context.Context) ([]planning.Entity, error) {
	entities, err := s.Entities(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]planning.Entity, 0, len(entities))
	for _, e := range entities {
		result = append(result, e.Planning())
	}

	return result, nil
}
