// Package planning tracks sales target scenarios through their draft and confirmed stages
// and allocates company totals to entities by weight.
//
// A Manager is shared by all callers. It hands out Sessions, each of which holds the
// editable in-memory state of one scenario. Sessions assume a single editor per scenario,
// lost updates between editors are detected by the revision check of the Gateway.
package planning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Reason describes why a scenario changed.
type Reason string

const (
	ReasonEdited    Reason = "edited"
	ReasonAllocated Reason = "allocated"
	ReasonSaved     Reason = "saved"
	ReasonConfirmed Reason = "confirmed"
)

// ScenarioChanged is sent to listeners whenever a scenario changes.
type ScenarioChanged struct {
	Key      Key    `json:"key"`
	Stage    Stage  `json:"stage"`
	Revision int64  `json:"revision"`
	Reason   Reason `json:"reason"`
}

// Listener receives scenario change events.
type Listener func(ScenarioChanged)

type subscription struct {
	id uint64
	fn Listener
}

// Manager loads scenarios into sessions and enforces the stage and version rules.
type Manager struct {
	gateway    Gateway
	weights    WeightProvider
	editable   map[VersionNo]struct{}
	weightYear func(int) int
	log        zerolog.Logger

	mu        sync.Mutex
	listeners []subscription
	nextID    uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithEditableVersions sets the versions that accept edits. All other versions are read only.
func WithEditableVersions(versions ...VersionNo) Option {
	return func(m *Manager) {
		m.editable = make(map[VersionNo]struct{}, len(versions))
		for _, v := range versions {
			m.editable[v] = struct{}{}
		}
	}
}

// WithWeightYear sets the function that maps a scenario year to the year weights are read for.
func WithWeightYear(fn func(year int) int) Option {
	return func(m *Manager) {
		m.weightYear = fn
	}
}

// WithLogger sets the logger of the manager.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = l.With().Str("component", "planning").Logger()
	}
}

// NewManager creates a Manager. By default only VersionBest is editable and weights are
// read for the year before the scenario year.
func NewManager(gateway Gateway, weights WeightProvider, opts ...Option) *Manager {
	m := &Manager{
		gateway:    gateway,
		weights:    weights,
		editable:   map[VersionNo]struct{}{VersionBest: {}},
		weightYear: func(year int) int { return year - 1 },
		log:        log.Logger.With().Str("component", "planning").Logger(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Editable reports whether scenarios of the version accept edits.
func (m *Manager) Editable(version VersionNo) bool {
	_, ok := m.editable[version]
	return ok
}

// EditableVersions returns the editable versions in ascending order.
func (m *Manager) EditableVersions() []VersionNo {
	versions := maps.Keys(m.editable)
	slices.Sort(versions)
	return versions
}

// WeightYear returns the year weights are read for when allocating for year.
func (m *Manager) WeightYear(year int) int {
	return m.weightYear(year)
}

// OnScenarioChanged registers a listener. Listeners are called synchronously, in the
// order they were registered. The returned function removes the listener.
func (m *Manager) OnScenarioChanged(fn Listener) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, subscription{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		m.listeners = slices.DeleteFunc(m.listeners, func(s subscription) bool {
			return s.id == id
		})
	}
}

func (m *Manager) notify(event ScenarioChanged) {
	m.mu.Lock()
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		l.fn(event)
	}
}

// Load reads the scenario for key and opens a session on it.
//
// entities is the full allocation universe of the session. A scenario that has never
// been saved is returned as an empty draft.
func (m *Manager) Load(ctx context.Context, key Key, entities []Entity) (*Session, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(entities))
	for i, e := range entities {
		if _, ok := index[e.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, e.ID)
		}
		index[e.ID] = i
	}

	scenario, err := m.gateway.FetchScenario(ctx, key)
	if errors.Is(err, ErrScenarioNotFound) {
		scenario = NewScenario(key)
	} else if err != nil {
		m.log.Error().Err(err).Str("scenario", key.String()).Msg("loading scenario failed")
		return nil, err
	}

	scenario = scenario.Clone()
	scenario.Key = key
	if scenario.Stage == "" {
		scenario.Stage = StageDraft
	}

	return &Session{
		manager:  m,
		scenario: scenario,
		entities: slices.Clone(entities),
		index:    index,
		readOnly: !m.Editable(key.Version),
	}, nil
}

func normalizeSubCategory(sub string) (string, error) {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return "", ErrSubCategoryEmpty
	}
	return sub, nil
}
