package tournament

import (
	"context"
	"fmt"
	"sync"

	"github.com/tkwin-games/tkwin/internal/database/tournament/model"
	"github.com/tkwin-games/tkwin/internal/logging"
)

type Store interface {
	Save(ctx context.Context, s model.Snapshot) error
	Load(ctx context.Context, id string) (model.Snapshot, error)
	List(ctx context.Context) ([]model.Summary, error)
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Manager owns the active tournament and serializes every operation on it.
type Manager struct {
	mtx    sync.Mutex
	store  Store
	active *Tournament
}

// Create replaces the active tournament with an empty one.
func (m *Manager) Create(ctx context.Context, name, date, location string) (string, error) {
	t, err := New(ctx, name, date, location)
	if err != nil {
		return "", fmt.Errorf("new tournament: %w", err)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.active = t
	return t.ID, nil
}

// Load replaces the active tournament only if the stored snapshot is valid.
func (m *Manager) Load(ctx context.Context, id string) error {
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", id, err)
	}

	t, err := FromSnapshot(ctx, s)
	if err != nil {
		return fmt.Errorf("restore snapshot %s: %w", id, err)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.active = t
	logging.FromContext(ctx).Named("tournament.Manager").Infof("loaded tournament %s", id)
	return nil
}

func (m *Manager) Save(ctx context.Context) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.active == nil {
		return ErrNoTournament
	}
	if err := m.store.Save(ctx, m.active.Snapshot()); err != nil {
		return fmt.Errorf("save tournament %s: %w", m.active.ID, err)
	}
	return nil
}

func (m *Manager) List(ctx context.Context) ([]model.Summary, error) {
	return m.store.List(ctx)
}

func (m *Manager) Active() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.active != nil
}

// Do runs fn on the active tournament under the manager lock.
func (m *Manager) Do(fn func(t *Tournament) error) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.active == nil {
		return ErrNoTournament
	}
	return fn(m.active)
}
