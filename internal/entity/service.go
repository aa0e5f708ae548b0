// Package entity keeps the directory of counterparties batches are
// attributed to: providers on intake, clients on outflow, warehouses
// for internal moves.
package entity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agropesa/backend-balanza/internal/store"
)

// ErrInvalidInput is returned for blank names and unknown types.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFound indicates the referenced entity does not exist.
var ErrNotFound = errors.New("entity not found")

// ErrDuplicateName indicates a name collision within the entity type.
var ErrDuplicateName = errors.New("duplicate name")

// ErrGuardedDeletion protects the last remaining entity of a type.
var ErrGuardedDeletion = errors.New("deletion not allowed")

// Type classifies the counterparty.
type Type string

const (
	TypeProvider  Type = "provider"
	TypeClient    Type = "client"
	TypeWarehouse Type = "warehouse"
)

// Valid reports whether the type is one of the known classifications.
func (t Type) Valid() bool {
	switch t {
	case TypeProvider, TypeClient, TypeWarehouse:
		return true
	}
	return false
}

// Entity is a counterparty. Names are unique within a type,
// case-insensitively.
type Entity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service owns the entity directory.
type Service struct {
	mu       sync.RWMutex
	store    store.Store
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string
	entities []Entity
}

// ServiceConfig configures the entity Service.
type ServiceConfig struct {
	Store  store.Store
	Logger zerolog.Logger
	Now    func() time.Time
	NewID  func() string
}

// NewService constructs the Service and hydrates it from the store. An
// empty directory is seeded with one entity per type so the guarded
// minimum always holds.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("entity: store is required")
	}
	s := &Service{store: cfg.Store, log: cfg.Logger, now: cfg.Now, newID: cfg.NewID}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	if _, err := s.store.Load(ctx, store.KeyEntities, &s.entities); err != nil {
		return nil, err
	}
	if len(s.entities) == 0 {
		for _, t := range []Type{TypeProvider, TypeClient, TypeWarehouse} {
			s.entities = append(s.entities, Entity{
				ID:        s.newID(),
				Name:      "General",
				Type:      t,
				CreatedAt: s.now(),
			})
		}
		s.persist(ctx)
	}
	return s, nil
}

// List returns entities in creation order, optionally filtered by type.
func (s *Service) List(typ Type) []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entity, 0, len(s.entities))
	for _, e := range s.entities {
		if typ != "" && e.Type != typ {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Get returns one entity by id.
func (s *Service) Get(id string) (Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entities {
		if e.ID == id {
			return e, nil
		}
	}
	return Entity{}, ErrNotFound
}

// Add creates an entity. Names are trimmed and must be unique within
// the type.
func (s *Service) Add(ctx context.Context, name string, typ Type) (Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" || !typ.Valid() {
		return Entity{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entities {
		if e.Type == typ && strings.EqualFold(e.Name, name) {
			return Entity{}, ErrDuplicateName
		}
	}

	entity := Entity{ID: s.newID(), Name: name, Type: typ, CreatedAt: s.now()}
	s.entities = append(s.entities, entity)
	s.persist(ctx)
	return entity, nil
}

// Rename changes an entity's name under the same uniqueness rule.
// Renaming to the current name is a no-op.
func (s *Service) Rename(ctx context.Context, id, name string) (Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entity{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, e := range s.entities {
		if e.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return Entity{}, ErrNotFound
	}
	for i, e := range s.entities {
		if i != idx && e.Type == s.entities[idx].Type && strings.EqualFold(e.Name, name) {
			return Entity{}, ErrDuplicateName
		}
	}

	s.entities[idx].Name = name
	s.persist(ctx)
	return s.entities[idx], nil
}

// Delete removes an entity. The last entity of a type stays: at least
// one destination per flow must always exist.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	var sameType int
	for i, e := range s.entities {
		if e.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	for _, e := range s.entities {
		if e.Type == s.entities[idx].Type {
			sameType++
		}
	}
	if sameType <= 1 {
		return ErrGuardedDeletion
	}

	s.entities = append(s.entities[:idx], s.entities[idx+1:]...)
	s.persist(ctx)
	return nil
}

func (s *Service) persist(ctx context.Context) {
	if err := s.store.Save(ctx, store.KeyEntities, s.entities); err != nil {
		s.log.Error().Err(err).Msg("persist entities")
	}
}
