package settlement

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agropesa/backend-balanza/internal/ledger"
	"github.com/agropesa/backend-balanza/internal/obs"
	"github.com/agropesa/backend-balanza/internal/store"
)

// WeightSource supplies the ledger snapshot the calculator reads.
type WeightSource interface {
	Categories() []ledger.Category
	CategoryWeights(entityID string) map[string]float64
}

// Service keeps per-entity settlement inputs and derives summaries from
// the current ledger snapshot.
type Service struct {
	mu     sync.Mutex
	store  store.Store
	source WeightSource
	log    zerolog.Logger
	data   map[string]Data
}

// ServiceConfig configures the settlement Service.
type ServiceConfig struct {
	Store  store.Store
	Source WeightSource
	Logger zerolog.Logger
}

// NewService constructs the Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("settlement: store is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("settlement: weight source is required")
	}
	return &Service{
		store:  cfg.Store,
		source: cfg.Source,
		log:    cfg.Logger,
		data:   make(map[string]Data),
	}, nil
}

// Summary recomputes the settlement for one entity.
func (s *Service) Summary(ctx context.Context, entityID string) Summary {
	data := s.dataFor(ctx, entityID)
	if obs.SettlementsComputedTotal != nil {
		obs.SettlementsComputedTotal.Inc()
	}
	return Compute(s.source.Categories(), s.source.CategoryWeights(entityID), data)
}

// DataFor returns the stored settlement inputs for one entity.
func (s *Service) DataFor(ctx context.Context, entityID string) Data {
	return s.dataFor(ctx, entityID)
}

// SetPrice stores the unit price for a category. Negative input clamps
// to zero.
func (s *Service) SetPrice(ctx context.Context, entityID, categoryID string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.dataForLocked(ctx, entityID)
	data.Prices[categoryID] = clamp(price)
	s.data[entityID] = data
	s.persist(ctx, entityID, data)
}

// SetFreightRate stores the freight rate per weight unit, clamped at
// zero.
func (s *Service) SetFreightRate(ctx context.Context, entityID string, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.dataForLocked(ctx, entityID)
	data.FreightRate = clamp(rate)
	s.data[entityID] = data
	s.persist(ctx, entityID, data)
}

// SetSackValue stores the sack payment addition, clamped at zero.
func (s *Service) SetSackValue(ctx context.Context, entityID string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.dataForLocked(ctx, entityID)
	data.SackValue = clamp(value)
	s.data[entityID] = data
	s.persist(ctx, entityID, data)
}

// DeleteData drops the settlement inputs of a removed entity.
func (s *Service) DeleteData(ctx context.Context, entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, entityID)
	if err := s.store.Delete(ctx, store.SettlementKey(entityID)); err != nil {
		s.log.Error().Err(err).Str("entity_id", entityID).Msg("delete settlement data")
	}
}

func (s *Service) dataFor(ctx context.Context, entityID string) Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataForLocked(ctx, entityID)
}

// dataForLocked loads the entity's inputs lazily, falling back to
// zeroed defaults on missing or corrupt records.
func (s *Service) dataForLocked(ctx context.Context, entityID string) Data {
	if data, ok := s.data[entityID]; ok {
		return data
	}
	data := Data{Prices: map[string]float64{}}
	if _, err := s.store.Load(ctx, store.SettlementKey(entityID), &data); err != nil {
		s.log.Error().Err(err).Str("entity_id", entityID).Msg("load settlement data")
	}
	if data.Prices == nil {
		data.Prices = map[string]float64{}
	}
	s.data[entityID] = data
	return data
}

func (s *Service) persist(ctx context.Context, entityID string, data Data) {
	if err := s.store.Save(ctx, store.SettlementKey(entityID), data); err != nil {
		s.log.Error().Err(err).Str("entity_id", entityID).Msg("persist settlement data")
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
