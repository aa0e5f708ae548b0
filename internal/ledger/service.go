// Package ledger owns the weighing ledger: scale readings grouped into
// fixed-size batches per (entity, category) pair, plus the category
// directory shared by every entity. All mutations go through the
// Service, which re-derives batch status after every edit and persists
// affected records through the store port as a fire-and-forget side
// effect.
package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agropesa/backend-balanza/internal/obs"
	"github.com/agropesa/backend-balanza/internal/safemath"
	"github.com/agropesa/backend-balanza/internal/store"
)

// ErrInvalidValue is returned for non-positive weights and blank names.
var ErrInvalidValue = errors.New("invalid value")

// ErrNotFound indicates the referenced entry or category does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateName indicates a case-insensitive category name collision.
var ErrDuplicateName = errors.New("duplicate name")

// ErrGuardedDeletion indicates a deletion refused by policy.
var ErrGuardedDeletion = errors.New("deletion not allowed")

// DefaultCategoryName is seeded into an empty directory and can never
// be deleted.
const DefaultCategoryName = "General"

// palette supplies category colors in order; once exhausted the colors
// cycle.
var palette = []string{
	"#8D6E63", "#66BB6A", "#FFB300", "#42A5F5",
	"#EF5350", "#AB47BC", "#26A69A", "#FF7043",
}

// Service holds the ledger state: entityID → categoryID → ordered batch
// sequence, and the ordered category directory.
type Service struct {
	mu         sync.RWMutex
	store      store.Store
	log        zerolog.Logger
	now        func() time.Time
	newID      func() string
	categories []Category
	batches    map[string]map[string][]*Batch
}

// ServiceConfig configures the ledger Service.
type ServiceConfig struct {
	Store  store.Store
	Logger zerolog.Logger
	Now    func() time.Time
	NewID  func() string
}

// NewService constructs the Service and hydrates it from the store.
// Missing or corrupt records fall back to empty state; an empty
// category directory is seeded with the default category.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("ledger: store is required")
	}
	s := &Service{
		store:   cfg.Store,
		log:     cfg.Logger,
		now:     cfg.Now,
		newID:   cfg.NewID,
		batches: make(map[string]map[string][]*Batch),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	if _, err := s.store.Load(ctx, store.KeyCategories, &s.categories); err != nil {
		return nil, err
	}
	if len(s.categories) == 0 {
		s.categories = []Category{{
			ID:        s.newID(),
			Name:      DefaultCategoryName,
			Color:     palette[0],
			CreatedAt: s.now(),
		}}
		s.persistCategories(ctx)
	}

	keys, err := s.store.Keys(ctx, store.BatchKeyPrefix)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		var seq []*Batch
		found, err := s.store.Load(ctx, key, &seq)
		if err != nil {
			return nil, err
		}
		if !found || len(seq) == 0 {
			continue
		}
		// The batches carry their own identity, so the key never
		// needs parsing.
		first := seq[0]
		byCategory := s.batches[first.EntityID]
		if byCategory == nil {
			byCategory = make(map[string][]*Batch)
			s.batches[first.EntityID] = byCategory
		}
		byCategory[first.CategoryID] = seq
	}
	return s, nil
}

// Append records a new reading for the given key. Non-positive values
// are refused without a state change.
func (s *Service) Append(ctx context.Context, entityID, categoryID string, value float64) (WeightEntry, error) {
	if value <= 0 || entityID == "" || categoryID == "" {
		return WeightEntry{}, ErrInvalidValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.sequenceFor(entityID, categoryID)
	last := seq[len(seq)-1]
	if last.Status == BatchClosed {
		last = s.freshBatch(entityID, categoryID)
		seq = append(seq, last)
	}

	entry := WeightEntry{
		ID:         s.newID(),
		Value:      value,
		Timestamp:  s.now(),
		CategoryID: categoryID,
		EntityID:   entityID,
	}
	last.Entries = append(last.Entries, entry)
	if len(last.Entries) == BatchSize {
		closeBatch(last)
		if obs.BatchesClosedTotal != nil {
			obs.BatchesClosedTotal.Inc()
		}
		// Keep an open slot at the tail for the next reading.
		seq = append(seq, s.freshBatch(entityID, categoryID))
	}
	s.batches[entityID][categoryID] = seq
	s.persistBatches(ctx, entityID, categoryID)
	return entry, nil
}

// DeleteEntry removes a reading anywhere in the key's batch sequence and
// re-derives batch status. A batch emptied by the removal is dropped
// unless it is the only one, and the tail always ends open.
func (s *Service) DeleteEntry(ctx context.Context, entityID, categoryID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.sequence(entityID, categoryID)
	if seq == nil {
		return ErrNotFound
	}
	batchIdx, entryIdx := locateEntry(seq, entryID)
	if batchIdx < 0 {
		return ErrNotFound
	}

	owner := seq[batchIdx]
	owner.Entries = append(owner.Entries[:entryIdx], owner.Entries[entryIdx+1:]...)

	if len(owner.Entries) == 0 {
		if len(seq) == 1 {
			// The sequence is never left empty.
			seq = []*Batch{s.freshBatch(entityID, categoryID)}
		} else {
			seq = append(seq[:batchIdx], seq[batchIdx+1:]...)
		}
	} else {
		// Dropping below the threshold reopens a closed batch.
		rederiveStatus(owner)
	}

	if tail := seq[len(seq)-1]; tail.Status == BatchClosed {
		seq = append(seq, s.freshBatch(entityID, categoryID))
	}

	s.batches[entityID][categoryID] = seq
	s.persistBatches(ctx, entityID, categoryID)
	return nil
}

// UpdateEntry corrects a reading's value in place. Batch membership and
// status never change on update; a closed batch only gets its subtotal
// recomputed.
func (s *Service) UpdateEntry(ctx context.Context, entityID, categoryID, entryID string, value float64) error {
	if value <= 0 {
		return ErrInvalidValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.sequence(entityID, categoryID)
	if seq == nil {
		return ErrNotFound
	}
	batchIdx, entryIdx := locateEntry(seq, entryID)
	if batchIdx < 0 {
		return ErrNotFound
	}

	owner := seq[batchIdx]
	owner.Entries[entryIdx].Value = value
	if owner.Status == BatchClosed {
		subtotal := safemath.SafeSum(entryValues(owner.Entries))
		owner.Subtotal = &subtotal
	}
	s.persistBatches(ctx, entityID, categoryID)
	return nil
}

// CurrentBatch returns a copy of the open batch for the key, or false
// when the key has no batches yet.
func (s *Service) CurrentBatch(entityID, categoryID string) (Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.sequence(entityID, categoryID)
	if seq == nil {
		return Batch{}, false
	}
	return cloneBatch(seq[len(seq)-1]), true
}

// Batches returns copies of all batches for the key in order.
func (s *Service) Batches(entityID, categoryID string) []Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.sequence(entityID, categoryID)
	out := make([]Batch, 0, len(seq))
	for _, b := range seq {
		out = append(out, cloneBatch(b))
	}
	return out
}

// TotalWeight sums every reading for the key.
func (s *Service) TotalWeight(entityID, categoryID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return safemath.SafeSum(sequenceValues(s.sequence(entityID, categoryID)))
}

// TotalEntries counts every reading for the key.
func (s *Service) TotalEntries(entityID, categoryID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	for _, b := range s.sequence(entityID, categoryID) {
		n += len(b.Entries)
	}
	return n
}

// CategoryStats aggregates one category of one entity, regardless of
// which category the operator currently works in.
func (s *Service) CategoryStats(entityID, categoryID string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return statsOf(s.sequence(entityID, categoryID))
}

// EntityStats aggregates every category of one entity.
func (s *Service) EntityStats(entityID string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total Stats
	for _, seq := range s.batches[entityID] {
		st := statsOf(seq)
		total.TotalWeight = safemath.SafeAdd(total.TotalWeight, st.TotalWeight)
		total.TotalEntries += st.TotalEntries
		total.ClosedBatches += st.ClosedBatches
	}
	return total
}

// GrandTotal is the total weight across all categories of one entity.
func (s *Service) GrandTotal(entityID string) float64 {
	return s.EntityStats(entityID).TotalWeight
}

// CategoryWeights returns the safe-summed weight per category for one
// entity. Categories without readings are reported as zero.
func (s *Service) CategoryWeights(entityID string) map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	weights := make(map[string]float64, len(s.categories))
	for _, c := range s.categories {
		weights[c.ID] = safemath.SafeSum(sequenceValues(s.batches[entityID][c.ID]))
	}
	return weights
}

// DeleteEntityData removes every batch sequence of an entity, in memory
// and in the store. Used when the entity itself is deleted.
func (s *Service) DeleteEntityData(ctx context.Context, entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for categoryID := range s.batches[entityID] {
		if err := s.store.Delete(ctx, store.BatchKey(entityID, categoryID)); err != nil {
			s.log.Error().Err(err).Str("entity_id", entityID).Str("category_id", categoryID).Msg("delete batches")
		}
	}
	delete(s.batches, entityID)
}

func (s *Service) sequence(entityID, categoryID string) []*Batch {
	return s.batches[entityID][categoryID]
}

// sequenceFor returns the key's batch sequence, creating a fresh single
// open batch when none exist yet.
func (s *Service) sequenceFor(entityID, categoryID string) []*Batch {
	byCategory := s.batches[entityID]
	if byCategory == nil {
		byCategory = make(map[string][]*Batch)
		s.batches[entityID] = byCategory
	}
	seq := byCategory[categoryID]
	if len(seq) == 0 {
		seq = []*Batch{s.freshBatch(entityID, categoryID)}
		byCategory[categoryID] = seq
	}
	return seq
}

func (s *Service) freshBatch(entityID, categoryID string) *Batch {
	return &Batch{
		ID:         s.newID(),
		Entries:    []WeightEntry{},
		Status:     BatchOpen,
		CategoryID: categoryID,
		EntityID:   entityID,
	}
}

func (s *Service) persistBatches(ctx context.Context, entityID, categoryID string) {
	seq := s.batches[entityID][categoryID]
	if err := s.store.Save(ctx, store.BatchKey(entityID, categoryID), seq); err != nil {
		s.log.Error().Err(err).Str("entity_id", entityID).Str("category_id", categoryID).Msg("persist batches")
	}
}

func closeBatch(b *Batch) {
	b.Status = BatchClosed
	subtotal := safemath.SafeSum(entryValues(b.Entries))
	b.Subtotal = &subtotal
}

func rederiveStatus(b *Batch) {
	if len(b.Entries) == BatchSize {
		closeBatch(b)
		return
	}
	b.Status = BatchOpen
	b.Subtotal = nil
}

func locateEntry(seq []*Batch, entryID string) (batchIdx, entryIdx int) {
	for i, b := range seq {
		for j, e := range b.Entries {
			if e.ID == entryID {
				return i, j
			}
		}
	}
	return -1, -1
}

func entryValues(entries []WeightEntry) []float64 {
	values := make([]float64, len(entries))
	for i, e := range entries {
		values[i] = e.Value
	}
	return values
}

func sequenceValues(seq []*Batch) []float64 {
	var values []float64
	for _, b := range seq {
		values = append(values, entryValues(b.Entries)...)
	}
	return values
}

func statsOf(seq []*Batch) Stats {
	var st Stats
	st.TotalWeight = safemath.SafeSum(sequenceValues(seq))
	for _, b := range seq {
		st.TotalEntries += len(b.Entries)
		if b.Status == BatchClosed {
			st.ClosedBatches++
		}
	}
	return st
}

func cloneBatch(b *Batch) Batch {
	out := *b
	out.Entries = append([]WeightEntry(nil), b.Entries...)
	if b.Subtotal != nil {
		subtotal := *b.Subtotal
		out.Subtotal = &subtotal
	}
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
