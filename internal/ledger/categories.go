package ledger

import (
	"context"
	"strings"

	"github.com/agropesa/backend-balanza/internal/store"
)

// Categories returns the ordered category directory.
func (s *Service) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Category(nil), s.categories...)
}

// DefaultCategory returns the directory's default category. It is the
// first one created and cannot be deleted.
func (s *Service) DefaultCategory() Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories[0]
}

// AddCategory creates a category with the next unused palette color.
// Blank names are invalid and case-insensitive duplicates are refused.
func (s *Service) AddCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrInvalidValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if normalizeName(c.Name) == normalizeName(name) {
			return Category{}, ErrDuplicateName
		}
	}

	category := Category{
		ID:        s.newID(),
		Name:      name,
		Color:     s.nextColor(),
		CreatedAt: s.now(),
	}
	s.categories = append(s.categories, category)
	s.persistCategories(ctx)
	return category, nil
}

// RenameCategory renames a category under the same duplicate rule as
// AddCategory. Renaming a category to its own current name is a no-op.
func (s *Service) RenameCategory(ctx context.Context, categoryID, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrInvalidValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.categories {
		if c.ID == categoryID {
			idx = i
			continue
		}
		if normalizeName(c.Name) == normalizeName(name) {
			return Category{}, ErrDuplicateName
		}
	}
	if idx < 0 {
		return Category{}, ErrNotFound
	}

	s.categories[idx].Name = name
	s.persistCategories(ctx)
	return s.categories[idx], nil
}

// DeleteCategory removes a category and sweeps its readings from every
// entity in the ledger. The default category and the only remaining
// category are protected.
func (s *Service) DeleteCategory(ctx context.Context, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.categories {
		if c.ID == categoryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	if idx == 0 || len(s.categories) == 1 {
		return ErrGuardedDeletion
	}

	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	s.persistCategories(ctx)

	// Ledger-wide sweep: the category's batches disappear for every
	// entity, not just the one currently selected.
	for entityID, byCategory := range s.batches {
		if _, ok := byCategory[categoryID]; !ok {
			continue
		}
		delete(byCategory, categoryID)
		if err := s.store.Delete(ctx, store.BatchKey(entityID, categoryID)); err != nil {
			s.log.Error().Err(err).Str("entity_id", entityID).Str("category_id", categoryID).Msg("delete batches")
		}
	}
	return nil
}

func (s *Service) nextColor() string {
	used := make(map[string]bool, len(s.categories))
	for _, c := range s.categories {
		used[c.Color] = true
	}
	for _, color := range palette {
		if !used[color] {
			return color
		}
	}
	return palette[len(s.categories)%len(palette)]
}

func (s *Service) persistCategories(ctx context.Context) {
	if err := s.store.Save(ctx, store.KeyCategories, s.categories); err != nil {
		s.log.Error().Err(err).Msg("persist categories")
	}
}
