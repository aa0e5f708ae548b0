package ledger_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/agropesa/backend-balanza/internal/ledger"
	"github.com/agropesa/backend-balanza/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestService(t *testing.T, st store.Store) *ledger.Service {
	t.Helper()
	var seq int
	svc, err := ledger.NewService(context.Background(), ledger.ServiceConfig{
		Store:  st,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%04d", seq)
		},
	})
	require.NoError(t, err)
	return svc
}

func TestAppendClosesBatchAtSize(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	ctx := context.Background()

	for i := 0; i < ledger.BatchSize; i++ {
		_, err := svc.Append(ctx, "farm-1", "cat-1", 10.5)
		require.NoError(t, err)
	}

	batches := svc.Batches("farm-1", "cat-1")
	require.Len(t, batches, 2)

	closed := batches[0]
	require.Equal(t, ledger.BatchClosed, closed.Status)
	require.Len(t, closed.Entries, ledger.BatchSize)
	require.NotNil(t, closed.Subtotal)
	require.InDelta(t, 52.5, *closed.Subtotal, 1e-12)

	current, ok := svc.CurrentBatch("farm-1", "cat-1")
	require.True(t, ok)
	require.Equal(t, ledger.BatchOpen, current.Status)
	require.Empty(t, current.Entries)
	require.Nil(t, current.Subtotal)
}

func TestAppendRejectsBadInput(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	ctx := context.Background()

	cases := []struct {
		name       string
		entityID   string
		categoryID string
		value      float64
	}{
		{"zero value", "farm-1", "cat-1", 0},
		{"negative value", "farm-1", "cat-1", -3},
		{"blank entity", "", "cat-1", 1},
		{"blank category", "farm-1", "", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Append(ctx, tc.entityID, tc.categoryID, tc.value)
			require.ErrorIs(t, err, ledger.ErrInvalidValue)
		})
	}
	require.Equal(t, 0, svc.TotalEntries("farm-1", "cat-1"))
}

func TestDeleteEntryReopensClosedBatch(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	ctx := context.Background()

	var entries []ledger.WeightEntry
	for i := 0; i < ledger.BatchSize; i++ {
		e, err := svc.Append(ctx, "farm-1", "cat-1", float64(i+1))
		require.NoError(t, err)
		entries = append(entries, e)
	}

	require.NoError(t, svc.DeleteEntry(ctx, "farm-1", "cat-1", entries[2].ID))

	batches := svc.Batches("farm-1", "cat-1")
	reopened := batches[0]
	require.Equal(t, ledger.BatchOpen, reopened.Status)
	require.Len(t, reopened.Entries, ledger.BatchSize-1)
	require.Nil(t, reopened.Subtotal)

	// The tail of the sequence is always an open batch.
	require.Equal(t, ledger.BatchOpen, batches[len(batches)-1].Status)
}

func TestDeleteEntryDropsEmptiedBatch(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	ctx := context.Background()

	for i := 0; i < ledger.BatchSize; i++ {
		_, err := svc.Append(ctx, "farm-1", "cat-1", 2)
		require.NoError(t, err)
	}
	tail, err := svc.Append(ctx, "farm-1", "cat-1", 7)
	require.NoError(t, err)

	// Emptying the open tail batch leaves the closed batch plus a fresh
	// open tail.
	require.NoError(t, svc.DeleteEntry(ctx, "farm-1", "cat-1", tail.ID))
	batches := svc.Batches("farm-1", "cat-1")
	require.Len(t, batches, 2)
	require.Equal(t, ledger.BatchClosed, batches[0].Status)
	require.Equal(t, ledger.BatchOpen, batches[1].Status)
	require.Empty(t, batches[1].Entries)
}

func TestDeleteLastEntryKeepsSequenceNonEmpty(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	ctx := context.Background()

	entry, err := svc.Append(ctx, "farm-1", "cat-1", 4.2)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteEntry(ctx, "farm-1", "cat-1", entry.ID))

	batches := svc.Batches("farm-1", "cat-1")
	require.Len(t, batches, 1)
	require.Equal(t, ledger.BatchOpen, batches[0].Status)
	require.Empty(t, batches[0].Entries)
}

func TestDeleteEntryNotFound(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	ctx := context.Background()

	require.ErrorIs(t, svc.DeleteEntry(ctx, "farm-1", "cat-1", "missing"), ledger.ErrNotFound)

	_, err := svc.Append(ctx, "farm-1", "cat-1", 1)
	require.NoError(t, err)
	require.ErrorIs(t, svc.DeleteEntry(ctx, "farm-1", "cat-1", "missing"), ledger.ErrNotFound)
}

func TestUpdateEntryRecomputesSubtotal(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	ctx := context.Background()

	var first ledger.WeightEntry
	for i := 0; i < ledger.BatchSize; i++ {
		e, err := svc.Append(ctx, "farm-1", "cat-1", 10)
		require.NoError(t, err)
		if i == 0 {
			first = e
		}
	}

	require.NoError(t, svc.UpdateEntry(ctx, "farm-1", "cat-1", first.ID, 20))

	batches := svc.Batches("farm-1", "cat-1")
	closed := batches[0]
	require.Equal(t, ledger.BatchClosed, closed.Status)
	require.NotNil(t, closed.Subtotal)
	require.InDelta(t, 60, *closed.Subtotal, 1e-12)

	require.ErrorIs(t, svc.UpdateEntry(ctx, "farm-1", "cat-1", first.ID, 0), ledger.ErrInvalidValue)
	require.ErrorIs(t, svc.UpdateEntry(ctx, "farm-1", "cat-1", "missing", 5), ledger.ErrNotFound)
}

func TestTotalsUseSafeArithmetic(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.Append(ctx, "farm-1", "cat-1", 0.1)
		require.NoError(t, err)
	}
	// Plain float64 addition would return 0.9999999999999999 here.
	require.Equal(t, 1.0, svc.TotalWeight("farm-1", "cat-1"))
	require.Equal(t, 10, svc.TotalEntries("farm-1", "cat-1"))
}

func TestEntityStatsAggregateAcrossCategories(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	ctx := context.Background()

	for i := 0; i < ledger.BatchSize; i++ {
		_, err := svc.Append(ctx, "farm-1", "cat-a", 2)
		require.NoError(t, err)
	}
	_, err := svc.Append(ctx, "farm-1", "cat-b", 3.5)
	require.NoError(t, err)
	_, err = svc.Append(ctx, "farm-2", "cat-a", 100)
	require.NoError(t, err)

	stats := svc.EntityStats("farm-1")
	require.Equal(t, 13.5, stats.TotalWeight)
	require.Equal(t, ledger.BatchSize+1, stats.TotalEntries)
	require.Equal(t, 1, stats.ClosedBatches)
	require.Equal(t, 13.5, svc.GrandTotal("farm-1"))

	catStats := svc.CategoryStats("farm-1", "cat-a")
	require.Equal(t, 10.0, catStats.TotalWeight)
	require.Equal(t, 1, catStats.ClosedBatches)
}

func TestCategoryDirectory(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	ctx := context.Background()

	require.Len(t, svc.Categories(), 1)
	require.Equal(t, ledger.DefaultCategoryName, svc.DefaultCategory().Name)

	cacao, err := svc.AddCategory(ctx, "Cacao")
	require.NoError(t, err)
	require.NotEmpty(t, cacao.Color)

	t.Run("duplicate names are case-insensitive", func(t *testing.T) {
		_, err := svc.AddCategory(ctx, "  cacao ")
		require.ErrorIs(t, err, ledger.ErrDuplicateName)
	})

	t.Run("blank name is invalid", func(t *testing.T) {
		_, err := svc.AddCategory(ctx, "   ")
		require.ErrorIs(t, err, ledger.ErrInvalidValue)
	})

	t.Run("rename to own name is a no-op", func(t *testing.T) {
		renamed, err := svc.RenameCategory(ctx, cacao.ID, "Cacao")
		require.NoError(t, err)
		require.Equal(t, "Cacao", renamed.Name)
	})

	t.Run("rename onto another name is refused", func(t *testing.T) {
		_, err := svc.RenameCategory(ctx, cacao.ID, "general")
		require.ErrorIs(t, err, ledger.ErrDuplicateName)
	})

	t.Run("rename missing category", func(t *testing.T) {
		_, err := svc.RenameCategory(ctx, "missing", "Coffee")
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})
}

func TestDeleteCategoryGuards(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	ctx := context.Background()

	def := svc.DefaultCategory()
	require.ErrorIs(t, svc.DeleteCategory(ctx, def.ID), ledger.ErrGuardedDeletion)
	require.ErrorIs(t, svc.DeleteCategory(ctx, "missing"), ledger.ErrNotFound)
}

func TestDeleteCategorySweepsEveryEntity(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st)
	ctx := context.Background()

	cacao, err := svc.AddCategory(ctx, "Cacao")
	require.NoError(t, err)

	_, err = svc.Append(ctx, "farm-1", cacao.ID, 5)
	require.NoError(t, err)
	_, err = svc.Append(ctx, "farm-2", cacao.ID, 7)
	require.NoError(t, err)
	_, err = svc.Append(ctx, "farm-1", svc.DefaultCategory().ID, 9)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(ctx, cacao.ID))

	require.Len(t, svc.Categories(), 1)
	require.Equal(t, 0, svc.TotalEntries("farm-1", cacao.ID))
	require.Equal(t, 0, svc.TotalEntries("farm-2", cacao.ID))
	require.Equal(t, 9.0, svc.GrandTotal("farm-1"))

	keys, err := st.Keys(ctx, store.BatchKeyPrefix)
	require.NoError(t, err)
	require.Equal(t, []string{store.BatchKey("farm-1", svc.DefaultCategory().ID)}, keys)
}

func TestDeleteEntityData(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st)
	ctx := context.Background()

	def := svc.DefaultCategory().ID
	_, err := svc.Append(ctx, "farm-1", def, 5)
	require.NoError(t, err)
	_, err = svc.Append(ctx, "farm-2", def, 7)
	require.NoError(t, err)

	svc.DeleteEntityData(ctx, "farm-1")

	require.Equal(t, 0.0, svc.GrandTotal("farm-1"))
	require.Equal(t, 7.0, svc.GrandTotal("farm-2"))

	keys, err := st.Keys(ctx, store.BatchKeyPrefix)
	require.NoError(t, err)
	require.Equal(t, []string{store.BatchKey("farm-2", def)}, keys)
}

func TestHydrationRestoresState(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st)
	ctx := context.Background()

	cacao, err := svc.AddCategory(ctx, "Cacao")
	require.NoError(t, err)
	for i := 0; i < ledger.BatchSize+2; i++ {
		_, err := svc.Append(ctx, "farm-1", cacao.ID, 1.5)
		require.NoError(t, err)
	}

	restored := newTestService(t, st)
	require.Len(t, restored.Categories(), 2)
	require.Equal(t, svc.TotalWeight("farm-1", cacao.ID), restored.TotalWeight("farm-1", cacao.ID))
	require.Equal(t, svc.TotalEntries("farm-1", cacao.ID), restored.TotalEntries("farm-1", cacao.ID))

	batches := restored.Batches("farm-1", cacao.ID)
	require.Len(t, batches, 2)
	require.Equal(t, ledger.BatchClosed, batches[0].Status)
	require.Equal(t, ledger.BatchOpen, batches[1].Status)
}
