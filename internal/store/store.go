// Package store provides the key-value persistence port the domain
// services write through, plus its SQLite-backed implementation. The
// in-memory state stays authoritative for the session: callers treat
// failed writes as log-only events and missing or corrupt records fall
// back to caller-supplied defaults.
package store

import "context"

// Key namespace used by the services.
const (
	KeyCategories       = "categories"
	KeyEntities         = "entities"
	BatchKeyPrefix      = "batches:"
	SettlementKeyPrefix = "settlement:"
)

// BatchKey builds the record key for one (entity, category) batch sequence.
func BatchKey(entityID, categoryID string) string {
	return BatchKeyPrefix + entityID + ":" + categoryID
}

// SettlementKey builds the record key for one entity's settlement inputs.
func SettlementKey(entityID string) string {
	return SettlementKeyPrefix + entityID
}

// Store is the persistence port. Values are JSON documents.
type Store interface {
	// Load unmarshals the value stored under key into dest. It reports
	// false when the key is absent or the stored value cannot be
	// decoded, leaving dest untouched so the caller's default applies.
	Load(ctx context.Context, key string, dest any) (bool, error)
	// Save upserts the value under key.
	Save(ctx context.Context, key string, value any) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists all stored keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Ping probes the underlying storage.
	Ping(ctx context.Context) error
	Close() error
}
