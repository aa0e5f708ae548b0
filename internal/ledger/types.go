package ledger

import "time"

// BatchSize is the fixed number of readings that closes a batch.
const BatchSize = 5

// BatchStatus describes the batch lifecycle.
type BatchStatus string

const (
	// BatchOpen accepts further readings.
	BatchOpen BatchStatus = "open"
	// BatchClosed holds exactly BatchSize readings and a subtotal.
	BatchClosed BatchStatus = "closed"
)

// WeightEntry is a single scale reading. Only Value may change after
// creation, via UpdateEntry.
type WeightEntry struct {
	ID         string    `json:"id"`
	Value      float64   `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
	CategoryID string    `json:"categoryId"`
	EntityID   string    `json:"entityId"`
}

// Batch groups up to BatchSize sequential readings for one
// (entity, category) pair. Subtotal is present iff the batch is closed,
// and then equals the safe sum of its entry values.
type Batch struct {
	ID         string        `json:"id"`
	Entries    []WeightEntry `json:"entries"`
	Status     BatchStatus   `json:"status"`
	Subtotal   *float64      `json:"subtotal,omitempty"`
	CategoryID string        `json:"categoryId"`
	EntityID   string        `json:"entityId"`
}

// Category classifies the produce a reading belongs to. Names are
// unique case-insensitively across the directory.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats aggregates readings for one scope (a category of an entity, or
// a whole entity).
type Stats struct {
	TotalWeight   float64 `json:"totalWeight"`
	TotalEntries  int     `json:"totalEntries"`
	ClosedBatches int     `json:"closedBatches"`
}
