package ports

import (
	"context"
	"encoding/json"
	"time"
)

// Logical collections the store knows about.
const (
	CollectionSessions  = "sessions"
	CollectionFavorites = "favorite_configs"
)

// Meta keys. The current-session pointer lives in its own slot so it can be
// resolved (and cleared when dangling) independently of the collections.
const MetaCurrentSession = "current_session_id"

// Record is one stored document. Payload is the JSON encoding of the entity;
// the store treats it as opaque.
type Record struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Store is the uniform CRUD contract both backends implement: the
// serialize-on-write file store and the transactional sqlite store. The rest
// of the system is written against this interface only; the concrete backend
// is selected at composition time.
type Store interface {
	// Get returns the record, or (nil, nil) when the id is unknown.
	Get(ctx context.Context, collection, id string) (*Record, error)

	// GetAll returns all records of a collection ordered by CreatedAt
	// ascending.
	GetAll(ctx context.Context, collection string) ([]Record, error)

	// Put inserts or replaces a record. On failure the previously committed
	// state stays intact; no partial write becomes visible.
	Put(ctx context.Context, collection string, rec Record) error

	// Delete removes a record. Deleting an unknown id is not an error.
	Delete(ctx context.Context, collection, id string) error

	// GetMeta returns a scalar slot, or "" when unset.
	GetMeta(ctx context.Context, key string) (string, error)

	// SetMeta writes a scalar slot. An empty value clears it.
	SetMeta(ctx context.Context, key, value string) error

	Close() error
}
