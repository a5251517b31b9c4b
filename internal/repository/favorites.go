package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"pdbench/internal/domain"
	"pdbench/internal/logging"
	"pdbench/internal/ports"
)

// Favorites is the flat, session-independent collection of saved
// configurations.
type Favorites struct {
	store ports.Store

	mu   sync.Mutex
	byID map[string]domain.FavoriteConfig
}

// LoadFavorites loads all favorite configs from the store. Records that no
// longer decode are dropped and removed, mirroring the session integrity
// pass.
func LoadFavorites(ctx context.Context, store ports.Store) (*Favorites, error) {
	recs, err := store.GetAll(ctx, ports.CollectionFavorites)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite configs: %w", err)
	}

	f := &Favorites{
		store: store,
		byID:  make(map[string]domain.FavoriteConfig, len(recs)),
	}
	for _, rec := range recs {
		var fav domain.FavoriteConfig
		if err := json.Unmarshal(rec.Payload, &fav); err != nil {
			logging.Logger.Warn("discarding unreadable favorite record",
				"id", rec.ID, "error", err)
			if err := store.Delete(ctx, ports.CollectionFavorites, rec.ID); err != nil {
				logging.Logger.Warn("failed to persist favorite prune", "id", rec.ID, "error", err)
			}
			continue
		}
		f.byID[fav.ID] = fav
	}
	return f, nil
}

// Get returns the favorite with the given id.
func (f *Favorites) Get(id string) (domain.FavoriteConfig, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fav, ok := f.byID[id]
	return fav, ok
}

// List returns all favorites ordered by creation time, oldest first.
func (f *Favorites) List() []domain.FavoriteConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.FavoriteConfig, 0, len(f.byID))
	for _, fav := range f.byID {
		out = append(out, fav)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Put persists the favorite, then updates the in-memory view.
func (f *Favorites) Put(ctx context.Context, fav domain.FavoriteConfig) error {
	payload, err := json.Marshal(fav)
	if err != nil {
		return fmt.Errorf("failed to marshal favorite config: %w", err)
	}

	rec := ports.Record{
		ID:        fav.ID,
		CreatedAt: fav.CreatedAt,
		UpdatedAt: fav.CreatedAt,
		Payload:   payload,
	}
	if err := f.store.Put(ctx, ports.CollectionFavorites, rec); err != nil {
		return fmt.Errorf("failed to persist favorite config %s: %w", fav.ID, err)
	}

	f.mu.Lock()
	f.byID[fav.ID] = fav
	f.mu.Unlock()
	return nil
}

// Delete removes the favorite.
func (f *Favorites) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	_, ok := f.byID[id]
	f.mu.Unlock()
	if !ok {
		return domain.ErrFavoriteNotFound
	}

	if err := f.store.Delete(ctx, ports.CollectionFavorites, id); err != nil {
		return fmt.Errorf("failed to delete favorite config %s: %w", id, err)
	}

	f.mu.Lock()
	delete(f.byID, id)
	f.mu.Unlock()
	return nil
}
