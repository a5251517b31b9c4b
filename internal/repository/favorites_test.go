package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdbench/internal/domain"
	"pdbench/internal/ports"
)

func TestFavorites_PutListDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	favorites, err := LoadFavorites(ctx, store)
	require.NoError(t, err)

	require.NoError(t, favorites.Put(ctx, domain.FavoriteConfig{
		ID: "f2", Name: "later", Config: domain.DefaultOpticalConfig(2), CreatedAt: base.Add(time.Hour),
	}))
	require.NoError(t, favorites.Put(ctx, domain.FavoriteConfig{
		ID: "f1", Name: "earlier", Config: domain.DefaultOpticalConfig(2), CreatedAt: base,
	}))

	list := favorites.List()
	require.Len(t, list, 2)
	assert.Equal(t, "f1", list[0].ID)
	assert.Equal(t, "f2", list[1].ID)

	require.NoError(t, favorites.Delete(ctx, "f1"))
	_, ok := favorites.Get("f1")
	assert.False(t, ok)

	err = favorites.Delete(ctx, "f1")
	assert.ErrorIs(t, err, domain.ErrFavoriteNotFound)
}

func TestLoadFavorites_DiscardsUnreadableRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	good := domain.FavoriteConfig{ID: "good", Name: "ok", Config: domain.DefaultOpticalConfig(2), CreatedAt: now}
	payload, err := json.Marshal(good)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, ports.CollectionFavorites, ports.Record{
		ID: "good", CreatedAt: now, UpdatedAt: now, Payload: payload,
	}))
	require.NoError(t, store.Put(ctx, ports.CollectionFavorites, ports.Record{
		ID: "bad", CreatedAt: now, UpdatedAt: now, Payload: json.RawMessage(`{broken`),
	}))

	favorites, err := LoadFavorites(ctx, store)
	require.NoError(t, err)

	_, ok := favorites.Get("good")
	assert.True(t, ok)
	_, ok = favorites.Get("bad")
	assert.False(t, ok)

	rec, err := store.Get(ctx, ports.CollectionFavorites, "bad")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFavorites_SurviveReload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	favorites, err := LoadFavorites(ctx, store)
	require.NoError(t, err)
	require.NoError(t, favorites.Put(ctx, domain.FavoriteConfig{
		ID: "f1", Name: "saved", Config: domain.DefaultOpticalConfig(3), ImageCount: 3, CreatedAt: now,
	}))

	reloaded, err := LoadFavorites(ctx, store)
	require.NoError(t, err)
	fav, ok := reloaded.Get("f1")
	require.True(t, ok)
	assert.Equal(t, "saved", fav.Name)
	assert.Equal(t, 3, fav.ImageCount)
	assert.Len(t, fav.Config.Illum, 3)
}
