package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/repository"
	"github.com/weiawesome/cinema-chronicles/pkg/pubsub"
	"github.com/weiawesome/cinema-chronicles/pkg/storage"
)

func TestExport_WritesDocument(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.user(t, "neo")
	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), URLPrefix: "/api/v1/exports/"})
	require.NoError(t, err)
	bus := pubsub.NewMemoryPubSub()
	t.Cleanup(func() { _ = bus.Close() })
	events, err := bus.SubscribePattern(ctx, pubsub.ActivityPattern(pubsub.KindDataExported))
	require.NoError(t, err)

	lib := newLibrary(env, nil)
	_, err = lib.ToggleFavorite(ctx, user.ID, 603)
	require.NoError(t, err)
	_, err = lib.AddToHistory(ctx, user.ID, 13)
	require.NoError(t, err)

	svc := NewExportService(ExportDeps{
		Library:     env.library,
		Preferences: NewPreferencesService(repository.NewGormPreferencesRepository(env.db), nil, nil),
		Storage:     store,
		Publisher:   bus,
		Now:         func() time.Time { return env.now },
	})

	res, err := svc.Export(ctx, user)
	require.NoError(t, err)
	wantKey := user.IDString() + "/neo_cinema_chronicles_data_20240501T120000.json"
	assert.Equal(t, wantKey, res.Key)
	assert.Equal(t, "/api/v1/exports/"+wantKey, res.URL)
	require.Len(t, events, 1)

	r, err := svc.Open(ctx, user.ID, res.Key)
	require.NoError(t, err)
	defer r.Close()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)

	var doc domain.ExportDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "neo", doc.User)
	require.Len(t, doc.Favorites, 1)
	assert.Equal(t, "The Matrix", doc.Favorites[0].Title)
	assert.Equal(t, 8.2, doc.Favorites[0].Rating)
	require.Len(t, doc.WatchHistory, 1)
	assert.Equal(t, 13, doc.WatchHistory[0].TMDBID)
	assert.Equal(t, "auto", doc.Preferences.Theme)
}

func TestExport_OpenIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)
	svc := NewExportService(ExportDeps{
		Library:     env.library,
		Preferences: NewPreferencesService(repository.NewGormPreferencesRepository(env.db), nil, nil),
		Storage:     store,
	})

	neo := env.user(t, "neo")
	res, err := svc.Export(ctx, neo)
	require.NoError(t, err)

	_, err = svc.Open(ctx, neo.ID+1, res.Key)
	assert.ErrorIs(t, err, ErrExportNotFound)
	_, err = svc.Open(ctx, neo.ID, neo.IDString()+"/../secret.json")
	assert.ErrorIs(t, err, ErrExportNotFound)
	_, err = svc.Open(ctx, neo.ID, neo.IDString()+"/missing.json")
	assert.ErrorIs(t, err, ErrExportNotFound)
}
