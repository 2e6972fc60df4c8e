package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/repository"
	"github.com/weiawesome/cinema-chronicles/pkg/pubsub"
)

func newLibrary(env *testEnv, pub pubsub.Publisher) LibraryService {
	return NewLibraryService(LibraryDeps{
		Catalog:     env.catalog,
		Library:     env.library,
		Preferences: repository.NewGormPreferencesRepository(env.db),
		Cache:       env.cache,
		Publisher:   pub,
		Images:      domain.Images{BaseURL: "https://image.tmdb.org/t/p"},
		StatsTTL:    5 * time.Minute,
		Now:         func() time.Time { return env.now },
	})
}

func TestLibrary_ToggleFavoritePublishesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.user(t, "neo")
	bus := pubsub.NewMemoryPubSub()
	t.Cleanup(func() { _ = bus.Close() })
	events, err := bus.SubscribePattern(ctx, pubsub.PatternAllActivity)
	require.NoError(t, err)
	lib := newLibrary(env, bus)

	stats, err := lib.Stats(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.FavoritesCount)
	statsKey := env.cache.BuildKey("stats", user.IDString())
	require.Eventually(t, func() bool { return env.cache.Has(statsKey) }, time.Second, 5*time.Millisecond)

	res, err := lib.ToggleFavorite(ctx, user.ID, 603)
	require.NoError(t, err)
	assert.Equal(t, &domain.ToggleResult{IsFavorite: true, Action: "added", Message: "Movie added to favorites"}, res)
	assert.False(t, env.cache.Has(statsKey), "stats are invalidated")

	select {
	case ev := <-events:
		assert.Equal(t, pubsub.KindFavoriteToggled, ev.Type)
		assert.Equal(t, user.IDString(), ev.UserID)
		var payload pubsub.FavoriteToggledPayload
		require.NoError(t, ev.UnmarshalPayload(&payload))
		assert.Equal(t, pubsub.FavoriteToggledPayload{TMDBID: 603, IsFavorite: true}, payload)
	case <-time.After(time.Second):
		t.Fatal("no activity event")
	}

	stats, err = lib.Stats(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.FavoritesCount)

	res, err = lib.ToggleFavorite(ctx, user.ID, 603)
	require.NoError(t, err)
	assert.False(t, res.IsFavorite)
	assert.Equal(t, "Movie removed from favorites", res.Message)
}

func TestLibrary_ToggleUnknownMovie(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "neo")

	_, err := newLibrary(env, nil).ToggleFavorite(context.Background(), user.ID, 42)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestLibrary_HistoryIsPerDay(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.user(t, "trinity")
	lib := newLibrary(env, nil)

	res, err := lib.AddToHistory(ctx, user.ID, 603)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionAdded, res.Action)
	assert.Equal(t, "Movie added to watch history", res.Message)

	env.now = env.now.Add(time.Hour)
	res, err = lib.AddToHistory(ctx, user.ID, 603)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionUpdated, res.Action)
	assert.True(t, res.IsWatched)

	_, err = lib.AddToHistory(ctx, user.ID, 13)
	require.NoError(t, err)

	entries, total, err := lib.History(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, entries, 2)

	stats, err := lib.Stats(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.WatchedCount)
}

func TestLibrary_FavoritesPaging(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.user(t, "morpheus")
	lib := newLibrary(env, nil)

	for i := 1; i <= domain.HistoryPerPage+1; i++ {
		m, err := env.movies.Save(ctx, &domain.Movie{TMDBID: 5000 + i, Title: "Movie"})
		require.NoError(t, err)
		_, err = env.library.ToggleFavorite(ctx, user.ID, m.ID)
		require.NoError(t, err)
	}

	first, total, err := lib.Favorites(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, domain.HistoryPerPage+1, total)
	assert.Len(t, first, domain.HistoryPerPage)
	assert.True(t, first[0].Movie.IsFavorite)

	second, _, err := lib.Favorites(ctx, user.ID, 2)
	require.NoError(t, err)
	assert.Len(t, second, 1)
}

func TestLibrary_DecorateAutoAddsHistory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.user(t, "oracle")
	lib := newLibrary(env, nil)

	d, err := env.catalog.Details(ctx, 603)
	require.NoError(t, err)
	lib.Decorate(ctx, user.ID, d)
	assert.True(t, d.IsWatched, "views are recorded by default")
	assert.False(t, d.IsFavorite)

	prefs := repository.NewGormPreferencesRepository(env.db)
	off := domain.DefaultPreferences()
	off.AutoAddToHistory = false
	require.NoError(t, prefs.Save(ctx, user.ID, off))

	d, err = env.catalog.Details(ctx, 13)
	require.NoError(t, err)
	lib.Decorate(ctx, user.ID, d)
	assert.False(t, d.IsWatched)

	anon, err := env.catalog.Details(ctx, 13)
	require.NoError(t, err)
	lib.Decorate(ctx, 0, anon)
	assert.False(t, anon.IsWatched)
}
