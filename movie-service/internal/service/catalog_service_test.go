package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
)

func TestCatalog_ListCachesAndMarksFavorites(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.user(t, "neo")

	saved, err := env.catalog.EnsureMovie(ctx, 603)
	require.NoError(t, err)
	_, err = env.library.ToggleFavorite(ctx, user.ID, saved.ID)
	require.NoError(t, err)

	list, err := env.catalog.List(ctx, user.ID, "", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceTMDB, list.Source)
	require.Len(t, list.Movies, 2)
	for _, m := range list.Movies {
		assert.Equal(t, m.TMDBID == 603, m.IsFavorite, "movie %d", m.TMDBID)
	}

	key := env.cache.BuildKey("tmdb", ModeTrending, "1")
	require.Eventually(t, func() bool { return env.cache.Has(key) }, time.Second, 5*time.Millisecond)

	anon, err := env.catalog.List(ctx, 0, ModeTrending, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, env.tmdb.Calls("trending"), "second listing is served from cache")
	for _, m := range anon.Movies {
		assert.False(t, m.IsFavorite)
	}
}

func TestCatalog_ListRejectsUnknownMode(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.catalog.List(context.Background(), 0, "popular", 1)
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestCatalog_ListFallsBackToSavedMovies(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.tmdb.down.Store(true)

	_, err := env.catalog.List(ctx, 0, ModeTrending, 1)
	assert.ErrorIs(t, err, ErrUpstream, "nothing saved yet")

	_, err = env.movies.Save(ctx, domain.MovieFromTMDB(&gump))
	require.NoError(t, err)

	list, err := env.catalog.List(ctx, 0, ModeTrending, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceDatabase, list.Source)
	require.Len(t, list.Movies, 1)
	assert.Equal(t, "Forrest Gump", list.Movies[0].Title)
	assert.Equal(t, domain.PlaceholderPoster, list.Movies[0].PosterURL)

	_, err = env.catalog.List(ctx, 0, ModeTopRated, 1)
	assert.ErrorIs(t, err, ErrUpstream, "only trending falls back")

	list, err = env.catalog.Discover(ctx, 0, 18, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceDatabase, list.Source)
	_, err = env.catalog.Discover(ctx, 0, 28, 1)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCatalog_SearchCacheIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first, err := env.catalog.Search(ctx, 0, "Matrix", 1)
	require.NoError(t, err)
	require.Len(t, first.Movies, 1)
	assert.Equal(t, "1999", first.Movies[0].ReleaseYear)
	assert.Equal(t, "8.2", first.Movies[0].Rating)
	assert.Equal(t, "https://image.tmdb.org/t/p/w300/matrix.jpg", first.Movies[0].PosterURL)

	second, err := env.catalog.Search(ctx, 0, "  matrix ", 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.tmdb.Calls("search"))

	_, err = env.catalog.Search(ctx, 0, "matrix", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, env.tmdb.Calls("search"), "pages are cached separately")

	env.now = env.now.Add(5*time.Minute + time.Millisecond)
	_, err = env.catalog.Search(ctx, 0, "matrix", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, env.tmdb.Calls("search"), "expired entries are refetched")
}

func TestCatalog_SearchFavoritesDoNotLeakIntoCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.user(t, "trinity")
	saved, err := env.catalog.EnsureMovie(ctx, 603)
	require.NoError(t, err)
	_, err = env.library.ToggleFavorite(ctx, user.ID, saved.ID)
	require.NoError(t, err)

	mine, err := env.catalog.Search(ctx, user.ID, "matrix", 1)
	require.NoError(t, err)
	assert.True(t, mine.Movies[0].IsFavorite)

	anon, err := env.catalog.Search(ctx, 0, "matrix", 1)
	require.NoError(t, err)
	assert.False(t, anon.Movies[0].IsFavorite)
}

func TestCatalog_SearchFallback(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.catalog.Search(ctx, 0, "   ", 1)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = env.movies.Save(ctx, domain.MovieFromTMDB(&matrix))
	require.NoError(t, err)
	env.tmdb.down.Store(true)

	list, err := env.catalog.Search(ctx, 0, "MATRIX", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceDatabase, list.Source)
	require.Len(t, list.Movies, 1)

	list, err = env.catalog.Search(ctx, 0, "alien", 1)
	require.NoError(t, err, "an empty database search is still an answer")
	assert.Empty(t, list.Movies)
	assert.Zero(t, env.catalog.SearchCache().Len(), "fallback results are not cached")
}

func TestCatalog_GenresFallback(t *testing.T) {
	env := newTestEnv(t)
	env.tmdb.down.Store(true)

	genres, err := env.catalog.Genres(context.Background())
	require.NoError(t, err)
	assert.Len(t, genres, 19)
	assert.Equal(t, domain.Genre{ID: 28, Name: "Action"}, genres[0])
}

func TestCatalog_DetailsAssemblesParts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	d, err := env.catalog.Details(ctx, 603)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", d.Title)
	require.Len(t, d.Cast, 2)
	assert.Equal(t, "Keanu Reeves", d.Cast[0].Name, "cast is ordered by billing")
	assert.Equal(t, "Lana Wachowski", d.Director)
	require.NotNil(t, d.Trailer)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", d.Trailer.URL)
	assert.Len(t, d.Similar, 6)
	assert.Equal(t, []domain.Provider{
		{Name: "Max", Kind: "stream"},
		{Name: "Apple TV", Kind: "buy"},
	}, d.Providers)

	saved, err := env.movies.GetByTMDBID(ctx, 603)
	require.NoError(t, err, "details are saved")
	assert.Equal(t, 136, saved.Runtime)
}

func TestCatalog_DetailsOptionalPartsMayFail(t *testing.T) {
	env := newTestEnv(t)
	env.tmdb.noCredits.Store(true)

	d, err := env.catalog.Details(context.Background(), 603)
	require.NoError(t, err)
	assert.Empty(t, d.Cast)
	assert.Empty(t, d.Director)
	assert.NotNil(t, d.Trailer)
}

func TestCatalog_DetailsErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.catalog.Details(ctx, 42)
	assert.ErrorIs(t, err, ErrMovieNotFound)

	_, err = env.movies.Save(ctx, domain.MovieFromTMDB(&gump))
	require.NoError(t, err)
	env.tmdb.down.Store(true)

	d, err := env.catalog.Details(ctx, 13)
	require.NoError(t, err, "saved movie is served while TMDB is down")
	assert.Equal(t, "Forrest Gump", d.Title)

	_, err = env.catalog.Details(ctx, 603)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCatalog_EnsureMovieFetchesOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first, err := env.catalog.EnsureMovie(ctx, 603)
	require.NoError(t, err)
	second, err := env.catalog.EnsureMovie(ctx, 603)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, env.tmdb.Calls("details"))

	_, err = env.catalog.EnsureMovie(ctx, 42)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}
