package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/cache"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/repository"
	"github.com/weiawesome/cinema-chronicles/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: ":memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, domain.Models()...))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// memCache is an in-memory cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func (c *memCache) BuildKey(parts ...string) string {
	return "test:" + strings.Join(parts, ":")
}

func (c *memCache) Close() error { return nil }

// fakeTMDB serves canned movies. With down set every call fails with
// ErrUpstream.
type fakeTMDB struct {
	mu        sync.Mutex
	movies    map[int]domain.TMDBMovie
	down      atomic.Bool
	noCredits atomic.Bool
	calls     map[string]int
}

func newFakeTMDB(movies ...domain.TMDBMovie) *fakeTMDB {
	f := &fakeTMDB{movies: make(map[int]domain.TMDBMovie), calls: make(map[string]int)}
	for _, m := range movies {
		f.movies[m.ID] = m
	}
	return f
}

func (f *fakeTMDB) hit(endpoint string) error {
	f.mu.Lock()
	f.calls[endpoint]++
	f.mu.Unlock()
	if f.down.Load() {
		return fmt.Errorf("%w: %s", repository.ErrUpstream, endpoint)
	}
	return nil
}

func (f *fakeTMDB) Calls(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *fakeTMDB) page(endpoint string, page int) (*domain.TMDBPage, error) {
	if err := f.hit(endpoint); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	res := &domain.TMDBPage{Page: page, TotalPages: 3}
	for _, m := range f.movies {
		res.Results = append(res.Results, m)
	}
	res.TotalResults = len(res.Results)
	return res, nil
}

func (f *fakeTMDB) Trending(_ context.Context, page int) (*domain.TMDBPage, error) {
	return f.page("trending", page)
}

func (f *fakeTMDB) TopRated(_ context.Context, page int) (*domain.TMDBPage, error) {
	return f.page("top_rated", page)
}

func (f *fakeTMDB) Upcoming(_ context.Context, page int) (*domain.TMDBPage, error) {
	return f.page("upcoming", page)
}

func (f *fakeTMDB) Search(_ context.Context, query string, page int) (*domain.TMDBPage, error) {
	res, err := f.page("search", page)
	if err != nil {
		return nil, err
	}
	filtered := res.Results[:0]
	for _, m := range res.Results {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(query)) {
			filtered = append(filtered, m)
		}
	}
	res.Results = filtered
	res.TotalResults = len(filtered)
	return res, nil
}

func (f *fakeTMDB) Discover(_ context.Context, _ int, page int) (*domain.TMDBPage, error) {
	return f.page("discover", page)
}

func (f *fakeTMDB) Details(_ context.Context, tmdbID int) (*domain.TMDBMovie, error) {
	if err := f.hit("details"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.movies[tmdbID]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return &m, nil
}

func (f *fakeTMDB) Credits(_ context.Context, _ int) (*domain.TMDBCredits, error) {
	if err := f.hit("credits"); err != nil {
		return nil, err
	}
	if f.noCredits.Load() {
		return nil, fmt.Errorf("%w: credits", repository.ErrUpstream)
	}
	var c domain.TMDBCredits
	err := json.Unmarshal([]byte(`{
		"cast": [
			{"name": "Carrie-Anne Moss", "character": "Trinity", "order": 1},
			{"name": "Keanu Reeves", "character": "Neo", "order": 0}
		],
		"crew": [
			{"name": "Bill Pope", "job": "Director of Photography"},
			{"name": "Lana Wachowski", "job": "Director"}
		]
	}`), &c)
	return &c, err
}

func (f *fakeTMDB) Videos(_ context.Context, _ int) (*domain.TMDBVideos, error) {
	if err := f.hit("videos"); err != nil {
		return nil, err
	}
	return &domain.TMDBVideos{Results: []domain.Video{
		{Key: "teaser", Site: "YouTube", Type: "Teaser"},
		{Key: "vimeo", Site: "Vimeo", Type: "Trailer"},
		{Key: "abc123", Site: "YouTube", Type: "Trailer"},
	}}, nil
}

func (f *fakeTMDB) Similar(_ context.Context, _ int) (*domain.TMDBPage, error) {
	if err := f.hit("similar"); err != nil {
		return nil, err
	}
	res := &domain.TMDBPage{Page: 1}
	for i := 1; i <= 9; i++ {
		res.Results = append(res.Results, domain.TMDBMovie{ID: 1000 + i, Title: fmt.Sprintf("Similar %d", i)})
	}
	return res, nil
}

func (f *fakeTMDB) Providers(_ context.Context, _ int) (*domain.TMDBProviders, error) {
	if err := f.hit("providers"); err != nil {
		return nil, err
	}
	var p domain.TMDBProviders
	err := json.Unmarshal([]byte(`{"results": {
		"US": {"flatrate": [{"provider_name": "Max"}], "buy": [{"provider_name": "Apple TV"}]},
		"GB": {"flatrate": [{"provider_name": "Netflix"}]}
	}}`), &p)
	return &p, err
}

func (f *fakeTMDB) Genres(_ context.Context) ([]domain.Genre, error) {
	if err := f.hit("genres"); err != nil {
		return nil, err
	}
	return []domain.Genre{{ID: 28, Name: "Action"}}, nil
}

var (
	matrix = domain.TMDBMovie{
		ID:          603,
		Title:       "The Matrix",
		PosterPath:  "/matrix.jpg",
		ReleaseDate: "1999-03-30",
		VoteAverage: 8.2,
		Runtime:     136,
		Genres:      []domain.Genre{{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}},
	}
	gump = domain.TMDBMovie{
		ID:          13,
		Title:       "Forrest Gump",
		ReleaseDate: "1994-06-23",
		VoteAverage: 8.5,
		Genres:      []domain.Genre{{ID: 18, Name: "Drama"}},
	}
)

type testEnv struct {
	db      *gorm.DB
	tmdb    *fakeTMDB
	cache   *memCache
	movies  *repository.GormMovieRepository
	library *repository.GormLibraryRepository
	catalog CatalogService
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		db:    newTestDB(t),
		tmdb:  newFakeTMDB(matrix, gump),
		cache: newMemCache(),
		now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	env.movies = repository.NewGormMovieRepository(env.db)
	env.library = repository.NewGormLibraryRepository(env.db)
	env.catalog = NewCatalogService(CatalogDeps{
		TMDB:    env.tmdb,
		Movies:  env.movies,
		Library: env.library,
		Cache:   env.cache,
	}, CatalogConfig{
		Images:         domain.Images{BaseURL: "https://image.tmdb.org/t/p"},
		Region:         "US",
		TTLList:        10 * time.Minute,
		TTLDetails:     time.Hour,
		TTLGenres:      time.Hour,
		SearchTTL:      5 * time.Minute,
		SearchCapacity: 10,
		Now:            func() time.Time { return env.now },
	})
	return env
}

func (e *testEnv) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, repository.NewGormAccountRepository(e.db).Create(context.Background(), u))
	return u
}
