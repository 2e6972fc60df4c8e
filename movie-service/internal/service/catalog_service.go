package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/cache"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/metrics"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/repository"
	"github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/searchcache"
)

const (
	// TMDB serves at most 500 pages of any listing.
	maxPage       = 500
	fallbackLimit = 20
	similarLimit  = 6
	castLimit     = 10
)

// CatalogConfig holds the catalog's cache lifetimes and image settings.
type CatalogConfig struct {
	Images         domain.Images
	Region         string
	TTLList        time.Duration
	TTLDetails     time.Duration
	TTLGenres      time.Duration
	SearchTTL      time.Duration
	SearchCapacity int
	// Now is the search cache clock; nil means time.Now.
	Now func() time.Time
}

// CatalogDeps are the collaborators of the catalog. Index, Library and
// Metrics may be nil.
type CatalogDeps struct {
	TMDB    repository.Catalog
	Movies  repository.MovieRepository
	Library repository.LibraryRepository
	Index   repository.MovieIndex
	Cache   cache.Cache
	Metrics *metrics.Collector
}

type catalogServiceImpl struct {
	CatalogDeps
	cfg    CatalogConfig
	search *searchcache.Cache[*domain.MovieList]
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(deps CatalogDeps, cfg CatalogConfig) CatalogService {
	return &catalogServiceImpl{
		CatalogDeps: deps,
		cfg:         cfg,
		search: searchcache.New[*domain.MovieList](
			searchcache.WithTTL(cfg.SearchTTL),
			searchcache.WithCapacity(cfg.SearchCapacity),
			searchcache.WithClock(cfg.Now),
		),
	}
}

func (s *catalogServiceImpl) SearchCache() *searchcache.Cache[*domain.MovieList] {
	return s.search
}

func (s *catalogServiceImpl) List(ctx context.Context, userID uint, mode string, page int) (*domain.MovieList, error) {
	page = normalizePage(page)

	var fetch func(ctx context.Context, page int) (*domain.TMDBPage, error)
	switch mode {
	case "", ModeTrending:
		mode, fetch = ModeTrending, s.TMDB.Trending
	case ModeTopRated:
		fetch = s.TMDB.TopRated
	case ModeUpcoming:
		fetch = s.TMDB.Upcoming
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	key := s.Cache.BuildKey("tmdb", mode, strconv.Itoa(page))
	res, err := cached(ctx, s, key, mode, s.cfg.TTLList, func(ctx context.Context) (*domain.TMDBPage, error) {
		return fetch(ctx, page)
	})
	if err != nil {
		if mode != ModeTrending || !isUpstreamFailure(err) {
			return nil, err
		}
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldMode, mode).Msg("tmdb unavailable, serving saved movies")
		return s.fromDatabase(ctx, userID, func(ctx context.Context) ([]*domain.Movie, error) {
			return s.Movies.Recent(ctx, fallbackLimit)
		}, false)
	}

	list := s.toList(res, domain.SourceTMDB)
	s.markFavorites(ctx, userID, list)
	return list, nil
}

// Search serves repeated queries from the in-process search cache. The
// cached list is shared, so per-user flags are set on a copy.
func (s *catalogServiceImpl) Search(ctx context.Context, userID uint, query string, page int) (*domain.MovieList, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	page = normalizePage(page)
	l := log.Ctx(ctx)
	key := searchKey(query, page)

	if list, ok := s.search.Get(key); ok {
		s.Metrics.RecordCache(metrics.LayerSearch, "search", true)
		l.Debug().Str(log.FieldQuery, query).Bool(log.FieldCacheHit, true).Msg("search served from cache")
		out := cloneList(list)
		s.markFavorites(ctx, userID, out)
		return out, nil
	}
	s.Metrics.RecordCache(metrics.LayerSearch, "search", false)

	res, err := s.TMDB.Search(ctx, query, page)
	if err != nil {
		if !isUpstreamFailure(err) {
			return nil, err
		}
		l.Warn().Err(err).Str(log.FieldQuery, query).Msg("tmdb search failed, searching saved movies")
		return s.searchFallback(ctx, userID, query)
	}

	list := s.toList(res, domain.SourceTMDB)
	s.search.Put(key, list)

	out := cloneList(list)
	s.markFavorites(ctx, userID, out)
	return out, nil
}

func (s *catalogServiceImpl) searchFallback(ctx context.Context, userID uint, query string) (*domain.MovieList, error) {
	if s.Index != nil {
		movies, err := s.Index.Search(ctx, query, fallbackLimit)
		if err == nil && len(movies) > 0 {
			list := s.moviesToList(movies, domain.SourceIndex)
			s.markFavorites(ctx, userID, list)
			return list, nil
		}
		if err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldQuery, query).Msg("movie index search failed")
		}
	}
	return s.fromDatabase(ctx, userID, func(ctx context.Context) ([]*domain.Movie, error) {
		return s.Movies.SearchTitle(ctx, query, fallbackLimit)
	}, true)
}

func (s *catalogServiceImpl) Discover(ctx context.Context, userID uint, genreID, page int) (*domain.MovieList, error) {
	page = normalizePage(page)
	key := s.Cache.BuildKey("tmdb", "discover", strconv.Itoa(genreID), strconv.Itoa(page))

	res, err := cached(ctx, s, key, "discover", s.cfg.TTLList, func(ctx context.Context) (*domain.TMDBPage, error) {
		return s.TMDB.Discover(ctx, genreID, page)
	})
	if err != nil {
		if !isUpstreamFailure(err) {
			return nil, err
		}
		l := log.Ctx(ctx)
		l.Warn().Err(err).Int("genre", genreID).Msg("tmdb discover failed, serving saved movies")
		return s.fromDatabase(ctx, userID, func(ctx context.Context) ([]*domain.Movie, error) {
			return s.Movies.ByGenre(ctx, genreID, fallbackLimit)
		}, false)
	}

	list := s.toList(res, domain.SourceTMDB)
	s.markFavorites(ctx, userID, list)
	return list, nil
}

// fromDatabase serves saved movies while TMDB is down. Unless allowEmpty is
// set, an empty result is reported as ErrUpstream.
func (s *catalogServiceImpl) fromDatabase(ctx context.Context, userID uint, load func(ctx context.Context) ([]*domain.Movie, error), allowEmpty bool) (*domain.MovieList, error) {
	movies, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fallback query failed: %v", ErrUpstream, err)
	}
	if len(movies) == 0 && !allowEmpty {
		return nil, ErrUpstream
	}
	list := s.moviesToList(movies, domain.SourceDatabase)
	s.markFavorites(ctx, userID, list)
	return list, nil
}

func (s *catalogServiceImpl) Genres(ctx context.Context) ([]domain.Genre, error) {
	key := s.Cache.BuildKey("tmdb", "genres")
	genres, err := cached(ctx, s, key, "genres", s.cfg.TTLGenres, func(ctx context.Context) (*[]domain.Genre, error) {
		g, err := s.TMDB.Genres(ctx)
		if err != nil {
			return nil, err
		}
		return &g, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("tmdb genres unavailable, serving fallback list")
		return append([]domain.Genre(nil), domain.FallbackGenres...), nil
	}
	return *genres, nil
}

// Details assembles the detail view from five TMDB calls made in parallel.
// Only the movie record itself is required; the rest is best effort.
func (s *catalogServiceImpl) Details(ctx context.Context, tmdbID int) (*domain.MovieDetails, error) {
	key := s.Cache.BuildKey("tmdb", "details", strconv.Itoa(tmdbID))
	var d domain.MovieDetails
	err := s.Cache.Get(ctx, key, &d)
	if err == nil {
		s.Metrics.RecordCache(metrics.LayerRedis, "details", true)
		return &d, nil
	}
	s.logCacheError(ctx, key, err)
	s.Metrics.RecordCache(metrics.LayerRedis, "details", false)

	details, err := s.fetchDetails(ctx, tmdbID)
	if err != nil {
		if !isUpstreamFailure(err) {
			return nil, err
		}
		saved, dbErr := s.Movies.GetByTMDBID(ctx, tmdbID)
		if dbErr != nil {
			return nil, err
		}
		l := log.Ctx(ctx)
		l.Warn().Err(err).Int(log.FieldTMDBID, tmdbID).Msg("tmdb details failed, serving saved movie")
		t := saved.ToTMDB()
		return s.toDetails(&t), nil
	}

	s.asyncCacheSet(key, *details, s.cfg.TTLDetails)
	return details, nil
}

func (s *catalogServiceImpl) fetchDetails(ctx context.Context, tmdbID int) (*domain.MovieDetails, error) {
	var (
		movie     *domain.TMDBMovie
		credits   *domain.TMDBCredits
		videos    *domain.TMDBVideos
		similar   *domain.TMDBPage
		providers *domain.TMDBProviders
	)
	l := log.Ctx(ctx)
	optional := func(part string, err error) {
		if err != nil && ctx.Err() == nil {
			l.Warn().Err(err).Int(log.FieldTMDBID, tmdbID).Str(log.FieldEndpoint, part).Msg("optional movie data unavailable")
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movie, err = s.TMDB.Details(gCtx, tmdbID)
		return err
	})
	g.Go(func() error {
		var err error
		credits, err = s.TMDB.Credits(gCtx, tmdbID)
		optional("credits", err)
		return nil
	})
	g.Go(func() error {
		var err error
		videos, err = s.TMDB.Videos(gCtx, tmdbID)
		optional("videos", err)
		return nil
	})
	g.Go(func() error {
		var err error
		similar, err = s.TMDB.Similar(gCtx, tmdbID)
		optional("similar", err)
		return nil
	})
	g.Go(func() error {
		var err error
		providers, err = s.TMDB.Providers(gCtx, tmdbID)
		optional("providers", err)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.saveMovie(ctx, movie)

	d := s.toDetails(movie)
	if credits != nil {
		d.Cast, d.Director = castAndDirector(credits)
	}
	d.Trailer = videos.Trailer()
	if similar != nil {
		for i := range similar.Results {
			if len(d.Similar) == similarLimit {
				break
			}
			d.Similar = append(d.Similar, s.cfg.Images.Summarize(&similar.Results[i]))
		}
	}
	if providers != nil {
		d.Providers = regionProviders(providers, s.cfg.Region)
	}
	return d, nil
}

func (s *catalogServiceImpl) EnsureMovie(ctx context.Context, tmdbID int) (*domain.Movie, error) {
	movie, err := s.Movies.GetByTMDBID(ctx, tmdbID)
	if err == nil {
		return movie, nil
	}
	if !errors.Is(err, repository.ErrMovieNotFound) {
		return nil, err
	}

	t, err := s.TMDB.Details(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	saved, err := s.Movies.Save(ctx, domain.MovieFromTMDB(t))
	if err != nil {
		return nil, err
	}
	s.asyncIndex(saved)
	return saved, nil
}

// saveMovie stores a fetched movie. Failures are logged; the response does
// not depend on them.
func (s *catalogServiceImpl) saveMovie(ctx context.Context, t *domain.TMDBMovie) {
	saved, err := s.Movies.Save(ctx, domain.MovieFromTMDB(t))
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Int(log.FieldTMDBID, t.ID).Msg("failed to save movie")
		return
	}
	s.asyncIndex(saved)
}

func (s *catalogServiceImpl) asyncIndex(m *domain.Movie) {
	if s.Index == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.Index.Index(ctx, m); err != nil {
			l := log.L()
			l.Warn().Err(err).Int(log.FieldTMDBID, m.TMDBID).Msg("movie index error")
		}
	}()
}

// cached reads key from the shared cache and falls back to fetch, storing
// its result asynchronously.
func cached[T any](ctx context.Context, s *catalogServiceImpl, key, resource string, ttl time.Duration, fetch func(ctx context.Context) (*T, error)) (*T, error) {
	var v T
	err := s.Cache.Get(ctx, key, &v)
	if err == nil {
		s.Metrics.RecordCache(metrics.LayerRedis, resource, true)
		return &v, nil
	}
	s.logCacheError(ctx, key, err)
	s.Metrics.RecordCache(metrics.LayerRedis, resource, false)

	res, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.asyncCacheSet(key, *res, ttl)
	return res, nil
}

func (s *catalogServiceImpl) logCacheError(ctx context.Context, key string, err error) {
	if !errors.Is(err, cache.ErrCacheMiss) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("cache get error")
	}
}

func (s *catalogServiceImpl) asyncCacheSet(key string, value interface{}, ttl time.Duration) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.Cache.Set(ctx, key, value, ttl); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("cache set error")
		}
	}()
}

func (s *catalogServiceImpl) markFavorites(ctx context.Context, userID uint, list *domain.MovieList) {
	if userID == 0 || s.Library == nil || len(list.Movies) == 0 {
		return
	}
	ids, err := s.Library.FavoriteTMDBIDs(ctx, userID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to load favourites")
		return
	}
	favorite := make(map[int]bool, len(ids))
	for _, id := range ids {
		favorite[id] = true
	}
	for i := range list.Movies {
		list.Movies[i].IsFavorite = favorite[list.Movies[i].TMDBID]
	}
}

func (s *catalogServiceImpl) toList(res *domain.TMDBPage, source string) *domain.MovieList {
	list := &domain.MovieList{
		Movies:       make([]domain.MovieSummary, 0, len(res.Results)),
		Page:         res.Page,
		TotalPages:   res.TotalPages,
		TotalResults: res.TotalResults,
		Source:       source,
	}
	for i := range res.Results {
		list.Movies = append(list.Movies, s.cfg.Images.Summarize(&res.Results[i]))
	}
	return list
}

func (s *catalogServiceImpl) moviesToList(movies []*domain.Movie, source string) *domain.MovieList {
	list := &domain.MovieList{
		Movies:       make([]domain.MovieSummary, 0, len(movies)),
		Page:         1,
		TotalPages:   1,
		TotalResults: len(movies),
		Source:       source,
	}
	for _, m := range movies {
		t := m.ToTMDB()
		list.Movies = append(list.Movies, s.cfg.Images.Summarize(&t))
	}
	return list
}

func (s *catalogServiceImpl) toDetails(t *domain.TMDBMovie) *domain.MovieDetails {
	genres := t.Genres
	if genres == nil {
		genres = []domain.Genre{}
	}
	return &domain.MovieDetails{
		MovieSummary: s.cfg.Images.Summarize(t),
		BackdropPath: t.BackdropPath,
		Runtime:      t.Runtime,
		Tagline:      t.Tagline,
		Genres:       genres,
		Cast:         []domain.CastMember{},
		Similar:      []domain.MovieSummary{},
		Providers:    []domain.Provider{},
	}
}

func castAndDirector(credits *domain.TMDBCredits) ([]domain.CastMember, string) {
	cast := append(credits.Cast[:0:0], credits.Cast...)
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })
	if len(cast) > castLimit {
		cast = cast[:castLimit]
	}

	members := make([]domain.CastMember, 0, len(cast))
	for _, c := range cast {
		members = append(members, domain.CastMember{
			Name:        c.Name,
			Character:   c.Character,
			ProfilePath: c.ProfilePath,
		})
	}

	var director string
	for _, c := range credits.Crew {
		if c.Job == "Director" {
			director = c.Name
			break
		}
	}
	return members, director
}

func regionProviders(p *domain.TMDBProviders, region string) []domain.Provider {
	providers := []domain.Provider{}
	r, ok := p.Results[region]
	if !ok {
		return providers
	}
	add := func(kind string, entries []domain.TMDBProviderEntry) {
		for _, e := range entries {
			providers = append(providers, domain.Provider{Name: e.ProviderName, LogoPath: e.LogoPath, Kind: kind})
		}
	}
	add("stream", r.Flatrate)
	add("rent", r.Rent)
	add("buy", r.Buy)
	return providers
}

func cloneList(list *domain.MovieList) *domain.MovieList {
	out := *list
	out.Movies = append([]domain.MovieSummary(nil), list.Movies...)
	return &out
}

// searchKey keeps the first page under the bare query so that the cache
// reads like the client's query cache.
func searchKey(query string, page int) string {
	if page <= 1 {
		return query
	}
	return query + "#" + strconv.Itoa(page)
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	if page > maxPage {
		return maxPage
	}
	return page
}

// isUpstreamFailure reports whether err means TMDB could not answer, as
// opposed to a missing movie or a cancelled caller.
func isUpstreamFailure(err error) bool {
	return errors.Is(err, repository.ErrUpstream)
}
