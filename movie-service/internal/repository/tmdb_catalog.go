package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/config"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/pkg/inflight"
	pkglog "github.com/weiawesome/cinema-chronicles/pkg/log"
)

const defaultTMDBTimeout = 10 * time.Second

// UpstreamObserver is told about every TMDB round trip. endpoint is a
// stable name such as "details", not the request path.
type UpstreamObserver func(endpoint string, elapsed time.Duration, err error)

type TMDBOption func(*TMDBCatalog)

func WithHTTPClient(hc *http.Client) TMDBOption {
	return func(c *TMDBCatalog) {
		c.http = hc
	}
}

func WithUpstreamObserver(fn UpstreamObserver) TMDBOption {
	return func(c *TMDBCatalog) {
		c.observer = fn
	}
}

// TMDBCatalog calls the TMDB v3 API. Concurrent identical requests share
// one round trip through the inflight group.
type TMDBCatalog struct {
	baseURL  string
	apiKey   string
	region   string
	timeout  time.Duration
	http     *http.Client
	group    *inflight.Group
	observer UpstreamObserver
}

// NewTMDBCatalog creates a catalog client. group must not be nil.
func NewTMDBCatalog(cfg config.TMDBConfig, group *inflight.Group, opts ...TMDBOption) *TMDBCatalog {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTMDBTimeout
	}
	c := &TMDBCatalog{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		region:  cfg.Region,
		timeout: timeout,
		http:    &http.Client{},
		group:   group,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

func (c *TMDBCatalog) Trending(ctx context.Context, page int) (*domain.TMDBPage, error) {
	return get[domain.TMDBPage](ctx, c, "trending", "/trending/movie/day", pageParams(page))
}

func (c *TMDBCatalog) TopRated(ctx context.Context, page int) (*domain.TMDBPage, error) {
	return get[domain.TMDBPage](ctx, c, "top_rated", "/movie/top_rated", pageParams(page))
}

func (c *TMDBCatalog) Upcoming(ctx context.Context, page int) (*domain.TMDBPage, error) {
	return get[domain.TMDBPage](ctx, c, "upcoming", "/movie/upcoming", pageParams(page))
}

func (c *TMDBCatalog) Search(ctx context.Context, query string, page int) (*domain.TMDBPage, error) {
	params := pageParams(page)
	params.Set("query", query)
	return get[domain.TMDBPage](ctx, c, "search", "/search/movie", params)
}

func (c *TMDBCatalog) Discover(ctx context.Context, genreID, page int) (*domain.TMDBPage, error) {
	params := pageParams(page)
	params.Set("with_genres", strconv.Itoa(genreID))
	return get[domain.TMDBPage](ctx, c, "discover", "/discover/movie", params)
}

func (c *TMDBCatalog) Details(ctx context.Context, tmdbID int) (*domain.TMDBMovie, error) {
	return get[domain.TMDBMovie](ctx, c, "details", fmt.Sprintf("/movie/%d", tmdbID), nil)
}

func (c *TMDBCatalog) Credits(ctx context.Context, tmdbID int) (*domain.TMDBCredits, error) {
	return get[domain.TMDBCredits](ctx, c, "credits", fmt.Sprintf("/movie/%d/credits", tmdbID), nil)
}

func (c *TMDBCatalog) Videos(ctx context.Context, tmdbID int) (*domain.TMDBVideos, error) {
	return get[domain.TMDBVideos](ctx, c, "videos", fmt.Sprintf("/movie/%d/videos", tmdbID), nil)
}

func (c *TMDBCatalog) Similar(ctx context.Context, tmdbID int) (*domain.TMDBPage, error) {
	return get[domain.TMDBPage](ctx, c, "similar", fmt.Sprintf("/movie/%d/similar", tmdbID), nil)
}

func (c *TMDBCatalog) Providers(ctx context.Context, tmdbID int) (*domain.TMDBProviders, error) {
	return get[domain.TMDBProviders](ctx, c, "providers", fmt.Sprintf("/movie/%d/watch/providers", tmdbID), nil)
}

func (c *TMDBCatalog) Genres(ctx context.Context) ([]domain.Genre, error) {
	res, err := get[domain.TMDBGenres](ctx, c, "genres", "/genre/movie/list", nil)
	if err != nil {
		return nil, err
	}
	return res.Genres, nil
}

// Region is the country whose watch providers are shown.
func (c *TMDBCatalog) Region() string {
	return c.region
}

// get fetches path and decodes the body into T. The dedup key leaves out
// the API key so that it never reaches logs or metrics.
func get[T any](ctx context.Context, c *TMDBCatalog, endpoint, path string, params url.Values) (*T, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	key := inflight.Key(http.MethodGet, target, nil)

	v, shared, err := inflight.Do(ctx, c.group, key, func(ctx context.Context) (*T, error) {
		return fetch[T](ctx, c, endpoint, path, params)
	})
	if shared {
		l := pkglog.Ctx(ctx)
		l.Debug().Str(pkglog.FieldEndpoint, endpoint).Bool(pkglog.FieldShared, true).Msg("tmdb response shared")
	}
	return v, err
}

func fetch[T any](ctx context.Context, c *TMDBCatalog, endpoint, path string, params url.Values) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("api_key", c.apiKey)

	start := time.Now()
	res, err := c.roundTrip(ctx, path, q)
	if c.observer != nil {
		c.observer(endpoint, time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var out T
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUpstream, endpoint, err)
	}
	return &out, nil
}

func (c *TMDBCatalog) roundTrip(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstream, path, redactKey(err, c.apiKey))
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		res.Body.Close()
		return nil, ErrMovieNotFound
	case res.StatusCode != http.StatusOK:
		res.Body.Close()
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUpstream, path, res.StatusCode)
	}
	return res, nil
}

// redactKey strips the API key from transport errors, which embed the URL.
func redactKey(err error, key string) string {
	if key == "" {
		return err.Error()
	}
	return strings.ReplaceAll(err.Error(), key, "***")
}
