package movieclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	pkglog "github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/searchcache"
)

// DefaultMinQueryLength is the shortest query, in runes, that is sent.
const DefaultMinQueryLength = 2

// ErrSuperseded is returned by Searcher.Search when a newer search started
// before this one finished. It is not an error worth reporting.
var ErrSuperseded = errors.New("movieclient: search superseded")

// SearchAPI is the part of Client used by Searcher.
type SearchAPI interface {
	Search(ctx context.Context, query string, page int) (*MovieList, error)
}

// SearcherConfig configures a Searcher. Zero values use the defaults.
type SearcherConfig struct {
	MinQueryLength int           `mapstructure:"min_query_length"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheCapacity  int           `mapstructure:"cache_capacity"`
	// Now replaces time.Now for the result cache.
	Now func() time.Time `mapstructure:"-"`
}

// Searcher runs interactive searches. Only the most recent search may update
// the display: starting a search cancels the one before it, and a search that
// finishes after a newer one started is discarded.
type Searcher struct {
	api     SearchAPI
	display Display
	cache   *searchcache.Cache[*MovieList]
	minLen  int

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewSearcher creates a Searcher rendering into display.
func NewSearcher(api SearchAPI, display Display, cfg SearcherConfig) *Searcher {
	minLen := cfg.MinQueryLength
	if minLen <= 0 {
		minLen = DefaultMinQueryLength
	}
	opts := []searchcache.Option{searchcache.WithTTL(cfg.CacheTTL), searchcache.WithClock(cfg.Now)}
	if cfg.CacheCapacity > 0 {
		opts = append(opts, searchcache.WithCapacity(cfg.CacheCapacity))
	}
	return &Searcher{
		api:     api,
		display: display,
		cache:   searchcache.New[*MovieList](opts...),
		minLen:  minLen,
	}
}

// Cache exposes the result cache, for sweeping.
func (s *Searcher) Cache() *searchcache.Cache[*MovieList] {
	return s.cache
}

// Search looks up query and renders the outcome. Queries shorter than the
// minimum length clear the results. Cached results render without a request.
func (s *Searcher) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	l := pkglog.Ctx(ctx)

	if utf8.RuneCountInString(query) < s.minLen {
		s.mu.Lock()
		s.supersedeLocked()
		s.display.ClearResults()
		s.mu.Unlock()
		return nil
	}

	if cached, ok := s.cache.Get(query); ok {
		s.mu.Lock()
		s.supersedeLocked()
		s.display.ShowResults(query, cached)
		s.mu.Unlock()
		l.Debug().Str(pkglog.FieldQuery, query).Bool(pkglog.FieldCacheHit, true).Msg("search served from cache")
		return nil
	}

	s.mu.Lock()
	gen := s.supersedeLocked()
	searchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.display.ShowLoading(query)
	s.mu.Unlock()
	defer cancel()

	result, err := s.api.Search(searchCtx, query, 1)
	if err == nil {
		s.cache.Put(query, result)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return ErrSuperseded
	}
	s.cancel = nil

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.Warn().Err(err).Str(pkglog.FieldQuery, query).Msg("search failed")
		s.display.Notify(LevelError, MsgSearchFailed)
		return fmt.Errorf("search %q: %w", query, err)
	}
	s.display.ShowResults(query, result)
	return nil
}

// Cancel aborts the running search, if any, without touching the display.
func (s *Searcher) Cancel() {
	s.mu.Lock()
	s.supersedeLocked()
	s.mu.Unlock()
}

// supersedeLocked cancels the running search and starts a new generation.
func (s *Searcher) supersedeLocked() uint64 {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	return s.gen
}
