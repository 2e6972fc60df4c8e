package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/audit"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/cache"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/metrics"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/repository"
	"github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/pubsub"
)

// LibraryDeps are the collaborators of the library. Publisher and Metrics
// may be nil.
type LibraryDeps struct {
	Catalog     CatalogService
	Library     repository.LibraryRepository
	Preferences repository.PreferencesRepository
	Cache       cache.Cache
	Publisher   pubsub.Publisher
	Metrics     *metrics.Collector
	Images      domain.Images
	StatsTTL    time.Duration
	// Now stamps history entries; nil means time.Now.
	Now func() time.Time
}

type libraryServiceImpl struct {
	deps   LibraryDeps
	events activityPublisher
	now    func() time.Time
}

// NewLibraryService creates a new library service.
func NewLibraryService(deps LibraryDeps) LibraryService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &libraryServiceImpl{
		deps:   deps,
		events: newActivityPublisher(deps.Publisher, deps.Metrics),
		now:    now,
	}
}

func (s *libraryServiceImpl) ToggleFavorite(ctx context.Context, userID uint, tmdbID int) (*domain.ToggleResult, error) {
	movie, err := s.deps.Catalog.EnsureMovie(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	isFavorite, err := s.deps.Library.ToggleFavorite(ctx, userID, movie.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	s.dropStats(ctx, userID)

	action := domain.ActionRemoved
	if isFavorite {
		action = domain.ActionAdded
	}
	s.events.publish(ctx, userID, pubsub.KindFavoriteToggled, pubsub.FavoriteToggledPayload{
		TMDBID:     tmdbID,
		IsFavorite: isFavorite,
	})
	audit.LogWithDetail(ctx, audit.ActionFavoriteToggle, userIDString(userID), action, movie.Title)

	return &domain.ToggleResult{
		IsFavorite: isFavorite,
		Action:     action,
		Message:    fmt.Sprintf("Movie %s to favorites", action),
	}, nil
}

func (s *libraryServiceImpl) AddToHistory(ctx context.Context, userID uint, tmdbID int) (*domain.HistoryResult, error) {
	movie, err := s.deps.Catalog.EnsureMovie(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	at := s.now()
	created, err := s.deps.Library.AddWatch(ctx, userID, movie.ID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to add watch entry: %w", err)
	}
	s.dropStats(ctx, userID)

	action := domain.ActionUpdated
	if created {
		action = domain.ActionAdded
	}
	s.events.publish(ctx, userID, pubsub.KindWatched, pubsub.WatchedPayload{
		TMDBID: tmdbID,
		Action: action,
	})
	audit.LogWithDetail(ctx, audit.ActionHistoryAdd, userIDString(userID), action, movie.Title)

	return &domain.HistoryResult{
		IsWatched: true,
		Action:    action,
		Message:   fmt.Sprintf("Movie %s to watch history", action),
		WatchedAt: at,
	}, nil
}

func (s *libraryServiceImpl) Favorites(ctx context.Context, userID uint, page int) ([]domain.FavoriteEntry, int64, error) {
	offset := (normalizePage(page) - 1) * domain.HistoryPerPage
	favorites, total, err := s.deps.Library.ListFavorites(ctx, userID, offset, domain.HistoryPerPage)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]domain.FavoriteEntry, 0, len(favorites))
	for _, f := range favorites {
		t := f.Movie.ToTMDB()
		summary := s.deps.Images.Summarize(&t)
		summary.IsFavorite = true
		entries = append(entries, domain.FavoriteEntry{Movie: summary, AddedAt: f.CreatedAt})
	}
	return entries, total, nil
}

func (s *libraryServiceImpl) History(ctx context.Context, userID uint, page int) ([]domain.HistoryEntry, int64, error) {
	offset := (normalizePage(page) - 1) * domain.HistoryPerPage
	watched, total, err := s.deps.Library.ListHistory(ctx, userID, offset, domain.HistoryPerPage)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]domain.HistoryEntry, 0, len(watched))
	for _, w := range watched {
		t := w.Movie.ToTMDB()
		entries = append(entries, domain.HistoryEntry{Movie: s.deps.Images.Summarize(&t), WatchedAt: w.WatchedAt})
	}
	return entries, total, nil
}

func (s *libraryServiceImpl) statsKey(userID uint) string {
	return s.deps.Cache.BuildKey("stats", userIDString(userID))
}

func (s *libraryServiceImpl) Stats(ctx context.Context, userID uint) (*domain.Stats, error) {
	l := log.Ctx(ctx)
	key := s.statsKey(userID)

	var stats domain.Stats
	err := s.deps.Cache.Get(ctx, key, &stats)
	if err == nil {
		s.deps.Metrics.RecordCache(metrics.LayerRedis, "stats", true)
		return &stats, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("cache get error")
	}
	s.deps.Metrics.RecordCache(metrics.LayerRedis, "stats", false)

	if stats.FavoritesCount, err = s.deps.Library.CountFavorites(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to count favorites: %w", err)
	}
	if stats.WatchedCount, err = s.deps.Library.CountWatched(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to count watched: %w", err)
	}

	go func(stats domain.Stats) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.deps.Cache.Set(ctx, key, stats, s.deps.StatsTTL); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("cache set error")
		}
	}(stats)
	return &stats, nil
}

func (s *libraryServiceImpl) InvalidateStats(ctx context.Context, userID uint) error {
	return s.deps.Cache.Delete(ctx, s.statsKey(userID))
}

// dropStats invalidates the stats right away so the caller's next read is
// fresh; the activity consumer repeats it for other replicas.
func (s *libraryServiceImpl) dropStats(ctx context.Context, userID uint) {
	if err := s.InvalidateStats(ctx, userID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to invalidate stats")
	}
}

func (s *libraryServiceImpl) Decorate(ctx context.Context, userID uint, d *domain.MovieDetails) {
	if userID == 0 {
		return
	}
	l := log.Ctx(ctx)

	isFavorite, err := s.deps.Library.IsFavorite(ctx, userID, d.TMDBID)
	if err != nil {
		l.Warn().Err(err).Int(log.FieldTMDBID, d.TMDBID).Msg("failed to check favourite")
	}
	d.IsFavorite = isFavorite

	if s.autoAddToHistory(ctx, userID) {
		if _, err := s.AddToHistory(ctx, userID, d.TMDBID); err != nil {
			l.Warn().Err(err).Int(log.FieldTMDBID, d.TMDBID).Msg("failed to auto-add to watch history")
		} else {
			d.IsWatched = true
			return
		}
	}

	watched, err := s.deps.Library.HasWatched(ctx, userID, d.TMDBID)
	if err != nil {
		l.Warn().Err(err).Int(log.FieldTMDBID, d.TMDBID).Msg("failed to check watch history")
	}
	d.IsWatched = watched
}

func (s *libraryServiceImpl) autoAddToHistory(ctx context.Context, userID uint) bool {
	if s.deps.Preferences == nil {
		return domain.DefaultPreferences().AutoAddToHistory
	}
	p, err := s.deps.Preferences.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrPreferencesNotFound) {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Msg("failed to load preferences")
		}
		return domain.DefaultPreferences().AutoAddToHistory
	}
	return p.AutoAddToHistory
}
