package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/audit"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/metrics"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/repository"
	"github.com/weiawesome/cinema-chronicles/pkg/pubsub"
	"github.com/weiawesome/cinema-chronicles/pkg/storage"
)

const exportBatch = 100

// ExportDeps are the collaborators of the export service. Publisher and
// Metrics may be nil.
type ExportDeps struct {
	Library     repository.LibraryRepository
	Preferences PreferencesService
	Storage     storage.Storage
	Publisher   pubsub.Publisher
	Metrics     *metrics.Collector
	URLExpiry   time.Duration
	Now         func() time.Time
}

type exportServiceImpl struct {
	deps   ExportDeps
	events activityPublisher
	now    func() time.Time
}

// NewExportService creates a new export service.
func NewExportService(deps ExportDeps) ExportService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	if deps.URLExpiry <= 0 {
		deps.URLExpiry = 24 * time.Hour
	}
	return &exportServiceImpl{
		deps:   deps,
		events: newActivityPublisher(deps.Publisher, deps.Metrics),
		now:    now,
	}
}

// Export writes the user's favourites, watch history and preferences as
// one JSON document and returns where to download it.
func (s *exportServiceImpl) Export(ctx context.Context, user *domain.User) (*domain.ExportResult, error) {
	doc, err := s.document(ctx, user)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	key := fmt.Sprintf("%s/%s_cinema_chronicles_data_%s.json",
		user.IDString(), user.Username, doc.ExportDate.Format("20060102T150405"))
	if err := s.deps.Storage.Write(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return nil, fmt.Errorf("failed to store export: %w", err)
	}

	url, err := s.deps.Storage.GetURL(ctx, key, s.deps.URLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to get export url: %w", err)
	}

	s.events.publish(ctx, user.ID, pubsub.KindDataExported, pubsub.DataExportedPayload{Key: key})
	audit.LogWithDetail(ctx, audit.ActionExport, user.IDString(), key, "data exported")
	return &domain.ExportResult{Key: key, URL: url}, nil
}

func (s *exportServiceImpl) document(ctx context.Context, user *domain.User) (*domain.ExportDocument, error) {
	doc := &domain.ExportDocument{
		User:         user.Username,
		ExportDate:   s.now().UTC(),
		Favorites:    []domain.ExportFavorite{},
		WatchHistory: []domain.ExportWatch{},
	}

	for offset := 0; ; offset += exportBatch {
		favorites, total, err := s.deps.Library.ListFavorites(ctx, user.ID, offset, exportBatch)
		if err != nil {
			return nil, fmt.Errorf("failed to load favorites: %w", err)
		}
		for _, f := range favorites {
			doc.Favorites = append(doc.Favorites, domain.ExportFavorite{
				Title:     f.Movie.Title,
				TMDBID:    f.Movie.TMDBID,
				Rating:    f.Movie.VoteAverage,
				AddedDate: f.CreatedAt,
			})
		}
		if len(favorites) == 0 || int64(offset+len(favorites)) >= total {
			break
		}
	}

	for offset := 0; ; offset += exportBatch {
		watched, total, err := s.deps.Library.ListHistory(ctx, user.ID, offset, exportBatch)
		if err != nil {
			return nil, fmt.Errorf("failed to load watch history: %w", err)
		}
		for _, w := range watched {
			doc.WatchHistory = append(doc.WatchHistory, domain.ExportWatch{
				Title:       w.Movie.Title,
				TMDBID:      w.Movie.TMDBID,
				Rating:      w.Movie.VoteAverage,
				WatchedDate: w.WatchedAt,
			})
		}
		if len(watched) == 0 || int64(offset+len(watched)) >= total {
			break
		}
	}

	p, err := s.deps.Preferences.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	doc.Preferences = p
	return doc, nil
}

func (s *exportServiceImpl) Open(ctx context.Context, userID uint, key string) (io.ReadCloser, error) {
	if !strings.HasPrefix(key, userIDString(userID)+"/") || strings.Contains(key, "..") {
		return nil, ErrExportNotFound
	}
	r, err := s.deps.Storage.Read(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrExportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	return r, nil
}
