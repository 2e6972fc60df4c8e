package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
)

// GormLibraryRepository implements LibraryRepository using GORM.
type GormLibraryRepository struct {
	db *gorm.DB
}

// NewGormLibraryRepository creates a new GORM-based library repository.
func NewGormLibraryRepository(db *gorm.DB) *GormLibraryRepository {
	return &GormLibraryRepository{db: db}
}

// ToggleFavorite removes the favourite when it exists and creates it otherwise.
func (r *GormLibraryRepository) ToggleFavorite(ctx context.Context, userID, movieID uint) (bool, error) {
	var isFavorite bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.FavoriteModel
		err := tx.First(&existing, "user_id = ? AND movie_id = ?", userID, movieID).Error
		switch {
		case err == nil:
			isFavorite = false
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			isFavorite = true
			return tx.Create(&domain.FavoriteModel{UserID: userID, MovieID: movieID}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, err
	}
	return isFavorite, nil
}

func (r *GormLibraryRepository) favoritesOf(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.FavoriteModel{}).
		Joins("JOIN movies ON movies.id = user_favorites.movie_id").
		Where("user_favorites.user_id = ?", userID)
}

func (r *GormLibraryRepository) IsFavorite(ctx context.Context, userID uint, tmdbID int) (bool, error) {
	var count int64
	err := r.favoritesOf(ctx, userID).Where("movies.tmdb_id = ?", tmdbID).Count(&count).Error
	return count > 0, err
}

// FavoriteTMDBIDs returns the TMDB IDs of every favourite of userID.
func (r *GormLibraryRepository) FavoriteTMDBIDs(ctx context.Context, userID uint) ([]int, error) {
	ids := []int{}
	err := r.favoritesOf(ctx, userID).
		Order("user_favorites.created_at DESC").
		Pluck("movies.tmdb_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListFavorites returns a page of favourites, newest first, and the total.
func (r *GormLibraryRepository) ListFavorites(ctx context.Context, userID uint, offset, limit int) ([]domain.Favorite, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.FavoriteModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []domain.FavoriteModel
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	favorites := make([]domain.Favorite, 0, len(models))
	for i := range models {
		favorites = append(favorites, domain.Favorite{
			Movie:     *models[i].Movie.ToDomain(),
			CreatedAt: models[i].CreatedAt,
		})
	}
	return favorites, total, nil
}

func (r *GormLibraryRepository) CountFavorites(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FavoriteModel{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// AddWatch keeps one entry per user, movie and day. A second view on the
// same day moves that entry's time forward.
func (r *GormLibraryRepository) AddWatch(ctx context.Context, userID, movieID uint, at time.Time) (bool, error) {
	day := at.Format(time.DateOnly)
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.WatchHistoryModel
		err := tx.First(&existing, "user_id = ? AND movie_id = ? AND watched_on = ?", userID, movieID, day).Error
		switch {
		case err == nil:
			created = false
			return tx.Model(&existing).Update("watched_at", at).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			return tx.Create(&domain.WatchHistoryModel{
				UserID:    userID,
				MovieID:   movieID,
				WatchedOn: day,
				WatchedAt: at,
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *GormLibraryRepository) HasWatched(ctx context.Context, userID uint, tmdbID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.WatchHistoryModel{}).
		Joins("JOIN movies ON movies.id = user_watch_history.movie_id").
		Where("user_watch_history.user_id = ? AND movies.tmdb_id = ?", userID, tmdbID).
		Count(&count).Error
	return count > 0, err
}

// ListHistory returns a page of watch history, most recent first, and the total.
func (r *GormLibraryRepository) ListHistory(ctx context.Context, userID uint, offset, limit int) ([]domain.WatchEntry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.WatchHistoryModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []domain.WatchHistoryModel
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Where("user_id = ?", userID).
		Order("watched_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	entries := make([]domain.WatchEntry, 0, len(models))
	for i := range models {
		entries = append(entries, domain.WatchEntry{
			Movie:     *models[i].Movie.ToDomain(),
			WatchedAt: models[i].WatchedAt,
		})
	}
	return entries, total, nil
}

// CountWatched counts distinct movies in the watch history.
func (r *GormLibraryRepository) CountWatched(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.WatchHistoryModel{}).
		Where("user_id = ?", userID).
		Distinct("movie_id").
		Count(&count).Error
	return count, err
}
