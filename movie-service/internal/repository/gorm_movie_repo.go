package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
)

// GormMovieRepository implements MovieRepository using GORM.
type GormMovieRepository struct {
	db *gorm.DB
}

// NewGormMovieRepository creates a new GORM-based movie repository.
func NewGormMovieRepository(db *gorm.DB) *GormMovieRepository {
	return &GormMovieRepository{db: db}
}

// GetByTMDBID retrieves a movie by its TMDB ID.
func (r *GormMovieRepository) GetByTMDBID(ctx context.Context, tmdbID int) (*domain.Movie, error) {
	var model domain.MovieModel
	result := r.db.WithContext(ctx).First(&model, "tmdb_id = ?", tmdbID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// Save creates m or refreshes the stored row with the non-empty fields of m
// that differ from it.
func (r *GormMovieRepository) Save(ctx context.Context, m *domain.Movie) (*domain.Movie, error) {
	var saved domain.MovieModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&saved, "tmdb_id = ?", m.TMDBID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			saved = *domain.MovieToModel(m)
			saved.ID = 0
			return tx.Create(&saved).Error
		}
		if err != nil {
			return err
		}

		updates := changedFields(&saved, m)
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&saved).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&saved, saved.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save movie %d: %w", m.TMDBID, err)
	}
	return saved.ToDomain(), nil
}

func changedFields(saved *domain.MovieModel, m *domain.Movie) map[string]interface{} {
	updates := map[string]interface{}{}
	setString := func(column, old, val string) {
		if val != "" && val != old {
			updates[column] = val
		}
	}
	setString("title", saved.Title, m.Title)
	setString("overview", saved.Overview, m.Overview)
	setString("poster_path", saved.PosterPath, m.PosterPath)
	setString("backdrop_path", saved.BackdropPath, m.BackdropPath)
	setString("release_date", saved.ReleaseDate, m.ReleaseDate)

	if m.VoteAverage > 0 && m.VoteAverage != saved.VoteAverage {
		updates["vote_average"] = m.VoteAverage
	}
	if m.VoteCount > 0 && m.VoteCount != saved.VoteCount {
		updates["vote_count"] = m.VoteCount
	}
	if m.Runtime > 0 && m.Runtime != saved.Runtime {
		updates["runtime"] = m.Runtime
	}
	if len(m.Genres) > 0 {
		updates["genres"] = domain.MovieToModel(m).Genres
	}
	return updates
}

// Recent returns the most recently saved movies.
func (r *GormMovieRepository) Recent(ctx context.Context, limit int) ([]*domain.Movie, error) {
	var models []domain.MovieModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toMovies(models), nil
}

// SearchTitle matches query case-insensitively anywhere in the title.
func (r *GormMovieRepository) SearchTitle(ctx context.Context, query string, limit int) ([]*domain.Movie, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var models []domain.MovieModel
	err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? ESCAPE '!'", pattern).
		Order("vote_average DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toMovies(models), nil
}

// ByGenre returns saved movies tagged with genreID.
func (r *GormMovieRepository) ByGenre(ctx context.Context, genreID, limit int) ([]*domain.Movie, error) {
	// genres is stored as compact JSON, so every element starts with "id":N,
	pattern := fmt.Sprintf(`%%"id":%d,%%`, genreID)
	var models []domain.MovieModel
	err := r.db.WithContext(ctx).
		Where("genres LIKE ?", pattern).
		Order("vote_average DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toMovies(models), nil
}

func toMovies(models []domain.MovieModel) []*domain.Movie {
	movies := make([]*domain.Movie, 0, len(models))
	for i := range models {
		movies = append(movies, models[i].ToDomain())
	}
	return movies
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
