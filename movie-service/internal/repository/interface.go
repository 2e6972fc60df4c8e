package repository

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
)

var (
	ErrMovieNotFound       = errors.New("movie not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailExists         = errors.New("email already exists")
	ErrUsernameExists      = errors.New("username already exists")
	ErrPreferencesNotFound = errors.New("preferences not found")
	ErrUpstream            = errors.New("movie database unavailable")
)

// Catalog reads movie metadata from TMDB.
type Catalog interface {
	Trending(ctx context.Context, page int) (*domain.TMDBPage, error)
	TopRated(ctx context.Context, page int) (*domain.TMDBPage, error)
	Upcoming(ctx context.Context, page int) (*domain.TMDBPage, error)
	Search(ctx context.Context, query string, page int) (*domain.TMDBPage, error)
	Discover(ctx context.Context, genreID, page int) (*domain.TMDBPage, error)
	Details(ctx context.Context, tmdbID int) (*domain.TMDBMovie, error)
	Credits(ctx context.Context, tmdbID int) (*domain.TMDBCredits, error)
	Videos(ctx context.Context, tmdbID int) (*domain.TMDBVideos, error)
	Similar(ctx context.Context, tmdbID int) (*domain.TMDBPage, error)
	Providers(ctx context.Context, tmdbID int) (*domain.TMDBProviders, error)
	Genres(ctx context.Context) ([]domain.Genre, error)
}

// MovieRepository stores movies fetched from TMDB.
type MovieRepository interface {
	GetByTMDBID(ctx context.Context, tmdbID int) (*domain.Movie, error)
	// Save creates the movie or updates the fields that changed and are
	// not empty in m.
	Save(ctx context.Context, m *domain.Movie) (*domain.Movie, error)
	Recent(ctx context.Context, limit int) ([]*domain.Movie, error)
	SearchTitle(ctx context.Context, query string, limit int) ([]*domain.Movie, error)
	ByGenre(ctx context.Context, genreID, limit int) ([]*domain.Movie, error)
}

// LibraryRepository stores favourites and watch history.
type LibraryRepository interface {
	// ToggleFavorite adds or removes the favourite and reports whether the
	// movie is a favourite afterwards.
	ToggleFavorite(ctx context.Context, userID, movieID uint) (bool, error)
	IsFavorite(ctx context.Context, userID uint, tmdbID int) (bool, error)
	FavoriteTMDBIDs(ctx context.Context, userID uint) ([]int, error)
	ListFavorites(ctx context.Context, userID uint, offset, limit int) ([]domain.Favorite, int64, error)
	CountFavorites(ctx context.Context, userID uint) (int64, error)

	// AddWatch records a view for the day of at. created is false when the
	// day already had an entry and only its time was updated.
	AddWatch(ctx context.Context, userID, movieID uint, at time.Time) (created bool, err error)
	HasWatched(ctx context.Context, userID uint, tmdbID int) (bool, error)
	ListHistory(ctx context.Context, userID uint, offset, limit int) ([]domain.WatchEntry, int64, error)
	CountWatched(ctx context.Context, userID uint) (int64, error)
}

type AccountRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type PreferencesRepository interface {
	Get(ctx context.Context, userID uint) (*domain.Preferences, error)
	Save(ctx context.Context, userID uint, p *domain.Preferences) error
	Delete(ctx context.Context, userID uint) error
}

// MovieIndex is a full-text index of saved movies.
type MovieIndex interface {
	Index(ctx context.Context, m *domain.Movie) error
	Search(ctx context.Context, query string, limit int) ([]*domain.Movie, error)
}
