package service

import (
	"context"
	"errors"
	"io"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/repository"
	"github.com/weiawesome/cinema-chronicles/pkg/searchcache"
)

var (
	ErrMovieNotFound      = repository.ErrMovieNotFound
	ErrUpstream           = repository.ErrUpstream
	ErrUserNotFound       = repository.ErrUserNotFound
	ErrEmailExists        = repository.ErrEmailExists
	ErrUsernameExists     = repository.ErrUsernameExists
	ErrInvalidPreferences = domain.ErrInvalidPreferences
	ErrInvalidMode        = errors.New("invalid list mode")
	ErrEmptyQuery         = errors.New("search query is empty")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password is too short")
	ErrExportNotFound     = errors.New("export not found")
)

// List modes.
const (
	ModeTrending = "trending"
	ModeTopRated = "top_rated"
	ModeUpcoming = "upcoming"
)

// CatalogService serves movie listings and details. userID 0 means an
// anonymous caller; otherwise listings mark the caller's favourites.
type CatalogService interface {
	List(ctx context.Context, userID uint, mode string, page int) (*domain.MovieList, error)
	Search(ctx context.Context, userID uint, query string, page int) (*domain.MovieList, error)
	Discover(ctx context.Context, userID uint, genreID, page int) (*domain.MovieList, error)
	Details(ctx context.Context, tmdbID int) (*domain.MovieDetails, error)
	Genres(ctx context.Context) ([]domain.Genre, error)
	// EnsureMovie returns the saved movie, fetching and saving it first when
	// it is not stored yet.
	EnsureMovie(ctx context.Context, tmdbID int) (*domain.Movie, error)
	SearchCache() *searchcache.Cache[*domain.MovieList]
}

// LibraryService manages favourites and watch history.
type LibraryService interface {
	ToggleFavorite(ctx context.Context, userID uint, tmdbID int) (*domain.ToggleResult, error)
	AddToHistory(ctx context.Context, userID uint, tmdbID int) (*domain.HistoryResult, error)
	Favorites(ctx context.Context, userID uint, page int) ([]domain.FavoriteEntry, int64, error)
	History(ctx context.Context, userID uint, page int) ([]domain.HistoryEntry, int64, error)
	Stats(ctx context.Context, userID uint) (*domain.Stats, error)
	InvalidateStats(ctx context.Context, userID uint) error
	// Decorate sets the caller's favourite and watched flags on d and, when
	// the caller's preferences ask for it, records the view in history.
	Decorate(ctx context.Context, userID uint, d *domain.MovieDetails)
}

type PreferencesService interface {
	Get(ctx context.Context, userID uint) (*domain.Preferences, error)
	Update(ctx context.Context, userID uint, req *domain.UpdatePreferencesRequest) (*domain.Preferences, error)
	Reset(ctx context.Context, userID uint) (*domain.Preferences, error)
}

// UserDataService syncs the client session state.
type UserDataService interface {
	Get(ctx context.Context, userID uint) (*domain.UserData, error)
	Save(ctx context.Context, userID uint, data *domain.UserData) (*domain.UserData, error)
}

type ExportService interface {
	Export(ctx context.Context, user *domain.User) (*domain.ExportResult, error)
	// Open returns the export stored under key. It fails with
	// ErrExportNotFound unless key belongs to userID.
	Open(ctx context.Context, userID uint, key string) (io.ReadCloser, error)
}

type AccountService interface {
	Signup(ctx context.Context, req *domain.SignupRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error)
	Logout(ctx context.Context, userID uint)
	GetUser(ctx context.Context, userID uint) (*domain.User, error)
}
