package movieclient

import "time"

// Genre is a movie genre as listed by the catalog.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieSummary is one movie card. PosterURL, ReleaseYear and Rating are
// display-ready and never empty.
type MovieSummary struct {
	TMDBID      int     `json:"tmdb_id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview,omitempty"`
	PosterPath  string  `json:"poster_path"`
	PosterURL   string  `json:"poster_url"`
	ReleaseDate string  `json:"release_date"`
	ReleaseYear string  `json:"release_year"`
	VoteAverage float64 `json:"vote_average"`
	Rating      string  `json:"rating"`
	IsFavorite  bool    `json:"is_favorite"`
}

// MovieList is a page of movies from a listing or a search.
type MovieList struct {
	Movies       []MovieSummary `json:"movies"`
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
	// Source is "tmdb", or "database" when the server fell back to saved movies.
	Source string `json:"source"`
}

type CastMember struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path,omitempty"`
}

type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Provider struct {
	Name     string `json:"provider_name"`
	LogoPath string `json:"logo_path,omitempty"`
	Kind     string `json:"kind"`
}

// MovieDetails is the full detail view of one movie.
type MovieDetails struct {
	MovieSummary
	BackdropPath string         `json:"backdrop_path,omitempty"`
	Runtime      int            `json:"runtime"`
	Tagline      string         `json:"tagline,omitempty"`
	Genres       []Genre        `json:"genres"`
	Cast         []CastMember   `json:"cast"`
	Director     string         `json:"director,omitempty"`
	Trailer      *Video         `json:"trailer,omitempty"`
	Similar      []MovieSummary `json:"similar"`
	Providers    []Provider     `json:"providers"`
	IsWatched    bool           `json:"is_watched"`
}

// Page is a paginated list of library entries.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	Total      int64 `json:"total"`
	HasNext    bool  `json:"has_next"`
}

type FavoriteEntry struct {
	Movie   MovieSummary `json:"movie"`
	AddedAt time.Time    `json:"added_at"`
}

type HistoryEntry struct {
	Movie     MovieSummary `json:"movie"`
	WatchedAt time.Time    `json:"watched_at"`
}

// ToggleResult is returned by ToggleFavorite. Action is "added" or "removed".
type ToggleResult struct {
	IsFavorite bool   `json:"is_favorite"`
	Action     string `json:"action"`
	Message    string `json:"message"`
}

// HistoryResult is returned by AddToHistory. Action is "added" or "updated".
type HistoryResult struct {
	IsWatched bool      `json:"is_watched"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	WatchedAt time.Time `json:"watched_at"`
}

type Stats struct {
	FavoritesCount int64 `json:"favorites_count"`
	WatchedCount   int64 `json:"watched_count"`
}

// UserPreferences are the server-side account preferences.
type UserPreferences struct {
	Theme              string   `json:"theme"`
	DefaultView        string   `json:"default_view"`
	MoviesPerPage      int      `json:"movies_per_page"`
	DataSaverMode      bool     `json:"data_saver_mode"`
	ShowAdultContent   bool     `json:"show_adult_content"`
	MinRating          float64  `json:"min_rating"`
	PreferredGenres    []string `json:"preferred_genres"`
	AutoAddToHistory   bool     `json:"auto_add_to_history"`
	EmailNotifications bool     `json:"email_notifications"`
}

// UserData is the session state synced between a client and the server.
type UserData struct {
	Favorites []int `json:"favorites"`
	Views     int   `json:"views"`
}

type ExportResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResult is returned by Login, Signup and Refresh.
type AuthResult struct {
	User             User      `json:"user"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
