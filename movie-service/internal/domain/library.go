package domain

import "time"

// HistoryPerPage is the page size of favourites and watch history.
const HistoryPerPage = 12

// Favorite is a saved favourite with its movie.
type Favorite struct {
	Movie     Movie
	CreatedAt time.Time
}

// WatchEntry is one watch history row with its movie.
type WatchEntry struct {
	Movie     Movie
	WatchedAt time.Time
}

// MovieRef identifies a movie in a library request body.
type MovieRef struct {
	TMDBID int `json:"tmdb_id" binding:"required,gt=0"`
}

type FavoriteEntry struct {
	Movie   MovieSummary `json:"movie"`
	AddedAt time.Time    `json:"added_at"`
}

type HistoryEntry struct {
	Movie     MovieSummary `json:"movie"`
	WatchedAt time.Time    `json:"watched_at"`
}

// Actions reported by library mutations.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
	ActionUpdated = "updated"
)

type ToggleResult struct {
	IsFavorite bool   `json:"is_favorite"`
	Action     string `json:"action"`
	Message    string `json:"message"`
}

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

// UserData is the session state a client syncs: favourite IDs and a view
// counter.
type UserData struct {
	Favorites []int `json:"favorites"`
	Views     int   `json:"views" binding:"gte=0"`
}

type ExportResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ExportDocument is the JSON document written by a data export.
type ExportDocument struct {
	User         string           `json:"user"`
	ExportDate   time.Time        `json:"export_date"`
	Favorites    []ExportFavorite `json:"favorites"`
	WatchHistory []ExportWatch    `json:"watch_history"`
	Preferences  *Preferences     `json:"preferences"`
}

type ExportFavorite struct {
	Title     string    `json:"title"`
	TMDBID    int       `json:"tmdb_id"`
	Rating    float64   `json:"rating"`
	AddedDate time.Time `json:"added_date"`
}

type ExportWatch struct {
	Title       string    `json:"title"`
	TMDBID      int       `json:"tmdb_id"`
	Rating      float64   `json:"rating"`
	WatchedDate time.Time `json:"watched_date"`
}
