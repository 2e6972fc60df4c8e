package domain

import (
	"fmt"
	"strings"
	"time"
)

// Display placeholders for missing movie data.
const (
	PlaceholderPoster = "/static/images/no-poster.jpg"
	NotAvailable      = "N/A"
)

// Genre is a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// FallbackGenres is served when the movie database cannot be reached.
var FallbackGenres = []Genre{
	{ID: 28, Name: "Action"},
	{ID: 12, Name: "Adventure"},
	{ID: 16, Name: "Animation"},
	{ID: 35, Name: "Comedy"},
	{ID: 80, Name: "Crime"},
	{ID: 99, Name: "Documentary"},
	{ID: 18, Name: "Drama"},
	{ID: 10751, Name: "Family"},
	{ID: 14, Name: "Fantasy"},
	{ID: 36, Name: "History"},
	{ID: 27, Name: "Horror"},
	{ID: 10402, Name: "Music"},
	{ID: 9648, Name: "Mystery"},
	{ID: 10749, Name: "Romance"},
	{ID: 878, Name: "Science Fiction"},
	{ID: 10770, Name: "TV Movie"},
	{ID: 53, Name: "Thriller"},
	{ID: 10752, Name: "War"},
	{ID: 37, Name: "Western"},
}

// Movie is a movie saved locally after being fetched from TMDB.
type Movie struct {
	ID           uint      `json:"-"`
	TMDBID       int       `json:"tmdb_id"`
	Title        string    `json:"title"`
	Overview     string    `json:"overview"`
	PosterPath   string    `json:"poster_path"`
	BackdropPath string    `json:"backdrop_path"`
	ReleaseDate  string    `json:"release_date"`
	VoteAverage  float64   `json:"vote_average"`
	VoteCount    int       `json:"vote_count"`
	Runtime      int       `json:"runtime"`
	Genres       []Genre   `json:"genres"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MovieFromTMDB converts a TMDB record.
func MovieFromTMDB(t *TMDBMovie) *Movie {
	return &Movie{
		TMDBID:       t.ID,
		Title:        t.Title,
		Overview:     t.Overview,
		PosterPath:   t.PosterPath,
		BackdropPath: t.BackdropPath,
		ReleaseDate:  t.ReleaseDate,
		VoteAverage:  t.VoteAverage,
		VoteCount:    t.VoteCount,
		Runtime:      t.Runtime,
		Genres:       t.Genres,
	}
}

// ToTMDB converts a saved movie back to the TMDB shape, for fallbacks.
func (m *Movie) ToTMDB() TMDBMovie {
	return TMDBMovie{
		ID:           m.TMDBID,
		Title:        m.Title,
		Overview:     m.Overview,
		PosterPath:   m.PosterPath,
		BackdropPath: m.BackdropPath,
		ReleaseDate:  m.ReleaseDate,
		VoteAverage:  m.VoteAverage,
		VoteCount:    m.VoteCount,
		Runtime:      m.Runtime,
		Genres:       m.Genres,
	}
}

// MovieSummary is the card shown in listings and search results.
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

// Images builds poster URLs from TMDB image paths.
type Images struct {
	BaseURL string
	Size    string
}

// PosterURL returns the poster URL for path, or the placeholder when path is empty.
func (i Images) PosterURL(path string) string {
	if path == "" {
		return PlaceholderPoster
	}
	size := i.Size
	if size == "" {
		size = "w300"
	}
	return strings.TrimRight(i.BaseURL, "/") + "/" + size + path
}

// Summarize builds the card for a TMDB record.
func (i Images) Summarize(t *TMDBMovie) MovieSummary {
	return MovieSummary{
		TMDBID:      t.ID,
		Title:       t.Title,
		Overview:    t.Overview,
		PosterPath:  t.PosterPath,
		PosterURL:   i.PosterURL(t.PosterPath),
		ReleaseDate: t.ReleaseDate,
		ReleaseYear: ReleaseYear(t.ReleaseDate),
		VoteAverage: t.VoteAverage,
		Rating:      Rating(t.VoteAverage),
	}
}

// ReleaseYear returns the year of a YYYY-MM-DD date, or N/A.
func ReleaseYear(date string) string {
	if len(date) < 4 {
		return NotAvailable
	}
	if _, err := time.Parse("2006", date[:4]); err != nil {
		return NotAvailable
	}
	return date[:4]
}

// Rating formats a vote average with one decimal, or N/A when unrated.
func Rating(v float64) string {
	if v <= 0 {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f", v)
}

// MovieList is a page of movie cards.
type MovieList struct {
	Movies       []MovieSummary `json:"movies"`
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
	Source       string         `json:"source"`
}

// List sources.
const (
	SourceTMDB     = "tmdb"
	SourceDatabase = "database"
	SourceIndex    = "index"
)

type CastMember struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path,omitempty"`
}

type Provider struct {
	Name     string `json:"provider_name"`
	LogoPath string `json:"logo_path,omitempty"`
	Kind     string `json:"kind"`
}

// MovieDetails is the detail view of a movie.
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

// ListRequest is the query of a movie listing.
type ListRequest struct {
	Mode string `form:"mode"`
	Page int    `form:"page"`
}

// SearchRequest is the query of a movie search.
type SearchRequest struct {
	Query string `form:"q" binding:"required"`
	Page  int    `form:"page"`
}

// DiscoverRequest is the query of a genre listing.
type DiscoverRequest struct {
	Genre int `form:"genre" binding:"required,gt=0"`
	Page  int `form:"page"`
}
