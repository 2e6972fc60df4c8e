package movieclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Listing modes accepted by Movies.
const (
	ModeTrending = "trending"
	ModeTopRated = "top_rated"
	ModeUpcoming = "upcoming"
)

func pageQuery(page int) url.Values {
	q := url.Values{}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

// Movies returns one page of a listing mode.
func (c *Client) Movies(ctx context.Context, mode string, page int) (*MovieList, error) {
	q := pageQuery(page)
	q.Set("mode", mode)
	return call[*MovieList](ctx, c, http.MethodGet, "/movies", q, nil)
}

func (c *Client) Trending(ctx context.Context, page int) (*MovieList, error) {
	return c.Movies(ctx, ModeTrending, page)
}

func (c *Client) TopRated(ctx context.Context, page int) (*MovieList, error) {
	return c.Movies(ctx, ModeTopRated, page)
}

func (c *Client) Upcoming(ctx context.Context, page int) (*MovieList, error) {
	return c.Movies(ctx, ModeUpcoming, page)
}

// Search runs a title search.
func (c *Client) Search(ctx context.Context, query string, page int) (*MovieList, error) {
	q := pageQuery(page)
	q.Set("q", query)
	return call[*MovieList](ctx, c, http.MethodGet, "/movies/search", q, nil)
}

// Discover lists movies of one genre.
func (c *Client) Discover(ctx context.Context, genreID, page int) (*MovieList, error) {
	q := pageQuery(page)
	q.Set("genre", strconv.Itoa(genreID))
	return call[*MovieList](ctx, c, http.MethodGet, "/movies/discover", q, nil)
}

// Details returns the detail view of a movie.
func (c *Client) Details(ctx context.Context, tmdbID int) (*MovieDetails, error) {
	return call[*MovieDetails](ctx, c, http.MethodGet, fmt.Sprintf("/movies/%d", tmdbID), nil, nil)
}

func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	return call[[]Genre](ctx, c, http.MethodGet, "/genres", nil, nil)
}
