package movieclient

import (
	"context"
	"net/http"
)

type movieRef struct {
	TMDBID int `json:"tmdb_id"`
}

// ToggleFavorite adds or removes a favourite.
func (c *Client) ToggleFavorite(ctx context.Context, tmdbID int) (*ToggleResult, error) {
	return call[*ToggleResult](ctx, c, http.MethodPost, "/favorites/toggle", nil, movieRef{TMDBID: tmdbID})
}

// AddToHistory records that the movie was watched today.
func (c *Client) AddToHistory(ctx context.Context, tmdbID int) (*HistoryResult, error) {
	return call[*HistoryResult](ctx, c, http.MethodPost, "/history", nil, movieRef{TMDBID: tmdbID})
}

func (c *Client) Favorites(ctx context.Context, page int) (*Page[FavoriteEntry], error) {
	return call[*Page[FavoriteEntry]](ctx, c, http.MethodGet, "/favorites", pageQuery(page), nil)
}

func (c *Client) History(ctx context.Context, page int) (*Page[HistoryEntry], error) {
	return call[*Page[HistoryEntry]](ctx, c, http.MethodGet, "/history", pageQuery(page), nil)
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	return call[*Stats](ctx, c, http.MethodGet, "/stats", nil, nil)
}

func (c *Client) UserData(ctx context.Context) (*UserData, error) {
	return call[*UserData](ctx, c, http.MethodGet, "/user-data", nil, nil)
}

// SaveUserData stores the session state and returns what the server kept.
func (c *Client) SaveUserData(ctx context.Context, data UserData) (*UserData, error) {
	return call[*UserData](ctx, c, http.MethodPost, "/user-data", nil, data)
}

func (c *Client) Preferences(ctx context.Context) (*UserPreferences, error) {
	return call[*UserPreferences](ctx, c, http.MethodGet, "/preferences", nil, nil)
}

// UpdatePreferences replaces the account preferences.
func (c *Client) UpdatePreferences(ctx context.Context, p UserPreferences) (*UserPreferences, error) {
	return call[*UserPreferences](ctx, c, http.MethodPut, "/preferences", nil, p)
}

// ResetPreferences restores the default preferences.
func (c *Client) ResetPreferences(ctx context.Context) (*UserPreferences, error) {
	return call[*UserPreferences](ctx, c, http.MethodDelete, "/preferences", nil, nil)
}

// Export writes a data export on the server and returns where to fetch it.
func (c *Client) Export(ctx context.Context) (*ExportResult, error) {
	return call[*ExportResult](ctx, c, http.MethodPost, "/export", nil, nil)
}
