package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidPreferences = errors.New("invalid preferences")

// Preferences are the account-level settings.
type Preferences struct {
	Theme              string    `json:"theme"`
	DefaultView        string    `json:"default_view"`
	MoviesPerPage      int       `json:"movies_per_page"`
	DataSaverMode      bool      `json:"data_saver_mode"`
	ShowAdultContent   bool      `json:"show_adult_content"`
	MinRating          float64   `json:"min_rating"`
	PreferredGenres    []string  `json:"preferred_genres"`
	AutoAddToHistory   bool      `json:"auto_add_to_history"`
	EmailNotifications bool      `json:"email_notifications"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}

// DefaultPreferences returns the settings of a new account.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Theme:              "auto",
		DefaultView:        "grid",
		MoviesPerPage:      20,
		PreferredGenres:    []string{},
		AutoAddToHistory:   true,
		EmailNotifications: true,
	}
}

// Validate checks every field against its allowed values.
func (p *Preferences) Validate() error {
	switch p.Theme {
	case "light", "dark", "auto":
	default:
		return fmt.Errorf("%w: theme must be light, dark or auto", ErrInvalidPreferences)
	}
	switch p.DefaultView {
	case "grid", "list":
	default:
		return fmt.Errorf("%w: default_view must be grid or list", ErrInvalidPreferences)
	}
	switch p.MoviesPerPage {
	case 12, 20, 40:
	default:
		return fmt.Errorf("%w: movies_per_page must be 12, 20 or 40", ErrInvalidPreferences)
	}
	if p.MinRating < 0 || p.MinRating > 10 {
		return fmt.Errorf("%w: min_rating must be between 0 and 10", ErrInvalidPreferences)
	}
	known := make(map[string]bool, len(FallbackGenres))
	for _, g := range FallbackGenres {
		known[g.Name] = true
	}
	for _, g := range p.PreferredGenres {
		if !known[g] {
			return fmt.Errorf("%w: unknown genre %q", ErrInvalidPreferences, g)
		}
	}
	return nil
}

// UpdatePreferencesRequest changes the fields that are set.
type UpdatePreferencesRequest struct {
	Theme              *string   `json:"theme"`
	DefaultView        *string   `json:"default_view"`
	MoviesPerPage      *int      `json:"movies_per_page"`
	DataSaverMode      *bool     `json:"data_saver_mode"`
	ShowAdultContent   *bool     `json:"show_adult_content"`
	MinRating          *float64  `json:"min_rating"`
	PreferredGenres    *[]string `json:"preferred_genres"`
	AutoAddToHistory   *bool     `json:"auto_add_to_history"`
	EmailNotifications *bool     `json:"email_notifications"`
}

// Apply copies the set fields onto p.
func (r *UpdatePreferencesRequest) Apply(p *Preferences) {
	if r.Theme != nil {
		p.Theme = *r.Theme
	}
	if r.DefaultView != nil {
		p.DefaultView = *r.DefaultView
	}
	if r.MoviesPerPage != nil {
		p.MoviesPerPage = *r.MoviesPerPage
	}
	if r.DataSaverMode != nil {
		p.DataSaverMode = *r.DataSaverMode
	}
	if r.ShowAdultContent != nil {
		p.ShowAdultContent = *r.ShowAdultContent
	}
	if r.MinRating != nil {
		p.MinRating = *r.MinRating
	}
	if r.PreferredGenres != nil {
		p.PreferredGenres = append([]string{}, *r.PreferredGenres...)
	}
	if r.AutoAddToHistory != nil {
		p.AutoAddToHistory = *r.AutoAddToHistory
	}
	if r.EmailNotifications != nil {
		p.EmailNotifications = *r.EmailNotifications
	}
}
