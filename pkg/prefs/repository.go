// Package prefs stores client-side preferences as string key/value pairs.
//
// All access goes through a Repository; Preferences layers typed accessors
// on top of one.
package prefs

import "errors"

// Well-known keys.
const (
	KeyTheme         = "userTheme"
	KeyDefaultView   = "defaultView"
	KeyMoviesPerPage = "moviesPerPage"
	KeyDataSaverMode = "dataSaverMode"
	KeyFavorites     = "favorites"
	KeyViews         = "views"
)

// settingKeys are the keys cleared by Preferences.Reset.
var settingKeys = []string{KeyTheme, KeyDefaultView, KeyMoviesPerPage, KeyDataSaverMode}

// ErrInvalidValue is returned by typed setters for out-of-range input.
var ErrInvalidValue = errors.New("prefs: invalid value")

// Repository is a flat string key/value store.
type Repository interface {
	// Get returns the value for key and whether it was set.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	// Clear removes every key.
	Clear() error
}
