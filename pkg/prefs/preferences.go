package prefs

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

// View values.
const (
	ViewGrid = "grid"
	ViewList = "list"
)

const (
	DefaultPageSize = 20
	MinPageSize     = 1
	MaxPageSize     = 100
)

// Preferences reads and writes typed values through a Repository.
type Preferences struct {
	repo Repository
}

// New wraps repo.
func New(repo Repository) *Preferences {
	return &Preferences{repo: repo}
}

// Repository returns the underlying store.
func (p *Preferences) Repository() Repository {
	return p.repo
}

// Theme returns the saved theme, or auto when none is saved.
func (p *Preferences) Theme() (string, error) {
	v, ok, err := p.repo.Get(KeyTheme)
	if err != nil || !ok {
		return ThemeAuto, err
	}
	switch v {
	case ThemeLight, ThemeDark, ThemeAuto:
		return v, nil
	}
	return ThemeAuto, nil
}

// SetTheme saves theme, which must be light, dark or auto.
func (p *Preferences) SetTheme(theme string) error {
	switch theme {
	case ThemeLight, ThemeDark, ThemeAuto:
		return p.repo.Set(KeyTheme, theme)
	}
	return fmt.Errorf("%w: theme %q", ErrInvalidValue, theme)
}

// DefaultView returns the saved view mode, grid by default.
func (p *Preferences) DefaultView() (string, error) {
	v, ok, err := p.repo.Get(KeyDefaultView)
	if err != nil || !ok || (v != ViewGrid && v != ViewList) {
		return ViewGrid, err
	}
	return v, nil
}

// SetDefaultView saves the view mode.
func (p *Preferences) SetDefaultView(view string) error {
	if view != ViewGrid && view != ViewList {
		return fmt.Errorf("%w: view %q", ErrInvalidValue, view)
	}
	return p.repo.Set(KeyDefaultView, view)
}

// PageSize returns movies per page. Unset or unparsable values fall back to
// DefaultPageSize.
func (p *Preferences) PageSize() (int, error) {
	v, ok, err := p.repo.Get(KeyMoviesPerPage)
	if err != nil || !ok {
		return DefaultPageSize, err
	}
	n, convErr := strconv.Atoi(v)
	if convErr != nil || n < MinPageSize || n > MaxPageSize {
		return DefaultPageSize, nil
	}
	return n, nil
}

// SetPageSize saves movies per page.
func (p *Preferences) SetPageSize(n int) error {
	if n < MinPageSize || n > MaxPageSize {
		return fmt.Errorf("%w: page size %d", ErrInvalidValue, n)
	}
	return p.repo.Set(KeyMoviesPerPage, strconv.Itoa(n))
}

// DataSaver reports whether data saver mode is on. Only the exact string
// "true" counts as on.
func (p *Preferences) DataSaver() (bool, error) {
	v, _, err := p.repo.Get(KeyDataSaverMode)
	return v == "true", err
}

// SetDataSaver saves the data saver flag.
func (p *Preferences) SetDataSaver(on bool) error {
	return p.repo.Set(KeyDataSaverMode, strconv.FormatBool(on))
}

// Favorites returns saved favourite movie IDs in insertion order.
// A corrupt value reads as empty.
func (p *Preferences) Favorites() ([]int, error) {
	v, ok, err := p.repo.Get(KeyFavorites)
	if err != nil || !ok || v == "" {
		return []int{}, err
	}
	var ids []int
	if json.Unmarshal([]byte(v), &ids) != nil {
		return []int{}, nil
	}
	return ids, nil
}

// SetFavorites replaces the favourite list.
func (p *Preferences) SetFavorites(ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return p.repo.Set(KeyFavorites, string(raw))
}

// IsFavorite reports whether id is a favourite.
func (p *Preferences) IsFavorite(id int) (bool, error) {
	ids, err := p.Favorites()
	if err != nil {
		return false, err
	}
	for _, v := range ids {
		if v == id {
			return true, nil
		}
	}
	return false, nil
}

// ToggleFavorite adds id if absent and removes it otherwise. It returns
// whether id is a favourite afterwards.
func (p *Preferences) ToggleFavorite(id int) (bool, error) {
	ids, err := p.Favorites()
	if err != nil {
		return false, err
	}
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i], ids[i+1:]...)
			return false, p.SetFavorites(ids)
		}
	}
	return true, p.SetFavorites(append(ids, id))
}

// Views returns the local view counter.
func (p *Preferences) Views() (int, error) {
	v, ok, err := p.repo.Get(KeyViews)
	if err != nil || !ok {
		return 0, err
	}
	n, convErr := strconv.Atoi(v)
	if convErr != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// SetViews replaces the view counter.
func (p *Preferences) SetViews(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: views %d", ErrInvalidValue, n)
	}
	return p.repo.Set(KeyViews, strconv.Itoa(n))
}

// IncrementViews adds one view and returns the new count.
func (p *Preferences) IncrementViews() (int, error) {
	n, err := p.Views()
	if err != nil {
		return 0, err
	}
	n++
	return n, p.repo.Set(KeyViews, strconv.Itoa(n))
}

// Reset removes the display settings and switches to the dark theme.
// Favourites and views are kept.
func (p *Preferences) Reset() error {
	for _, k := range settingKeys {
		if err := p.repo.Delete(k); err != nil {
			return err
		}
	}
	return p.repo.Set(KeyTheme, ThemeDark)
}
