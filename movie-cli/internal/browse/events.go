// Package browse drives a browsing session: it turns user events into API
// calls and rendering, like the page script of the web client.
package browse

import "context"

// EventType identifies a user action.
type EventType int

const (
	EventSearchInput EventType = iota + 1
	EventSearchClear
	EventLoadMore
	EventOpenDetails
	EventToggleFavorite
	EventMarkWatched
	EventSetTheme
	EventShowFavorites
	EventMode
	EventSettings
)

var eventNames = map[EventType]string{
	EventSearchInput:    "search_input",
	EventSearchClear:    "search_clear",
	EventLoadMore:       "load_more",
	EventOpenDetails:    "open_details",
	EventToggleFavorite: "toggle_favorite",
	EventMarkWatched:    "mark_watched",
	EventSetTheme:       "set_theme",
	EventShowFavorites:  "show_favorites",
	EventMode:           "mode",
	EventSettings:       "settings",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is one user action. Only the fields relevant to Type are set.
type Event struct {
	Type   EventType
	Query  string
	TMDBID int
	Theme  string
	// Mode is a list mode (trending, top_rated, upcoming) or "genre" with
	// Genre set.
	Mode  string
	Genre int
	Page  int
	// Setting names the setting to change (view, pagesize, datasaver or
	// reset). Empty shows the current settings.
	Setting string
	Value   string
}

// Handler reacts to an event.
type Handler func(ctx context.Context, ev Event) error
