package pubsub

import (
	"fmt"
	"strings"
)

// Activity channels carry per-user library changes:
//
//	activity:user:<userID>:<kind>
const (
	ChannelActivity        = "activity:user:%s:%s"
	PatternAllActivity     = "activity:user:*"
	PatternActivityForKind = "activity:user:*:%s"
)

// Activity kinds.
const (
	KindFavoriteToggled    = "favorite_toggled"
	KindWatched            = "watched"
	KindPreferencesChanged = "preferences_changed"
	KindDataExported       = "data_exported"
)

// ActivityKinds lists every kind, used to provision Kafka topics.
var ActivityKinds = []string{
	KindFavoriteToggled,
	KindWatched,
	KindPreferencesChanged,
	KindDataExported,
}

// ActivityChannel returns the channel for a user's activity of one kind.
func ActivityChannel(userID, kind string) string {
	return fmt.Sprintf(ChannelActivity, userID, kind)
}

// ActivityPattern returns the pattern matching one kind for every user.
func ActivityPattern(kind string) string {
	return fmt.Sprintf(PatternActivityForKind, kind)
}

// ParseActivityChannel splits a channel into user ID and kind.
func ParseActivityChannel(channel string) (userID, kind string, err error) {
	parts := strings.Split(channel, ":")
	if len(parts) != 4 || parts[0] != "activity" || parts[1] != "user" || parts[2] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("invalid activity channel: %s", channel)
	}
	return parts[2], parts[3], nil
}

// FavoriteToggledPayload is published when a favourite is added or removed.
type FavoriteToggledPayload struct {
	TMDBID     int  `json:"tmdb_id"`
	IsFavorite bool `json:"is_favorite"`
}

// WatchedPayload is published when a movie is added to watch history.
type WatchedPayload struct {
	TMDBID int    `json:"tmdb_id"`
	Action string `json:"action"` // "added", "updated"
}

// PreferencesChangedPayload is published when preferences are saved or reset.
type PreferencesChangedPayload struct {
	Reset bool `json:"reset"`
}

// DataExportedPayload is published after an export file is written.
type DataExportedPayload struct {
	Key string `json:"key"`
}
