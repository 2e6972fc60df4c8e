package browse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrQuit is returned by ParseCommand for /quit.
var ErrQuit = errors.New("quit")

// Usage lists the commands ParseCommand understands.
const Usage = `Type to search. Commands:
  /trending /top /upcoming    switch listing
  /genre <id>                 movies of a genre
  /more                       load the next page
  /open <id>                  movie details
  /fav <id>                   toggle favourite
  /watched <id>               add to watch history
  /favorites [page]           list favourites
  /theme light|dark|auto      set the theme
  /settings                   show settings
  /settings view grid|list    listing layout
  /settings pagesize <n>      rows shown per listing (1-100)
  /settings datasaver on|off  hide similar movies and providers
  /settings reset             restore default settings
  /clear                      clear the search
  /quit`

// ParseCommand maps an input line to an event. Lines not starting with "/"
// are search input.
func ParseCommand(line string) (Event, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		if line == "" {
			return Event{Type: EventSearchClear}, nil
		}
		return Event{Type: EventSearchInput, Query: line}, nil
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "/quit", "/exit":
		return Event{}, ErrQuit
	case "/trending":
		return Event{Type: EventMode, Mode: ModeTrending}, nil
	case "/top":
		return Event{Type: EventMode, Mode: ModeTopRated}, nil
	case "/upcoming":
		return Event{Type: EventMode, Mode: ModeUpcoming}, nil
	case "/genre":
		id, err := intArg(cmd, args)
		if err != nil {
			return Event{}, err
		}
		return Event{Type: EventMode, Mode: ModeGenre, Genre: id}, nil
	case "/more":
		return Event{Type: EventLoadMore}, nil
	case "/open":
		id, err := intArg(cmd, args)
		if err != nil {
			return Event{}, err
		}
		return Event{Type: EventOpenDetails, TMDBID: id}, nil
	case "/fav":
		id, err := intArg(cmd, args)
		if err != nil {
			return Event{}, err
		}
		return Event{Type: EventToggleFavorite, TMDBID: id}, nil
	case "/watched":
		id, err := intArg(cmd, args)
		if err != nil {
			return Event{}, err
		}
		return Event{Type: EventMarkWatched, TMDBID: id}, nil
	case "/favorites":
		page := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return Event{}, fmt.Errorf("%s: invalid page %q", cmd, args[0])
			}
			page = n
		}
		return Event{Type: EventShowFavorites, Page: page}, nil
	case "/theme":
		if len(args) != 1 {
			return Event{}, fmt.Errorf("%s: expected light, dark or auto", cmd)
		}
		return Event{Type: EventSetTheme, Theme: args[0]}, nil
	case "/settings":
		return parseSettings(cmd, args)
	case "/clear":
		return Event{Type: EventSearchClear}, nil
	}
	return Event{}, fmt.Errorf("unknown command %s", cmd)
}

func intArg(cmd string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s: expected one id", cmd)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: invalid id %q", cmd, args[0])
	}
	return n, nil
}

func parseSettings(cmd string, args []string) (Event, error) {
	if len(args) == 0 {
		return Event{Type: EventSettings}, nil
	}
	switch args[0] {
	case "reset":
		if len(args) != 1 {
			return Event{}, fmt.Errorf("%s reset takes no value", cmd)
		}
		return Event{Type: EventSettings, Setting: args[0]}, nil
	case "view", "pagesize", "datasaver":
		if len(args) != 2 {
			return Event{}, fmt.Errorf("%s %s: expected one value", cmd, args[0])
		}
		return Event{Type: EventSettings, Setting: args[0], Value: args[1]}, nil
	}
	return Event{}, fmt.Errorf("%s: unknown setting %q", cmd, args[0])
}
