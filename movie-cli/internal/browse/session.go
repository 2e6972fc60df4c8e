package browse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	pkglog "github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/movieclient"
	"github.com/weiawesome/cinema-chronicles/pkg/prefs"
)

// Listing modes.
const (
	ModeTrending = "trending"
	ModeTopRated = "top_rated"
	ModeUpcoming = "upcoming"
	ModeGenre    = "genre"
)

// API is the part of movieclient.Client a session uses.
type API interface {
	movieclient.SearchAPI
	Movies(ctx context.Context, mode string, page int) (*movieclient.MovieList, error)
	Discover(ctx context.Context, genreID, page int) (*movieclient.MovieList, error)
	Details(ctx context.Context, tmdbID int) (*movieclient.MovieDetails, error)
	ToggleFavorite(ctx context.Context, tmdbID int) (*movieclient.ToggleResult, error)
	AddToHistory(ctx context.Context, tmdbID int) (*movieclient.HistoryResult, error)
	Favorites(ctx context.Context, page int) (*movieclient.Page[movieclient.FavoriteEntry], error)
}

// Renderer draws the session. Search results reach it through the
// movieclient.Display methods.
type Renderer interface {
	movieclient.Display
	ShowListing(title string, list *movieclient.MovieList)
	AppendListing(list *movieclient.MovieList)
	ShowDetails(d *movieclient.MovieDetails)
	ShowFavorites(page *movieclient.Page[movieclient.FavoriteEntry])
	// ApplySettings changes how later output is laid out.
	ApplySettings(settings Settings)
	ShowSettings(settings Settings)
}

// Settings is a snapshot of the local display settings.
type Settings struct {
	Theme       string
	DefaultView string
	PageSize    int
	DataSaver   bool
}

// Config configures a Session. Zero values use the defaults.
type Config struct {
	Debounce time.Duration
	Search   movieclient.SearcherConfig
}

// Session dispatches events to handlers. NewSession registers the default
// handler of every event type; On adds more.
type Session struct {
	api      API
	view     Renderer
	prefs    *prefs.Preferences
	searcher *movieclient.Searcher
	debounce *movieclient.Debouncer

	mu       sync.Mutex
	handlers map[EventType][]Handler
	listing  listing
}

// listing is the state of the current infinite-scroll listing.
type listing struct {
	mode       string
	genre      int
	page       int
	totalPages int
	loading    bool
}

// NewSession creates a session rendering into view and keeping local state
// in store.
func NewSession(api API, view Renderer, store prefs.Repository, cfg Config) *Session {
	s := &Session{
		api:      api,
		view:     view,
		prefs:    prefs.New(store),
		searcher: movieclient.NewSearcher(api, view, cfg.Search),
		debounce: movieclient.NewDebouncer(cfg.Debounce),
		handlers: make(map[EventType][]Handler),
	}

	s.On(EventSearchInput, s.onSearchInput)
	s.On(EventSearchClear, s.onSearchClear)
	s.On(EventMode, s.onMode)
	s.On(EventLoadMore, s.onLoadMore)
	s.On(EventOpenDetails, s.onOpenDetails)
	s.On(EventToggleFavorite, s.onToggleFavorite)
	s.On(EventMarkWatched, s.onMarkWatched)
	s.On(EventSetTheme, s.onSetTheme)
	s.On(EventShowFavorites, s.onShowFavorites)
	s.On(EventSettings, s.onSettings)

	if settings, err := s.settings(); err == nil {
		view.ApplySettings(settings)
	} else {
		l := pkglog.L()
		l.Warn().Err(err).Msg("failed to read settings")
	}
	return s
}

// Searcher returns the session's searcher, for sweeping its cache.
func (s *Session) Searcher() *movieclient.Searcher {
	return s.searcher
}

// On registers h for events of type t. Handlers run in registration order.
func (s *Session) On(t EventType, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[t] = append(s.handlers[t], h)
}

// Emit runs every handler registered for ev.Type and joins their errors.
func (s *Session) Emit(ctx context.Context, ev Event) error {
	s.mu.Lock()
	handlers := append([]Handler(nil), s.handlers[ev.Type]...)
	s.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no handler for event %s", ev.Type)
	}
	var errs []error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush runs a debounced search that is still waiting and returns once it,
// or one already started, has finished rendering.
func (s *Session) Flush() {
	s.debounce.Flush()
}

// Close cancels a pending debounced search and any search in flight.
func (s *Session) Close() {
	s.debounce.Stop()
	s.searcher.Cancel()
}

// onSearchInput searches once typing pauses.
func (s *Session) onSearchInput(ctx context.Context, ev Event) error {
	query := ev.Query
	s.debounce.Trigger(func() {
		err := s.searcher.Search(ctx, query)
		if err != nil && !errors.Is(err, movieclient.ErrSuperseded) && !errors.Is(err, context.Canceled) {
			l := pkglog.Ctx(ctx)
			l.Debug().Err(err).Str(pkglog.FieldQuery, query).Msg("search failed")
		}
	})
	return nil
}

func (s *Session) onSearchClear(ctx context.Context, _ Event) error {
	s.debounce.Stop()
	return s.searcher.Search(ctx, "")
}

// onMode starts a new listing at page one.
func (s *Session) onMode(ctx context.Context, ev Event) error {
	switch ev.Mode {
	case ModeTrending, ModeTopRated, ModeUpcoming:
	case ModeGenre:
		if ev.Genre <= 0 {
			return fmt.Errorf("genre listing needs a genre id")
		}
	default:
		return fmt.Errorf("unknown listing mode %q", ev.Mode)
	}

	s.mu.Lock()
	s.listing = listing{mode: ev.Mode, genre: ev.Genre, loading: true}
	s.mu.Unlock()

	list, err := s.fetch(ctx, ev.Mode, ev.Genre, 1)
	s.mu.Lock()
	s.listing.loading = false
	if err == nil {
		s.listing.page = list.Page
		s.listing.totalPages = list.TotalPages
	}
	s.mu.Unlock()

	if err != nil {
		s.view.Notify(movieclient.LevelError, "Failed to load movies")
		return err
	}
	s.view.ShowListing(listingTitle(ev.Mode, ev.Genre), list)
	return nil
}

// onLoadMore appends the next page of the current listing. It is a no-op
// while a page is loading or after the last page.
func (s *Session) onLoadMore(ctx context.Context, _ Event) error {
	s.mu.Lock()
	cur := s.listing
	if cur.mode == "" || cur.loading {
		s.mu.Unlock()
		return nil
	}
	if cur.page >= cur.totalPages {
		s.mu.Unlock()
		s.view.Notify(movieclient.LevelInfo, "No more movies")
		return nil
	}
	s.listing.loading = true
	s.mu.Unlock()

	list, err := s.fetch(ctx, cur.mode, cur.genre, cur.page+1)

	s.mu.Lock()
	s.listing.loading = false
	stale := s.listing.mode != cur.mode || s.listing.genre != cur.genre
	if err == nil && !stale {
		s.listing.page = list.Page
		s.listing.totalPages = list.TotalPages
	}
	s.mu.Unlock()

	if err != nil {
		s.view.Notify(movieclient.LevelError, "Failed to load more movies")
		return err
	}
	if !stale {
		s.view.AppendListing(list)
	}
	return nil
}

func (s *Session) fetch(ctx context.Context, mode string, genre, page int) (*movieclient.MovieList, error) {
	if mode == ModeGenre {
		return s.api.Discover(ctx, genre, page)
	}
	return s.api.Movies(ctx, mode, page)
}

// onOpenDetails shows a movie and counts the view locally.
func (s *Session) onOpenDetails(ctx context.Context, ev Event) error {
	d, err := s.api.Details(ctx, ev.TMDBID)
	if err != nil {
		if movieclient.IsStatus(err, http.StatusNotFound) {
			s.view.Notify(movieclient.LevelError, "Movie not found")
		} else {
			s.view.Notify(movieclient.LevelError, "Failed to load movie details")
		}
		return err
	}
	s.view.ShowDetails(d)

	if _, err := s.prefs.IncrementViews(); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to count view")
	}
	return nil
}

// onToggleFavorite toggles on the server and mirrors the outcome in the
// local favourites list.
func (s *Session) onToggleFavorite(ctx context.Context, ev Event) error {
	res, err := s.api.ToggleFavorite(ctx, ev.TMDBID)
	if err != nil {
		s.view.Notify(movieclient.LevelError, "Failed to update favorites")
		return err
	}

	local, err := s.prefs.IsFavorite(ev.TMDBID)
	if err == nil && local != res.IsFavorite {
		_, err = s.prefs.ToggleFavorite(ev.TMDBID)
	}
	if err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to sync local favorites")
	}

	s.view.Notify(movieclient.LevelSuccess, res.Message)
	return nil
}

func (s *Session) onMarkWatched(ctx context.Context, ev Event) error {
	res, err := s.api.AddToHistory(ctx, ev.TMDBID)
	if err != nil {
		s.view.Notify(movieclient.LevelError, "Failed to add to history")
		return err
	}
	s.view.Notify(movieclient.LevelSuccess, res.Message)
	return nil
}

func (s *Session) onSetTheme(_ context.Context, ev Event) error {
	if err := s.prefs.SetTheme(ev.Theme); err != nil {
		s.view.Notify(movieclient.LevelError, "Theme must be light, dark or auto")
		return err
	}
	s.view.Notify(movieclient.LevelSuccess, fmt.Sprintf("Theme set to %s", ev.Theme))
	return nil
}

func (s *Session) onShowFavorites(ctx context.Context, ev Event) error {
	page := ev.Page
	if page < 1 {
		page = 1
	}
	favorites, err := s.api.Favorites(ctx, page)
	if err != nil {
		if movieclient.IsStatus(err, http.StatusUnauthorized) {
			s.view.Notify(movieclient.LevelError, "Log in to see your favorites")
		} else {
			s.view.Notify(movieclient.LevelError, "Failed to load favorites")
		}
		return err
	}
	s.view.ShowFavorites(favorites)
	return nil
}

// onSettings shows the settings or changes one of them, then re-applies
// them to the view.
func (s *Session) onSettings(_ context.Context, ev Event) error {
	var err error
	switch ev.Setting {
	case "":
	case "view":
		err = s.prefs.SetDefaultView(ev.Value)
	case "pagesize":
		n, convErr := strconv.Atoi(ev.Value)
		if convErr != nil {
			err = fmt.Errorf("%w: page size %q", prefs.ErrInvalidValue, ev.Value)
			break
		}
		err = s.prefs.SetPageSize(n)
	case "datasaver":
		switch ev.Value {
		case "on", "true":
			err = s.prefs.SetDataSaver(true)
		case "off", "false":
			err = s.prefs.SetDataSaver(false)
		default:
			err = fmt.Errorf("%w: data saver %q", prefs.ErrInvalidValue, ev.Value)
		}
	case "reset":
		err = s.prefs.Reset()
	default:
		err = fmt.Errorf("%w: unknown setting %q", prefs.ErrInvalidValue, ev.Setting)
	}
	if err != nil {
		s.view.Notify(movieclient.LevelError, "Invalid setting")
		return err
	}

	settings, err := s.settings()
	if err != nil {
		s.view.Notify(movieclient.LevelError, "Failed to read settings")
		return err
	}
	s.view.ApplySettings(settings)
	s.view.ShowSettings(settings)
	return nil
}

func (s *Session) settings() (Settings, error) {
	var out Settings
	var errs []error
	var err error
	if out.Theme, err = s.prefs.Theme(); err != nil {
		errs = append(errs, err)
	}
	if out.DefaultView, err = s.prefs.DefaultView(); err != nil {
		errs = append(errs, err)
	}
	if out.PageSize, err = s.prefs.PageSize(); err != nil {
		errs = append(errs, err)
	}
	if out.DataSaver, err = s.prefs.DataSaver(); err != nil {
		errs = append(errs, err)
	}
	return out, errors.Join(errs...)
}

func listingTitle(mode string, genre int) string {
	switch mode {
	case ModeTopRated:
		return "Top Rated"
	case ModeUpcoming:
		return "Upcoming"
	case ModeGenre:
		return fmt.Sprintf("Genre %d", genre)
	}
	return "Trending"
}
