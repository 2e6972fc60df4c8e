package browse

import (
	"context"
	"fmt"
	"sync"

	"github.com/weiawesome/cinema-chronicles/pkg/movieclient"
)

type fakeAPI struct {
	mu         sync.Mutex
	searches   []string
	pages      []int
	totalPages int
	favorites  map[int]bool
	failNext   error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{totalPages: 2, favorites: map[int]bool{}}
}

func (f *fakeAPI) takeErr() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeAPI) Search(_ context.Context, query string, page int) (*movieclient.MovieList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	return &movieclient.MovieList{
		Movies:       []movieclient.MovieSummary{{TMDBID: 603, Title: query}},
		Page:         page,
		TotalPages:   1,
		TotalResults: 1,
	}, nil
}

func (f *fakeAPI) list(page int) *movieclient.MovieList {
	f.pages = append(f.pages, page)
	return &movieclient.MovieList{
		Movies:     []movieclient.MovieSummary{{TMDBID: page * 100, Title: fmt.Sprintf("Movie %d", page)}},
		Page:       page,
		TotalPages: f.totalPages,
	}
}

func (f *fakeAPI) Movies(_ context.Context, _ string, page int) (*movieclient.MovieList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	return f.list(page), nil
}

func (f *fakeAPI) Discover(_ context.Context, _ int, page int) (*movieclient.MovieList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	return f.list(page), nil
}

func (f *fakeAPI) Details(_ context.Context, tmdbID int) (*movieclient.MovieDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	return &movieclient.MovieDetails{MovieSummary: movieclient.MovieSummary{TMDBID: tmdbID, Title: "The Matrix"}}, nil
}

func (f *fakeAPI) ToggleFavorite(_ context.Context, tmdbID int) (*movieclient.ToggleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favorites[tmdbID] = !f.favorites[tmdbID]
	if f.favorites[tmdbID] {
		return &movieclient.ToggleResult{IsFavorite: true, Action: "added", Message: "Movie added to favorites"}, nil
	}
	return &movieclient.ToggleResult{Action: "removed", Message: "Movie removed from favorites"}, nil
}

func (f *fakeAPI) AddToHistory(_ context.Context, _ int) (*movieclient.HistoryResult, error) {
	return &movieclient.HistoryResult{IsWatched: true, Action: "added", Message: "Movie added to watch history"}, nil
}

func (f *fakeAPI) Favorites(_ context.Context, page int) (*movieclient.Page[movieclient.FavoriteEntry], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	return &movieclient.Page[movieclient.FavoriteEntry]{Page: page, TotalPages: 1}, nil
}

func (f *fakeAPI) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

// recorder is a Renderer that remembers what it was asked to draw.
type recorder struct {
	mu       sync.Mutex
	calls    []string
	notes    []string
	details  []int
	settings []Settings
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) ShowLoading(query string) { r.add("loading:" + query) }

func (r *recorder) ShowResults(query string, _ *movieclient.MovieList) { r.add("results:" + query) }

func (r *recorder) ClearResults() { r.add("clear") }

func (r *recorder) Notify(level movieclient.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, string(level)+":"+msg)
}

func (r *recorder) ShowListing(title string, list *movieclient.MovieList) {
	r.add(fmt.Sprintf("listing:%s:%d", title, list.Page))
}

func (r *recorder) AppendListing(list *movieclient.MovieList) {
	r.add(fmt.Sprintf("append:%d", list.Page))
}

func (r *recorder) ShowDetails(d *movieclient.MovieDetails) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.details = append(r.details, d.TMDBID)
}

func (r *recorder) ShowFavorites(page *movieclient.Page[movieclient.FavoriteEntry]) {
	r.add(fmt.Sprintf("favorites:%d", page.Page))
}

func (r *recorder) ApplySettings(settings Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = append(r.settings, settings)
}

func (r *recorder) ShowSettings(settings Settings) {
	r.add(fmt.Sprintf("settings:%s:%d", settings.DefaultView, settings.PageSize))
}

func (r *recorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...), append([]string(nil), r.notes...)
}
