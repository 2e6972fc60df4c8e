package browse

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/weiawesome/cinema-chronicles/pkg/movieclient"
	"github.com/weiawesome/cinema-chronicles/pkg/prefs"
)

// gridColumns is the number of movies per row in the grid layout.
const gridColumns = 3

// View renders a session as plain text. Until ApplySettings is called it
// lists every movie one per row.
type View struct {
	mu        sync.Mutex
	w         io.Writer
	layout    string
	rows      int
	dataSaver bool
}

// NewView creates a View writing to w.
func NewView(w io.Writer) *View {
	return &View{w: w}
}

func (v *View) ShowLoading(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "Searching for %q...\n", query)
}

func (v *View) ShowResults(query string, result *movieclient.MovieList) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(result.Movies) == 0 {
		fmt.Fprintln(v.w, movieclient.MsgNoResults)
		return
	}
	fmt.Fprintf(v.w, "Results for %q (%d):\n", query, result.TotalResults)
	v.writeMovies(result.Movies)
}

func (v *View) ClearResults() {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.w, "Search cleared.")
}

func (v *View) Notify(level movieclient.Level, msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "[%s] %s\n", level, msg)
}

func (v *View) ShowListing(title string, list *movieclient.MovieList) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "== %s (page %d of %d)", title, list.Page, list.TotalPages)
	if list.Source != "" && list.Source != "tmdb" {
		fmt.Fprintf(v.w, " [from %s]", list.Source)
	}
	fmt.Fprintln(v.w)
	v.writeMovies(list.Movies)
}

func (v *View) AppendListing(list *movieclient.MovieList) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "-- page %d of %d\n", list.Page, list.TotalPages)
	v.writeMovies(list.Movies)
}

func (v *View) ShowDetails(d *movieclient.MovieDetails) {
	v.mu.Lock()
	defer v.mu.Unlock()

	fmt.Fprintf(v.w, "%s (%s)  %s/10", d.Title, d.ReleaseYear, d.Rating)
	if d.IsFavorite {
		fmt.Fprint(v.w, "  ♥")
	}
	if d.IsWatched {
		fmt.Fprint(v.w, "  watched")
	}
	fmt.Fprintln(v.w)
	if d.Tagline != "" {
		fmt.Fprintf(v.w, "  %s\n", d.Tagline)
	}
	if d.Runtime > 0 {
		fmt.Fprintf(v.w, "  Runtime: %d min\n", d.Runtime)
	}
	if len(d.Genres) > 0 {
		names := make([]string, 0, len(d.Genres))
		for _, g := range d.Genres {
			names = append(names, g.Name)
		}
		fmt.Fprintf(v.w, "  Genres: %s\n", strings.Join(names, ", "))
	}
	if d.Director != "" {
		fmt.Fprintf(v.w, "  Director: %s\n", d.Director)
	}
	if len(d.Cast) > 0 {
		cast := make([]string, 0, len(d.Cast))
		for _, c := range d.Cast {
			cast = append(cast, c.Name)
		}
		fmt.Fprintf(v.w, "  Cast: %s\n", strings.Join(cast, ", "))
	}
	if d.Overview != "" {
		fmt.Fprintf(v.w, "  %s\n", d.Overview)
	}
	if d.Trailer != nil {
		fmt.Fprintf(v.w, "  Trailer: %s\n", d.Trailer.URL)
	}
	if v.dataSaver {
		return
	}
	for _, p := range d.Providers {
		fmt.Fprintf(v.w, "  %s: %s\n", p.Kind, p.Name)
	}
	if len(d.Similar) > 0 {
		fmt.Fprintln(v.w, "  Similar:")
		v.writeMovies(d.Similar)
	}
}

func (v *View) ShowFavorites(page *movieclient.Page[movieclient.FavoriteEntry]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(page.Items) == 0 {
		fmt.Fprintln(v.w, "No favorites yet.")
		return
	}
	fmt.Fprintf(v.w, "== Favorites (page %d of %d)\n", page.Page, page.TotalPages)
	movies := make([]movieclient.MovieSummary, 0, len(page.Items))
	for _, f := range page.Items {
		movies = append(movies, f.Movie)
	}
	v.writeMovies(movies)
}

func (v *View) ApplySettings(settings Settings) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.layout = settings.DefaultView
	v.rows = settings.PageSize
	v.dataSaver = settings.DataSaver
}

func (v *View) ShowSettings(settings Settings) {
	v.mu.Lock()
	defer v.mu.Unlock()
	saver := "off"
	if settings.DataSaver {
		saver = "on"
	}
	fmt.Fprintf(v.w, "Theme: %s  View: %s  Page size: %d  Data saver: %s\n",
		settings.Theme, settings.DefaultView, settings.PageSize, saver)
}

// writeMovies prints at most v.rows movies, in a grid or one per row.
func (v *View) writeMovies(movies []movieclient.MovieSummary) {
	hidden := 0
	if v.rows > 0 && len(movies) > v.rows {
		hidden = len(movies) - v.rows
		movies = movies[:v.rows]
	}

	tw := tabwriter.NewWriter(v.w, 0, 0, 2, ' ', 0)
	if v.layout == prefs.ViewGrid {
		for i, m := range movies {
			fmt.Fprintf(tw, "  %d %s%s\t", m.TMDBID, m.Title, favMark(m, " "))
			if (i+1)%gridColumns == 0 || i == len(movies)-1 {
				fmt.Fprintln(tw)
			}
		}
	} else {
		for _, m := range movies {
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n", m.TMDBID, m.Title, m.ReleaseYear, m.Rating, favMark(m, ""))
		}
	}
	tw.Flush()

	if hidden > 0 {
		fmt.Fprintf(v.w, "  ... %d more\n", hidden)
	}
}

func favMark(m movieclient.MovieSummary, sep string) string {
	if m.IsFavorite {
		return sep + "♥"
	}
	return ""
}
