package movieclient

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// User-facing messages.
const (
	MsgSearchFailed = "Search failed. Please try again."
	MsgNoResults    = "No movies found"
	MsgEmptyQuery   = "Please enter a search term"
)

// Display receives rendering instructions from a Searcher. Calls are made
// while the Searcher holds its lock, so implementations must not call back
// into the Searcher.
type Display interface {
	ShowLoading(query string)
	ShowResults(query string, result *MovieList)
	ClearResults()
	// Notify shows a transient message.
	Notify(level Level, msg string)
}
