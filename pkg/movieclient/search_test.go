package movieclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type displayEvent struct {
	kind  string
	query string
	msg   string
	first int
}

type recordingDisplay struct {
	mu     sync.Mutex
	events []displayEvent
}

func (d *recordingDisplay) add(e displayEvent) {
	d.mu.Lock()
	d.events = append(d.events, e)
	d.mu.Unlock()
}

func (d *recordingDisplay) ShowLoading(query string) {
	d.add(displayEvent{kind: "loading", query: query})
}

func (d *recordingDisplay) ShowResults(query string, result *MovieList) {
	first := 0
	if len(result.Movies) > 0 {
		first = result.Movies[0].TMDBID
	}
	d.add(displayEvent{kind: "results", query: query, first: first})
}

func (d *recordingDisplay) ClearResults() {
	d.add(displayEvent{kind: "clear"})
}

func (d *recordingDisplay) Notify(level Level, msg string) {
	d.add(displayEvent{kind: string(level), msg: msg})
}

func (d *recordingDisplay) snapshot() []displayEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]displayEvent(nil), d.events...)
}

func (d *recordingDisplay) last(kind string) (displayEvent, bool) {
	events := d.snapshot()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].kind == kind {
			return events[i], true
		}
	}
	return displayEvent{}, false
}

// fakeSearchAPI answers every query with a single movie whose ID is the
// length of the query. Queries present in gates block until the gate closes,
// ignoring cancellation, to model a response that arrives late.
type fakeSearchAPI struct {
	mu       sync.Mutex
	gates    map[string]chan struct{}
	started  map[string]chan struct{}
	ctxs     map[string]context.Context
	failures map[string]error
	calls    atomic.Int32
}

func newFakeSearchAPI() *fakeSearchAPI {
	return &fakeSearchAPI{
		gates:    make(map[string]chan struct{}),
		started:  make(map[string]chan struct{}),
		ctxs:     make(map[string]context.Context),
		failures: make(map[string]error),
	}
}

func (f *fakeSearchAPI) gate(query string) (release func(), started <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	s := make(chan struct{})
	f.gates[query] = g
	f.started[query] = s
	return func() { close(g) }, s
}

func (f *fakeSearchAPI) Search(ctx context.Context, query string, page int) (*MovieList, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.ctxs[query] = ctx
	g := f.gates[query]
	s := f.started[query]
	err := f.failures[query]
	f.mu.Unlock()

	if s != nil {
		close(s)
	}
	if g != nil {
		<-g
	}
	if err != nil {
		return nil, err
	}
	return &MovieList{Page: page, Movies: []MovieSummary{{TMDBID: len(query), Title: query}}}, nil
}

func (f *fakeSearchAPI) ctxFor(query string) context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ctxs[query]
}

func TestSearcher_SupersededSearchNeverOverwritesNewer(t *testing.T) {
	api := newFakeSearchAPI()
	display := &recordingDisplay{}
	s := NewSearcher(api, display, SearcherConfig{})

	releaseA, startedA := api.gate("alien")
	errA := make(chan error, 1)
	go func() { errA <- s.Search(context.Background(), "alien") }()
	<-startedA

	require.NoError(t, s.Search(context.Background(), "aliens 1986"))
	shown, ok := display.last("results")
	require.True(t, ok)
	assert.Equal(t, "aliens 1986", shown.query)

	assert.ErrorIs(t, api.ctxFor("alien").Err(), context.Canceled, "older search must be aborted")

	releaseA()
	assert.ErrorIs(t, <-errA, ErrSuperseded)

	shown, _ = display.last("results")
	assert.Equal(t, "aliens 1986", shown.query)
	_, notified := display.last(string(LevelError))
	assert.False(t, notified, "superseded searches are not reported")
}

func TestSearcher_ShortQueryClearsWithoutRequest(t *testing.T) {
	api := newFakeSearchAPI()
	display := &recordingDisplay{}
	s := NewSearcher(api, display, SearcherConfig{})

	require.NoError(t, s.Search(context.Background(), " a "))
	require.NoError(t, s.Search(context.Background(), ""))

	assert.Zero(t, api.calls.Load())
	assert.Equal(t, []displayEvent{{kind: "clear"}, {kind: "clear"}}, display.snapshot())

	// two runes are enough, multi-byte included
	require.NoError(t, s.Search(context.Background(), "çé"))
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestSearcher_CacheHitSkipsRequest(t *testing.T) {
	api := newFakeSearchAPI()
	display := &recordingDisplay{}
	now := time.Unix(1_700_000_000, 0)
	s := NewSearcher(api, display, SearcherConfig{Now: func() time.Time { return now }})

	require.NoError(t, s.Search(context.Background(), "Matrix"))
	require.NoError(t, s.Search(context.Background(), "matrix"))
	assert.Equal(t, int32(1), api.calls.Load())

	events := display.snapshot()
	require.Len(t, events, 3)
	assert.Equal(t, "loading", events[0].kind)
	assert.Equal(t, "results", events[1].kind)
	assert.Equal(t, "results", events[2].kind)

	now = now.Add(5*time.Minute + time.Millisecond)
	require.NoError(t, s.Search(context.Background(), "matrix"))
	assert.Equal(t, int32(2), api.calls.Load())
}

func TestSearcher_FailureNotifiesAndIsNotCached(t *testing.T) {
	api := newFakeSearchAPI()
	api.failures["dune"] = errors.New("502 bad gateway")
	display := &recordingDisplay{}
	s := NewSearcher(api, display, SearcherConfig{})

	err := s.Search(context.Background(), "dune")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSuperseded)

	note, ok := display.last(string(LevelError))
	require.True(t, ok)
	assert.Equal(t, MsgSearchFailed, note.msg)
	assert.Zero(t, s.Cache().Len())

	delete(api.failures, "dune")
	require.NoError(t, s.Search(context.Background(), "dune"))
	assert.Equal(t, int32(2), api.calls.Load())
}

func TestSearcher_CallerCancelIsNotReported(t *testing.T) {
	api := newFakeSearchAPI()
	api.failures["heat"] = context.Canceled
	display := &recordingDisplay{}
	s := NewSearcher(api, display, SearcherConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Search(ctx, "heat")
	assert.ErrorIs(t, err, context.Canceled)
	_, notified := display.last(string(LevelError))
	assert.False(t, notified)
}
