// Package inflight collapses concurrent identical requests into a single
// underlying call.
//
// A Group is keyed by a request key (see Key). While a call for a key is
// running, every other caller with the same key waits for and receives that
// call's result instead of issuing its own. The key is forgotten as soon as
// the call settles, successfully or not, so the next caller starts a fresh
// call. Nothing is retried.
package inflight

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Observer is notified once per caller when its result is delivered.
// shared reports whether the result was delivered to more than one caller.
type Observer func(key string, shared bool)

// Option configures a Group.
type Option func(*Group)

// WithObserver registers fn to be called for every delivered result.
func WithObserver(fn Observer) Option {
	return func(g *Group) {
		g.observer = fn
	}
}

// Group tracks in-flight calls by key.
type Group struct {
	sf       singleflight.Group
	observer Observer

	mu    sync.Mutex
	seq   uint64
	calls map[string]*call
}

// call is one running call for a key. It lives until fn returns or until
// every caller waiting on it has left, whichever comes first.
type call struct {
	sfKey   string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// New creates an empty Group.
func New(opts ...Option) *Group {
	g := &Group{
		calls: make(map[string]*call),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key builds the request key for method, url and a serialized body.
// Callers that send JSON should pass the encoded bytes, so that two requests
// carrying equal payloads produce equal keys.
func Key(method, url string, body []byte) string {
	return fmt.Sprintf("%s:%s:%s", strings.ToUpper(method), url, body)
}

// Do runs fn for key unless a call for key is already running, in which case
// it waits for that call and returns its result. shared reports whether the
// result went to more than one caller.
//
// fn runs with a context that carries the values of the first caller's ctx
// but not its cancellation. A caller whose own ctx ends stops waiting and gets
// ctx.Err(); the call keeps running for the others and is cancelled only
// once no caller is left waiting for it. A key must always map to the same
// result type T.
func Do[T any](ctx context.Context, g *Group, key string, fn func(ctx context.Context) (T, error)) (T, bool, error) {
	var zero T

	g.mu.Lock()
	c, ok := g.calls[key]
	if !ok {
		g.seq++
		callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c = &call{
			sfKey:  fmt.Sprintf("%s#%d", key, g.seq),
			ctx:    callCtx,
			cancel: cancel,
		}
		g.calls[key] = c
	}
	c.waiters++
	ch := g.sf.DoChan(c.sfKey, func() (interface{}, error) {
		defer g.settle(key, c)
		return fn(c.ctx)
	})
	g.mu.Unlock()

	select {
	case res := <-ch:
		g.leave(key, c)
		if g.observer != nil {
			g.observer(key, res.Shared)
		}
		if res.Err != nil {
			return zero, res.Shared, res.Err
		}
		v, _ := res.Val.(T)
		return v, res.Shared, nil
	case <-ctx.Done():
		g.leave(key, c)
		return zero, false, ctx.Err()
	}
}

// Pending reports whether a call for key is running and can still be joined.
func (g *Group) Pending(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.calls[key]
	return ok
}

// InFlight returns the number of keys with a running call.
func (g *Group) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// Waiters returns the number of callers currently waiting on key's running
// call, including the one that started it.
func (g *Group) Waiters(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.calls[key]; ok {
		return c.waiters
	}
	return 0
}

// settle forgets c once fn has returned, so later callers start a new call.
// It runs before singleflight releases the result, so no caller can join a
// call that has already settled.
func (g *Group) settle(key string, c *call) {
	g.mu.Lock()
	if g.calls[key] == c {
		delete(g.calls, key)
	}
	g.mu.Unlock()
	c.cancel()
}

// leave detaches one caller from c and cancels c when nobody is left.
func (g *Group) leave(key string, c *call) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c.waiters--
	if c.waiters > 0 {
		return
	}
	if g.calls[key] == c {
		delete(g.calls, key)
	}
	c.cancel()
}
