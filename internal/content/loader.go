// Package content fetches the site feeds from the content API and renders them into their containers.
//
// Each call to FetchAndRender moves a feed through: loading (skeletons shown) -> populated | empty | error.
// A newer call for the same feed cancels the older request and the older response is discarded,
// so a slow stale response can never overwrite a later render.
package content

import (
	"context"
	"log/slog"
	"sync"

	"github.com/a-h/templ"
	"github.com/techstackph/techstack/internal/client"
	"github.com/techstackph/techstack/internal/logger"
	"github.com/techstackph/techstack/internal/templates"
	"github.com/techstackph/techstack/internal/types"
)

// SkeletonCount is the number of placeholder cards shown while a feed loads
const SkeletonCount = 3

type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StatePopulated State = "populated"
	StateEmpty     State = "empty"
	StateError     State = "error"
	StateSkipped   State = "skipped" // the container selector did not match exactly one target
	StateStale     State = "stale"   // superseded by a newer call for the same feed
)

// Fetcher is the part of client.Client used by the loader
type Fetcher interface {
	Get(ctx context.Context, path string, params any) (*client.Response, error)
}

type Loader struct {
	fetcher Fetcher
	doc     Document
	feeds   []Feed
	logger  *slog.Logger

	mu      sync.Mutex
	seq     map[string]uint64
	cancels map[string]context.CancelFunc
	states  map[string]State

	// held while checking a call is current and writing to its target
	renderMu sync.Mutex
}

func NewLoader(fetcher Fetcher, doc Document, feeds []Feed, l *slog.Logger) *Loader {
	if l == nil {
		l = logger.Discard()
	}
	return &Loader{
		fetcher: fetcher,
		doc:     doc,
		feeds:   feeds,
		logger:  l,
		seq:     make(map[string]uint64),
		cancels: make(map[string]context.CancelFunc),
		states:  make(map[string]State),
	}
}

// Feeds returns the configured feeds
func (l *Loader) Feeds() []Feed {
	return l.feeds
}

// State returns the state of the latest call for a feed
func (l *Loader) State(key string) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.states[key]; ok {
		return s
	}
	return StateIdle
}

// FetchAll fetches and renders every configured feed concurrently and returns the final state of each, keyed by feed key.
// Feeds are independent: a failing feed does not affect the others.
func (l *Loader) FetchAll(ctx context.Context) map[string]State {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]State, len(l.feeds))
	)

	for _, feed := range l.feeds {
		wg.Add(1)
		go func(feed Feed) {
			defer wg.Done()
			state := l.FetchAndRender(ctx, feed)

			mu.Lock()
			results[feed.Key] = state
			mu.Unlock()
		}(feed)
	}

	wg.Wait()
	return results
}

// FetchAndRender shows skeletons in the feed container, requests the feed and renders the outcome:
// one card per item in response order, an empty notice, or an error notice.
// The client has already retried transient failures, so there is no retry here.
func (l *Loader) FetchAndRender(ctx context.Context, feed Feed) State {
	targets := l.doc.Lookup(feed.Selector)
	if len(targets) != 1 {
		l.logger.Debug("feed container not found, skipping",
			slog.String("feed", feed.Key),
			slog.String("selector", feed.Selector),
			slog.Int("matches", len(targets)),
		)
		return StateSkipped
	}
	target := targets[0]

	reqCtx, token := l.begin(ctx, feed.Key)
	defer l.finish(feed.Key, token)

	// the skeletons are written before the request is made
	if !l.showSkeletons(reqCtx, feed, target, token) {
		l.logger.Debug("feed call superseded before loading", slog.String("feed", feed.Key))
		return StateStale
	}

	res, err := l.fetcher.Get(reqCtx, feed.Endpoint, nil)

	var items []types.ContentItem
	if err == nil {
		if decodeErr := res.Decode(&items); decodeErr != nil {
			err = client.NewClientParseError(res.StatusCode, res.Body)
		}
	}

	l.renderMu.Lock()
	defer l.renderMu.Unlock()

	if !l.current(feed.Key, token) {
		l.logger.Debug("discarding stale feed response", slog.String("feed", feed.Key))
		return StateStale
	}

	var state State
	target.Clear()
	switch {
	case err != nil:
		l.logger.Error("failed to load feed",
			slog.String("feed", feed.Key),
			slog.String("endpoint", feed.Endpoint),
			slog.String("error", err.Error()),
		)
		l.append(ctx, feed, target, templates.ErrorNotice(feed.Name))
		state = StateError
	case len(items) == 0:
		l.append(ctx, feed, target, templates.EmptyNotice(feed.Name))
		state = StateEmpty
	default:
		for _, item := range items {
			l.append(ctx, feed, target, feed.Render(item))
		}
		state = StatePopulated
	}

	l.setState(feed.Key, token, state)
	return state
}

// showSkeletons replaces the target contents with skeleton cards unless a newer call for the feed has started
func (l *Loader) showSkeletons(ctx context.Context, feed Feed, target Target, token uint64) bool {
	l.renderMu.Lock()
	defer l.renderMu.Unlock()

	if !l.current(feed.Key, token) {
		return false
	}
	target.Clear()
	for range SkeletonCount {
		l.append(ctx, feed, target, templates.SkeletonCard())
	}
	return true
}

func (l *Loader) append(ctx context.Context, feed Feed, target Target, c templ.Component) {
	if err := target.Append(ctx, c); err != nil {
		l.logger.Error("failed to render feed output", slog.String("feed", feed.Key), slog.String("error", err.Error()))
	}
}

// begin cancels any in-flight request for the feed and returns the context and sequence token for the new call
func (l *Loader) begin(ctx context.Context, key string) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cancel, ok := l.cancels[key]; ok {
		cancel()
	}

	reqCtx, cancel := context.WithCancel(ctx)
	l.seq[key]++
	l.cancels[key] = cancel
	l.states[key] = StateLoading

	return reqCtx, l.seq[key]
}

// finish releases the request context of the call if it is still the latest one
func (l *Loader) finish(key string, token uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seq[key] != token {
		return
	}
	if cancel, ok := l.cancels[key]; ok {
		cancel()
		delete(l.cancels, key)
	}
}

func (l *Loader) current(key string, token uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq[key] == token
}

func (l *Loader) setState(key string, token uint64, state State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seq[key] == token {
		l.states[key] = state
	}
}
