// Package loader provides the playlist fetch orchestrator.
package loader

import (
	"context"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slidebox/internal/app/notification"
	"github.com/osa030/slidebox/internal/domain/media"
	"github.com/osa030/slidebox/internal/domain/playlist"
)

// ErrorPrefix starts every failure description.
const ErrorPrefix = "Failed to load playlists: "

// Phase is the fetch state.
type Phase int

const (
	PhaseIdle    Phase = iota // Nothing requested yet
	PhaseLoading              // A fetch is in flight
	PhaseReady                // Last fetch succeeded
	PhaseFailed               // Last fetch failed
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is what the orchestrator publishes.
// Items always holds the last successfully loaded sequence, also while
// loading again or after a failure.
type State struct {
	Phase     Phase
	ScreenKey string
	Items     []media.Item
	Error     string // Set only in PhaseFailed
	HasLoaded bool   // At least one load succeeded
}

// Loading reports whether a fetch is in flight.
func (s State) Loading() bool {
	return s.Phase == PhaseLoading
}

// Fetcher retrieves the raw playlists of a screen.
type Fetcher interface {
	FetchPlaylists(ctx context.Context, screenKey string) (*playlist.Response, error)
}

// Loader fetches and normalizes playlists, one authoritative load at a time.
// A new Load supersedes any load still in flight: the older one is cancelled
// and its result discarded, so the most recently requested screen wins.
type Loader struct {
	fetcher Fetcher
	resolve playlist.URLResolver

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc

	state *notification.Manager[State]
}

// New creates a loader.
func New(fetcher Fetcher, resolve playlist.URLResolver) *Loader {
	return &Loader{
		fetcher: fetcher,
		resolve: resolve,
		state:   notification.NewManager(State{Phase: PhaseIdle}),
	}
}

// States returns the state broadcaster.
func (l *Loader) States() *notification.Manager[State] {
	return l.state
}

// State returns the current state.
func (l *Loader) State() State {
	return l.state.Get()
}

// Load fetches the playlists of screenKey and blocks until done.
// It returns the state after this load; if the load was superseded the
// state reflects whatever is current.
func (l *Loader) Load(ctx context.Context, screenKey string) State {
	gen, ctx, cancel := l.begin(ctx, screenKey)
	defer cancel()

	items, err := l.fetch(ctx, screenKey)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		zlog.Debug().Msgf("loader: discarding superseded load: screen=%s", screenKey)
		return l.state.Get()
	}
	l.cancel = nil

	if err != nil {
		desc := ErrorPrefix + errorMessage(err)
		zlog.Error().Msgf("loader: %s", desc)
		return l.state.Update(func(s State) State {
			s.Phase = PhaseFailed
			s.Error = desc
			return s
		})
	}

	zlog.Info().Msgf("loader: playlists loaded: screen=%s items=%d", screenKey, len(items))
	return l.state.Update(func(s State) State {
		s.Phase = PhaseReady
		s.Items = items
		s.Error = ""
		s.HasLoaded = true
		return s
	})
}

// Close cancels any load in flight and closes the state broadcaster.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.generation++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.state.Close()
}

// begin registers a new load and moves to PhaseLoading.
func (l *Loader) begin(ctx context.Context, screenKey string) (uint64, context.Context, context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.generation++

	zlog.Info().Msgf("loader: loading playlists: screen=%s", screenKey)
	l.state.Update(func(s State) State {
		s.Phase = PhaseLoading
		s.ScreenKey = screenKey
		s.Error = ""
		return s
	})
	return l.generation, ctx, cancel
}

// fetch performs one fetch-and-normalize attempt.
func (l *Loader) fetch(ctx context.Context, screenKey string) ([]media.Item, error) {
	resp, err := l.fetcher.FetchPlaylists(ctx, screenKey)
	if err != nil {
		return nil, err
	}
	items, err := playlist.Normalize(resp, l.resolve)
	if err != nil {
		return nil, err
	}
	return slices.Clip(items), nil
}

// errorMessage returns a non-empty human-readable message for err.
func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	switch {
	case errors.Is(err, playlist.ErrMalformedResponse):
		return playlist.ErrMalformedResponse.Error()
	default:
		return "unknown error"
	}
}
