// Package player ties the playlist loader to the playback controller.
package player

import (
	"context"
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slidebox/internal/app/loader"
	"github.com/osa030/slidebox/internal/app/playback"
)

// Config holds player configuration.
type Config struct {
	ScreenKey string
	// Autoplay starts each loaded sequence playing; otherwise it starts paused.
	Autoplay bool
}

// Status is the combined loader and playback view exposed to operators.
type Status struct {
	ScreenKey   string  `mapstructure:"screen_key"`
	Phase       string  `mapstructure:"phase"`
	Error       string  `mapstructure:"error"`
	SessionID   string  `mapstructure:"session_id"`
	State       string  `mapstructure:"state"`
	Index       int     `mapstructure:"index"`
	Count       int     `mapstructure:"count"`
	URL         string  `mapstructure:"url"`
	Kind        string  `mapstructure:"kind"`
	DurationMs  int64   `mapstructure:"duration_ms"`
	ElapsedMs   int64   `mapstructure:"elapsed_ms"`
	RemainingMs int64   `mapstructure:"remaining_ms"`
	Progress    float64 `mapstructure:"progress"`
}

// Player loads a screen's playlists and plays them.
type Player struct {
	config     Config
	loader     *loader.Loader
	controller *playback.Controller

	mu        sync.Mutex
	screenKey string
	seq       uint64
}

// New creates a player.
func New(cfg Config, l *loader.Loader, c *playback.Controller) *Player {
	return &Player{
		config:     cfg,
		loader:     l,
		controller: c,
		screenKey:  cfg.ScreenKey,
	}
}

// ScreenKey returns the screen currently selected.
func (p *Player) ScreenKey() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.screenKey
}

// Reload fetches the playlists of screenKey (the current screen when empty)
// and, on success, replaces the playing sequence. On failure the previous
// sequence keeps playing. Only the most recent reload may start playback.
func (p *Player) Reload(ctx context.Context, screenKey string) loader.State {
	p.mu.Lock()
	if screenKey == "" {
		screenKey = p.screenKey
	}
	p.screenKey = screenKey
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	state := p.loader.Load(ctx, screenKey)

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.seq {
		return state
	}
	if state.Phase != loader.PhaseReady {
		return state
	}

	if p.config.Autoplay {
		p.controller.Start(state.Items)
	} else {
		p.controller.StartPaused(state.Items)
	}
	zlog.Debug().Msgf("player: sequence installed: screen=%s items=%d", screenKey, len(state.Items))
	return state
}

// TogglePlayPause flips between playing and paused.
func (p *Player) TogglePlayPause() playback.State {
	return p.controller.TogglePlayPause()
}

// Status returns the combined status.
func (p *Player) Status() Status {
	ls := p.loader.State()
	snap := p.controller.Snapshot()

	s := Status{
		ScreenKey:   p.ScreenKey(),
		Phase:       ls.Phase.String(),
		Error:       ls.Error,
		SessionID:   snap.SessionID,
		State:       snap.State.String(),
		Index:       snap.Index,
		Count:       snap.Count,
		ElapsedMs:   snap.Elapsed.Milliseconds(),
		RemainingMs: snap.Remaining.Milliseconds(),
		Progress:    snap.Progress,
	}
	if snap.Current != nil {
		s.URL = snap.Current.URL()
		s.Kind = snap.Current.Kind().String()
		s.DurationMs = snap.Current.DurationMs()
	}
	return s
}
