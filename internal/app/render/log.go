package render

import (
	"context"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slidebox/internal/app/loader"
	"github.com/osa030/slidebox/internal/app/playback"
)

// LogConfig represents the configuration for LogRenderer.
type LogConfig struct {
	Level   string `mapstructure:"level" default:"info" validate:"oneof=debug info warn"`
	ShowURL *bool  `mapstructure:"show_url" default:"true"`
}

// LogRenderer writes one log line per playback event.
// It shows what a display would present without drawing anything.
type LogRenderer struct {
	config *LogConfig
	logger zerolog.Logger
}

// NewLogRenderer creates a log renderer using the global logger.
func NewLogRenderer() *LogRenderer {
	return &LogRenderer{logger: zlog.Logger}
}

func (r *LogRenderer) Name() string {
	return "log"
}

func (r *LogRenderer) Description() string {
	return "Logs every slide change and playback state change"
}

func (r *LogRenderer) ValidateConfig(settings map[string]any) error {
	var config LogConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	r.config = &config
	zlog.Debug().Msgf("log renderer config: level=%s show_url=%v", config.Level, *config.ShowURL)
	return nil
}

func (r *LogRenderer) level() zerolog.Level {
	if r.config != nil {
		if l, err := zerolog.ParseLevel(r.config.Level); err == nil {
			return l
		}
	}
	return zerolog.InfoLevel
}

func (r *LogRenderer) Render(ctx context.Context, ev playback.Event) error {
	showURL := r.config == nil || r.config.ShowURL == nil || *r.config.ShowURL

	e := r.logger.WithLevel(r.level())
	switch ev.Type {
	case playback.EventSlideStarted:
		if ev.Item == nil {
			return nil
		}
		if showURL {
			e.Msgf("render: showing %s: index=%d duration=%v url=%s",
				ev.Item.Kind(), ev.Index, ev.Item.Duration(), ev.Item.URL())
		} else {
			e.Msgf("render: showing %s: index=%d duration=%v", ev.Item.Kind(), ev.Index, ev.Item.Duration())
		}
	case playback.EventStateChanged:
		e.Msgf("render: playback %s: index=%d", ev.State, ev.Index)
	case playback.EventNoMedia:
		e.Msg("render: no media to display")
	case playback.EventStopped:
		e.Msg("render: display cleared")
	default:
		// Slide ends are followed by the next start.
	}
	return nil
}

// RenderLoad logs what the display would show while playlists load.
func (r *LogRenderer) RenderLoad(ctx context.Context, s loader.State) error {
	switch s.Phase {
	case loader.PhaseLoading:
		r.logger.WithLevel(r.level()).Msgf("render: loading playlists: screen=%s", s.ScreenKey)
	case loader.PhaseReady:
		r.logger.WithLevel(r.level()).Msgf("render: playlists ready: screen=%s items=%d", s.ScreenKey, len(s.Items))
	case loader.PhaseFailed:
		if s.HasLoaded {
			r.logger.Warn().Msgf("render: %s (keeping previous slides)", s.Error)
		} else {
			r.logger.Warn().Msgf("render: %s", s.Error)
		}
	}
	return nil
}

func init() {
	Register("log", func() Renderer {
		return NewLogRenderer()
	})
}
