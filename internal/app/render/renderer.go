// Package render provides the presenters that observe playback.
package render

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slidebox/internal/app/loader"
	"github.com/osa030/slidebox/internal/app/playback"
)

// ErrUnknownRenderer is returned for a configured name nothing registered.
var ErrUnknownRenderer = errors.New("unknown renderer")

// Renderer is the interface for slide presenters.
type Renderer interface {
	// Name returns the renderer name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ValidateConfig validates and applies the renderer settings.
	ValidateConfig(settings map[string]any) error
	// Render presents one playback event.
	Render(ctx context.Context, ev playback.Event) error
}

// SnapshotRenderer is implemented by renderers that follow playback progress.
type SnapshotRenderer interface {
	RenderSnapshot(ctx context.Context, s playback.Snapshot) error
}

// LoadRenderer is implemented by renderers that show the playlist load state.
type LoadRenderer interface {
	RenderLoad(ctx context.Context, s loader.State) error
}

// registry holds registered renderer factories.
var registry = make(map[string]func() Renderer)

// Register registers a renderer factory.
func Register(name string, factory func() Renderer) {
	registry[name] = factory
}

// GetRegistered returns all registered renderer factories.
func GetRegistered() map[string]func() Renderer {
	return registry
}

// Names returns the registered renderer names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates and configures the named renderers.
// settings maps a renderer name to its settings; a nil map is allowed.
func Build(settings map[string]map[string]any) ([]Renderer, error) {
	names := make([]string, 0, len(settings))
	for name := range settings {
		names = append(names, name)
	}
	sort.Strings(names)

	renderers := make([]Renderer, 0, len(names))
	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			return nil, errors.Mark(errors.Newf("renderer %s is not registered", name), ErrUnknownRenderer)
		}
		r := factory()
		if err := r.ValidateConfig(settings[name]); err != nil {
			return nil, errors.Wrapf(err, "renderer %s", name)
		}
		renderers = append(renderers, r)
	}
	return renderers, nil
}

// Run dispatches events to every renderer until ctx is done or events is
// closed. A renderer error is logged and does not stop the others.
func Run(ctx context.Context, events <-chan playback.Event, renderers []Renderer) {
	watch(ctx, events, renderers, func(ctx context.Context, r Renderer, ev playback.Event) error {
		if err := r.Render(ctx, ev); err != nil {
			return errors.Wrapf(err, "event=%s", ev.Type)
		}
		return nil
	})
}

// WatchSnapshots hands every playback snapshot to the renderers implementing
// SnapshotRenderer until ctx is done or snapshots is closed.
func WatchSnapshots(ctx context.Context, snapshots <-chan playback.Snapshot, renderers []Renderer) {
	watch(ctx, snapshots, renderers, func(ctx context.Context, r Renderer, s playback.Snapshot) error {
		if sr, ok := r.(SnapshotRenderer); ok {
			return sr.RenderSnapshot(ctx, s)
		}
		return nil
	})
}

// WatchLoads hands every loader state to the renderers implementing
// LoadRenderer until ctx is done or states is closed.
func WatchLoads(ctx context.Context, states <-chan loader.State, renderers []Renderer) {
	watch(ctx, states, renderers, func(ctx context.Context, r Renderer, s loader.State) error {
		if lr, ok := r.(LoadRenderer); ok {
			return lr.RenderLoad(ctx, s)
		}
		return nil
	})
}

func watch[T any](ctx context.Context, ch <-chan T, renderers []Renderer, fn func(context.Context, Renderer, T) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-ch:
			if !ok {
				return
			}
			for _, r := range renderers {
				if err := fn(ctx, r, v); err != nil {
					zlog.Error().Msgf("render: %s failed: %v", r.Name(), err)
				}
			}
		}
	}
}

// decodeSettings decodes settings into out, then applies defaults and
// validation tags.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
