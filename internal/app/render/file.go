package render

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/slidebox/internal/app/loader"
	"github.com/osa030/slidebox/internal/app/playback"
)

// FileConfig represents the configuration for FileRenderer.
type FileConfig struct {
	Path   string `mapstructure:"path" validate:"required"`
	Indent bool   `mapstructure:"indent"`
	// ProgressIntervalMs is the minimum time between progress-only writes.
	ProgressIntervalMs int `mapstructure:"progress_interval_ms" default:"1000" validate:"gte=1"`
}

// Slide is the document FileRenderer keeps up to date.
type Slide struct {
	SessionID  string    `json:"sessionId,omitempty"`
	State      string    `json:"state"`
	Index      int       `json:"index"`
	URL        string    `json:"url,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	DurationMs int64     `json:"durationMs,omitempty"`
	ElapsedMs  int64     `json:"elapsedMs"`
	Progress   float64   `json:"progress"`
	Phase      string    `json:"phase,omitempty"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FileRenderer mirrors the current slide into a JSON file, so an external
// display process (a kiosk browser for example) can follow playback.
type FileRenderer struct {
	config *FileConfig
	now    func() time.Time

	mu   sync.Mutex
	last Slide
}

// NewFileRenderer creates a file renderer.
func NewFileRenderer() *FileRenderer {
	return &FileRenderer{now: time.Now}
}

func (r *FileRenderer) Name() string {
	return "file"
}

func (r *FileRenderer) Description() string {
	return "Writes the current slide as JSON to a file"
}

func (r *FileRenderer) ValidateConfig(settings map[string]any) error {
	var config FileConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	dir := filepath.Dir(config.Path)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return errors.Newf("directory does not exist: %s", dir)
	}
	r.config = &config
	return nil
}

func (r *FileRenderer) Render(ctx context.Context, ev playback.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.config == nil {
		return errors.New("file renderer is not configured")
	}

	slide := r.last
	slide.SessionID = ev.SessionID
	slide.State = ev.State.String()
	slide.Index = ev.Index
	switch ev.Type {
	case playback.EventSlideStarted:
		if ev.Item != nil {
			slide.URL = ev.Item.URL()
			slide.Kind = ev.Item.Kind().String()
			slide.DurationMs = ev.Item.DurationMs()
		}
		slide.ElapsedMs = 0
		slide.Progress = 0
	case playback.EventStateChanged:
	case playback.EventNoMedia, playback.EventStopped:
		slide = Slide{State: ev.State.String(), Phase: r.last.Phase, Error: r.last.Error}
	default:
		return nil
	}
	return r.commitLocked(slide)
}

// RenderSnapshot refreshes the elapsed time and progress of the slide on
// screen. Writes that only move progress are limited to one per
// ProgressIntervalMs; any other change is written at once.
func (r *FileRenderer) RenderSnapshot(ctx context.Context, s playback.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.config == nil {
		return errors.New("file renderer is not configured")
	}

	slide := r.last
	slide.SessionID = s.SessionID
	slide.State = s.State.String()
	slide.Index = s.Index
	slide.ElapsedMs = s.Elapsed.Milliseconds()
	slide.Progress = s.Progress
	if s.Current != nil {
		slide.URL = s.Current.URL()
		slide.Kind = s.Current.Kind().String()
		slide.DurationMs = s.Current.DurationMs()
	} else {
		slide.URL, slide.Kind, slide.DurationMs = "", "", 0
	}

	progressOnly := slide.SessionID == r.last.SessionID &&
		slide.State == r.last.State &&
		slide.Index == r.last.Index &&
		slide.URL == r.last.URL
	if progressOnly {
		if slide.ElapsedMs == r.last.ElapsedMs {
			return nil
		}
		interval := time.Duration(r.config.ProgressIntervalMs) * time.Millisecond
		if r.now().Sub(r.last.UpdatedAt) < interval {
			return nil
		}
	}
	return r.commitLocked(slide)
}

// RenderLoad records the playlist load phase, so the display can show a
// loading indicator or the load error next to the slide.
func (r *FileRenderer) RenderLoad(ctx context.Context, s loader.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.config == nil {
		return errors.New("file renderer is not configured")
	}

	slide := r.last
	if slide.State == "" {
		slide.State = playback.StateNoMedia.String()
	}
	slide.Phase = s.Phase.String()
	slide.Error = s.Error
	if slide.Phase == r.last.Phase && slide.Error == r.last.Error {
		return nil
	}
	return r.commitLocked(slide)
}

func (r *FileRenderer) commitLocked(slide Slide) error {
	slide.UpdatedAt = r.now()
	if err := r.write(slide); err != nil {
		return err
	}
	r.last = slide
	return nil
}

// write replaces the file atomically.
func (r *FileRenderer) write(slide Slide) error {
	var (
		data []byte
		err  error
	)
	if r.config.Indent {
		data, err = json.MarshalIndent(slide, "", "  ")
	} else {
		data, err = json.Marshal(slide)
	}
	if err != nil {
		return errors.Wrap(err, "failed to encode slide")
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.config.Path), ".slide-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write slide")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmp.Name(), r.config.Path); err != nil {
		return errors.Wrap(err, "failed to replace slide file")
	}
	return nil
}

func init() {
	Register("file", func() Renderer {
		return NewFileRenderer()
	})
}
