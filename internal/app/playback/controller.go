package playback

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slidebox/internal/app/notification"
	"github.com/osa030/slidebox/internal/domain/media"
)

// Config holds controller configuration.
type Config struct {
	// TickInterval is the period of the built-in tick source. Zero disables it;
	// the caller then drives Tick itself.
	TickInterval time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Snapshot is a read-only view of the playback state for observers.
type Snapshot struct {
	SessionID string
	State     State
	Index     int
	Count     int
	Current   *media.Item
	Elapsed   time.Duration
	Remaining time.Duration
	Progress  float64
}

// Controller serialises all access to a Machine and owns its tick source.
type Controller struct {
	mu sync.Mutex

	machine   *Machine
	sessionID string

	// Tick source
	tickerCancel context.CancelFunc
	tickerDone   chan struct{}

	// Configuration
	config Config
	clock  func() time.Time

	// Events
	eventCh   chan Event
	snapshots *notification.Manager[Snapshot]
	closed    bool
}

// NewController creates a new playback controller with no media.
func NewController(config Config) *Controller {
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Controller{
		machine:   NewMachine(),
		config:    config,
		clock:     clock,
		eventCh:   make(chan Event, 32),
		snapshots: notification.NewManager(Snapshot{State: StateNoMedia}),
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Snapshots returns the snapshot broadcaster. A snapshot is published after
// every state change and every tick.
func (c *Controller) Snapshots() *notification.Manager[Snapshot] {
	return c.snapshots
}

// Start installs items as a new session and starts playing the first one.
// The previous session, if any, is fully replaced before the next tick.
func (c *Controller) Start(items []media.Item) {
	c.start(items, false)
}

// StartPaused installs items like Start but leaves the first slide paused at
// zero elapsed. The first event observers see already reports StatePaused.
func (c *Controller) StartPaused(items []media.Item) {
	c.start(items, true)
}

func (c *Controller) start(items []media.Item, paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	now := c.clock()
	c.machine.Start(items, now)
	c.sessionID = uuid.New().String()

	if c.machine.State() == StateNoMedia {
		zlog.Info().Msgf("playback: no media to play: session=%s", c.sessionID)
		c.stopTickerLocked()
		c.sendEventLocked(Event{Type: EventNoMedia, State: c.machine.State()})
		c.publishLocked()
		return
	}
	if paused {
		c.machine.TogglePlayPause(now)
	}

	zlog.Info().Msgf("playback: session started: session=%s items=%d loop=%v state=%s",
		c.sessionID, c.machine.Len(), media.TotalDuration(items), c.machine.State())

	c.sendSlideEventLocked(EventSlideStarted)
	c.publishLocked()
	c.startTickerLocked()
}

// Tick advances the timing state to now. It is a no-op unless playing.
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.State() != StatePlaying {
		return
	}

	prevIndex := c.machine.Index()
	prev, _ := c.machine.Current()

	if c.machine.Tick(now) {
		zlog.Debug().Msgf("playback: slide ended: index=%d url=%s duration=%v",
			prevIndex, prev.URL(), prev.Duration())
		c.sendEventLocked(Event{
			Type:  EventSlideEnded,
			Item:  &prev,
			Index: prevIndex,
			State: c.machine.State(),
		})
		c.sendSlideEventLocked(EventSlideStarted)
	}
	c.publishLocked()
}

// TogglePlayPause flips between playing and paused and returns the new state.
func (c *Controller) TogglePlayPause() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.State() == StateNoMedia {
		return StateNoMedia
	}

	state := c.machine.TogglePlayPause(c.clock())
	zlog.Info().Msgf("playback: %s: index=%d elapsed=%v", state, c.machine.Index(), c.machine.Elapsed())

	c.sendSlideEventLocked(EventStateChanged)
	c.publishLocked()
	return state
}

// Stop ends the session and cancels the tick source. The controller can be
// started again afterwards.
func (c *Controller) Stop() {
	c.mu.Lock()
	wasActive := c.machine.State() != StateNoMedia
	c.machine.Stop()
	cancel, done := c.tickerCancel, c.tickerDone
	c.tickerCancel, c.tickerDone = nil, nil
	if wasActive {
		zlog.Info().Msgf("playback: session stopped: session=%s", c.sessionID)
		c.sendEventLocked(Event{Type: EventStopped, State: StateNoMedia})
	}
	c.publishLocked()
	c.mu.Unlock()

	// The tick loop takes the lock, so wait for it outside.
	if cancel != nil {
		cancel()
		<-done
	}
}

// Close stops playback and releases the event channel and observers.
func (c *Controller) Close() {
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.snapshots.Close()
	close(c.eventCh)
}

// Snapshot returns the current playback state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// GetState returns the current playback state.
func (c *Controller) GetState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.State()
}

// IsPlaying reports whether the current slide is advancing.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.IsPlaying()
}

// Progress returns the progress ratio of the current slide in [0, 1].
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Progress()
}

// CurrentIndex returns the index of the current slide.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Index()
}

// Items returns a copy of the loaded sequence.
func (c *Controller) Items() []media.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Items()
}

// snapshotLocked builds a Snapshot.
// Must be called with lock held.
func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		SessionID: c.sessionID,
		State:     c.machine.State(),
		Index:     c.machine.Index(),
		Count:     c.machine.Len(),
		Elapsed:   c.machine.Elapsed(),
		Remaining: c.machine.Remaining(),
		Progress:  c.machine.Progress(),
	}
	if it, ok := c.machine.Current(); ok {
		s.Current = &it
	}
	return s
}

// publishLocked publishes the current snapshot.
// Must be called with lock held.
func (c *Controller) publishLocked() {
	c.snapshots.Publish(c.snapshotLocked())
}

// sendSlideEventLocked sends an event about the current slide.
// Must be called with lock held.
func (c *Controller) sendSlideEventLocked(t EventType) {
	it, ok := c.machine.Current()
	e := Event{Type: t, Index: c.machine.Index(), State: c.machine.State()}
	if ok {
		e.Item = &it
	}
	c.sendEventLocked(e)
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(e Event) {
	if c.closed {
		return
	}
	e.SessionID = c.sessionID
	select {
	case c.eventCh <- e:
	default:
		zlog.Warn().Msgf("playback: event channel full, dropping %s", e.Type)
	}
}

// startTickerLocked starts the tick source if configured and not running.
// Must be called with lock held.
func (c *Controller) startTickerLocked() {
	if c.config.TickInterval <= 0 || c.tickerCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.tickerCancel, c.tickerDone = cancel, done
	go c.runTicker(ctx, done)
}

// stopTickerLocked cancels the tick source without waiting for it.
// Must be called with lock held.
func (c *Controller) stopTickerLocked() {
	if c.tickerCancel != nil {
		c.tickerCancel()
		c.tickerCancel, c.tickerDone = nil, nil
	}
}

// runTicker drives Tick until ctx is cancelled.
func (c *Controller) runTicker(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(c.clock())
		}
	}
}
