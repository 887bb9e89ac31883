package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func newTestController() (*Controller, *fakeClock) {
	clock := &fakeClock{now: t0}
	return NewController(Config{Clock: clock.Now}), clock
}

func drain(ch <-chan Event) []Event {
	var events []Event
	for {
		select {
		case e := <-ch:
			events = append(events, e)
		default:
			return events
		}
	}
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func TestController_StartAndTick(t *testing.T) {
	c, clock := newTestController()
	defer c.Close()

	c.Start(items(ms(100)))
	require.Equal(t, StatePlaying, c.GetState())

	c.Tick(clock.Advance(ms(50)))
	assert.Equal(t, 0.5, c.Progress())

	c.Tick(clock.Advance(ms(70)))
	assert.Equal(t, 0, c.CurrentIndex())
	assert.Equal(t, 0.0, c.Progress())

	events := drain(c.Events())
	assert.Equal(t, []EventType{EventSlideStarted, EventSlideEnded, EventSlideStarted}, eventTypes(events))
	for _, e := range events {
		assert.NotEmpty(t, e.SessionID)
		require.NotNil(t, e.Item)
	}
}

func TestController_StartEmpty(t *testing.T) {
	c, _ := newTestController()
	defer c.Close()

	c.Start(nil)
	assert.Equal(t, StateNoMedia, c.GetState())
	assert.Equal(t, StateNoMedia, c.TogglePlayPause())

	events := drain(c.Events())
	require.Len(t, events, 1)
	assert.Equal(t, EventNoMedia, events[0].Type)
	assert.Nil(t, events[0].Item)
}

func TestController_TogglePlayPause(t *testing.T) {
	c, clock := newTestController()
	defer c.Close()

	c.Start(items(ms(1000)))
	assert.True(t, c.IsPlaying())

	c.Tick(clock.Advance(ms(250)))
	assert.Equal(t, StatePaused, c.TogglePlayPause())
	assert.False(t, c.IsPlaying())

	clock.Advance(10 * time.Second)
	c.Tick(clock.Now())
	assert.Equal(t, 0.25, c.Progress())

	assert.Equal(t, StatePlaying, c.TogglePlayPause())
	c.Tick(clock.Advance(ms(250)))
	assert.Equal(t, 0.5, c.Progress())

	events := drain(c.Events())
	assert.Equal(t, []EventType{EventSlideStarted, EventStateChanged, EventStateChanged}, eventTypes(events))
	assert.Equal(t, StatePaused, events[1].State)
	assert.Equal(t, StatePlaying, events[2].State)
}

func TestController_StartPaused(t *testing.T) {
	c, clock := newTestController()
	defer c.Close()

	c.StartPaused(items(ms(1000)))
	assert.Equal(t, StatePaused, c.GetState())

	c.Tick(clock.Advance(ms(500)))
	assert.Equal(t, 0.0, c.Progress())

	assert.Equal(t, StatePlaying, c.TogglePlayPause())
	c.Tick(clock.Advance(ms(250)))
	assert.Equal(t, 0.25, c.Progress())

	events := drain(c.Events())
	assert.Equal(t, []EventType{EventSlideStarted, EventStateChanged}, eventTypes(events))
	assert.Equal(t, StatePaused, events[0].State, "first event must already report paused")
	assert.Equal(t, StatePlaying, events[1].State)
}

func TestController_StartPausedEmpty(t *testing.T) {
	c, _ := newTestController()
	defer c.Close()

	c.StartPaused(nil)
	assert.Equal(t, StateNoMedia, c.GetState())
}

func TestController_RestartReplacesSession(t *testing.T) {
	c, clock := newTestController()
	defer c.Close()

	c.Start(items(ms(100), ms(100)))
	first := c.Snapshot().SessionID
	c.Tick(clock.Advance(ms(150)))
	require.Equal(t, 1, c.CurrentIndex())

	next := items(ms(400))
	c.Start(next)
	s := c.Snapshot()
	assert.NotEqual(t, first, s.SessionID)
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, time.Duration(0), s.Elapsed)
	assert.Equal(t, next, c.Items())
}

func TestController_Snapshots(t *testing.T) {
	c, clock := newTestController()
	defer c.Close()

	_, ch := c.Snapshots().Subscribe()
	initial := <-ch
	assert.Equal(t, StateNoMedia, initial.State)
	assert.Nil(t, initial.Current)

	c.Start(items(ms(200)))
	c.Tick(clock.Advance(ms(50)))

	s := <-ch
	assert.Equal(t, StatePlaying, s.State)
	assert.Equal(t, 0.25, s.Progress)
	assert.Equal(t, ms(150), s.Remaining)
	require.NotNil(t, s.Current)
	assert.Equal(t, ms(200), s.Current.Duration())
}

func TestController_Stop(t *testing.T) {
	c, clock := newTestController()
	defer c.Close()

	c.Start(items(ms(100)))
	c.Stop()
	assert.Equal(t, StateNoMedia, c.GetState())
	assert.Empty(t, c.Items())

	// Ticks after stop do nothing.
	c.Tick(clock.Advance(ms(500)))
	assert.Equal(t, 0.0, c.Progress())

	events := drain(c.Events())
	assert.Equal(t, []EventType{EventSlideStarted, EventStopped}, eventTypes(events))

	// Stopping twice is harmless and does not emit again.
	c.Stop()
	assert.Empty(t, drain(c.Events()))
}

func TestController_Close(t *testing.T) {
	c, _ := newTestController()
	c.Start(items(ms(100)))
	c.Close()

	for range c.Events() {
	}
	_, open := <-c.Events()
	assert.False(t, open)

	// Calls after close must not panic.
	c.Start(items(ms(100)))
	c.Stop()
	c.Close()
}

func TestController_BuiltInTicker(t *testing.T) {
	c := NewController(Config{TickInterval: time.Millisecond})
	defer c.Close()

	c.Start(items(ms(20), ms(20)))

	assert.Eventually(t, func() bool {
		return c.CurrentIndex() == 1
	}, 2*time.Second, time.Millisecond)

	c.Stop()
	assert.Equal(t, StateNoMedia, c.GetState())
}
