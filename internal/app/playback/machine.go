package playback

import (
	"slices"
	"time"

	"github.com/osa030/slidebox/internal/domain/media"
)

// Machine is the slide timing state machine. It does no I/O and never reads
// the clock: every time-dependent operation takes now from the caller.
// A Machine is not safe for concurrent use; see Controller.
type Machine struct {
	items   []media.Item
	index   int
	elapsed time.Duration
	state   State

	// reference is the virtual start of the current slide: elapsed = now - reference.
	// Only meaningful while playing.
	reference time.Time
}

// NewMachine creates a machine with no media.
func NewMachine() *Machine {
	return &Machine{state: StateNoMedia}
}

// Start installs a new item sequence and begins playing from the first item.
// An empty sequence moves the machine to StateNoMedia.
func (m *Machine) Start(items []media.Item, now time.Time) {
	m.index = 0
	m.elapsed = 0
	m.reference = now

	if len(items) == 0 {
		m.items = nil
		m.state = StateNoMedia
		return
	}
	m.items = slices.Clone(items)
	m.state = StatePlaying
}

// Stop drops the sequence and returns to StateNoMedia.
func (m *Machine) Stop() {
	m.items = nil
	m.index = 0
	m.elapsed = 0
	m.reference = time.Time{}
	m.state = StateNoMedia
}

// Tick recomputes elapsed time at now. When the current slide has run its full
// duration the machine moves to the next item, wrapping after the last one, and
// the new slide starts at now with no carried-over time. Elapsed never
// decreases between transitions. Tick is a no-op unless playing. It reports whether the slide changed.
func (m *Machine) Tick(now time.Time) bool {
	if m.state != StatePlaying {
		return false
	}

	// A clock that steps backwards never lowers elapsed.
	elapsed := now.Sub(m.reference)
	if elapsed < m.elapsed {
		elapsed = m.elapsed
	}

	if elapsed >= m.items[m.index].Duration() {
		m.index = (m.index + 1) % len(m.items)
		m.elapsed = 0
		m.reference = now
		return true
	}

	m.elapsed = elapsed
	return false
}

// TogglePlayPause flips between playing and paused and returns the new state.
// Pausing freezes elapsed at its last ticked value; resuming re-anchors the
// reference so that no paused time is counted. No-op without media.
func (m *Machine) TogglePlayPause(now time.Time) State {
	switch m.state {
	case StatePlaying:
		m.state = StatePaused
	case StatePaused:
		m.reference = now.Add(-m.elapsed)
		m.state = StatePlaying
	}
	return m.state
}

// Progress returns elapsed / duration of the current slide, clamped to [0, 1].
func (m *Machine) Progress() float64 {
	if m.state == StateNoMedia {
		return 0
	}
	d := m.items[m.index].Duration()
	p := float64(m.elapsed) / float64(d)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// Remaining returns the time left on the current slide.
func (m *Machine) Remaining() time.Duration {
	if m.state == StateNoMedia {
		return 0
	}
	remaining := m.items[m.index].Duration() - m.elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// IsPlaying reports whether time is accumulating.
func (m *Machine) IsPlaying() bool {
	return m.state == StatePlaying
}

// Index returns the current slide index.
func (m *Machine) Index() int {
	return m.index
}

// Elapsed returns the time spent on the current slide as of the last tick.
func (m *Machine) Elapsed() time.Duration {
	return m.elapsed
}

// Current returns the item being shown.
func (m *Machine) Current() (media.Item, bool) {
	if m.state == StateNoMedia {
		return media.Item{}, false
	}
	return m.items[m.index], true
}

// Items returns a copy of the loaded sequence.
func (m *Machine) Items() []media.Item {
	return slices.Clone(m.items)
}

// Len returns the number of loaded items.
func (m *Machine) Len() int {
	return len(m.items)
}
