// Package playback provides the slide timing state machine and its controller.
package playback

// State represents the playback state.
type State int

const (
	StateNoMedia State = iota // No items loaded (or stopped)
	StatePlaying              // Slide is playing and time accumulates
	StatePaused               // Slide is paused, elapsed time frozen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNoMedia:
		return "no_media"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
