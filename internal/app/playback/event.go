package playback

import "github.com/osa030/slidebox/internal/domain/media"

// EventType represents a playback event type.
type EventType int

const (
	EventSlideStarted EventType = iota // A slide became current
	EventSlideEnded                    // A slide ran its full duration
	EventStateChanged                  // Playback state changed (pause/resume)
	EventNoMedia                       // Started with an empty sequence
	EventStopped                       // Session torn down
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventSlideStarted:
		return "slide_started"
	case EventSlideEnded:
		return "slide_ended"
	case EventStateChanged:
		return "state_changed"
	case EventNoMedia:
		return "no_media"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type      EventType
	SessionID string
	Item      *media.Item // Slide concerned (nil for some events)
	Index     int         // Index of Item in the sequence
	State     State       // Playback state after the event
}
