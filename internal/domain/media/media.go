// Package media provides the MediaItem domain value.
package media

import (
	"net/url"
	"path"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrInvalidDuration is returned when an item is built with a non-positive duration.
var ErrInvalidDuration = errors.New("media duration must be positive")

// Kind tells the renderer how to display an item.
type Kind int

const (
	KindVideo Kind = iota // Anything that is not a known still image
	KindImage             // Static image
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// imageExts lists extensions shown as still images; everything else is played as video.
var imageExts = map[string]bool{
	".jpg": true,
	".png": true,
}

// Item is one playable asset: a fetchable URL and how long to show it.
// Items are compared with ==.
type Item struct {
	url      string
	duration time.Duration
}

// New creates an item. The default-duration policy must already be applied.
func New(rawURL string, duration time.Duration) (Item, error) {
	if duration <= 0 {
		return Item{}, errors.Wrapf(ErrInvalidDuration, "url=%s duration=%v", rawURL, duration)
	}
	return Item{url: rawURL, duration: duration}, nil
}

// MustNew is like New but panics on error. Intended for tests and constants.
func MustNew(rawURL string, duration time.Duration) Item {
	it, err := New(rawURL, duration)
	if err != nil {
		panic(err)
	}
	return it
}

// URL returns the resolved asset address.
func (i Item) URL() string {
	return i.url
}

// Duration returns how long the item is displayed.
func (i Item) Duration() time.Duration {
	return i.duration
}

// DurationMs returns the display duration in milliseconds.
func (i Item) DurationMs() int64 {
	return i.duration.Milliseconds()
}

// Kind classifies the item by the extension of its URL path.
// Extensions match exactly: "PHOTO.JPG" is not an image.
func (i Item) Kind() Kind {
	p := i.url
	if u, err := url.Parse(i.url); err == nil {
		p = u.Path
	}
	if imageExts[path.Ext(p)] {
		return KindImage
	}
	return KindVideo
}

// TotalDuration returns the length of one full pass over items.
func TotalDuration(items []Item) time.Duration {
	var total time.Duration
	for _, it := range items {
		total += it.duration
	}
	return total
}
