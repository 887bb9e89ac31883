// Package playlist provides the backend playlist wire shape and its normalization
// into a flat sequence of media items.
package playlist

import (
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/osa030/slidebox/internal/domain/media"
)

// DefaultDuration is used for items whose duration is missing or not positive.
const DefaultDuration = 3 * time.Second

// MaxDurationSeconds is the longest wire duration a time.Duration can hold.
// Longer durations are clamped to it.
const MaxDurationSeconds = math.MaxInt64 / int64(time.Second)

// creativePath is appended to the service base to fetch a creative by key.
const creativePath = "/PlayerBackend/creative/get/"

// ErrMalformedResponse marks a response that does not have the expected shape.
var ErrMalformedResponse = errors.New("malformed playlist response")

// Response is the payload returned for a screen.
type Response struct {
	ScreenKey string     `json:"screenKey"`
	Playlists []Playlist `json:"playlists" validate:"required,dive"`
}

// Playlist is one playlist assigned to the screen.
type Playlist struct {
	Items []Item `json:"playlistItems" validate:"required"`
}

// Item is one raw playlist entry.
type Item struct {
	CreativeKey string `json:"creativeKey"`
	Duration    int    `json:"duration"` // seconds; 0 means "not provided"
}

// URLResolver maps a creative key to a fetchable URL.
type URLResolver func(creativeKey string) string

// CreativeURL returns a resolver that points at the creative endpoint under base.
func CreativeURL(base string) URLResolver {
	prefix := strings.TrimRight(base, "/") + creativePath
	return func(creativeKey string) string {
		return prefix + creativeKey
	}
}

// ItemCount returns the number of raw items across all playlists.
func (r *Response) ItemCount() int {
	n := 0
	for _, p := range r.Playlists {
		n += len(p.Items)
	}
	return n
}

// Validate checks the top-level shape of the response.
func (r *Response) Validate() error {
	if r == nil {
		return errors.Mark(errors.New("response is empty"), ErrMalformedResponse)
	}
	if err := validator.New().Struct(r); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid response"), ErrMalformedResponse)
	}
	return nil
}

// resolvedDuration applies the default-duration policy.
func (it Item) resolvedDuration() time.Duration {
	seconds := int64(it.Duration)
	switch {
	case seconds <= 0:
		return DefaultDuration
	case seconds > MaxDurationSeconds:
		return time.Duration(MaxDurationSeconds) * time.Second
	default:
		return time.Duration(seconds) * time.Second
	}
}

// Normalize flattens every playlist of resp into one ordered item sequence.
// Playlist order is kept, then item order within each playlist. No item is dropped.
func Normalize(resp *Response, resolve URLResolver) ([]media.Item, error) {
	if err := resp.Validate(); err != nil {
		return nil, err
	}

	items := make([]media.Item, 0, resp.ItemCount())
	for _, p := range resp.Playlists {
		for _, raw := range p.Items {
			it, err := media.New(resolve(raw.CreativeKey), raw.resolvedDuration())
			if err != nil {
				return nil, errors.Wrap(err, "failed to build media item")
			}
			items = append(items, it)
		}
	}
	return items, nil
}
