package media

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		wantErr  bool
	}{
		{name: "positive duration", duration: 5 * time.Second},
		{name: "one millisecond", duration: time.Millisecond},
		{name: "zero duration", duration: 0, wantErr: true},
		{name: "negative duration", duration: -time.Second, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := New("https://example.com/a.jpg", tt.duration)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDuration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://example.com/a.jpg", it.URL())
			assert.Equal(t, tt.duration, it.Duration())
		})
	}
}

func TestItem_Equality(t *testing.T) {
	a := MustNew("https://example.com/a.jpg", 5*time.Second)
	b := MustNew("https://example.com/a.jpg", 5000*time.Millisecond)
	c := MustNew("https://example.com/a.jpg", 3*time.Second)

	assert.True(t, a == b)
	assert.False(t, a == c)
	assert.Equal(t, int64(5000), a.DurationMs())
}

func TestItem_Kind(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected Kind
	}{
		{name: "jpg", url: "https://host/PlayerBackend/creative/get/media1.jpg", expected: KindImage},
		{name: "png", url: "https://host/x/banner.png", expected: KindImage},
		{name: "upper case extension is not an image", url: "https://host/x/PHOTO.JPG", expected: KindVideo},
		{name: "mixed case extension is not an image", url: "https://host/x/banner.Png", expected: KindVideo},
		{name: "query string ignored", url: "https://host/x/a.png?v=2", expected: KindImage},
		{name: "mp4", url: "https://host/x/media2.mp4", expected: KindVideo},
		{name: "jpeg is not a still", url: "https://host/x/a.jpeg", expected: KindVideo},
		{name: "no extension", url: "https://host/x/creative", expected: KindVideo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := MustNew(tt.url, time.Second)
			assert.Equal(t, tt.expected, it.Kind())
		})
	}
}

func TestTotalDuration(t *testing.T) {
	items := []Item{
		MustNew("a.jpg", 5*time.Second),
		MustNew("b.mp4", 3*time.Second),
	}
	assert.Equal(t, 8*time.Second, TotalDuration(items))
	assert.Equal(t, time.Duration(0), TotalDuration(nil))
}
