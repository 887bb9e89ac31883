package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/slidebox/internal/domain/media"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func items(durations ...time.Duration) []media.Item {
	result := make([]media.Item, len(durations))
	for i, d := range durations {
		result[i] = media.MustNew("https://host/creative/"+string(rune('a'+i))+".jpg", d)
	}
	return result
}

func TestMachine_StartEmpty(t *testing.T) {
	m := NewMachine()
	m.Start(nil, t0)

	assert.Equal(t, StateNoMedia, m.State())
	assert.Equal(t, 0.0, m.Progress())
	assert.False(t, m.Tick(t0.Add(time.Hour)))
	assert.Equal(t, StateNoMedia, m.TogglePlayPause(t0))
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestMachine_ProgressScenario(t *testing.T) {
	m := NewMachine()
	m.Start(items(ms(100)), t0)
	require.Equal(t, StatePlaying, m.State())

	assert.False(t, m.Tick(t0.Add(ms(50))))
	assert.Equal(t, 0.5, m.Progress())
	assert.Equal(t, ms(50), m.Remaining())

	assert.True(t, m.Tick(t0.Add(ms(120))))
	assert.Equal(t, 0, m.Index())
	assert.Equal(t, time.Duration(0), m.Elapsed())
	assert.Equal(t, 0.0, m.Progress())

	// The new slide starts at the tick that advanced, not at the ideal boundary.
	m.Tick(t0.Add(ms(170)))
	assert.Equal(t, ms(50), m.Elapsed())
}

func TestMachine_Wraparound(t *testing.T) {
	m := NewMachine()
	m.Start(items(ms(100), ms(200)), t0)

	assert.True(t, m.Tick(t0.Add(ms(100))))
	assert.Equal(t, 1, m.Index())

	assert.False(t, m.Tick(t0.Add(ms(299))))
	assert.Equal(t, 1, m.Index())

	assert.True(t, m.Tick(t0.Add(ms(300))))
	assert.Equal(t, 0, m.Index())
	assert.Equal(t, StatePlaying, m.State())
}

func TestMachine_CoalescedTickCarriesNoBacklog(t *testing.T) {
	m := NewMachine()
	m.Start(items(ms(100), ms(100), ms(100)), t0)

	// One late tick advances exactly one slide.
	assert.True(t, m.Tick(t0.Add(ms(500))))
	assert.Equal(t, 1, m.Index())
	assert.Equal(t, time.Duration(0), m.Elapsed())

	m.Tick(t0.Add(ms(530)))
	assert.Equal(t, ms(30), m.Elapsed())
}

func TestMachine_ClockGoingBackwards(t *testing.T) {
	m := NewMachine()
	m.Start(items(ms(100)), t0)

	assert.False(t, m.Tick(t0.Add(-ms(40))))
	assert.Equal(t, time.Duration(0), m.Elapsed())
	assert.Equal(t, 0.0, m.Progress())
}

func TestMachine_ElapsedNeverDecreasesMidSlide(t *testing.T) {
	m := NewMachine()
	m.Start(items(ms(100)), t0)

	m.Tick(t0.Add(ms(60)))
	require.Equal(t, ms(60), m.Elapsed())

	assert.False(t, m.Tick(t0.Add(ms(30))))
	assert.Equal(t, ms(60), m.Elapsed())
	assert.Equal(t, 0.6, m.Progress())

	// Time moving forward again continues from the same reference.
	m.Tick(t0.Add(ms(80)))
	assert.Equal(t, ms(80), m.Elapsed())

	assert.True(t, m.Tick(t0.Add(ms(100))))
	assert.Equal(t, time.Duration(0), m.Elapsed())
}

func TestMachine_ElapsedNeverDecreasesAfterResume(t *testing.T) {
	m := NewMachine()
	m.Start(items(ms(1000)), t0)
	m.Tick(t0.Add(ms(400)))
	m.TogglePlayPause(t0.Add(ms(400)))
	m.TogglePlayPause(t0.Add(ms(900)))

	m.Tick(t0.Add(ms(850)))
	assert.Equal(t, ms(400), m.Elapsed())
}

func TestMachine_DoubleToggleIsIdempotent(t *testing.T) {
	m := NewMachine()
	m.Start(items(ms(1000), ms(1000)), t0)
	m.Tick(t0.Add(ms(1200)))
	m.Tick(t0.Add(ms(1450)))

	index, elapsed := m.Index(), m.Elapsed()

	assert.Equal(t, StatePaused, m.TogglePlayPause(t0.Add(ms(1500))))
	assert.Equal(t, StatePlaying, m.TogglePlayPause(t0.Add(ms(1800))))

	assert.Equal(t, index, m.Index())
	assert.Equal(t, elapsed, m.Elapsed())
}

func TestMachine_PauseExcludesPausedTime(t *testing.T) {
	tests := []struct {
		name  string
		pause time.Duration
	}{
		{name: "short pause", pause: ms(10)},
		{name: "pause longer than slide", pause: ms(5000)},
		{name: "hour long pause", pause: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paused := NewMachine()
			paused.Start(items(ms(1000)), t0)
			paused.Tick(t0.Add(ms(300)))
			paused.TogglePlayPause(t0.Add(ms(300)))
			paused.TogglePlayPause(t0.Add(ms(300) + tt.pause))
			paused.Tick(t0.Add(ms(500) + tt.pause))

			reference := NewMachine()
			reference.Start(items(ms(1000)), t0)
			reference.Tick(t0.Add(ms(300)))
			reference.Tick(t0.Add(ms(500)))

			assert.Equal(t, reference.Elapsed(), paused.Elapsed())
			assert.Equal(t, reference.Index(), paused.Index())
			assert.Equal(t, ms(500), paused.Elapsed())
		})
	}
}

func TestMachine_TickWhilePausedIsNoop(t *testing.T) {
	m := NewMachine()
	m.Start(items(ms(100)), t0)
	m.Tick(t0.Add(ms(40)))
	m.TogglePlayPause(t0.Add(ms(40)))

	assert.False(t, m.Tick(t0.Add(ms(500))))
	assert.Equal(t, ms(40), m.Elapsed())
	assert.Equal(t, 0.4, m.Progress())
	assert.False(t, m.IsPlaying())
}

func TestMachine_PauseFreezesLastTickedValue(t *testing.T) {
	m := NewMachine()
	m.Start(items(ms(100)), t0)
	m.Tick(t0.Add(ms(20)))

	// Time passes after the last tick but before the pause: not counted.
	m.TogglePlayPause(t0.Add(ms(60)))
	assert.Equal(t, ms(20), m.Elapsed())

	m.TogglePlayPause(t0.Add(ms(1000)))
	m.Tick(t0.Add(ms(1010)))
	assert.Equal(t, ms(30), m.Elapsed())
}

func TestMachine_ProgressBounded(t *testing.T) {
	m := NewMachine()
	m.Start(items(ms(7), ms(13), ms(1)), t0)

	for step := 0; step < 500; step++ {
		m.Tick(t0.Add(time.Duration(step*step) * time.Microsecond * 37))
		p := m.Progress()
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		assert.GreaterOrEqual(t, m.Index(), 0)
		assert.Less(t, m.Index(), m.Len())
	}
}

func TestMachine_RestartResets(t *testing.T) {
	m := NewMachine()
	m.Start(items(ms(100), ms(100)), t0)
	m.Tick(t0.Add(ms(150)))
	m.TogglePlayPause(t0.Add(ms(150)))

	next := items(ms(300))
	m.Start(next, t0.Add(ms(200)))

	assert.Equal(t, StatePlaying, m.State())
	assert.Equal(t, 0, m.Index())
	assert.Equal(t, time.Duration(0), m.Elapsed())
	assert.Equal(t, next, m.Items())

	m.Tick(t0.Add(ms(350)))
	assert.Equal(t, 0.5, m.Progress())
}

func TestMachine_StartCopiesItems(t *testing.T) {
	src := items(ms(100), ms(200))
	m := NewMachine()
	m.Start(src, t0)

	src[0] = media.MustNew("https://host/other.mp4", ms(5))
	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, ms(100), cur.Duration())
}

func TestMachine_Stop(t *testing.T) {
	m := NewMachine()
	m.Start(items(ms(100)), t0)
	m.Tick(t0.Add(ms(50)))

	m.Stop()
	assert.Equal(t, StateNoMedia, m.State())
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, time.Duration(0), m.Remaining())
	assert.False(t, m.Tick(t0.Add(ms(60))))
}
