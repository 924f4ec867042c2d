package sampling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/kuuki/pkg/pms"
)

// scriptedSource replays a fixed sequence of frame reader outcomes.
type scriptedSource struct {
	outcomes []outcome
	pos      int
}

type outcome struct {
	frame pms.Frame
	err   error
}

func valid(pm1, pm25, pm10 uint16) outcome {
	return outcome{frame: pms.Frame{PM1: pm1, PM25: pm25, PM10: pm10}}
}

func failed(err error) outcome {
	return outcome{err: err}
}

func (s *scriptedSource) ReadFrame() (pms.Frame, error) {
	if s.pos >= len(s.outcomes) {
		return pms.Frame{}, pms.ErrFrameTimeout
	}
	o := s.outcomes[s.pos]
	s.pos++
	return o.frame, o.err
}

func TestCollect(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		outcomes     []outcome
		want         Reading
		wantValid    int
		wantAttempts int
		wantErr      error
	}{
		{
			name: "five consecutive valid frames",
			cfg:  Config{Samples: 5, MinValid: 3, Delay: -1},
			outcomes: []outcome{
				valid(10, 20, 30),
				valid(12, 22, 32),
				valid(11, 21, 31),
				valid(13, 23, 33),
				valid(9, 19, 29),
			},
			want:         Reading{PM1: 11, PM25: 21, PM10: 31}, // 55/5, 105/5, 155/5
			wantValid:    5,
			wantAttempts: 5,
		},
		{
			name: "quorum met despite failures",
			cfg:  Config{Samples: 5, MinValid: 3, Delay: -1},
			outcomes: []outcome{
				valid(10, 10, 10),
				failed(pms.ErrChecksum),
				valid(20, 20, 20),
				failed(pms.ErrFrameIncomplete),
				failed(pms.ErrFrameTimeout),
				valid(30, 30, 30),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
			},
			want:         Reading{PM1: 20, PM25: 20, PM10: 20},
			wantValid:    3,
			wantAttempts: 10,
		},
		{
			name: "two valid then eight timeouts misses quorum",
			cfg:  Config{Samples: 5, MinValid: 3, Delay: -1},
			outcomes: []outcome{
				valid(10, 10, 10),
				valid(12, 12, 12),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
			},
			wantValid:    2,
			wantAttempts: 10,
			wantErr:      ErrInsufficientSamples,
		},
		{
			name:         "completely silent sensor",
			cfg:          Config{Samples: 5, MinValid: 3, Delay: -1},
			outcomes:     nil, // every read times out
			wantValid:    0,
			wantAttempts: 10,
			wantErr:      ErrInsufficientSamples,
		},
		{
			name: "average truncates toward zero",
			cfg:  Config{Samples: 2, MinValid: 2, Delay: -1},
			outcomes: []outcome{
				valid(10, 5, 1),
				valid(11, 6, 2),
			},
			want:         Reading{PM1: 10, PM25: 5, PM10: 1}, // 21/2, 11/2, 3/2
			wantValid:    2,
			wantAttempts: 2,
		},
		{
			name: "quorum smaller than target accepts degraded cycle",
			cfg:  Config{Samples: 5, MinValid: 3, Delay: -1},
			outcomes: []outcome{
				failed(pms.ErrFrameTimeout),
				valid(10, 10, 10),
				failed(pms.ErrChecksum),
				valid(20, 20, 20),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
				valid(30, 30, 30),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
				failed(pms.ErrFrameTimeout),
			},
			want:         Reading{PM1: 20, PM25: 20, PM10: 20},
			wantValid:    3,
			wantAttempts: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &scriptedSource{outcomes: tt.outcomes}
			c := New(src, tt.cfg, nil)

			res, err := c.Collect()
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Equal(t, tt.wantAttempts, res.Attempts)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, Reading{}, res.Reading, "a missed quorum must not surface a reading")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Reading)
		})
	}
}

func TestCollect_StopsAtTargetSamples(t *testing.T) {
	src := &scriptedSource{outcomes: []outcome{
		valid(1, 1, 1),
		valid(2, 2, 2),
		valid(3, 3, 3), // must never be consumed
	}}
	c := New(src, Config{Samples: 2, MinValid: 2, Delay: -1}, nil)

	res, err := c.Collect()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Valid)
	assert.Equal(t, 2, src.pos, "collection must stop once the target count is reached")
}

func TestCollect_Deterministic(t *testing.T) {
	script := []outcome{
		valid(10, 12, 14),
		failed(pms.ErrChecksum),
		valid(20, 22, 24),
		valid(30, 32, 34),
	}
	cfg := Config{Samples: 3, MinValid: 3, Delay: -1}

	first, err1 := New(&scriptedSource{outcomes: script}, cfg, nil).Collect()
	second, err2 := New(&scriptedSource{outcomes: script}, cfg, nil).Collect()

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second, "identical outcome sequences must average identically")
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultSamples, cfg.Samples)
	assert.Equal(t, DefaultMinValid, cfg.MinValid)
	assert.Equal(t, 2*DefaultSamples, cfg.MaxAttempts)
	assert.Equal(t, DefaultDelay, cfg.Delay, "a zero-value config must pace attempts")

	clamped := Config{Samples: 3, MinValid: 7}.withDefaults()
	assert.Equal(t, 3, clamped.MinValid, "quorum must never exceed the target sample count")

	fast := Config{Delay: -1}.withDefaults()
	assert.Equal(t, time.Duration(0), fast.Delay, "a negative delay disables pacing")
}
