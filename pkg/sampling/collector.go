package sampling

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/itohio/kuuki/pkg/pms"
)

// ErrInsufficientSamples reports a collection cycle that ended with
// fewer valid frames than the configured quorum. It is an expected,
// recoverable outcome: the caller skips the cycle and retries on the
// next schedule. No partial or stale reading is ever surfaced.
var ErrInsufficientSamples = errors.New("sampling: not enough valid frames")

// FrameSource produces at most one validated frame per call.
// *pms.Reader and *pms.Sim both satisfy it.
type FrameSource interface {
	ReadFrame() (pms.Frame, error)
}

const (
	// DefaultSamples is the target number of valid frames per cycle.
	DefaultSamples = 5
	// DefaultMinValid is the quorum: the minimum number of valid frames
	// required before the average is trusted.
	DefaultMinValid = 3
	// DefaultDelay is the pause between read attempts. PM sensors emit
	// periodically rather than on demand, so polling faster than the
	// emission rate only burns attempts.
	DefaultDelay = time.Second
)

// Config bounds one acquisition cycle.
type Config struct {
	// Samples is the target number of valid frames (N).
	Samples int
	// MinValid is the quorum (M). Must not exceed Samples.
	MinValid int
	// MaxAttempts bounds the worst-case cycle duration when the sensor
	// is degraded. Zero selects 2*Samples.
	MaxAttempts int
	// Delay is slept between consecutive attempts, whether or not the
	// previous attempt produced a frame. Zero selects DefaultDelay; a
	// negative value disables the pause entirely.
	Delay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Samples <= 0 {
		c.Samples = DefaultSamples
	}
	if c.MinValid <= 0 {
		c.MinValid = DefaultMinValid
	}
	if c.MinValid > c.Samples {
		c.MinValid = c.Samples
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 2 * c.Samples
	}
	if c.Delay == 0 {
		c.Delay = DefaultDelay
	} else if c.Delay < 0 {
		c.Delay = 0
	}
	return c
}

// Reading is a quorum-backed averaged measurement in µg/m³. Each
// channel is the integer-truncated mean of the valid frames.
type Reading struct {
	PM1  int
	PM25 int
	PM10 int
}

// Result carries the averaged reading plus the cycle counters. The
// counters are populated even when the quorum was missed.
type Result struct {
	Reading  Reading
	Valid    int // frames accepted
	Attempts int // read attempts made
}

// Collector turns a noisy, occasionally failing stream of frames into
// one trustworthy averaged reading per cycle. Individual frame errors
// are absorbed; only the aggregate outcome crosses this boundary.
type Collector struct {
	src FrameSource
	cfg Config
	log *zap.Logger
}

func New(src FrameSource, cfg Config, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{
		src: src,
		cfg: cfg.withDefaults(),
		log: log,
	}
}

// Collect runs one acquisition cycle: up to MaxAttempts reads, stopping
// early once Samples valid frames have accumulated. It returns
// ErrInsufficientSamples when fewer than MinValid frames were valid;
// the Result counters are still meaningful in that case.
func (c *Collector) Collect() (Result, error) {
	// Accumulator state lives only for this call; uint32 sums cannot
	// overflow across any bounded attempt count.
	var sums [3]uint32
	var res Result

	for res.Attempts < c.cfg.MaxAttempts && res.Valid < c.cfg.Samples {
		if res.Attempts > 0 && c.cfg.Delay > 0 {
			time.Sleep(c.cfg.Delay)
		}
		res.Attempts++

		f, err := c.src.ReadFrame()
		if err != nil {
			// Transient noise, not an error at this layer.
			c.log.Debug("frame attempt failed", zap.Int("attempt", res.Attempts), zap.Error(err))
			continue
		}
		sums[0] += uint32(f.PM1)
		sums[1] += uint32(f.PM25)
		sums[2] += uint32(f.PM10)
		res.Valid++
	}

	if res.Valid < c.cfg.MinValid {
		return res, fmt.Errorf("%w: %d valid of %d required after %d attempts",
			ErrInsufficientSamples, res.Valid, c.cfg.MinValid, res.Attempts)
	}

	n := uint32(res.Valid)
	res.Reading = Reading{
		PM1:  int(sums[0] / n),
		PM25: int(sums[1] / n),
		PM10: int(sums[2] / n),
	}
	c.log.Debug("cycle averaged",
		zap.Int("valid", res.Valid),
		zap.Int("attempts", res.Attempts),
		zap.Int("pm2_5", res.Reading.PM25),
	)
	return res, nil
}
