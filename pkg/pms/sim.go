package pms

import (
	"math/rand"
	"time"
)

// Sim produces synthetic frames for development without a sensor
// attached. Concentrations random-walk around typical indoor values;
// ErrorRate injects frame timeouts to exercise quorum handling.
type Sim struct {
	// ErrorRate is the probability (0..1) that a read attempt fails
	// with ErrFrameTimeout instead of producing a frame.
	ErrorRate float64

	rng  *rand.Rand
	pm1  float64
	pm25 float64
	pm10 float64
}

// NewSim creates a simulated frame source. A zero seed derives one from
// the clock.
func NewSim(seed int64) *Sim {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sim{
		rng:  rand.New(rand.NewSource(seed)),
		pm1:  8,
		pm25: 12,
		pm10: 18,
	}
}

// ReadFrame returns the next simulated frame.
func (s *Sim) ReadFrame() (Frame, error) {
	if s.ErrorRate > 0 && s.rng.Float64() < s.ErrorRate {
		return Frame{}, ErrFrameTimeout
	}
	s.pm1 = walk(s.rng, s.pm1, 1)
	s.pm25 = walk(s.rng, s.pm25, 2)
	s.pm10 = walk(s.rng, s.pm10, 3)
	return Frame{
		PM1:  uint16(s.pm1 + 0.5),
		PM25: uint16(s.pm25 + 0.5),
		PM10: uint16(s.pm10 + 0.5),
	}, nil
}

func walk(rng *rand.Rand, v, step float64) float64 {
	v += (rng.Float64() - 0.5) * step
	if v < 0 {
		return 0
	}
	return v
}
