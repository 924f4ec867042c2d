package env

import (
	"errors"
	"math/rand"
	"time"

	"github.com/chewxy/math32"
)

// Sim is a software stand-in for the register-bus sensor, for running
// the logger without hardware. Values drift slowly around a baseline
// with a little noise on top.
type Sim struct {
	BaseTemperature float64 // °C
	BasePressure    float64 // Pa
	BaseHumidity    float64 // %RH
	Noise           float64 // relative noise amplitude, 0..1

	rng   *rand.Rand
	start time.Time
}

// NewSim creates a simulated sensor with indoor-ish defaults. A zero
// seed derives one from the clock.
func NewSim(seed int64) *Sim {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sim{
		BaseTemperature: 21.0,
		BasePressure:    101325,
		BaseHumidity:    45.0,
		Noise:           0.01,
		rng:             rand.New(rand.NewSource(seed)),
	}
}

func (s *Sim) Init() error {
	if s.rng == nil {
		return errors.New("env: sim not constructed with NewSim")
	}
	s.start = time.Now()
	return nil
}

func (s *Sim) Temperature() float64 {
	return s.BaseTemperature + s.drift()*2
}

func (s *Sim) Pressure() float64 {
	return s.BasePressure * (1 + s.drift()*0.001)
}

func (s *Sim) Humidity() float64 {
	h := s.BaseHumidity + s.drift()*5
	if h < 0 {
		return 0
	}
	if h > 100 {
		return 100
	}
	return h
}

// Altitude derives altitude from the simulated pressure using the
// hypsometric formula, in float32 the way the hardware driver
// libraries compute it.
func (s *Sim) Altitude(seaLevelHPa float64) float64 {
	hPa := float32(s.Pressure() / 100)
	ref := float32(seaLevelHPa)
	return float64(44330 * (1 - math32.Pow(hPa/ref, 0.1903)))
}

// drift is a slow sinusoid plus noise, in roughly -1..1.
func (s *Sim) drift() float64 {
	phase := time.Since(s.start).Seconds() / 600
	return float64(math32.Sin(float32(phase))) + (s.rng.Float64()-0.5)*2*s.Noise
}
