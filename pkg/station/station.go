// Package station runs the acquisition cycle: collect a quorum of
// particulate frames, pair them with one environmental snapshot, and
// hand the finished record to every sink.
package station

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/itohio/kuuki/pkg/env"
	"github.com/itohio/kuuki/pkg/record"
	"github.com/itohio/kuuki/pkg/sampling"
	"github.com/itohio/kuuki/pkg/sink"
)

// ErrCycleSkipped reports a cycle abandoned because the particulate
// quorum was not met. The environmental read and the emit step are
// skipped together; nothing is produced for this cycle.
var ErrCycleSkipped = errors.New("station: cycle skipped")

// State is the cycle runner's current phase.
type State int

const (
	Idle State = iota
	Collecting
	Uploading
	Cooling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Collecting:
		return "collecting"
	case Uploading:
		return "uploading"
	case Cooling:
		return "cooling"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Collector abstracts the sampling aggregator so tests can script
// cycle outcomes.
type Collector interface {
	Collect() (sampling.Result, error)
}

// Config tunes the cycle runner.
type Config struct {
	// SeaLevelHPa is the local sea-level pressure reference for
	// altitude computation.
	SeaLevelHPa float64
	// Interval is the pause between consecutive cycles.
	Interval time.Duration
}

// Station owns one particulate collector, one environmental sensor and
// any number of sinks. All state is confined to the single Run/Cycle
// goroutine.
type Station struct {
	collector Collector
	sensor    env.Sensor
	sinks     []sink.Sink
	cfg       Config
	log       *zap.Logger
	state     State
}

// New assembles a station. A nil logger disables logging; a zero
// interval defaults to one minute.
func New(collector Collector, sensor env.Sensor, sinks []sink.Sink, cfg Config, log *zap.Logger) *Station {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.SeaLevelHPa <= 0 {
		cfg.SeaLevelHPa = env.DefaultSeaLevelHPa
	}
	return &Station{
		collector: collector,
		sensor:    sensor,
		sinks:     sinks,
		cfg:       cfg,
		log:       log,
		state:     Idle,
	}
}

// Init performs the environmental sensor handshake. A failure here is
// the only fatal condition: without the sensor no measurement is
// meaningful, so the caller must halt.
func (s *Station) Init() error {
	if err := s.sensor.Init(); err != nil {
		return fmt.Errorf("environmental sensor failed to initialize: %w", err)
	}
	return nil
}

// State returns the runner's current phase.
func (s *Station) State() State { return s.state }

// Cycle runs one acquisition cycle. On a missed quorum it returns
// ErrCycleSkipped and nothing is read from the environmental sensor or
// emitted. Sink failures are logged and counted but do not fail the
// cycle: the measurement was sound.
func (s *Station) Cycle() (record.Record, error) {
	s.state = Collecting
	defer func() { s.state = Idle }()

	res, err := s.collector.Collect()
	framesValid.Add(float64(res.Valid))
	framesFailed.Add(float64(res.Attempts - res.Valid))
	if err != nil {
		cyclesTotal.WithLabelValues("skipped").Inc()
		s.log.Info("cycle skipped",
			zap.Int("valid", res.Valid),
			zap.Int("attempts", res.Attempts),
			zap.Error(err),
		)
		return record.Record{}, fmt.Errorf("%w: %v", ErrCycleSkipped, err)
	}

	sample := env.Read(s.sensor, s.cfg.SeaLevelHPa)
	rec := record.Record{
		PM1:         res.Reading.PM1,
		PM25:        res.Reading.PM25,
		PM10:        res.Reading.PM10,
		Temperature: sample.Temperature,
		Pressure:    sample.Pressure,
		Humidity:    sample.Humidity,
		Altitude:    sample.Altitude,
	}

	s.state = Uploading
	for _, sk := range s.sinks {
		if err := sk.Emit(rec); err != nil {
			emitsTotal.WithLabelValues(sk.Name(), "error").Inc()
			s.log.Warn("emit failed", zap.String("sink", sk.Name()), zap.Error(err))
			continue
		}
		emitsTotal.WithLabelValues(sk.Name(), "ok").Inc()
	}

	cyclesTotal.WithLabelValues("ok").Inc()
	s.log.Info("cycle complete",
		zap.Int("pm1_0", rec.PM1),
		zap.Int("pm2_5", rec.PM25),
		zap.Int("pm10_0", rec.PM10),
		zap.Float64("temp_c", rec.Temperature),
		zap.Float64("humidity_pct", rec.Humidity),
		zap.Int("valid", res.Valid),
		zap.Int("attempts", res.Attempts),
	)
	return rec, nil
}

// Run cycles until ctx is cancelled, pausing Interval between cycles.
// Skipped cycles are normal; Run only stops on cancellation.
func (s *Station) Run(ctx context.Context) error {
	s.log.Info("station running",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("sinks", len(s.sinks)),
	)
	for {
		if _, err := s.Cycle(); err != nil && !errors.Is(err, ErrCycleSkipped) {
			return err
		}

		s.state = Cooling
		select {
		case <-ctx.Done():
			s.state = Idle
			return ctx.Err()
		case <-time.After(s.cfg.Interval):
		}
	}
}
