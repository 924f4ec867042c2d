package cmd

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/itohio/kuuki/pkg/env"
	"github.com/itohio/kuuki/pkg/pms"
	"github.com/itohio/kuuki/pkg/sampling"
	"github.com/itohio/kuuki/pkg/stream"
)

var mockFlag bool

// resolvePort picks the sensor port: explicit config/flag first, then
// pattern autodiscovery.
func resolvePort() (string, error) {
	port := cfg.Serial.Port
	if port == "" {
		port = stream.Detect(cfg.Serial.Pattern, "")
	}
	if port == "" {
		return "", errors.New("no serial port configured or detected; set serial.port or --port")
	}
	return port, nil
}

// buildSource opens the particulate frame source. The returned closer
// releases the serial port; it is a no-op for the simulator.
func buildSource() (sampling.FrameSource, func(), error) {
	if mockFlag {
		logger.Info("using simulated particulate sensor")
		return pms.NewSim(0), func() {}, nil
	}

	port, err := resolvePort()
	if err != nil {
		return nil, nil, err
	}
	ser, err := stream.Open(port, cfg.Serial.BaudRate)
	if err != nil {
		return nil, nil, err
	}
	if err := ser.SetPollTimeout(50 * time.Millisecond); err != nil {
		ser.Close()
		return nil, nil, err
	}
	logger.Info("sensor port open", zap.String("port", port), zap.Int("baud", cfg.Serial.BaudRate))

	reader := pms.NewReader(ser, cfg.Sampling.ReadTimeout, logger.Named("pms"))
	return reader, func() { ser.Close() }, nil
}

// buildSensor creates the environmental sensor named by the config and
// performs its initialization handshake.
func buildSensor() (env.Sensor, error) {
	var sensor env.Sensor
	switch cfg.Env.Driver {
	case "sim", "":
		sensor = env.NewSim(0)
	default:
		return nil, fmt.Errorf("unknown env driver %q (supported: sim)", cfg.Env.Driver)
	}
	if err := sensor.Init(); err != nil {
		// Fatal: without the environmental sensor no measurement is
		// meaningful.
		return nil, fmt.Errorf("environmental sensor failed to initialize: %w", err)
	}
	return sensor, nil
}

// buildCollector wires the sampling aggregator over a frame source.
func buildCollector(src sampling.FrameSource) *sampling.Collector {
	return sampling.New(src, sampling.Config{
		Samples:     cfg.Sampling.Samples,
		MinValid:    cfg.Sampling.MinValid,
		MaxAttempts: cfg.Sampling.MaxAttempts,
		Delay:       cfg.Sampling.Delay,
	}, logger.Named("sampling"))
}
