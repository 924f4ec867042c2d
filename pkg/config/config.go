// Package config holds the kuuki runtime configuration: loaded with
// viper (file, environment, defaults), saved as YAML for scaffolding.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Serial   SerialConfig   `mapstructure:"serial" yaml:"serial"`
	Sampling SamplingConfig `mapstructure:"sampling" yaml:"sampling"`
	Env      EnvConfig      `mapstructure:"env" yaml:"env"`
	Cycle    CycleConfig    `mapstructure:"cycle" yaml:"cycle"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// SerialConfig selects the particulate sensor port. An explicit Port
// wins; otherwise Pattern is matched against the available ports.
type SerialConfig struct {
	Port     string `mapstructure:"port" yaml:"port"`
	Pattern  string `mapstructure:"pattern" yaml:"pattern"`
	BaudRate int    `mapstructure:"baud_rate" yaml:"baud_rate"`
}

// SamplingConfig bounds one acquisition cycle.
type SamplingConfig struct {
	Samples     int           `mapstructure:"samples" yaml:"samples"`
	MinValid    int           `mapstructure:"min_valid" yaml:"min_valid"`
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	Delay       time.Duration `mapstructure:"delay" yaml:"delay"`
}

// EnvConfig configures the environmental sensor collaborator.
type EnvConfig struct {
	// Driver names the sensor implementation. Only "sim" ships in-tree;
	// hardware drivers implement env.Sensor out of tree.
	Driver      string  `mapstructure:"driver" yaml:"driver"`
	SeaLevelHPa float64 `mapstructure:"sea_level_hpa" yaml:"sea_level_hpa"`
}

// CycleConfig schedules acquisition cycles.
type CycleConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// OutputConfig enables the record sinks.
type OutputConfig struct {
	Line       LineConfig       `mapstructure:"line" yaml:"line"`
	ThingSpeak ThingSpeakConfig `mapstructure:"thingspeak" yaml:"thingspeak"`
	MQTT       MQTTConfig       `mapstructure:"mqtt" yaml:"mqtt"`
}

type LineConfig struct {
	Enable bool `mapstructure:"enable" yaml:"enable"`
}

type ThingSpeakConfig struct {
	Enable  bool          `mapstructure:"enable" yaml:"enable"`
	Key     string        `mapstructure:"key" yaml:"key"`
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type MQTTConfig struct {
	Enable bool   `mapstructure:"enable" yaml:"enable"`
	Broker string `mapstructure:"broker" yaml:"broker"`
	Topic  string `mapstructure:"topic" yaml:"topic"`
}

// LoggingConfig selects level, encoding and optional file rotation.
type LoggingConfig struct {
	Level  string     `mapstructure:"level" yaml:"level"`
	Format string     `mapstructure:"format" yaml:"format"`
	File   FileConfig `mapstructure:"file" yaml:"file"`
}

type FileConfig struct {
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// MetricsConfig exposes Prometheus metrics over HTTP when enabled.
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable" yaml:"enable"`
	Addr   string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Pattern:  "/dev/cu.usbmodem*",
			BaudRate: 9600,
		},
		Sampling: SamplingConfig{
			Samples:     5,
			MinValid:    3,
			MaxAttempts: 10,
			ReadTimeout: 2 * time.Second,
			Delay:       time.Second,
		},
		Env: EnvConfig{
			Driver:      "sim",
			SeaLevelHPa: 1013.25,
		},
		Cycle: CycleConfig{
			Interval: time.Minute,
		},
		Output: OutputConfig{
			Line: LineConfig{Enable: true},
			ThingSpeak: ThingSpeakConfig{
				URL:     "https://api.thingspeak.com/update",
				Timeout: 10 * time.Second,
			},
			MQTT: MQTTConfig{
				Broker: "tcp://localhost:1883",
				Topic:  "kuuki/record",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File: FileConfig{
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
		Metrics: MetricsConfig{
			Addr: ":9290",
		},
	}
}

// Load reads the configuration. An explicit path must exist; with an
// empty path the usual locations are searched and a missing file falls
// back to defaults. Environment variables prefixed KUUKI_ override
// file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kuuki")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.kuuki")
		v.AddConfigPath("/etc/kuuki")
	}
	v.SetEnvPrefix("KUUKI")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects configurations that would violate the sampling
// contract.
func (c *Config) Validate() error {
	s := c.Sampling
	if s.Samples <= 0 {
		return fmt.Errorf("config: sampling.samples must be positive, got %d", s.Samples)
	}
	if s.MinValid <= 0 {
		return fmt.Errorf("config: sampling.min_valid must be positive, got %d", s.MinValid)
	}
	if s.MinValid > s.Samples {
		return fmt.Errorf("config: sampling.min_valid (%d) must not exceed sampling.samples (%d)", s.MinValid, s.Samples)
	}
	if s.MaxAttempts < s.Samples {
		return fmt.Errorf("config: sampling.max_attempts (%d) must be at least sampling.samples (%d)", s.MaxAttempts, s.Samples)
	}
	if c.Env.SeaLevelHPa <= 0 {
		return fmt.Errorf("config: env.sea_level_hpa must be positive, got %g", c.Env.SeaLevelHPa)
	}
	if c.Cycle.Interval <= 0 {
		return fmt.Errorf("config: cycle.interval must be positive, got %s", c.Cycle.Interval)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("serial.port", d.Serial.Port)
	v.SetDefault("serial.pattern", d.Serial.Pattern)
	v.SetDefault("serial.baud_rate", d.Serial.BaudRate)

	v.SetDefault("sampling.samples", d.Sampling.Samples)
	v.SetDefault("sampling.min_valid", d.Sampling.MinValid)
	v.SetDefault("sampling.max_attempts", d.Sampling.MaxAttempts)
	v.SetDefault("sampling.read_timeout", d.Sampling.ReadTimeout)
	v.SetDefault("sampling.delay", d.Sampling.Delay)

	v.SetDefault("env.driver", d.Env.Driver)
	v.SetDefault("env.sea_level_hpa", d.Env.SeaLevelHPa)

	v.SetDefault("cycle.interval", d.Cycle.Interval)

	v.SetDefault("output.line.enable", d.Output.Line.Enable)
	v.SetDefault("output.thingspeak.enable", d.Output.ThingSpeak.Enable)
	v.SetDefault("output.thingspeak.key", d.Output.ThingSpeak.Key)
	v.SetDefault("output.thingspeak.url", d.Output.ThingSpeak.URL)
	v.SetDefault("output.thingspeak.timeout", d.Output.ThingSpeak.Timeout)
	v.SetDefault("output.mqtt.enable", d.Output.MQTT.Enable)
	v.SetDefault("output.mqtt.broker", d.Output.MQTT.Broker)
	v.SetDefault("output.mqtt.topic", d.Output.MQTT.Topic)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file.filename", d.Logging.File.Filename)
	v.SetDefault("logging.file.max_size", d.Logging.File.MaxSizeMB)
	v.SetDefault("logging.file.max_backups", d.Logging.File.MaxBackups)
	v.SetDefault("logging.file.max_age", d.Logging.File.MaxAgeDays)
	v.SetDefault("logging.file.compress", d.Logging.File.Compress)

	v.SetDefault("metrics.enable", d.Metrics.Enable)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}
