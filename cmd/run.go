package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/itohio/kuuki/pkg/sink"
	"github.com/itohio/kuuki/pkg/station"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the acquisition loop",
	Long: `Runs acquisition cycles until interrupted: collect a quorum of valid
sensor frames, average them, read the environmental sensor, and emit
one record per cycle to every enabled output.`,
	RunE: runStation,
}

func init() {
	runCmd.Flags().BoolVar(&mockFlag, "mock", false, "simulate the sensors instead of opening hardware")
	rootCmd.AddCommand(runCmd)
}

func runStation(cmd *cobra.Command, args []string) error {
	src, closeSource, err := buildSource()
	if err != nil {
		return err
	}
	defer closeSource()

	sensor, err := buildSensor()
	if err != nil {
		return err
	}

	sinks, closeSinks, err := buildSinks()
	if err != nil {
		return err
	}
	defer closeSinks()

	st := station.New(buildCollector(src), sensor, sinks, station.Config{
		SeaLevelHPa: cfg.Env.SeaLevelHPa,
		Interval:    cfg.Cycle.Interval,
	}, logger.Named("station"))

	if cfg.Metrics.Enable {
		go serveMetrics(cfg.Metrics.Addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = st.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("stopped")
		return nil
	}
	return err
}

// buildSinks assembles the enabled outputs. The closer disconnects any
// sink holding a network session.
func buildSinks() ([]sink.Sink, func(), error) {
	var (
		sinks   []sink.Sink
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.Output.Line.Enable {
		sinks = append(sinks, sink.NewLine(os.Stdout))
	}
	if cfg.Output.ThingSpeak.Enable {
		ts, err := sink.NewThingSpeak(cfg.Output.ThingSpeak.Key, cfg.Output.ThingSpeak.URL,
			cfg.Output.ThingSpeak.Timeout, logger.Named("thingspeak"))
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, ts)
	}
	if cfg.Output.MQTT.Enable {
		mq, err := sink.NewMQTT(cfg.Output.MQTT.Broker, cfg.Output.MQTT.Topic, logger.Named("mqtt"))
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, mq)
		closers = append(closers, mq.Close)
	}

	if len(sinks) == 0 {
		return nil, nil, errors.New("no output enabled; enable at least one of output.line, output.thingspeak, output.mqtt")
	}
	return sinks, closeAll, nil
}

func serveMetrics(addr string) {
	logger.Info("metrics listening", zap.String("addr", addr))
	srv := &http.Server{Addr: addr, Handler: station.MetricsHandler()}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}
