package cmd

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/itohio/kuuki/pkg/record"
	"github.com/itohio/kuuki/pkg/sink"
	"github.com/itohio/kuuki/pkg/stream"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay records from a logger's serial console to ThingSpeak",
	Long: `Host-side companion mode: reads checksummed CSV record lines emitted
by a logger on the serial port, verifies and parses each line, and
uploads valid records to ThingSpeak. Lines failing the checksum are
dropped with a warning.`,
	RunE: relay,
}

func init() {
	rootCmd.AddCommand(relayCmd)
}

func relay(cmd *cobra.Command, args []string) error {
	if cfg.Output.ThingSpeak.Key == "" {
		return errors.New("relay requires output.thingspeak.key")
	}

	port, err := resolvePort()
	if err != nil {
		return err
	}
	ser, err := stream.Open(port, cfg.Serial.BaudRate)
	if err != nil {
		return err
	}
	// The port is closed either by the signal goroutine (to unblock the
	// scanner) or on the normal-exit path, never both.
	var closeOnce sync.Once
	closePort := func() {
		closeOnce.Do(func() {
			if err := ser.Close(); err != nil {
				logger.Warn("failed to close port", zap.Error(err))
			}
		})
	}
	defer closePort()
	logger.Info("relaying", zap.String("port", port))

	ts, err := sink.NewThingSpeak(cfg.Output.ThingSpeak.Key, cfg.Output.ThingSpeak.URL,
		cfg.Output.ThingSpeak.Timeout, logger.Named("thingspeak"))
	if err != nil {
		return err
	}

	// Close the port on SIGINT/SIGTERM to unblock the scanner.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		closePort()
	}()

	scanner := bufio.NewScanner(ser)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec, err := record.Parse(line)
		if err != nil {
			logger.Warn("rejected line", zap.String("line", line), zap.Error(err))
			continue
		}
		logger.Info("reading",
			zap.Int("pm1_0", rec.PM1),
			zap.Int("pm2_5", rec.PM25),
			zap.Int("pm10_0", rec.PM10),
			zap.Float64("temp_c", rec.Temperature),
			zap.Float64("humidity_pct", rec.Humidity),
		)

		if err := ts.Emit(rec); err != nil {
			logger.Warn("upload failed", zap.Error(err))
			continue
		}
		logger.Info("uploaded")
	}

	if ctx.Err() != nil {
		logger.Info("stopped")
		return nil
	}
	return scanner.Err()
}
