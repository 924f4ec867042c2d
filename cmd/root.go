package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/itohio/kuuki/pkg/config"
	"github.com/itohio/kuuki/pkg/logging"
)

var (
	cfgFile  string
	portFlag string
	verbose  bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kuuki",
	Short: "Air quality logger for PMS5003-class particulate sensors",
	Long: `kuuki polls a particulate-matter sensor over a serial link, averages
multiple samples per cycle with a minimum-quorum gate, pairs each
accepted reading with an environmental sample, and emits the result as
a checksummed CSV line, a ThingSpeak upload, or an MQTT message.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if portFlag != "" {
			cfg.Serial.Port = portFlag
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger = logging.New(cfg.Logging)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command. It is called once, from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			rootCmd.PrintErrln("Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is kuuki.yaml)")
	rootCmd.PersistentFlags().StringVarP(&portFlag, "port", "p", "", "serial port override (e.g. /dev/ttyACM0)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
