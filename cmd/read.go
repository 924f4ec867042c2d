package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/itohio/kuuki/pkg/sink"
	"github.com/itohio/kuuki/pkg/station"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Run a single acquisition cycle and print the record",
	Long: `Performs one acquisition cycle and writes the resulting checksummed
record line to stdout. Exits non-zero when the quorum was not met.`,
	RunE: readOnce,
}

func init() {
	readCmd.Flags().BoolVar(&mockFlag, "mock", false, "simulate the sensors instead of opening hardware")
	rootCmd.AddCommand(readCmd)
}

func readOnce(cmd *cobra.Command, args []string) error {
	src, closeSource, err := buildSource()
	if err != nil {
		return err
	}
	defer closeSource()

	sensor, err := buildSensor()
	if err != nil {
		return err
	}

	st := station.New(buildCollector(src), sensor, []sink.Sink{sink.NewLine(os.Stdout)}, station.Config{
		SeaLevelHPa: cfg.Env.SeaLevelHPa,
	}, logger.Named("station"))

	_, err = st.Cycle()
	return err
}
