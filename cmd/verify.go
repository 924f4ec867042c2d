package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itohio/kuuki/pkg/record"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <record-line>",
	Short: "Verify a record line's checksum and print its fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := record.Parse(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("pm1.0=%d µg/m³\npm2.5=%d µg/m³\npm10.0=%d µg/m³\n", rec.PM1, rec.PM25, rec.PM10)
		fmt.Printf("temperature=%.1f °C\npressure=%.2f Pa\nhumidity=%.1f %%\naltitude=%.1f m\n",
			rec.Temperature, rec.Pressure, rec.Humidity, rec.Altitude)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
