package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		svc, err := openService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		stats, err := svc.Stats(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Documents:        %d\n", stats.Documents)
		fmt.Printf("Chunks:           %d\n", stats.Chunks)
		fmt.Printf("Notes:            %d\n", stats.Notes)
		fmt.Printf("Sensors:          %d\n", stats.Sensors)
		fmt.Printf("Readings:         %d\n", stats.Readings)
		fmt.Printf("Vector dimension: %d\n", stats.VectorDimension)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
