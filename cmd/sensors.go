package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lab271/sensorkb/internal/kb"
	"github.com/lab271/sensorkb/internal/service"
)

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "Manage sensors, readings, and sensor knowledge",
}

var sensorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered sensors",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		svc, err := openService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		sensors, err := svc.ListSensors(ctx)
		if err != nil {
			return err
		}
		if len(sensors) == 0 {
			fmt.Println("No sensors registered.")
			return nil
		}
		for _, s := range sensors {
			fmt.Printf("%-12s %-24s %-14s %s\n", s.ID, s.Name, s.Type, s.Location)
		}
		return nil
	},
}

var sensorsAddCmd = &cobra.Command{
	Use:   "add <id> <name>",
	Short: "Register a sensor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sensorType, _ := cmd.Flags().GetString("type")
		location, _ := cmd.Flags().GetString("location")

		svc, err := openService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		err = svc.AddSensor(ctx, kb.Sensor{
			ID:       args[0],
			Name:     args[1],
			Type:     sensorType,
			Location: location,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Sensor %s added.\n", args[0])
		return nil
	},
}

var sensorsImportCmd = &cobra.Command{
	Use:   "import <sensors.csv>",
	Short: "Import sensors from a CSV file (header: id,name,type,location)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		svc, err := openService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		n, err := svc.ImportSensorsCSV(ctx, f)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d sensors.\n", n)
		return nil
	},
}

var readingsImportCmd = &cobra.Command{
	Use:   "import-readings <readings.csv>",
	Short: "Import readings from a CSV file (header: sensor_id,value,recorded_at)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		svc, err := openService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		n, err := svc.ImportReadingsCSV(ctx, f)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d readings.\n", n)
		return nil
	},
}

var readingsCmd = &cobra.Command{
	Use:   "readings <sensor-id>",
	Short: "Show recent readings for a sensor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		limit, _ := cmd.Flags().GetInt("limit")

		svc, err := openService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		readings, err := svc.GetReadings(ctx, args[0], limit, time.Time{}, time.Time{})
		if err != nil {
			return err
		}
		if len(readings) == 0 {
			fmt.Println("No readings.")
			return nil
		}
		for _, r := range readings {
			fmt.Printf("%s  %g\n", r.RecordedAt.Format(time.RFC3339), r.Value)
		}
		return nil
	},
}

var notesAddCmd = &cobra.Command{
	Use:   "note <sensor-id> <content>",
	Short: "Attach a knowledge note to a sensor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		svc, err := openService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		note, err := svc.AddKnowledge(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if note.Vector == nil {
			fmt.Printf("Note %s added (keyword search only, embedding unavailable).\n", note.ID)
		} else {
			fmt.Printf("Note %s added.\n", note.ID)
		}
		return nil
	},
}

func openService(ctx context.Context) (*service.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return service.Open(ctx, cfg)
}

func init() {
	sensorsAddCmd.Flags().String("type", "", "sensor type (temperature, pressure, ...)")
	sensorsAddCmd.Flags().String("location", "", "physical location")
	readingsCmd.Flags().Int("limit", 10, "maximum readings to show")

	sensorsCmd.AddCommand(sensorsListCmd)
	sensorsCmd.AddCommand(sensorsAddCmd)
	sensorsCmd.AddCommand(sensorsImportCmd)
	sensorsCmd.AddCommand(readingsImportCmd)
	sensorsCmd.AddCommand(readingsCmd)
	sensorsCmd.AddCommand(notesAddCmd)
	rootCmd.AddCommand(sensorsCmd)
}
