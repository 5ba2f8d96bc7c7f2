package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lab271/sensorkb/internal/service"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document and all of its chunks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		svc, err := service.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
