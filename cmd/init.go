package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lab271/sensorkb/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize sensorkb configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure sensorkb and generates a .sensorkb.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard()
		if err != nil {
			return err
		}
		if err := cfg.Save(cfgFile); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Configuration written to %s\n", cfgFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
