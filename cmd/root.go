package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lab271/sensorkb/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sensorkb",
	Short: "Hybrid knowledge base for sensor fleets",
	Long: `SensorKB stores operations manuals, runbooks, and sensor annotations
alongside structured sensor records, and retrieves them through combined
keyword and semantic search. It serves queries over a REST API or as an
MCP server for AI agents.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".sensorkb.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `sensorkb init` to create a config file", err)
	}
	return cfg, nil
}
