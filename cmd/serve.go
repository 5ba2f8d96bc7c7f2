package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/lab271/sensorkb/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing knowledge base and sensor tools for AI agents.`,
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

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "sensorkb MCP server started on stdio (documents=%d, sensors=%d)\n",
			stats.Documents, stats.Sensors)

		return mcpserver.NewServer(svc).Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
