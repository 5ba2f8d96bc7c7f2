package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lab271/sensorkb/internal/server"
	"github.com/lab271/sensorkb/internal/service"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API server",
	Long:  `Starts the sensorkb HTTP server with a REST API and a WebSocket ingestion endpoint with live progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if serverPort == 0 {
			serverPort = cfg.HTTPPort
		}

		svc, err := service.Open(context.Background(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		srv := server.New(server.Config{Port: serverPort, AllowAll: cfg.AllowAll}, svc)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "sensorkb server v%s starting on port %d\n", Version, serverPort)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.DBPath)

		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "port to listen on (default: configured http_port)")
	rootCmd.AddCommand(serverCmd)
}
