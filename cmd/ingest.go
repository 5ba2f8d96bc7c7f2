package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lab271/sensorkb/internal/pipeline"
	"github.com/lab271/sensorkb/internal/progress"
	"github.com/lab271/sensorkb/internal/service"
	"github.com/lab271/sensorkb/internal/walker"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest documents from a directory into the knowledge base",
	Long: `Walks the given directory (default: current directory), chunks and embeds
every matching document, and indexes it for search. Re-ingesting an
unchanged path replaces the stored document wholesale.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSlice("include", nil, "glob patterns to include (default: **/*.md, **/*.markdown, **/*.txt)")
	ingestCmd.Flags().StringSlice("exclude", nil, "glob patterns to exclude")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rootDir := "."
	if len(args) == 1 {
		rootDir = args[0]
	}

	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning documents in %s...\n", rootDir)
	}

	files, err := walker.Walk(walker.WalkerConfig{
		RootDir: rootDir,
		Include: include,
		Exclude: exclude,
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", rootDir, err)
	}

	if len(files) == 0 {
		fmt.Println("No documents found to ingest.")
		return nil
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Found %d documents\n", len(files))
	}

	svc, err := service.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	reporter := progress.NewReporter()
	reporter.Start(len(files))

	var ingested, embedded, failed int
	var errs []error

	for _, f := range files {
		reporter.Step(f.RelPath)

		data, err := os.ReadFile(f.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.RelPath, err))
			continue
		}

		result, err := svc.Ingest(ctx, pipeline.IngestRequest{
			DocumentID: f.RelPath,
			Title:      strings.TrimSuffix(filepath.Base(f.RelPath), filepath.Ext(f.RelPath)),
			Text:       string(data),
			SourceType: string(f.SourceType),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.RelPath, err))
			continue
		}

		ingested++
		embedded += result.ChunksEmbedded
		failed += result.ChunksFailed
	}

	reporter.Finish()

	duration := time.Since(start)
	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Documents ingested: %d\n", ingested)
	fmt.Printf("  Chunks embedded:    %d\n", embedded)
	if failed > 0 {
		fmt.Printf("  Chunks unembedded:  %d (keyword search only)\n", failed)
	}
	fmt.Printf("  Duration:           %s\n", duration.Round(time.Millisecond))

	if len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "\nWarnings (%d):\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
	}

	return nil
}
