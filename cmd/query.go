package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lab271/sensorkb/internal/kb"
	"github.com/lab271/sensorkb/internal/query"
	"github.com/lab271/sensorkb/internal/service"
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the knowledge base",
	Long: `Searches chunks and sensor notes. With --semantic the query text is
embedded and keyword and similarity rankings are fused; without it only
keyword matching is used. Filters alone (no text) perform a structured
lookup.`,
	Args: cobra.ArbitraryArgs,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Bool("semantic", false, "fuse keyword and vector similarity rankings")
	queryCmd.Flags().Int("limit", 0, "maximum results (0 = configured default)")
	queryCmd.Flags().String("document", "", "restrict to one document id")
	queryCmd.Flags().String("sensor", "", "restrict to one sensor's notes")
	queryCmd.Flags().String("source-type", "", "restrict to a source type (text, markdown, pdf)")
	queryCmd.Flags().String("from", "", "only items created at or after this RFC3339 time")
	queryCmd.Flags().String("to", "", "only items created at or before this RFC3339 time")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	semantic, _ := cmd.Flags().GetBool("semantic")
	limit, _ := cmd.Flags().GetInt("limit")
	document, _ := cmd.Flags().GetString("document")
	sensor, _ := cmd.Flags().GetString("sensor")
	sourceType, _ := cmd.Flags().GetString("source-type")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	filter := kb.Filter{
		DocumentID: document,
		OwnerID:    sensor,
		SourceType: kb.SourceType(sourceType),
	}
	if fromStr != "" {
		if filter.From, err = time.Parse(time.RFC3339, fromStr); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
	}
	if toStr != "" {
		if filter.To, err = time.Parse(time.RFC3339, toStr); err != nil {
			return fmt.Errorf("--to: %w", err)
		}
	}

	svc, err := service.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	results, err := svc.Query(ctx, query.Request{
		Filter:   filter,
		Text:     strings.Join(args, " "),
		Semantic: semantic,
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. [%s %.4f] ", i+1, r.ScoreKind, r.Score)
		switch r.Kind {
		case kb.KindNote:
			fmt.Printf("sensor %s (note %s)\n", r.OwnerID, r.ChunkID)
		default:
			fmt.Printf("%s (chunk %s)\n", r.DocumentID, r.ChunkID)
		}
		fmt.Printf("   %s\n\n", strings.ReplaceAll(r.Snippet, "\n", "\n   "))
	}

	return nil
}
