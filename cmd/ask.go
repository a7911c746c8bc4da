package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/ask"
	"github.com/ziadkadry99/docqa/internal/storage"
)

var (
	askDocIDs []string
	askTopK   int
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question over your indexed documents",
	Long: `Answers a question using the indexed documents. By default every
indexed document is searched; --doc restricts the scope. The answer is
printed with its sources and any extracted entities.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)

		st := storage.New(cfg.DataDir)
		engine, err := newAskEngine(cmd.Context(), cfg, st)
		exitOnError(err)

		resp, err := engine.Ask(cmd.Context(), ask.Request{
			Question: strings.Join(args, " "),
			DocIDs:   askDocIDs,
			TopK:     askTopK,
		})
		exitOnError(err)

		fmt.Println(resp.Answer)
		if resp.Confidence != nil {
			fmt.Printf("\nconfidence: %.2f", *resp.Confidence)
			if resp.CacheHit != "" {
				fmt.Printf(" (cache: %s)", resp.CacheHit)
			}
			fmt.Println()
		}

		if len(resp.Sources) > 0 {
			fmt.Println("\nSources:")
			for i, s := range resp.Sources {
				page := 0
				if s.Page != nil {
					page = *s.Page
				}
				fmt.Printf("  %d. doc=%s page=%d score=%.4f\n", i+1, s.DocID, page, s.Score)
			}
		}
		if len(resp.Entities) > 0 && verbose {
			fmt.Println("\nEntities:")
			for _, e := range resp.Entities {
				fmt.Printf("  %-10s %s (%s)\n", e.Label, e.Text, e.Source)
			}
		}
	},
}

func init() {
	askCmd.Flags().StringSliceVar(&askDocIDs, "doc", nil, "restrict to specific doc ids (repeatable)")
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "number of chunks to retrieve (0 = configured default)")
	rootCmd.AddCommand(askCmd)
}
