package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/retrieval"
	"github.com/ziadkadry99/docqa/internal/storage"
)

var searchTopK int

var searchCmd = &cobra.Command{
	Use:   "search <doc_id> <query>",
	Short: "Search one document's vector index",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)

		emb, err := newEmbedder(cfg)
		exitOnError(err)

		ret := retrieval.New(cfg, storage.New(cfg.DataDir), emb)
		results, err := ret.Search(cmd.Context(), args[0], args[1], searchTopK)
		exitOnError(err)

		if len(results) == 0 {
			fmt.Println("no results")
			return
		}
		for i, res := range results {
			page := 0
			if res.Page != nil {
				page = *res.Page
			}
			fmt.Printf("%d. score=%.4f page=%d chunk=%s\n   %s\n", i+1, res.Score, page, res.ChunkID, res.TextSnippet)
		}
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 5, "number of results")
	rootCmd.AddCommand(searchCmd)
}
