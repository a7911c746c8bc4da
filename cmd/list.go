package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered documents and their build status",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)

		database, err := openDB(cfg)
		exitOnError(err)
		defer database.Close()

		docs, err := registry.NewStore(database).List(cmd.Context())
		exitOnError(err)

		if len(docs) == 0 {
			fmt.Println("no documents registered")
			return
		}
		fmt.Printf("%-42s %-24s %-9s %5s\n", "DOC ID", "FILENAME", "STATUS", "PAGES")
		for _, d := range docs {
			fmt.Printf("%-42s %-24s %-9s %5d\n", d.DocID, d.Filename, d.Status, d.Pages)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
