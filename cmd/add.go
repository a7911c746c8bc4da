package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/registry"
	"github.com/ziadkadry99/docqa/internal/storage"
	"github.com/ziadkadry99/docqa/internal/walker"
)

var (
	addDir      string
	addInclude  []string
	addExclude  []string
	addMaxBytes int64
)

var addCmd = &cobra.Command{
	Use:   "add [file]...",
	Short: "Add text documents to the registry",
	Long: `Reads one or more text files and registers them under content-derived
document ids. Form feed characters in a file mark page boundaries.
Adding a file whose content is already registered is a no-op.

With --dir the given directory is walked recursively and every text
document matching the include patterns is added.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && addDir == "" {
			exitOnError(fmt.Errorf("pass file paths or --dir"))
		}

		cfg, err := loadConfig()
		exitOnError(err)

		database, err := openDB(cfg)
		exitOnError(err)
		defer database.Close()

		reg := registry.NewStore(database)
		st := storage.New(cfg.DataDir)
		ctx := cmd.Context()

		paths := args
		if addDir != "" {
			docs, err := walker.Walk(walker.Config{
				RootDir:     addDir,
				Include:     addInclude,
				Exclude:     addExclude,
				MaxFileSize: addMaxBytes,
			})
			exitOnError(err)
			if len(docs) == 0 && len(paths) == 0 {
				fmt.Printf("no documents found under %s\n", addDir)
				return
			}
			for _, d := range docs {
				paths = append(paths, d.Path)
			}
		}

		added := 0
		for _, path := range paths {
			doc, created, err := reg.IngestFile(ctx, st, path)
			exitOnError(err)
			if created {
				added++
				fmt.Printf("added %s doc_id=%s pages=%d\n", doc.Filename, doc.DocID, doc.Pages)
			} else {
				fmt.Printf("unchanged %s doc_id=%s (already registered as %s)\n", path, doc.DocID, doc.Filename)
			}
		}
		if addDir != "" {
			fmt.Printf("added %d of %d document(s)\n", added, len(paths))
		}
	},
}

func init() {
	addCmd.Flags().StringVar(&addDir, "dir", "", "walk a directory and add every matching document")
	addCmd.Flags().StringSliceVar(&addInclude, "include", nil, "glob patterns for documents to include (default *.txt, *.md, *.text)")
	addCmd.Flags().StringSliceVar(&addExclude, "exclude", nil, "glob patterns for documents to exclude")
	addCmd.Flags().Int64Var(&addMaxBytes, "max-bytes", 0, "skip files larger than this (0 = 4 MB default)")
	rootCmd.AddCommand(addCmd)
}
