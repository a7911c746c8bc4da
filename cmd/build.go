package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/progress"
	"github.com/ziadkadry99/docqa/internal/registry"
	"github.com/ziadkadry99/docqa/internal/storage"
)

var (
	buildAll   bool
	buildForce bool
)

var buildCmd = &cobra.Command{
	Use:   "build [doc_id]...",
	Short: "Chunk, embed and index documents",
	Long: `Runs the build pipeline for the given documents: split the extracted
text into chunks, embed every chunk and build the vector index. Stages
whose artifacts are already current are skipped unless --force is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)

		database, err := openDB(cfg)
		exitOnError(err)
		defer database.Close()

		reg := registry.NewStore(database)
		st := storage.New(cfg.DataDir)
		ix, err := newIndexer(cfg, st)
		exitOnError(err)

		ctx := cmd.Context()
		docIDs := args
		if buildAll {
			docs, err := reg.List(ctx)
			exitOnError(err)
			for _, d := range docs {
				docIDs = append(docIDs, d.DocID)
			}
		}
		if len(docIDs) == 0 {
			exitOnError(fmt.Errorf("no documents to build; pass doc ids or --all"))
		}

		reporter := progress.NewReporter()
		reporter.Start(len(docIDs))

		built, failed := 0, 0
		for i, docID := range docIDs {
			reporter.Doc(i, docID)

			results, err := ix.BuildAll(ctx, docID, buildForce)
			if err != nil {
				failed++
				if serr := reg.SetStatus(ctx, docID, registry.StatusError); serr != nil && verbose {
					fmt.Printf("could not record error status for %s: %v\n", docID, serr)
				}
				reporter.Finish(built, failed)
				exitOnError(fmt.Errorf("building %s: %w", docID, err))
			}
			built++

			last := results[len(results)-1]
			reporter.Stage(last.Stage)
			if err := reg.SetStatus(ctx, docID, registryStatusFor(last.Stage)); err != nil && verbose {
				fmt.Printf("could not record status for %s: %v\n", docID, err)
			}
			if verbose {
				for _, res := range results {
					fmt.Printf("%s %s: %s\n", docID, res.Stage, res.Status)
				}
			}
		}

		reporter.Finish(built, failed)
		fmt.Printf("built %d document(s)\n", built)
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildAll, "all", false, "build every registered document")
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "rebuild even when artifacts are current")
	rootCmd.AddCommand(buildCmd)
}
