package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/ask"
	"github.com/ziadkadry99/docqa/internal/cache"
	"github.com/ziadkadry99/docqa/internal/registry"
	"github.com/ziadkadry99/docqa/internal/retrieval"
	"github.com/ziadkadry99/docqa/internal/server"
	"github.com/ziadkadry99/docqa/internal/storage"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the docqa HTTP API server",
	Long: `Starts the HTTP API: document ingestion, the build pipeline,
per-document search and question answering.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		database, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		st := storage.New(cfg.DataDir)
		emb, err := newEmbedder(cfg)
		if err != nil {
			return err
		}
		qaSvc, err := newQAService(cfg)
		if err != nil {
			return err
		}
		nerSvc, err := newNERService(cfg)
		if err != nil {
			return err
		}
		ix, err := newIndexer(cfg, st)
		if err != nil {
			return err
		}

		c := newCache(cmd.Context(), cfg)
		if closer, ok := c.(*cache.Redis); ok {
			defer closer.Close()
		}

		srv := server.New(cfg.Server, server.Deps{
			Store:     st,
			Registry:  registry.NewStore(database),
			Indexer:   ix,
			Retriever: retrieval.New(cfg, st, emb),
			Engine:    ask.NewEngine(cfg, st, emb, qaSvc, nerSvc, c),
		})

		// Shut down cleanly on SIGINT/SIGTERM.
		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			fmt.Fprintf(os.Stderr, "received %s, shutting down\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (0 = configured port)")
	rootCmd.AddCommand(serveCmd)
}
