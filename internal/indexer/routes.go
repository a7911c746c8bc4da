package indexer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docqa/internal/chunker"
	"github.com/ziadkadry99/docqa/internal/storage"
)

// RegisterRoutes mounts the build pipeline API routes.
func RegisterRoutes(r chi.Router, ix *Indexer) {
	r.Route("/documents/{docID}", func(r chi.Router) {
		r.Post("/chunk", handleStage(func(req *http.Request, docID string, force bool) (*Result, error) {
			return ix.Chunk(docID, force)
		}))
		r.Post("/embed", handleStage(func(req *http.Request, docID string, force bool) (*Result, error) {
			return ix.Embed(req.Context(), docID, force)
		}))
		r.Post("/index", handleStage(func(req *http.Request, docID string, force bool) (*Result, error) {
			return ix.Index(docID, force)
		}))
	})
}

func handleStage(run func(req *http.Request, docID string, force bool) (*Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := chi.URLParam(r, "docID")
		force := r.URL.Query().Get("force") == "true"

		res, err := run(r, docID, force)
		if err != nil {
			writeStageError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func writeStageError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrInvalidDocID):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrTextNotFound),
		errors.Is(err, storage.ErrChunksNotFound),
		errors.Is(err, storage.ErrEmbeddingsNotFound),
		errors.Is(err, storage.ErrEmbeddingsInfoNotFound),
		errors.Is(err, storage.ErrIndexNotFound):
		status = http.StatusNotFound
	case errors.Is(err, chunker.ErrTooManyChunks),
		errors.Is(err, ErrTooManyChunksToEmbed):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
