package retrieval

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docqa/internal/storage"
)

// RegisterRoutes mounts the per-document search API.
func RegisterRoutes(r chi.Router, ret *Retriever) {
	r.Post("/documents/{docID}/search", handleSearch(ret))
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	DocID   string           `json:"doc_id"`
	Query   string           `json:"query"`
	TopK    int              `json:"top_k"`
	Results []RetrievedChunk `json:"results"`
}

func handleSearch(ret *Retriever) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Query == "" {
			http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
			return
		}

		docID := chi.URLParam(r, "docID")
		topK := ret.ClampTopK(req.TopK)

		results, err := ret.Search(r.Context(), docID, req.Query, topK)
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, storage.ErrInvalidDocID):
				status = http.StatusBadRequest
			case errors.Is(err, storage.ErrIndexNotFound),
				errors.Is(err, storage.ErrChunksNotFound),
				errors.Is(err, storage.ErrEmbeddingsMetaNotFound):
				status = http.StatusNotFound
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		if results == nil {
			results = []RetrievedChunk{}
		}

		writeJSON(w, http.StatusOK, searchResponse{
			DocID:   docID,
			Query:   req.Query,
			TopK:    topK,
			Results: results,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
