package ask

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docqa/internal/storage"
)

// RegisterRoutes mounts the question answering API.
func RegisterRoutes(r chi.Router, engine *Engine) {
	r.Post("/ask", handleAsk(engine))
}

func handleAsk(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		resp, err := engine.Ask(r.Context(), req)
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, ErrEmptyQuestion), errors.Is(err, storage.ErrInvalidDocID):
				status = http.StatusBadRequest
			case errors.Is(err, ErrNoIndexedDocuments), errors.Is(err, storage.ErrIndexNotFound):
				status = http.StatusNotFound
			case errors.Is(err, ErrServiceUnavailable):
				status = http.StatusServiceUnavailable
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
