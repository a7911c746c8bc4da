package registry

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docqa/internal/storage"
)

// RegisterRoutes mounts the document registry API.
func RegisterRoutes(r chi.Router, s *Store, st *storage.Store) {
	r.Route("/documents", func(r chi.Router) {
		r.Post("/", handleIngest(s, st))
		r.Get("/", handleList(s))
		r.Get("/{docID}", handleGet(s))
	})
}

type ingestRequest struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
	Pages    []struct {
		Page int    `json:"page"`
		Text string `json:"text"`
	} `json:"pages"`
}

type ingestResponse struct {
	*Document
	Created bool `json:"created"`
}

func handleIngest(s *Store, st *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ingestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Filename == "" {
			http.Error(w, `{"error":"filename is required"}`, http.StatusBadRequest)
			return
		}
		if req.Text == "" && len(req.Pages) == 0 {
			http.Error(w, `{"error":"text or pages is required"}`, http.StatusBadRequest)
			return
		}

		var pages []storage.Page
		var content strings.Builder
		if len(req.Pages) > 0 {
			for _, p := range req.Pages {
				pages = append(pages, storage.Page{Page: p.Page, Text: p.Text, Source: "upload"})
				content.WriteString(p.Text)
				content.WriteString("\f")
			}
		} else {
			pages = PagesFromText(req.Text, "upload")
			content.WriteString(req.Text)
		}

		doc, created, err := s.Ingest(r.Context(), st, req.Filename, pages, []byte(content.String()))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, ingestResponse{Document: doc, Created: created})
	}
}

func handleList(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := s.List(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if docs == nil {
			docs = []Document{}
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

func handleGet(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := s.Get(r.Context(), chi.URLParam(r, "docID"))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if doc == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
