package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docqa/internal/db"
	"github.com/ziadkadry99/docqa/internal/storage"
)

func testStore(t *testing.T) (*Store, *storage.Store) {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d), storage.New(t.TempDir())
}

func TestDocIDFromContent(t *testing.T) {
	a := DocIDFromContent([]byte("same content"))
	b := DocIDFromContent([]byte("same content"))
	c := DocIDFromContent([]byte("other content"))

	if a != b {
		t.Fatal("identical content must map to the same doc id")
	}
	if a == c {
		t.Fatal("different content must map to different doc ids")
	}
	if !storage.ValidDocID(a) {
		t.Fatalf("doc id %q is not valid", a)
	}
}

func TestPagesFromText(t *testing.T) {
	pages := PagesFromText("page one\fpage two\fpage three", "native")
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if pages[0].Page != 1 || pages[2].Page != 3 {
		t.Fatal("pages must be numbered from 1")
	}
	if pages[1].Text != "page two" {
		t.Fatalf("page 2 text = %q", pages[1].Text)
	}

	single := PagesFromText("no form feeds here", "native")
	if len(single) != 1 {
		t.Fatalf("got %d pages, want 1", len(single))
	}
}

func TestIngestAndDedupe(t *testing.T) {
	s, st := testStore(t)
	ctx := context.Background()
	content := []byte("the quarterly report body")
	pages := PagesFromText(string(content), "native")

	doc, created, err := s.Ingest(ctx, st, "report.txt", pages, content)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("first ingest must create")
	}
	if doc.Status != StatusAdded || doc.Pages != 1 {
		t.Fatalf("doc = %+v", doc)
	}

	if _, err := st.ReadDocText(doc.DocID); err != nil {
		t.Fatalf("text.json not written: %v", err)
	}

	again, created, err := s.Ingest(ctx, st, "renamed.txt", pages, content)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("re-ingesting identical content must not create")
	}
	if again.DocID != doc.DocID || again.Filename != "report.txt" {
		t.Fatalf("dedupe returned %+v, want the original record", again)
	}
}

func TestIngestFile(t *testing.T) {
	s, st := testStore(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("first page\fsecond page"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, created, err := s.IngestFile(context.Background(), st, path)
	if err != nil {
		t.Fatal(err)
	}
	if !created || doc.Filename != "notes.txt" || doc.Pages != 2 {
		t.Fatalf("doc = %+v created = %v", doc, created)
	}
}

func TestGetAndList(t *testing.T) {
	s, st := testStore(t)
	ctx := context.Background()

	if doc, err := s.Get(ctx, "a1b2c3d4e5f60718"); err != nil || doc != nil {
		t.Fatalf("missing doc: got %+v, %v", doc, err)
	}

	for _, body := range []string{"doc one", "doc two"} {
		if _, _, err := s.Ingest(ctx, st, body+".txt", PagesFromText(body, "native"), []byte(body)); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}

	got, err := s.Get(ctx, docs[0].DocID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Filename != docs[0].Filename {
		t.Fatalf("Get = %+v", got)
	}
}

func TestSetStatus(t *testing.T) {
	s, st := testStore(t)
	ctx := context.Background()

	doc, _, err := s.Ingest(ctx, st, "a.txt", PagesFromText("body", "native"), []byte("body"))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SetStatus(ctx, doc.DocID, StatusIndexed); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, doc.DocID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusIndexed {
		t.Fatalf("status = %s, want indexed", got.Status)
	}

	if err := s.SetStatus(ctx, "a1b2c3d4e5f60718", StatusError); err == nil {
		t.Fatal("updating an unknown document must fail")
	}
}

func TestRoutes(t *testing.T) {
	s, st := testStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, s, st)
	srv := httptest.NewServer(r)
	defer srv.Close()

	body := `{"filename": "report.txt", "text": "some report text"}`
	resp, err := http.Post(srv.URL+"/documents", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first ingest status = %d, want 201", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/documents", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("duplicate ingest status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/documents")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/documents/a1b2c3d4e5f60718")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing doc status = %d, want 404", resp.StatusCode)
	}
}
