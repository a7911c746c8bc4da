package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	var n int
	if err := d.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if n != 0 {
		t.Fatalf("fresh database has %d documents", n)
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "docqa.db")
	d, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO documents (doc_id, filename, content_sha256) VALUES ('a1b2c3d4e5f60718', 'x.txt', 'sha')`); err != nil {
		t.Fatal(err)
	}
}

func TestSchemaIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.migrate(); err != nil {
		t.Fatalf("re-running migrations: %v", err)
	}
}
