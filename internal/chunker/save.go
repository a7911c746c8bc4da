package chunker

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ziadkadry99/docqa/internal/storage"
)

// Save writes chunks.jsonl (one JSON object per line, in chunk_index order)
// and chunk_map.json. Both writes are atomic, so a failed save never leaves a
// readable partial artifact.
func Save(st *storage.Store, docID string, chunks []Chunk, cm *ChunkMap) error {
	if err := st.EnsureDocDir(docID); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, ch := range chunks {
		if err := enc.Encode(ch); err != nil {
			return fmt.Errorf("encoding chunk %s: %w", ch.ChunkID, err)
		}
	}
	if err := storage.WriteFileAtomic(st.ChunksPath(docID), buf.Bytes()); err != nil {
		return err
	}

	return storage.WriteJSONAtomic(st.ChunkMapPath(docID), cm)
}

// Each streams the document's chunks in chunk_index order without loading the
// whole file into memory, calling fn for every chunk.
func Each(st *storage.Store, docID string, fn func(Chunk) error) error {
	f, err := os.Open(st.ChunksPath(docID))
	if os.IsNotExist(err) {
		return storage.ErrChunksNotFound
	}
	if err != nil {
		return fmt.Errorf("opening chunks: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var ch Chunk
		if err := json.Unmarshal(line, &ch); err != nil {
			return fmt.Errorf("%w: chunks.jsonl: %v", storage.ErrInvalidFormat, err)
		}
		if err := fn(ch); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Count returns the number of chunks persisted for the document.
func Count(st *storage.Store, docID string) (int, error) {
	n := 0
	err := Each(st, docID, func(Chunk) error {
		n++
		return nil
	})
	return n, err
}

// LoadMap reads the document's chunk map.
func LoadMap(st *storage.Store, docID string) (*ChunkMap, error) {
	var cm ChunkMap
	if err := storage.ReadJSON(st.ChunkMapPath(docID), &cm, storage.ErrChunkMapNotFound); err != nil {
		return nil, err
	}
	return &cm, nil
}

// Built reports whether both chunk artifacts exist for the document.
func Built(st *storage.Store, docID string) bool {
	if _, err := os.Stat(st.ChunksPath(docID)); err != nil {
		return false
	}
	_, err := os.Stat(st.ChunkMapPath(docID))
	return err == nil
}
