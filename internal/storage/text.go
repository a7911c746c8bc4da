package storage

// Page is one page of extracted text as produced by the upstream
// extraction step (PDF text layer or OCR), which is outside this system.
type Page struct {
	Page       int      `json:"page"`
	Text       string   `json:"text"`
	Source     string   `json:"source"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// DocText is the parsed form of processed/{doc_id}/text.json.
type DocText struct {
	DocID string `json:"doc_id"`
	Pages []Page `json:"pages"`
}

// ReadDocText loads the extracted per-page text for a document.
func (s *Store) ReadDocText(docID string) (*DocText, error) {
	var dt DocText
	if err := ReadJSON(s.TextPath(docID), &dt, ErrTextNotFound); err != nil {
		return nil, err
	}
	return &dt, nil
}

// WriteDocText persists per-page text for a document. Used when registering
// pre-extracted documents.
func (s *Store) WriteDocText(docID string, dt *DocText) error {
	if err := s.EnsureDocDir(docID); err != nil {
		return err
	}
	return WriteJSONAtomic(s.TextPath(docID), dt)
}
