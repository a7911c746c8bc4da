package vecindex

import (
	"fmt"
	"sort"
)

// Kind selects the scoring metric of a flat index.
type Kind string

const (
	// KindFlatIP scores by inner product; over unit vectors this equals
	// cosine similarity, higher is better.
	KindFlatIP Kind = "IndexFlatIP"

	// KindFlatL2 scores by squared euclidean distance, lower is better.
	KindFlatL2 Kind = "IndexFlatL2"
)

// Flat is an exact brute-force vector index. Row numbers are positions in the
// embedding matrix it was built from, so results map back to chunks through
// the row metadata file.
type Flat struct {
	kind Kind
	dim  int
	vecs []float32 // row-major, rows*dim
}

// NewFlat wraps a rows x dim matrix as a searchable index.
func NewFlat(kind Kind, dim int, vecs []float32) (*Flat, error) {
	if kind != KindFlatIP && kind != KindFlatL2 {
		return nil, fmt.Errorf("unknown index kind %q", kind)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid index dimension %d", dim)
	}
	if len(vecs)%dim != 0 {
		return nil, fmt.Errorf("matrix of %d values is not a multiple of dim %d", len(vecs), dim)
	}
	return &Flat{kind: kind, dim: dim, vecs: vecs}, nil
}

func (f *Flat) Kind() Kind { return f.kind }
func (f *Flat) Dim() int   { return f.dim }
func (f *Flat) Rows() int  { return len(f.vecs) / f.dim }

type hit struct {
	row   int
	score float32
}

// Search scans every row and returns the k best matches, best first. Ties are
// broken by lower row number so identical builds give identical results.
func (f *Flat) Search(query []float32, k int) (scores []float32, rows []int, err error) {
	if len(query) != f.dim {
		return nil, nil, fmt.Errorf("query has %d dimensions, index has %d", len(query), f.dim)
	}
	n := f.Rows()
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil, nil
	}

	hits := make([]hit, n)
	for r := 0; r < n; r++ {
		vec := f.vecs[r*f.dim : (r+1)*f.dim]
		var s float32
		switch f.kind {
		case KindFlatIP:
			for i, q := range query {
				s += q * vec[i]
			}
		case KindFlatL2:
			for i, q := range query {
				d := q - vec[i]
				s += d * d
			}
		}
		hits[r] = hit{row: r, score: s}
	}

	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.score != b.score {
			if f.kind == KindFlatL2 {
				return a.score < b.score
			}
			return a.score > b.score
		}
		return a.row < b.row
	})

	scores = make([]float32, k)
	rows = make([]int, k)
	for i := 0; i < k; i++ {
		scores[i] = hits[i].score
		rows[i] = hits[i].row
	}
	return scores, rows, nil
}
