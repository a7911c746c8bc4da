package vecindex

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/ziadkadry99/docqa/internal/storage"
)

// matrixMagic heads embeddings.f32: a dense row-major float32 matrix with a
// fixed-size header so readers can validate shape without external metadata.
var matrixMagic = [4]byte{'D', 'Q', 'E', 'M'}

const matrixVersion = 1

// WriteMatrix persists a rows x dim float32 matrix atomically. len(data) must
// equal rows*dim.
func WriteMatrix(path string, rows, dim int, data []float32) error {
	if rows*dim != len(data) {
		return fmt.Errorf("matrix shape %dx%d does not match %d values", rows, dim, len(data))
	}

	buf := make([]byte, 13+4*len(data))
	copy(buf[:4], matrixMagic[:])
	buf[4] = matrixVersion
	binary.LittleEndian.PutUint32(buf[5:9], uint32(rows))
	binary.LittleEndian.PutUint32(buf[9:13], uint32(dim))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[13+4*i:], math.Float32bits(v))
	}

	return storage.WriteFileAtomic(path, buf)
}

// ReadMatrix loads a matrix written by WriteMatrix. A missing file maps to
// notFound; a malformed header or truncated body maps to
// storage.ErrInvalidFormat.
func ReadMatrix(path string, notFound error) (rows, dim int, data []float32, err error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, 0, nil, notFound
	}
	if err != nil {
		return 0, 0, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if len(raw) < 13 || [4]byte(raw[:4]) != matrixMagic || raw[4] != matrixVersion {
		return 0, 0, nil, fmt.Errorf("%w: bad matrix header in %s", storage.ErrInvalidFormat, path)
	}
	rows = int(binary.LittleEndian.Uint32(raw[5:9]))
	dim = int(binary.LittleEndian.Uint32(raw[9:13]))
	if len(raw) != 13+4*rows*dim {
		return 0, 0, nil, fmt.Errorf("%w: matrix body is %d bytes, want %d", storage.ErrInvalidFormat, len(raw)-13, 4*rows*dim)
	}

	data = make([]float32, rows*dim)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[13+4*i:]))
	}
	return rows, dim, data, nil
}
