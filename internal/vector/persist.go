package vector

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Persisted artifacts: the raw matrix in a self-contained binary layout and
// the metadata triple as JSON. Both are rewritten together after every
// mutation; loading requires both.
const (
	vectorsFile = "vectors.bin"
	metaFile    = "meta.json"
)

// metaState is the serialized (records, document map, deleted count) triple.
type metaState struct {
	Records []Record         `json:"records"`
	Docs    map[string][]int `json:"docs"`
	Deleted int              `json:"deleted"`
}

// persistLocked writes both artifacts. Caller must hold s.mu.
// Matrix layout: dim uint32, count uint32, then count rows of dim float32,
// all little endian.
func (s *Store) persistLocked() error {
	f, err := os.Create(filepath.Join(s.dir, vectorsFile))
	if err != nil {
		return fmt.Errorf("create vectors file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(s.dim)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(s.vectors))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, vec := range s.vectors {
		if _, err := f.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	meta := metaState{Records: s.records, Docs: s.docs, Deleted: s.deleted}
	data, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, metaFile), data, 0644); err != nil {
		return fmt.Errorf("write meta file: %w", err)
	}
	return nil
}

// load reads persisted state into the store. A store with neither artifact is
// simply new. Any other condition that prevents a consistent load (one
// artifact missing, parse failure, dimension change, matrix/records mismatch)
// returns an error; the caller falls back to an empty index.
func (s *Store) load() error {
	vecPath := filepath.Join(s.dir, vectorsFile)
	metaPath := filepath.Join(s.dir, metaFile)
	_, vecErr := os.Stat(vecPath)
	_, metaErr := os.Stat(metaPath)
	if os.IsNotExist(vecErr) && os.IsNotExist(metaErr) {
		return nil
	}
	if vecErr != nil || metaErr != nil {
		return fmt.Errorf("incomplete index state: vectors=%v meta=%v", vecErr, metaErr)
	}

	f, err := os.Open(vecPath)
	if err != nil {
		return fmt.Errorf("open vectors file: %w", err)
	}
	defer f.Close()
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != s.dim {
		return fmt.Errorf("dimension mismatch: file has %d, embedder produces %d", dim, s.dim)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	vectors := make([][]float32, 0, n)
	buf := make([]byte, s.dim*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read row %d: %w", i, err)
		}
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("read meta file: %w", err)
	}
	var meta metaState
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("parse meta file: %w", err)
	}
	if len(meta.Records) != len(vectors) {
		return fmt.Errorf("matrix/records mismatch: %d rows, %d records", len(vectors), len(meta.Records))
	}
	deleted := 0
	for _, rec := range meta.Records {
		if rec.Deleted {
			deleted++
		}
	}
	if deleted != meta.Deleted {
		return fmt.Errorf("deleted count mismatch: counted %d, stored %d", deleted, meta.Deleted)
	}

	s.vectors = vectors
	s.records = meta.Records
	s.docs = meta.Docs
	if s.docs == nil {
		s.docs = make(map[string][]int)
	}
	s.deleted = meta.Deleted
	return nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
