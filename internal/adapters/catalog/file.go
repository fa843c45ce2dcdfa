// Package catalog reads and writes the festival lineup document.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/ports"
)

// ErrNotFound is returned when the catalog file does not exist.
var ErrNotFound = errors.New("catalog: file not found")

// document is the on-disk shape: {"bands": [...]}.
type document struct {
	Bands []domain.CandidateAct `json:"bands"`
}

// FileStore keeps the catalog in a JSON file.
type FileStore struct {
	path string
}

var _ ports.CatalogStore = (*FileStore)(nil)

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and validates the catalog. Order is preserved.
func (s *FileStore) Load(ctx context.Context) ([]domain.CandidateAct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", s.path, err)
	}

	acts, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", s.path, err)
	}
	return acts, nil
}

// Save writes the catalog atomically via a temp file in the same directory.
func (s *FileStore) Save(ctx context.Context, acts []domain.CandidateAct) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := domain.ValidateCatalog(acts); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	raw, err := Encode(acts)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("catalog: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("catalog: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("catalog: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("catalog: replace %s: %w", s.path, err)
	}
	return nil
}

// Decode parses a catalog document and validates it.
func Decode(raw []byte) ([]domain.CandidateAct, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := domain.ValidateCatalog(doc.Bands); err != nil {
		return nil, err
	}
	if doc.Bands == nil {
		doc.Bands = []domain.CandidateAct{}
	}
	return doc.Bands, nil
}

// Encode renders acts as an indented catalog document.
func Encode(acts []domain.CandidateAct) ([]byte, error) {
	if acts == nil {
		acts = []domain.CandidateAct{}
	}
	raw, err := json.MarshalIndent(document{Bands: acts}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}
	return append(raw, '\n'), nil
}
