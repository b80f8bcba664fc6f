package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MKhiriev/notero-sync/internal/logger"
)

// fileBackend persists the state document as an indented JSON file. It is the
// default backend when no database DSN is configured.
type fileBackend struct {
	path   string
	logger *logger.Logger
}

// NewFileBackend returns a backend that stores state at path.
func NewFileBackend(path string, log *logger.Logger) StateBackend {
	return &fileBackend{path: path, logger: log}
}

func (f *fileBackend) Load(_ context.Context) (*StateDocument, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStateDocument(), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var doc StateDocument
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	doc.normalize()

	return &doc, nil
}

func (f *fileBackend) Save(_ context.Context, doc *StateDocument) error {
	dir := filepath.Dir(f.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	// Write to a sibling temp file first so a crash mid-write never leaves
	// a truncated document behind.
	tmp := f.path + ".tmp"
	if err = os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err = os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

func (f *fileBackend) Close() error {
	return nil
}
