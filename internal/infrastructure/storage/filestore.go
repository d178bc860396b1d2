// Package storage persists assembled products: one folder per product on
// disk, plus an optional Postgres catalog archive.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"StoreScraper/internal/domain"
	"StoreScraper/internal/ports"
)

const (
	metadataFile = "metadata.json"
	backupFile   = "info.txt"
)

// FileStore keeps one <seq>_<name>_<price> folder per product under root,
// each holding a structured metadata file and a verbatim text backup.
type FileStore struct {
	root string
}

var _ ports.RecordStore = (*FileStore)(nil)

// NewFileStore roots the store at dir; the directory is created lazily.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Root returns the store's base directory.
func (s *FileStore) Root() string {
	return s.root
}

// EnsureFolder creates the product folder if absent and returns its path.
func (s *FileStore) EnsureFolder(folder string) (string, error) {
	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return dir, nil
}

// SaveRecord writes both persistence artifacts. A record only counts as
// assembled once metadata and text backup are both on disk.
func (s *FileStore) SaveRecord(record domain.ProductRecord, rawText string) error {
	dir := filepath.Join(s.root, record.Folder)

	raw, err := json.MarshalIndent(toMetadata(record), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), raw, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, backupFile), []byte(rawText), 0o644); err != nil {
		return fmt.Errorf("write text backup: %w", err)
	}

	return nil
}

// LoadRecords rebuilds product records from previously persisted folders,
// in lexical folder order. Folders without a metadata file are ignored.
func (s *FileStore) LoadRecords() ([]domain.ProductRecord, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.root, err)
	}

	var records []domain.ProductRecord
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(s.root, entry.Name(), metadataFile))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read metadata of %s: %w", entry.Name(), err)
		}

		var meta metadata
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("parse metadata of %s: %w", entry.Name(), err)
		}

		records = append(records, meta.toRecord(entry.Name()))
	}

	return records, nil
}

// metadata mirrors the on-disk JSON layout.
type metadata struct {
	Name        string   `json:"name"`
	Price       int      `json:"price"`
	Size        *string  `json:"size"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	MessageDate *string  `json:"message_date"`
	MessageID   int64    `json:"message_id"`
	RunID       string   `json:"run_id,omitempty"`
}

func toMetadata(record domain.ProductRecord) metadata {
	meta := metadata{
		Name:        record.Name,
		Price:       record.Price,
		Description: record.Description,
		Images:      record.Images,
		MessageID:   record.MessageID,
		RunID:       record.RunID,
	}
	if record.Size != "" {
		meta.Size = &record.Size
	}
	if !record.MessageDate.IsZero() {
		date := record.MessageDate.Format(time.RFC3339)
		meta.MessageDate = &date
	}
	return meta
}

func (m metadata) toRecord(folder string) domain.ProductRecord {
	record := domain.ProductRecord{
		Folder:      folder,
		Name:        m.Name,
		Price:       m.Price,
		Description: m.Description,
		Images:      m.Images,
		MessageID:   m.MessageID,
		RunID:       m.RunID,
	}
	if m.Size != nil {
		record.Size = *m.Size
	}
	if m.MessageDate != nil {
		if parsed, err := time.Parse(time.RFC3339, *m.MessageDate); err == nil {
			record.MessageDate = parsed
		}
	}
	return record
}
