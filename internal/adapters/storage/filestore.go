package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"pdbench/internal/domain"
	"pdbench/internal/logging"
	"pdbench/internal/ports"
)

// DefaultQuotaBytes is the hard cap on the serialized store size. The cap
// exists because the whole document is rewritten on every mutation; large
// datasets make each write proportionally expensive.
const DefaultQuotaBytes = 5 << 20

// FileStore implements ports.Store as a single JSON document rewritten on
// every mutation. Writes go through a temp file and rename so a crash mid
// write never leaves a torn document behind.
type FileStore struct {
	path  string
	quota int64

	mu  sync.Mutex
	doc fileDocument
}

var _ ports.Store = (*FileStore)(nil)

type fileDocument struct {
	Meta        map[string]string                `json:"meta"`
	Collections map[string]map[string]fileRecord `json:"collections"`
}

type fileRecord struct {
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Payload   json.RawMessage `json:"payload"`
}

// NewFileStore opens (or creates) the store at path. quotaBytes <= 0 selects
// DefaultQuotaBytes.
func NewFileStore(path string, quotaBytes int64) (*FileStore, error) {
	if quotaBytes <= 0 {
		quotaBytes = DefaultQuotaBytes
	}
	s := &FileStore{
		path:  path,
		quota: quotaBytes,
		doc: fileDocument{
			Meta:        make(map[string]string),
			Collections: make(map[string]map[string]fileRecord),
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("%w: failed to read store file: %v", domain.ErrStoreUnavailable, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("%w: store file is not valid JSON: %v", domain.ErrStoreUnavailable, err)
	}
	if s.doc.Meta == nil {
		s.doc.Meta = make(map[string]string)
	}
	if s.doc.Collections == nil {
		s.doc.Collections = make(map[string]map[string]fileRecord)
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, collection, id string) (*ports.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.doc.Collections[collection][id]
	if !ok {
		return nil, nil
	}
	out := toRecord(id, rec)
	return &out, nil
}

func (s *FileStore) GetAll(ctx context.Context, collection string) ([]ports.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.doc.Collections[collection]
	out := make([]ports.Record, 0, len(col))
	for id, rec := range col {
		out = append(out, toRecord(id, rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *FileStore) Put(ctx context.Context, collection string, rec ports.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.doc.Collections[collection]
	prev, existed := col[rec.ID]

	if col == nil {
		col = make(map[string]fileRecord)
		s.doc.Collections[collection] = col
	}
	col[rec.ID] = fileRecord{
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Payload:   rec.Payload,
	}

	if err := s.save(); err != nil {
		// Roll back the in-memory change so the committed state stays intact
		if existed {
			col[rec.ID] = prev
		} else {
			delete(col, rec.ID)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.doc.Collections[collection]
	prev, existed := col[id]
	if !existed {
		return nil
	}
	delete(col, id)

	if err := s.save(); err != nil {
		col[id] = prev
		return err
	}
	return nil
}

func (s *FileStore) GetMeta(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Meta[key], nil
}

func (s *FileStore) SetMeta(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.doc.Meta[key]
	if value == "" {
		delete(s.doc.Meta, key)
	} else {
		s.doc.Meta[key] = value
	}

	if err := s.save(); err != nil {
		if existed {
			s.doc.Meta[key] = prev
		} else {
			delete(s.doc.Meta, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// save serializes the whole document and writes it atomically. The quota is
// checked against the serialized size before anything touches disk.
func (s *FileStore) save() error {
	data, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("failed to marshal store document: %w", err)
	}

	if int64(len(data)) > s.quota {
		logging.Logger.Warn("store write rejected, quota exceeded",
			"size", len(data), "quota", s.quota)
		return fmt.Errorf("%w: document is %d bytes, quota is %d (export and clear old sessions to free space)",
			domain.ErrQuotaExceeded, len(data), s.quota)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open store file: %w", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return fmt.Errorf("failed to acquire store lock: %w", err)
	}
	defer unlockFile(file)

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

func toRecord(id string, rec fileRecord) ports.Record {
	return ports.Record{
		ID:        id,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Payload:   rec.Payload,
	}
}
