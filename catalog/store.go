package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pixelflow/imagestorebackend/models"
)

// ErrNotFound is returned by Get and Remove for unknown record ids.
var ErrNotFound = errors.New("catalog: record not found")

// ErrPersist wraps any failure to write the catalog document to disk. An add
// that returns ErrPersist has not committed; the in-memory state is rolled
// back so readers never observe a record that only exists in memory.
var ErrPersist = errors.New("catalog: persist failed")

// document is the on-disk shape of the catalog: a single JSON file holding
// every record. Loaded once at startup, written back in full on mutation.
type document struct {
	Images []models.ImageRecord `json:"images"`
}

// Store owns the persistent id -> ImageRecord mapping. All mutation is
// serialized through a single mutex; the store assumes it is the only
// process writing the catalog file.
type Store struct {
	path string

	mu      sync.Mutex
	records []models.ImageRecord
}

// Open loads the catalog document at path, creating an empty catalog if none
// exists yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("catalog: no catalog at %s, initializing empty", path)
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse %s: %w", path, err)
	}
	s.records = doc.Images
	log.Printf("catalog: loaded %d record(s) from %s", len(s.records), path)
	return s, nil
}

// Add commits a new record. It returns only after the updated catalog has
// been durably written; on a write failure the in-memory append is undone.
func (s *Store) Add(rec models.ImageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.ID == rec.ID {
			return fmt.Errorf("catalog: duplicate record id %s", rec.ID)
		}
	}

	s.records = append(s.records, rec.Clone())
	if err := s.persistLocked(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return err
	}
	return nil
}

// Get returns a copy of the record with the given id, or ErrNotFound.
func (s *Store) Get(id string) (models.ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.ID == id {
			return rec.Clone(), nil
		}
	}
	return models.ImageRecord{}, ErrNotFound
}

// List returns copies of all records ordered by CreatedAt descending. Ties
// are broken by id so the ordering is stable within a call.
func (s *Store) List() []models.ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ImageRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Count returns the number of committed records.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Remove deletes the record with the given id and persists the updated
// catalog, returning the removed record. Deleting the associated files is
// the caller's responsibility.
func (s *Store) Remove(id string) (models.ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.records {
		if rec.ID != id {
			continue
		}
		removed := rec.Clone()
		s.records = append(s.records[:i], s.records[i+1:]...)
		if err := s.persistLocked(); err != nil {
			// reinsert at the original position so memory matches disk
			s.records = append(s.records[:i], append([]models.ImageRecord{rec}, s.records[i:]...)...)
			return models.ImageRecord{}, err
		}
		return removed, nil
	}
	return models.ImageRecord{}, ErrNotFound
}

// persistLocked writes the full catalog document. It writes to a temp file
// in the same directory and renames it over the target so a crash mid-write
// never leaves a truncated catalog. Callers must hold s.mu.
func (s *Store) persistLocked() error {
	doc := document{Images: s.records}
	if doc.Images == nil {
		doc.Images = []models.ImageRecord{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding document: %v", ErrPersist, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %v", ErrPersist, dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %v", ErrPersist, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: syncing %s: %v", ErrPersist, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing %s: %v", ErrPersist, tmpName, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replacing %s: %v", ErrPersist, s.path, err)
	}
	return nil
}
