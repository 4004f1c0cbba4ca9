package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethpandaops/pageaudit/internal/audit/record"
	"github.com/sirupsen/logrus"
)

// DefaultMaxRuns bounds the JSON history file.
const DefaultMaxRuns = 200

// JSONStore keeps every run record in a single JSON array file.
type JSONStore struct {
	log     logrus.FieldLogger
	path    string
	maxRuns int
	mu      sync.Mutex
}

// NewJSONStore creates a store backed by path. maxRuns <= 0 keeps every run.
func NewJSONStore(log logrus.FieldLogger, path string, maxRuns int) *JSONStore {
	return &JSONStore{
		log:     log.WithField("component", "json_history"),
		path:    path,
		maxRuns: maxRuns,
	}
}

// Append adds rec to the file, dropping the oldest runs beyond the cap.
func (s *JSONStore) Append(_ context.Context, rec *record.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.read()
	if err != nil {
		return err
	}

	runs = append(runs, *rec)
	if s.maxRuns > 0 && len(runs) > s.maxRuns {
		runs = runs[len(runs)-s.maxRuns:]
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	if err := s.write(data); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"path":   s.path,
		"run_id": rec.ID,
		"runs":   len(runs),
	}).Info("saved run to history")

	return nil
}

// Runs returns every stored record, oldest first.
func (s *JSONStore) Runs() ([]record.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

// List summarises the newest limit runs with trend labels, oldest first.
func (s *JSONStore) List(_ context.Context, limit int) ([]Entry, error) {
	runs, err := s.Runs()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(runs))
	for i := range runs {
		entries = append(entries, NewEntry(&runs[i]))
	}

	ApplyTrends(entries)

	return lastN(entries, limit), nil
}

// Close is a no-op; the file is rewritten on each append.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) read() ([]record.RunRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []record.RunRecord{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading history %s: %w", s.path, err)
	}

	if len(data) == 0 {
		return []record.RunRecord{}, nil
	}

	var runs []record.RunRecord
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("parsing history %s: %w", s.path, err)
	}

	return runs, nil
}

func (s *JSONStore) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp history file: %w", err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing history: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing history: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing history file: %w", err)
	}

	return nil
}

// Compile-time interface compliance check
var _ Store = (*JSONStore)(nil)
