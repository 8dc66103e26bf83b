package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"socialgood/internal/domain"
	"socialgood/internal/infra"
)

// DonationFileStore keeps every donation in one JSON array on disk. Each
// append rewrites the whole file, so it only suits low volumes.
//
// Appends are serialized twice: a mutex for goroutines in this process and
// an OS lock on "<path>.lock" for other processes sharing the file. The new
// collection is written to a temp file and renamed over the old one, so
// readers never observe a partial write.
type DonationFileStore struct {
	path   string
	mu     sync.Mutex
	lock   *flock.Flock
	logger zerolog.Logger
	now    clock
	newID  func() (string, error)
}

// NewDonationFileStore prepares a store at path, creating the parent directory.
func NewDonationFileStore(path string, logger *infra.Logger) (*DonationFileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repo: donation file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("repo: ensure data directory: %w", err)
	}
	return &DonationFileStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: infra.OrDiscard(logger),
		now:    time.Now,
		newID:  newRecordID,
	}, nil
}

// Path returns the backing file location.
func (s *DonationFileStore) Path() string {
	return s.path
}

func (s *DonationFileStore) ReadAll(ctx context.Context) []domain.DonationRecord {
	records, err := s.read()
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("repo: read donations failed")
		return []domain.DonationRecord{}
	}
	return records
}

func (s *DonationFileStore) Append(ctx context.Context, candidate domain.Candidate) (domain.DonationRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.DonationRecord{}, &domain.StorageError{Op: "append", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return domain.DonationRecord{}, &domain.StorageError{Op: "lock", Err: err}
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn().Err(err).Msg("repo: release donation file lock failed")
		}
	}()

	// A collection that cannot be decoded is not replaced; rewriting it with
	// a single record would silently drop every earlier donation.
	records, err := s.read()
	if err != nil {
		return domain.DonationRecord{}, &domain.StorageError{Op: "read", Err: err}
	}

	id, err := s.newID()
	if err != nil {
		return domain.DonationRecord{}, &domain.StorageError{Op: "generate id", Err: err}
	}
	record := candidate.Materialize(id, s.now())
	records = append(records, record)

	if err := s.write(records); err != nil {
		return domain.DonationRecord{}, &domain.StorageError{Op: "write", Err: err}
	}
	return record, nil
}

func (s *DonationFileStore) FindByID(ctx context.Context, id string) (domain.DonationRecord, bool) {
	for _, record := range s.ReadAll(ctx) {
		if record.ID == id {
			return record, true
		}
	}
	return domain.DonationRecord{}, false
}

func (s *DonationFileStore) FindByEmail(ctx context.Context, email string) []domain.DonationRecord {
	matches := []domain.DonationRecord{}
	for _, record := range s.ReadAll(ctx) {
		if record.DonorEmail == email {
			matches = append(matches, record)
		}
	}
	return matches
}

func (s *DonationFileStore) read() ([]domain.DonationRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.DonationRecord{}, nil
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []domain.DonationRecord{}, nil
	}
	var records []domain.DonationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if records == nil {
		records = []domain.DonationRecord{}
	}
	return records, nil
}

func (s *DonationFileStore) write(records []domain.DonationRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".donations-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return err
	}
	return nil
}

var _ domain.RecordStore = (*DonationFileStore)(nil)
