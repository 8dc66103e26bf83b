package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"socialgood/internal/domain"
	"socialgood/internal/infra"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS donations (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	donor_name TEXT NOT NULL,
	donor_email TEXT NOT NULL,
	amount REAL NOT NULL,
	currency TEXT NOT NULL,
	frequency TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	payment_id TEXT NOT NULL,
	status TEXT NOT NULL,
	country TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS donations_donor_email_idx ON donations (donor_email)`

const sqliteColumns = `id, donor_name, donor_email, amount, currency, frequency, message, payment_id, status, country, created_at, updated_at`

// DonationSQLiteStore implements domain.RecordStore on an embedded SQLite file.
// Insertion order is kept by the seq column.
type DonationSQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
	now    clock
	newID  func() (string, error)
}

// NewDonationSQLiteStore opens (or creates) the database at path.
func NewDonationSQLiteStore(path string, logger *infra.Logger) (*DonationSQLiteStore, error) {
	if path == "" {
		path = "donations.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("repo: create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repo: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repo: create donations table: %w", err)
	}
	return &DonationSQLiteStore{
		db:     db,
		logger: infra.OrDiscard(logger),
		now:    time.Now,
		newID:  newRecordID,
	}, nil
}

// Close releases the database handle.
func (s *DonationSQLiteStore) Close() error {
	return s.db.Close()
}

func (s *DonationSQLiteStore) Append(ctx context.Context, candidate domain.Candidate) (domain.DonationRecord, error) {
	id, err := s.newID()
	if err != nil {
		return domain.DonationRecord{}, &domain.StorageError{Op: "generate id", Err: err}
	}
	rec := candidate.Materialize(id, s.now())
	_, err = s.db.ExecContext(ctx, `INSERT INTO donations (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.DonorName, rec.DonorEmail, rec.Amount, rec.Currency, rec.Frequency,
		rec.Message, rec.PaymentID, rec.Status, rec.Country,
		rec.CreatedAt.Format(time.RFC3339Nano), rec.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return domain.DonationRecord{}, &domain.StorageError{Op: "insert", Err: err}
	}
	return rec, nil
}

func (s *DonationSQLiteStore) ReadAll(ctx context.Context) []domain.DonationRecord {
	return s.list(ctx, `SELECT `+sqliteColumns+` FROM donations ORDER BY seq`)
}

func (s *DonationSQLiteStore) FindByID(ctx context.Context, id string) (domain.DonationRecord, bool) {
	rec, err := scanSQLiteDonation(s.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM donations WHERE id = ?`, id))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error().Err(err).Str("donation_id", id).Msg("repo: load donation failed")
		}
		return domain.DonationRecord{}, false
	}
	return rec, true
}

func (s *DonationSQLiteStore) FindByEmail(ctx context.Context, email string) []domain.DonationRecord {
	return s.list(ctx, `SELECT `+sqliteColumns+` FROM donations WHERE donor_email = ? ORDER BY seq`, email)
}

func (s *DonationSQLiteStore) list(ctx context.Context, query string, args ...any) []domain.DonationRecord {
	items := []domain.DonationRecord{}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error().Err(err).Msg("repo: list donations failed")
		return items
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		rec, err := scanSQLiteDonation(rows)
		if err != nil {
			s.logger.Error().Err(err).Msg("repo: scan donation failed")
			return []domain.DonationRecord{}
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error().Err(err).Msg("repo: iterate donations failed")
		return []domain.DonationRecord{}
	}
	return items
}

func scanSQLiteDonation(row scanner) (domain.DonationRecord, error) {
	var rec domain.DonationRecord
	var createdAt, updatedAt string
	err := row.Scan(&rec.ID, &rec.DonorName, &rec.DonorEmail, &rec.Amount, &rec.Currency, &rec.Frequency,
		&rec.Message, &rec.PaymentID, &rec.Status, &rec.Country, &createdAt, &updatedAt)
	if err != nil {
		return domain.DonationRecord{}, err
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.DonationRecord{}, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return domain.DonationRecord{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return rec, nil
}

var _ domain.RecordStore = (*DonationSQLiteStore)(nil)
