package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"socialgood/internal/domain"
	"socialgood/internal/infra"
	"socialgood/internal/sqlinline"
)

// DonationPGStore implements domain.RecordStore on PostgreSQL. Appends are
// single INSERTs, so concurrent submissions cannot lose each other's writes.
type DonationPGStore struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
	now    clock
	newID  func() (string, error)
}

// NewDonationPGStore creates a Postgres-backed store.
func NewDonationPGStore(sql infra.SQLExecutor, logger *infra.Logger) *DonationPGStore {
	return &DonationPGStore{
		sql:    sql,
		logger: infra.OrDiscard(logger),
		now:    time.Now,
		newID:  newRecordID,
	}
}

// EnsureSchema creates the donations table when missing.
func (r *DonationPGStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QCreateDonations); err != nil {
		return fmt.Errorf("repo: ensure donations schema: %w", err)
	}
	return nil
}

func (r *DonationPGStore) Append(ctx context.Context, candidate domain.Candidate) (domain.DonationRecord, error) {
	id, err := r.newID()
	if err != nil {
		return domain.DonationRecord{}, &domain.StorageError{Op: "generate id", Err: err}
	}
	rec := candidate.Materialize(id, r.now())
	_, err = r.sql.Exec(ctx, sqlinline.QInsertDonation,
		rec.ID, rec.DonorName, rec.DonorEmail, rec.Amount, rec.Currency, rec.Frequency,
		rec.Message, rec.PaymentID, rec.Status, rec.Country, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return domain.DonationRecord{}, &domain.StorageError{Op: "insert", Err: err}
	}
	return rec, nil
}

func (r *DonationPGStore) ReadAll(ctx context.Context) []domain.DonationRecord {
	return r.list(ctx, sqlinline.QListDonations)
}

func (r *DonationPGStore) FindByID(ctx context.Context, id string) (domain.DonationRecord, bool) {
	rec, err := scanDonation(r.sql.QueryRow(ctx, sqlinline.QSelectDonationByID, id))
	if err != nil {
		if !infra.IsNoRows(err) {
			r.logger.Error().Err(err).Str("donation_id", id).Msg("repo: load donation failed")
		}
		return domain.DonationRecord{}, false
	}
	return rec, true
}

func (r *DonationPGStore) FindByEmail(ctx context.Context, email string) []domain.DonationRecord {
	return r.list(ctx, sqlinline.QListDonationsByEmail, email)
}

func (r *DonationPGStore) list(ctx context.Context, query string, args ...any) []domain.DonationRecord {
	items := []domain.DonationRecord{}
	rows, err := r.sql.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("repo: list donations failed")
		return items
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanDonation(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("repo: scan donation failed")
			return []domain.DonationRecord{}
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("repo: iterate donations failed")
		return []domain.DonationRecord{}
	}
	return items
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDonation(row scanner) (domain.DonationRecord, error) {
	var rec domain.DonationRecord
	err := row.Scan(&rec.ID, &rec.DonorName, &rec.DonorEmail, &rec.Amount, &rec.Currency, &rec.Frequency,
		&rec.Message, &rec.PaymentID, &rec.Status, &rec.Country, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return domain.DonationRecord{}, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

var _ domain.RecordStore = (*DonationPGStore)(nil)
