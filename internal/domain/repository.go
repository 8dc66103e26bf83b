package domain

import "context"

// RecordStore owns the persisted donation collection.
//
// ReadAll, FindByID and FindByEmail never fail: read errors are logged by the
// implementation and reported as an empty result. Append surfaces failures
// as *StorageError because a lost donation must be visible to the caller.
type RecordStore interface {
	ReadAll(ctx context.Context) []DonationRecord
	Append(ctx context.Context, candidate Candidate) (DonationRecord, error)
	FindByID(ctx context.Context, id string) (DonationRecord, bool)
	FindByEmail(ctx context.Context, email string) []DonationRecord
}
