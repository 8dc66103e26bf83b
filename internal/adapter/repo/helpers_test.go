package repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialgood/internal/domain"
)

func sampleCandidate(name, email string, amount float64) domain.Candidate {
	return domain.Candidate{
		DonorName:  name,
		DonorEmail: email,
		Amount:     amount,
		Currency:   "USD",
		Frequency:  domain.FrequencyOneTime,
		Message:    "keep going",
		PaymentID:  "demo-1700000000000",
		Status:     domain.StatusCompleted,
	}
}

// requireSameRecord compares records field by field, using time.Equal for timestamps.
func requireSameRecord(t *testing.T, want, got domain.DonationRecord) {
	t.Helper()
	require.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt: want %s got %s", want.CreatedAt, got.CreatedAt)
	require.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updatedAt: want %s got %s", want.UpdatedAt, got.UpdatedAt)
	want.CreatedAt, want.UpdatedAt = time.Time{}, time.Time{}
	got.CreatedAt, got.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, want, got)
}
