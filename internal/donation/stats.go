package donation

import (
	"context"
	"math"
	"strings"
	"time"

	"socialgood/internal/domain"
)

// Stats summarizes the record store for the admin dashboard.
type Stats struct {
	TotalDonations     int     `json:"totalDonations"`
	TotalAmount        float64 `json:"totalAmount"`
	MonthlyGrowth      int     `json:"monthlyGrowth"`
	ActiveDonors       int     `json:"activeDonors"`
	ThisMonthAmount    float64 `json:"thisMonthAmount"`
	LastMonthAmount    float64 `json:"lastMonthAmount"`
	ThisMonthDonations int     `json:"thisMonthDonations"`
	LastMonthDonations int     `json:"lastMonthDonations"`
}

// Stats computes totals over all records. Months are calendar months in UTC
// keyed on createdAt; amounts are summed regardless of currency.
func (s *Service) Stats(ctx context.Context) Stats {
	return ComputeStats(s.store.ReadAll(ctx), s.now())
}

// ComputeStats is Stats over an explicit record set and reference time.
func ComputeStats(records []domain.DonationRecord, now time.Time) Stats {
	now = now.UTC()
	thisStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastStart := thisStart.AddDate(0, -1, 0)
	nextStart := thisStart.AddDate(0, 1, 0)

	var st Stats
	donors := make(map[string]struct{}, len(records))
	for _, rec := range records {
		st.TotalDonations++
		st.TotalAmount += rec.Amount
		donors[strings.ToLower(strings.TrimSpace(rec.DonorEmail))] = struct{}{}

		created := rec.CreatedAt.UTC()
		switch {
		case !created.Before(thisStart) && created.Before(nextStart):
			st.ThisMonthDonations++
			st.ThisMonthAmount += rec.Amount
		case !created.Before(lastStart) && created.Before(thisStart):
			st.LastMonthDonations++
			st.LastMonthAmount += rec.Amount
		}
	}
	st.ActiveDonors = len(donors)
	if st.LastMonthAmount > 0 {
		st.MonthlyGrowth = int(math.Round((st.ThisMonthAmount - st.LastMonthAmount) / st.LastMonthAmount * 100))
	}
	return st
}
