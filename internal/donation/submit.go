package donation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"socialgood/internal/domain"
	"socialgood/internal/metrics"
)

const missingFieldsMsg = "Missing required fields: donorName, donorEmail, and amount are required"

// SubmitRequest is a direct (demo payment) submission.
type SubmitRequest struct {
	DonorName   string `json:"donorName"`
	DonorEmail  string `json:"donorEmail"`
	Amount      Amount `json:"amount"`
	Currency    string `json:"currency"`
	Frequency   string `json:"frequency"`
	Message     string `json:"message"`
	ClientIP    string `json:"-"`
	CountryHint string `json:"-"`
}

// SubmitOutcome is returned once the record is persisted.
type SubmitOutcome struct {
	DonationID  string
	Amount      float64
	Currency    string
	DonorEmail  string
	EmailSent   bool
	Transport   string
	PaymentID   string
	AckProvider string
}

// Submit validates, persists, then acknowledges and delivers. Only
// validation and persistence errors are returned.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitOutcome, error) {
	name := strings.TrimSpace(req.DonorName)
	email := strings.TrimSpace(req.DonorEmail)
	if name == "" || email == "" || !req.Amount.Present {
		return nil, domain.NewValidationError("", missingFieldsMsg)
	}
	if err := validateAmount(req.Amount, missingFieldsMsg); err != nil {
		return nil, err
	}
	cur := currencyOrDefault(req.Currency)
	freq := frequencyOrDefault(req.Frequency)

	paymentID := domain.DemoPaymentPrefix + strconv.FormatInt(s.now().UnixMilli(), 10)
	rec, err := s.store.Append(ctx, domain.Candidate{
		DonorName:  name,
		DonorEmail: email,
		Amount:     req.Amount.Value,
		Currency:   cur,
		Frequency:  freq,
		Message:    req.Message,
		PaymentID:  paymentID,
		Status:     domain.StatusCompleted,
		Country:    s.lookupCountry(req.CountryHint, req.ClientIP),
	})
	if err != nil {
		s.metrics.PersistFailed(metrics.PathDirect)
		s.logger.Error().Err(err).Msg("donation: persist direct submission failed")
		return nil, fmt.Errorf("donation: save donation: %w", err)
	}
	s.metrics.Persisted(metrics.PathDirect)
	s.logger.Info().Str("donation_id", rec.ID).Msg("donation: saved")

	res, provider := s.acknowledgeAndDeliver(ctx, email, name, rec.Amount, rec.Currency)
	return &SubmitOutcome{
		DonationID:  rec.ID,
		Amount:      rec.Amount,
		Currency:    rec.Currency,
		DonorEmail:  email,
		EmailSent:   res.Sent,
		Transport:   res.Transport,
		PaymentID:   rec.PaymentID,
		AckProvider: provider,
	}, nil
}
