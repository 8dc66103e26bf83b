package donation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"socialgood/internal/domain"
	"socialgood/internal/metrics"
	"socialgood/internal/providers/paypal"
)

// CreateOrderRequest starts a hosted payment.
type CreateOrderRequest struct {
	Amount     Amount `json:"amount"`
	Currency   string `json:"currency"`
	DonorName  string `json:"donorName"`
	DonorEmail string `json:"donorEmail"`
}

// CaptureRequest settles an approved order.
type CaptureRequest struct {
	OrderID     string `json:"orderID"`
	DonorName   string `json:"donorName"`
	DonorEmail  string `json:"donorEmail"`
	Frequency   string `json:"frequency"`
	Message     string `json:"message"`
	ClientIP    string `json:"-"`
	CountryHint string `json:"-"`
}

// CaptureOutcome reports a settled payment. DonationID is empty when the
// record could not be persisted.
type CaptureOutcome struct {
	CaptureID   string
	OrderID     string
	Amount      float64
	Currency    string
	Status      string
	DonorEmail  string
	DonationID  string
	EmailSent   bool
	Transport   string
	AckProvider string
}

// CaptureError is a failed capture with its caller-facing classification.
type CaptureError struct {
	Failure paypal.CaptureFailure
	Err     error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("donation: capture %s: %v", e.Failure.Kind, e.Err)
}

func (e *CaptureError) Unwrap() []error { return []error{domain.ErrPaymentCapture, e.Err} }

// CreateOrder validates the amount and delegates to the payment processor.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*paypal.Order, error) {
	if !req.Amount.Present || req.Amount.Invalid || req.Amount.Value <= 0 {
		return nil, domain.NewValidationError("amount", "Invalid amount")
	}
	cur := currencyOrDefault(req.Currency)
	if s.payments == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, ErrPaymentsUnavailable)
	}
	order, err := s.payments.CreateOrder(ctx, paypal.OrderRequest{
		Amount:     req.Amount.Value,
		Currency:   cur,
		DonorName:  strings.TrimSpace(req.DonorName),
		DonorEmail: strings.TrimSpace(req.DonorEmail),
		ReturnURL:  s.baseURL + "/donation/success",
		CancelURL:  s.baseURL + "/donation/cancel",
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("donation: create order failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}
	return order, nil
}

// Capture settles the order, then persists, acknowledges and delivers. A
// persistence failure here is logged and does not fail the request, since
// the donor has already been charged.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (*CaptureOutcome, error) {
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return nil, domain.NewValidationError("orderID", "Order ID is required")
	}
	freq := frequencyOrDefault(req.Frequency)
	if s.payments == nil {
		s.metrics.Captured(paypal.FailureGeneric)
		return nil, &CaptureError{Failure: paypal.ClassifyCaptureError(ErrPaymentsUnavailable), Err: ErrPaymentsUnavailable}
	}

	captured, err := s.payments.CaptureOrder(ctx, orderID)
	if err != nil {
		failure := paypal.ClassifyCaptureError(err)
		s.metrics.Captured(failure.Kind)
		s.logger.Error().Err(err).Str("order_id", orderID).Str("kind", failure.Kind).Msg("donation: capture failed")
		return nil, &CaptureError{Failure: failure, Err: err}
	}
	s.metrics.Captured("success")

	name := orDefault(req.DonorName, domain.AnonymousDonor)
	email := orDefault(req.DonorEmail, domain.AnonymousEmail)
	out := &CaptureOutcome{
		CaptureID:  captured.CaptureID,
		OrderID:    captured.OrderID,
		Amount:     captured.Amount,
		Currency:   captured.Currency,
		Status:     captured.Status,
		DonorEmail: email,
	}

	rec, err := s.store.Append(ctx, domain.Candidate{
		DonorName:  name,
		DonorEmail: email,
		Amount:     captured.Amount,
		Currency:   captured.Currency,
		Frequency:  freq,
		Message:    req.Message,
		PaymentID:  captured.CaptureID,
		Status:     captured.Status,
		Country:    s.lookupCountry(req.CountryHint, req.ClientIP),
	})
	if err != nil {
		s.metrics.PersistFailed(metrics.PathCapture)
		s.logger.Error().
			Err(err).
			Str("capture_id", captured.CaptureID).
			Bool("storage", errors.Is(err, domain.ErrStorage)).
			Msg("donation: persist captured payment failed; continuing")
	} else {
		s.metrics.Persisted(metrics.PathCapture)
		out.DonationID = rec.ID
	}

	res, provider := s.acknowledgeAndDeliver(ctx, email, name, captured.Amount, captured.Currency)
	out.EmailSent = res.Sent
	out.Transport = res.Transport
	out.AckProvider = provider
	return out, nil
}
