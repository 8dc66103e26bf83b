// Package donation runs the donation pipeline: validate, persist,
// acknowledge, deliver. Generation and delivery failures never fail a
// request; persistence failures fail the direct path only.
package donation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"socialgood/internal/domain"
	"socialgood/internal/infra"
	"socialgood/internal/mailer"
	"socialgood/internal/metrics"
	"socialgood/internal/providers/acknowledge"
	"socialgood/internal/providers/paypal"
)

// ErrPaymentsUnavailable is returned when no payment client is configured.
var ErrPaymentsUnavailable = errors.New("donation: payments not configured")

// Acknowledger writes the thank-you body. It must not fail.
type Acknowledger interface {
	Generate(ctx context.Context, name string, amount float64, currency string) acknowledge.Acknowledgement
}

// Deliverer sends the thank-you. It must not fail.
type Deliverer interface {
	Send(ctx context.Context, d mailer.Delivery) mailer.Result
}

// Payments is the order lifecycle of the payment processor.
type Payments interface {
	CreateOrder(ctx context.Context, req paypal.OrderRequest) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Capture, error)
}

// CountryResolver maps a client IP to an ISO country code.
type CountryResolver interface {
	CountryCode(ip string) (string, error)
}

// Recorder receives pipeline counters. *metrics.Pipeline satisfies it.
type Recorder interface {
	Persisted(path string)
	PersistFailed(path string)
	Acknowledged(provider string)
	Captured(result string)
}

// Options wires a Service. Store, Acknowledger and Deliverer are required.
type Options struct {
	Store         domain.RecordStore
	Acknowledger  Acknowledger
	Deliverer     Deliverer
	Payments      Payments
	Countries     CountryResolver
	Metrics       Recorder
	PublicBaseURL string
	Logger        *infra.Logger
	Now           func() time.Time
}

// Service is the submission orchestrator.
type Service struct {
	store     domain.RecordStore
	ack       Acknowledger
	deliver   Deliverer
	payments  Payments
	countries CountryResolver
	metrics   Recorder
	baseURL   string
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(opts Options) (*Service, error) {
	if opts.Store == nil || opts.Acknowledger == nil || opts.Deliverer == nil {
		return nil, errors.New("donation: store, acknowledger and deliverer are required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var rec Recorder = (*metrics.Pipeline)(nil)
	if opts.Metrics != nil {
		rec = opts.Metrics
	}
	return &Service{
		store:     opts.Store,
		ack:       opts.Acknowledger,
		deliver:   opts.Deliverer,
		payments:  opts.Payments,
		countries: opts.Countries,
		metrics:   rec,
		baseURL:   strings.TrimRight(opts.PublicBaseURL, "/"),
		logger:    infra.OrDiscard(opts.Logger),
		now:       now,
	}, nil
}

// List returns every record in insertion order.
func (s *Service) List(ctx context.Context) []domain.DonationRecord {
	return s.store.ReadAll(ctx)
}

// acknowledgeAndDeliver runs the two best-effort steps shared by both paths.
func (s *Service) acknowledgeAndDeliver(ctx context.Context, to, name string, amount float64, currency string) (mailer.Result, string) {
	ack := s.ack.Generate(ctx, name, amount, currency)
	s.metrics.Acknowledged(ack.Provider)
	if ack.FallbackReason != "" {
		s.logger.Info().
			Str("provider", ack.Provider).
			Str("reason", ack.FallbackReason).
			Msg("donation: acknowledgement used fallback")
	}
	res := s.deliver.Send(ctx, mailer.Delivery{
		To:        to,
		DonorName: name,
		Amount:    amount,
		Currency:  currency,
		Body:      ack.Body,
	})
	if !res.Sent {
		s.logger.Error().Str("recipient", to).Msg("donation: thank-you email not sent")
	}
	return res, ack.Provider
}

// lookupCountry prefers a proxy-supplied country over a GeoIP lookup.
func (s *Service) lookupCountry(hint, ip string) string {
	if hint != "" {
		return hint
	}
	if s.countries == nil || strings.TrimSpace(ip) == "" {
		return ""
	}
	code, err := s.countries.CountryCode(ip)
	if err != nil {
		s.logger.Debug().Err(err).Msg("donation: country lookup failed")
		return ""
	}
	return code
}
