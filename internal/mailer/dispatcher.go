package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"socialgood/internal/domain"
	"socialgood/internal/infra"
)

// Result reports whether a delivery went out and through which transport.
type Result struct {
	Sent      bool
	Transport string
}

// Dispatcher tries the primary transport once and the fallback once.
type Dispatcher struct {
	primary  Sender
	fallback Sender
	logger   zerolog.Logger
	onResult func(transport string, sent bool)
}

// DispatcherOptions wires a Dispatcher. Primary may be nil when no
// credentials are configured.
type DispatcherOptions struct {
	Primary  Sender
	Fallback Sender
	Logger   *infra.Logger
	OnResult func(transport string, sent bool)
}

func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	return &Dispatcher{
		primary:  opts.Primary,
		fallback: opts.Fallback,
		logger:   infra.OrDiscard(opts.Logger),
		onResult: opts.OnResult,
	}
}

// Send never returns an error and never panics.
func (d *Dispatcher) Send(ctx context.Context, del Delivery) Result {
	if d.primary != nil {
		err := d.try(ctx, d.primary, del)
		d.report(d.primary.Name(), err == nil)
		if err == nil {
			return Result{Sent: true, Transport: d.primary.Name()}
		}
		d.logger.Warn().
			Err(err).
			Str("transport", d.primary.Name()).
			Str("recipient", del.To).
			Msg("mailer: primary transport failed; using fallback")
	} else {
		d.logger.Debug().Bool("credentials", false).Msg("mailer: primary transport not configured")
	}

	if d.fallback == nil {
		return Result{}
	}
	if err := d.try(ctx, d.fallback, del); err != nil {
		d.report(d.fallback.Name(), false)
		d.logger.Error().
			Err(err).
			Str("transport", d.fallback.Name()).
			Str("recipient", del.To).
			Msg("mailer: fallback transport failed")
		return Result{Transport: d.fallback.Name()}
	}
	d.report(d.fallback.Name(), true)
	return Result{Sent: true, Transport: d.fallback.Name()}
}

func (d *Dispatcher) try(ctx context.Context, s Sender, del Delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mailer: %s panicked: %v", s.Name(), r)
		}
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", domain.ErrDelivery, s.Name(), err)
		}
	}()
	return s.Send(ctx, del)
}

func (d *Dispatcher) report(transport string, sent bool) {
	if d.onResult != nil {
		d.onResult(transport, sent)
	}
}
