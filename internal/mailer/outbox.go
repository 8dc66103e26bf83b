package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"socialgood/internal/infra"
	"socialgood/internal/providers/acknowledge"
	"socialgood/internal/storage"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._@-]+`)

// OutboxMessage is the JSON document written for each fallback delivery.
type OutboxMessage struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	HTML      string    `json:"html"`
	DonorName string    `json:"donorName"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	QueuedAt  time.Time `json:"queuedAt"`
}

// OutboxSender is the fallback transport: it renders the static letter and
// files it in the outbox for an operator or relay to pick up.
type OutboxSender struct {
	files  *storage.FileStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewOutboxSender stores messages under files.
func NewOutboxSender(files *storage.FileStore, logger *infra.Logger) *OutboxSender {
	return &OutboxSender{files: files, logger: infra.OrDiscard(logger), now: time.Now}
}

func (o *OutboxSender) Name() string { return "outbox" }

func (o *OutboxSender) Send(ctx context.Context, d Delivery) error {
	now := o.now().UTC()
	text := acknowledge.FallbackBody(d.DonorName, d.Amount, d.Currency)
	html, err := RenderHTML(d.To, text)
	if err != nil {
		return fmt.Errorf("mailer: render fallback: %w", err)
	}
	payload, err := json.MarshalIndent(OutboxMessage{
		To:        d.To,
		Subject:   FallbackSubject,
		Text:      text,
		HTML:      html,
		DonorName: d.DonorName,
		Amount:    d.Amount,
		Currency:  d.Currency,
		QueuedAt:  now,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("mailer: encode outbox message: %w", err)
	}
	key := fmt.Sprintf("%s/%d-%s.json", now.Format("20060102"), now.UnixNano(), outboxRecipient(d.To))
	stored, err := o.files.Write(ctx, key, payload)
	if err != nil {
		return fmt.Errorf("mailer: write outbox: %w", err)
	}
	o.logger.Info().
		Str("key", stored).
		Str("recipient", d.To).
		Msg("mailer: fallback message queued in outbox")
	return nil
}

func outboxRecipient(to string) string {
	cleaned := strings.Trim(unsafeKeyChars.ReplaceAllString(strings.ToLower(to), "_"), "._")
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}

var _ Sender = (*OutboxSender)(nil)
