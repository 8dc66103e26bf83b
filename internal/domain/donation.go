package domain

import "time"

// Frequency labels accepted for a donation. They are stored as text only;
// no recurring billing is attached to "Monthly".
const (
	FrequencyOneTime = "One-time"
	FrequencyMonthly = "Monthly"
)

// Default values applied when a caller omits optional donor fields.
const (
	DefaultCurrency   = "USD"
	AnonymousDonor    = "Anonymous"
	AnonymousEmail    = "anonymous@example.com"
	StatusCompleted   = "completed"
	DemoPaymentPrefix = "demo-"
)

// DonationRecord is one persisted donation event. Records are created once
// and never mutated or deleted.
type DonationRecord struct {
	ID         string    `json:"id"`
	DonorName  string    `json:"donorName"`
	DonorEmail string    `json:"donorEmail"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Frequency  string    `json:"frequency"`
	Message    string    `json:"message,omitempty"`
	PaymentID  string    `json:"paymentId"`
	Status     string    `json:"status"`
	Country    string    `json:"country,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Candidate is a record before the store assigns its identifier and timestamps.
type Candidate struct {
	DonorName  string
	DonorEmail string
	Amount     float64
	Currency   string
	Frequency  string
	Message    string
	PaymentID  string
	Status     string
	Country    string
}

// Materialize turns the candidate into a record with the given identity.
func (c Candidate) Materialize(id string, now time.Time) DonationRecord {
	ts := now.UTC().Truncate(time.Millisecond)
	return DonationRecord{
		ID:         id,
		DonorName:  c.DonorName,
		DonorEmail: c.DonorEmail,
		Amount:     c.Amount,
		Currency:   c.Currency,
		Frequency:  c.Frequency,
		Message:    c.Message,
		PaymentID:  c.PaymentID,
		Status:     c.Status,
		Country:    c.Country,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
}
