package mailer

import (
	"context"

	"socialgood/internal/infra"
)

// Delivery is everything a transport needs to thank one donor.
type Delivery struct {
	To        string
	DonorName string
	Amount    float64
	Currency  string
	Body      string
}

// Sender is one delivery transport.
type Sender interface {
	Name() string
	Send(ctx context.Context, d Delivery) error
}

// Credentials authenticate against the primary transport.
type Credentials struct {
	User     string
	Password string
}

// Configured reports whether both halves are present.
func (c Credentials) Configured() bool {
	return c.User != "" && c.Password != ""
}

// ResolveCredentials reads EMAIL_USER/EMAIL_PASSWORD, then
// GMAIL_USER/GMAIL_APP_PASSWORD.
func ResolveCredentials(lookup func(string) string) Credentials {
	user, pass := infra.MailCredentials(lookup)
	return Credentials{User: user, Password: pass}
}
