package acknowledge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// FormatAmount renders the shortest decimal for an amount: 25, 25.5, 10.25.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// BuildPrompt is the fixed instruction sent to generative providers.
func BuildPrompt(in Thanks) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Write a warm, personalized thank you email to %s for their generous donation of %s %s.\n\n",
		in.DonorName, in.Currency, FormatAmount(in.Amount))
	sb.WriteString("The email should:\n")
	sb.WriteString("- Be warm and personal, addressing them by name\n")
	sb.WriteString("- Thank them specifically for their donation amount\n")
	sb.WriteString("- Explain how their contribution helps our mission (providing clean water, education, and healthcare to communities in need)\n")
	sb.WriteString("- Be encouraging and inspiring\n")
	sb.WriteString("- Keep it under 150 words\n")
	sb.WriteString("- Be written in a friendly, professional tone\n\n")
	sb.WriteString("Format it as a proper email body (no subject line needed).")
	return sb.String()
}

// FallbackBody is the static thank-you letter.
func FallbackBody(name string, amount float64, currency string) string {
	return fmt.Sprintf(`Dear %s,

Thank you so much for your generous donation of %s %s! Your contribution means the world to us and will make a real difference in the lives of those we serve.

Your donation helps us provide clean water, education, and healthcare to communities in need. Every dollar you give brings us closer to our mission of creating lasting positive change.

We're incredibly grateful for supporters like you who make our work possible.

Thank you again for your support!

Warm regards,
The Social Good Fund Team`, salutationName(name), currency, FormatAmount(amount))
}

// salutationName is the donor's name as written; only a blank name becomes "Friend".
func salutationName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "Friend"
}

// StaticProvider renders FallbackBody and never fails.
type StaticProvider struct{}

func (StaticProvider) Name() string { return staticProviderName }

func (StaticProvider) Compose(_ context.Context, in Thanks) (string, error) {
	return FallbackBody(in.DonorName, in.Amount, in.Currency), nil
}

var _ Provider = StaticProvider{}
