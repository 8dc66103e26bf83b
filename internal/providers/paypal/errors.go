package paypal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Issue is one entry of an API error's details array.
type Issue struct {
	Field       string `json:"field,omitempty"`
	Issue       string `json:"issue"`
	Description string `json:"description,omitempty"`
}

// APIError is a non-2xx answer from PayPal.
type APIError struct {
	StatusCode int
	Name       string
	Message    string
	DebugID    string
	Issues     []Issue
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "paypal: status %d", e.StatusCode)
	if e.Name != "" {
		b.WriteString(" ")
		b.WriteString(e.Name)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for i, issue := range e.Issues {
		if i == 0 {
			b.WriteString(" [")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(issue.Issue)
		if i == len(e.Issues)-1 {
			b.WriteString("]")
		}
	}
	if e.DebugID != "" {
		b.WriteString(" debug_id=")
		b.WriteString(e.DebugID)
	}
	return b.String()
}

// HasIssue reports whether code appears as the error name or an issue.
func (e *APIError) HasIssue(code string) bool {
	if strings.EqualFold(e.Name, code) {
		return true
	}
	for _, issue := range e.Issues {
		if strings.EqualFold(issue.Issue, code) {
			return true
		}
	}
	return false
}

// Capture failure kinds.
const (
	FailureDeclined            = "declined"
	FailureInsufficientFunds   = "insufficient_funds"
	FailurePayerActionRequired = "payer_action_required"
	FailureOrderNotApproved    = "order_not_approved"
	FailureGeneric             = "generic"
)

// CaptureFailure is the caller-facing classification of a capture error.
type CaptureFailure struct {
	Kind    string
	Status  int
	Message string
}

var captureRules = []struct {
	code    string
	failure CaptureFailure
}{
	{"INSTRUMENT_DECLINED", CaptureFailure{FailureDeclined, http.StatusBadRequest, "Payment method was declined. Please try a different payment method or contact your bank."}},
	{"INSUFFICIENT_FUNDS", CaptureFailure{FailureInsufficientFunds, http.StatusBadRequest, "Insufficient funds. Please check your account balance or try a different payment method."}},
	{"PAYER_ACTION_REQUIRED", CaptureFailure{FailurePayerActionRequired, http.StatusBadRequest, "Additional verification required. Please complete the payment process."}},
	{"ORDER_NOT_APPROVED", CaptureFailure{FailureOrderNotApproved, http.StatusBadRequest, "Payment was not approved. Please try again."}},
}

// ClassifyCaptureError maps a capture error onto a user-facing failure. The
// first matching rule wins; the error text is searched so wrapped errors
// from any source classify the same way.
func ClassifyCaptureError(err error) CaptureFailure {
	generic := CaptureFailure{Kind: FailureGeneric, Status: http.StatusInternalServerError, Message: "Failed to capture PayPal payment"}
	if err == nil {
		return generic
	}
	var apiErr *APIError
	hasAPIErr := errors.As(err, &apiErr)
	text := err.Error()
	for _, rule := range captureRules {
		if (hasAPIErr && apiErr.HasIssue(rule.code)) || strings.Contains(text, rule.code) {
			return rule.failure
		}
	}
	return generic
}
