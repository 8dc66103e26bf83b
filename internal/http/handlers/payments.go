package handlers

import (
	"errors"
	"net/http"

	"socialgood/internal/domain"
	"socialgood/internal/donation"
	"socialgood/internal/middleware"
)

type captureResponse struct {
	CaptureID  string  `json:"captureID"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Status     string  `json:"status"`
	DonorEmail string  `json:"donorEmail"`
	OrderID    string  `json:"orderID"`
	DonationID string  `json:"donationId,omitempty"`
	EmailSent  bool    `json:"emailSent"`
	Message    string  `json:"message"`
}

func (a *App) PaymentCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req donation.CreateOrderRequest
	if err := a.decode(w, r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid amount")
		return
	}
	order, err := a.Donations.CreateOrder(r.Context(), req)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			a.error(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, donation.ErrPaymentsUnavailable):
			a.error(w, http.StatusServiceUnavailable, "PayPal is not configured")
		default:
			a.error(w, http.StatusInternalServerError, "Failed to create PayPal order")
		}
		return
	}
	a.json(w, http.StatusOK, order)
}

func (a *App) PaymentCaptureOrder(w http.ResponseWriter, r *http.Request) {
	var req donation.CaptureRequest
	if err := a.decode(w, r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "Order ID is required")
		return
	}
	req.ClientIP = middleware.ClientIP(r)
	req.CountryHint = middleware.CountryHint(r)

	out, err := a.Donations.Capture(r.Context(), req)
	if err != nil {
		var (
			verr *domain.ValidationError
			cerr *donation.CaptureError
		)
		switch {
		case errors.As(err, &verr):
			a.error(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, donation.ErrPaymentsUnavailable):
			a.error(w, http.StatusServiceUnavailable, "PayPal is not configured")
		case errors.As(err, &cerr):
			a.error(w, cerr.Failure.Status, cerr.Failure.Message)
		default:
			a.Logger.Error().Err(err).Msg("donation: capture failed")
			a.error(w, http.StatusInternalServerError, "Failed to capture PayPal payment")
		}
		return
	}

	a.json(w, http.StatusOK, captureResponse{
		CaptureID:  out.CaptureID,
		Amount:     out.Amount,
		Currency:   out.Currency,
		Status:     out.Status,
		DonorEmail: out.DonorEmail,
		OrderID:    out.OrderID,
		DonationID: out.DonationID,
		EmailSent:  out.EmailSent,
		Message:    "Payment captured successfully. Thank you email sent.",
	})
}
