package handlers

import (
	"errors"
	"net/http"
	"time"

	"socialgood/internal/domain"
	"socialgood/internal/donation"
	"socialgood/internal/middleware"
)

type submitResponse struct {
	Success    bool    `json:"success"`
	DonationID string  `json:"donationId"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	DonorEmail string  `json:"donorEmail"`
	EmailSent  bool    `json:"emailSent"`
	Message    string  `json:"message"`
}

func (a *App) DonationsSubmit(w http.ResponseWriter, r *http.Request) {
	var req donation.SubmitRequest
	if err := a.decode(w, r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid JSON data in request")
		return
	}
	req.ClientIP = middleware.ClientIP(r)
	req.CountryHint = middleware.CountryHint(r)

	out, err := a.Donations.Submit(r.Context(), req)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			a.error(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, domain.ErrStorage):
			a.Logger.Error().Err(err).Msg("donation: submit persistence failed")
			a.error(w, http.StatusInternalServerError, "Failed to save donation to database")
		default:
			a.Logger.Error().Err(err).Msg("donation: submit failed")
			a.json(w, http.StatusInternalServerError, map[string]string{
				"error":     "Failed to process donation",
				"details":   err.Error(),
				"timestamp": a.now().UTC().Format(time.RFC3339Nano),
			})
		}
		return
	}

	a.json(w, http.StatusOK, submitResponse{
		Success:    true,
		DonationID: out.DonationID,
		Amount:     out.Amount,
		Currency:   out.Currency,
		DonorEmail: out.DonorEmail,
		EmailSent:  out.EmailSent,
		Message:    "Donation processed successfully. Thank you email sent.",
	})
}

func (a *App) DonationsList(w http.ResponseWriter, r *http.Request) {
	records := a.Donations.List(r.Context())
	if records == nil {
		records = []domain.DonationRecord{}
	}
	a.json(w, http.StatusOK, map[string]any{
		"success":   true,
		"donations": records,
		"count":     len(records),
	})
}
