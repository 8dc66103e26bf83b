package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"socialgood/internal/domain"
)

// ContentPage serves the parsed landing page sections.
func (a *App) ContentPage(w http.ResponseWriter, r *http.Request) {
	if a.Content == nil {
		a.error(w, http.StatusNotFound, "Content not found")
		return
	}
	var (
		page any
		err  error
	)
	switch chi.URLParam(r, "page") {
	case "hero":
		page, err = a.Content.Hero(r.Context())
	case "about":
		page, err = a.Content.About(r.Context())
	case "impact":
		page, err = a.Content.Impact(r.Context())
	default:
		a.error(w, http.StatusNotFound, "Content not found")
		return
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Content not found")
			return
		}
		a.Logger.Error().Err(err).Msg("content: load page failed")
		a.error(w, http.StatusInternalServerError, "Failed to load content")
		return
	}
	a.json(w, http.StatusOK, page)
}
