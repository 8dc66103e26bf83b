package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"socialgood/internal/content"
	"socialgood/internal/domain"
)

type loginRequest struct {
	Password string `json:"password"`
}

type saveContentRequest struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

func (a *App) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decode(w, r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "Bad request")
		return
	}
	if !a.Passwords.Configured() {
		a.error(w, http.StatusInternalServerError, "ADMIN_PASSWORD not configured")
		return
	}
	ok, err := a.Passwords.Check(req.Password)
	if err != nil {
		a.Logger.Error().Err(err).Msg("admin: password check failed")
		a.error(w, http.StatusInternalServerError, "ADMIN_PASSWORD not configured")
		return
	}
	if req.Password == "" || !ok {
		a.Logger.Warn().Str("ip", r.RemoteAddr).Msg("admin: invalid password")
		a.error(w, http.StatusUnauthorized, "Invalid password")
		return
	}
	if err := a.Sessions.SetCookie(w); err != nil {
		a.Logger.Error().Err(err).Msg("admin: issue session failed")
		a.error(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *App) AdminLogout(w http.ResponseWriter, r *http.Request) {
	a.Sessions.ClearCookie(w)
	a.json(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *App) AdminStats(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Donations.Stats(r.Context()))
}

func (a *App) AdminContentList(w http.ResponseWriter, r *http.Request) {
	if a.Content == nil {
		a.error(w, http.StatusNotFound, "Content directory not found")
		return
	}
	files, err := a.Content.List(r.Context())
	if err != nil {
		if errors.Is(err, content.ErrDirectoryMissing) {
			a.error(w, http.StatusNotFound, "Content directory not found")
			return
		}
		a.Logger.Error().Err(err).Msg("admin: load content failed")
		a.error(w, http.StatusInternalServerError, "Failed to load content")
		return
	}
	a.json(w, http.StatusOK, files)
}

func (a *App) AdminContentSave(w http.ResponseWriter, r *http.Request) {
	var req saveContentRequest
	if err := a.decode(w, r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "fileName and content are required")
		return
	}
	if a.Content == nil {
		a.error(w, http.StatusInternalServerError, "Failed to save content")
		return
	}
	if err := a.Content.Save(r.Context(), req.FileName, req.Content); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			a.error(w, http.StatusBadRequest, verr.Message)
			return
		}
		a.Logger.Error().Err(err).Str("file", req.FileName).Msg("admin: save content failed")
		a.error(w, http.StatusInternalServerError, "Failed to save content")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Content updated successfully",
	})
}

func (a *App) AdminExport(w http.ResponseWriter, r *http.Request) {
	data, err := a.Donations.Export(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("admin: export failed")
		a.error(w, http.StatusInternalServerError, "Failed to export donations")
		return
	}
	name := fmt.Sprintf("donations-%s.zip", a.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
