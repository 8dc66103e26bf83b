package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"socialgood/internal/content"
	"socialgood/internal/donation"
	"socialgood/internal/middleware"
)

const maxBodyBytes = 1 << 20

// App carries the collaborators every handler needs.
type App struct {
	Donations *donation.Service
	Content   *content.Store
	Sessions  *middleware.Sessions
	Passwords middleware.PasswordChecker
	Metrics   http.Handler
	AppEnv    string
	Logger    zerolog.Logger
	Now       func() time.Time
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// decode reads a JSON body of at most maxBodyBytes into v.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
