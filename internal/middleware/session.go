package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"socialgood/internal/domain"
)

// SessionCookie is the cookie that carries the admin session token.
const SessionCookie = "admin_session"

// SessionTTL bounds how long an admin login stays valid.
const SessionTTL = 8 * time.Hour

const sessionSubject = "admin"

var (
	ErrPasswordNotConfigured = errors.New("admin password not configured")
	ErrInvalidSession        = fmt.Errorf("admin session: %w", domain.ErrUnauthorized)
)

// Sessions issues and verifies HS256 admin session tokens.
type Sessions struct {
	secret []byte
	secure bool
	now    func() time.Time
}

// NewSessions returns a session issuer. An empty secret is replaced with a
// random one, so sessions do not survive a restart.
func NewSessions(secret string, secure bool) (*Sessions, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("session: generate secret: %w", err)
		}
	}
	return &Sessions{secret: key, secure: secure, now: time.Now}, nil
}

// Issue signs a token valid for SessionTTL.
func (s *Sessions) Issue() (string, time.Time, error) {
	now := s.now()
	exp := now.Add(SessionTTL)
	claims := jwt.RegisteredClaims{
		Subject:   sessionSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, expiry and subject.
func (s *Sessions) Verify(raw string) error {
	if raw == "" {
		return ErrInvalidSession
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithSubject(sessionSubject), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return ErrInvalidSession
	}
	return nil
}

// SetCookie starts a session on w.
func (s *Sessions) SetCookie(w http.ResponseWriter) error {
	token, exp, err := s.Issue()
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie ends the session on w.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// AdminSession rejects requests without a valid session cookie.
func AdminSession(s *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil || s.Verify(c.Value) != nil {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PasswordChecker validates the admin password against a bcrypt hash when one
// is configured, otherwise against the plain value.
type PasswordChecker struct {
	Plain string
	Hash  string
}

// Configured reports whether any admin password is set.
func (p PasswordChecker) Configured() bool {
	return p.Plain != "" || p.Hash != ""
}

// Check returns ErrPasswordNotConfigured when nothing is set.
func (p PasswordChecker) Check(candidate string) (bool, error) {
	if !p.Configured() {
		return false, ErrPasswordNotConfigured
	}
	if p.Hash != "" {
		err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(candidate))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("session: compare hash: %w", err)
	}
	return subtle.ConstantTimeCompare([]byte(p.Plain), []byte(candidate)) == 1, nil
}
