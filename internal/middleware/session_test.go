package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestSessionsIssueVerify(t *testing.T) {
	s, err := NewSessions("test-secret", false)
	if err != nil {
		t.Fatalf("NewSessions: %v", err)
	}
	token, exp, err := s.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if d := time.Until(exp); d < SessionTTL-time.Minute || d > SessionTTL {
		t.Fatalf("unexpected expiry %v", exp)
	}
	if err := s.Verify(token); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	other, _ := NewSessions("other-secret", false)
	if err := other.Verify(token); err == nil {
		t.Fatal("expected signature mismatch")
	}
	if err := s.Verify(""); err == nil {
		t.Fatal("expected empty token to fail")
	}
}

func TestSessionsExpired(t *testing.T) {
	s, _ := NewSessions("test-secret", false)
	issued := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	token, _, err := s.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	s.now = func() time.Time { return issued.Add(SessionTTL + time.Minute) }
	if err := s.Verify(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestSessionsRandomSecret(t *testing.T) {
	a, _ := NewSessions("", false)
	b, _ := NewSessions("", false)
	token, _, _ := a.Issue()
	if err := b.Verify(token); err == nil {
		t.Fatal("expected per-process secrets to differ")
	}
}

func TestAdminSessionMiddleware(t *testing.T) {
	s, _ := NewSessions("test-secret", true)
	h := AdminSession(s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no cookie code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	login := httptest.NewRecorder()
	if err := s.SetCookie(login); err != nil {
		t.Fatalf("SetCookie: %v", err)
	}
	cookies := login.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookie || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie %+v", c)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with cookie code = %d", rec.Code)
	}

	bad := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	bad.AddCookie(&http.Cookie{Name: SessionCookie, Value: "garbage"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, bad)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad cookie code = %d", rec.Code)
	}
}

func TestClearCookie(t *testing.T) {
	s, _ := NewSessions("x", false)
	rec := httptest.NewRecorder()
	s.ClearCookie(rec)
	c := rec.Result().Cookies()
	if len(c) != 1 || c[0].MaxAge >= 0 || c[0].Value != "" {
		t.Fatalf("unexpected cookie %+v", c)
	}
}

func TestPasswordChecker(t *testing.T) {
	if _, err := (PasswordChecker{}).Check("x"); err != ErrPasswordNotConfigured {
		t.Fatalf("expected ErrPasswordNotConfigured, got %v", err)
	}

	plain := PasswordChecker{Plain: "hunter2"}
	if ok, _ := plain.Check("hunter2"); !ok {
		t.Fatal("expected plain match")
	}
	if ok, _ := plain.Check("hunter3"); ok {
		t.Fatal("expected plain mismatch")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hashed := PasswordChecker{Plain: "ignored", Hash: string(hash)}
	if ok, err := hashed.Check("s3cret"); !ok || err != nil {
		t.Fatalf("expected hash match, ok=%v err=%v", ok, err)
	}
	if ok, err := hashed.Check("ignored"); ok || err != nil {
		t.Fatalf("expected hash mismatch, ok=%v err=%v", ok, err)
	}

	broken := PasswordChecker{Hash: "not-a-hash"}
	if _, err := broken.Check("x"); err == nil {
		t.Fatal("expected malformed hash error")
	}
}
