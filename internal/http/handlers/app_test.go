package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"socialgood/internal/adapter/repo"
	"socialgood/internal/content"
	"socialgood/internal/donation"
	"socialgood/internal/mailer"
	"socialgood/internal/middleware"
	"socialgood/internal/providers/acknowledge"
	"socialgood/internal/providers/paypal"
)

type stubSender struct {
	name  string
	err   error
	calls int
}

func (s *stubSender) Name() string { return s.name }

func (s *stubSender) Send(context.Context, mailer.Delivery) error {
	s.calls++
	return s.err
}

type stubPayments struct {
	capture *paypal.Capture
	err     error
}

func (s *stubPayments) CreateOrder(context.Context, paypal.OrderRequest) (*paypal.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &paypal.Order{ID: "ORDER-1", Status: "CREATED"}, nil
}

func (s *stubPayments) CaptureOrder(context.Context, string) (*paypal.Capture, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.capture, nil
}

type testApp struct {
	app      *App
	store    *repo.DonationFileStore
	payments *stubPayments
	primary  *stubSender
	fallback *stubSender
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	store, err := repo.NewDonationFileStore(filepath.Join(dir, "donations.json"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	ta := &testApp{
		store:    store,
		payments: &stubPayments{},
		primary:  &stubSender{name: "smtp"},
		fallback: &stubSender{name: "outbox"},
	}
	svc, err := donation.NewService(donation.Options{
		Store:        store,
		Acknowledger: acknowledge.NewGenerator(acknowledge.Options{}),
		Deliverer:    mailer.NewDispatcher(mailer.DispatcherOptions{Primary: ta.primary, Fallback: ta.fallback}),
		Payments:     ta.payments,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	pages, err := content.NewStore(filepath.Join(dir, "content"))
	if err != nil {
		t.Fatalf("content store: %v", err)
	}
	sessions, err := middleware.NewSessions("test-secret", false)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	ta.app = &App{
		Donations: svc,
		Content:   pages,
		Sessions:  sessions,
		Passwords: middleware.PasswordChecker{Plain: "letmein"},
		AppEnv:    "test",
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	return ta
}

func do(h http.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestDonationsSubmitSuccess(t *testing.T) {
	ta := newTestApp(t)

	rr := do(ta.app.DonationsSubmit, http.MethodPost, "/donations/submit",
		`{"donorName":"Jane Doe","donorEmail":"jane@example.com","amount":25}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["success"] != true || body["donationId"] == "" || body["currency"] != "USD" {
		t.Fatalf("unexpected body %#v", body)
	}
	if _, ok := body["emailSent"].(bool); !ok {
		t.Fatalf("emailSent missing: %#v", body)
	}
	if body["message"] != "Donation processed successfully. Thank you email sent." {
		t.Fatalf("message = %#v", body["message"])
	}
	if got := len(ta.store.ReadAll(context.Background())); got != 1 {
		t.Fatalf("records = %d, want 1", got)
	}
}

func TestDonationsSubmitRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "blank name", body: `{"donorName":"","donorEmail":"jane@example.com","amount":25}`, wantMsg: "Missing required fields: donorName, donorEmail, and amount are required"},
		{name: "negative amount", body: `{"donorName":"Jane","donorEmail":"jane@example.com","amount":-5}`, wantMsg: "Amount must be greater than 0"},
		{name: "malformed json", body: `{"donorName":`, wantMsg: "Invalid JSON data in request"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ta := newTestApp(t)
			rr := do(ta.app.DonationsSubmit, http.MethodPost, "/donations/submit", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
			}
			if got := decodeBody(t, rr)["error"]; got != tc.wantMsg {
				t.Fatalf("error = %#v, want %q", got, tc.wantMsg)
			}
			if got := len(ta.store.ReadAll(context.Background())); got != 0 {
				t.Fatalf("records = %d, want 0", got)
			}
		})
	}
}

func TestDonationsList(t *testing.T) {
	ta := newTestApp(t)
	rr := do(ta.app.DonationsList, http.MethodGet, "/donations/list", "")
	body := decodeBody(t, rr)
	if body["count"] != float64(0) {
		t.Fatalf("count = %#v", body["count"])
	}
	if list, ok := body["donations"].([]any); !ok || len(list) != 0 {
		t.Fatalf("donations = %#v", body["donations"])
	}

	do(ta.app.DonationsSubmit, http.MethodPost, "/donations/submit",
		`{"donorName":"Jane","donorEmail":"jane@example.com","amount":"10.5"}`)
	body = decodeBody(t, do(ta.app.DonationsList, http.MethodGet, "/donations/list", ""))
	if body["count"] != float64(1) {
		t.Fatalf("count = %#v", body["count"])
	}
}

func TestPaymentCaptureDeclined(t *testing.T) {
	ta := newTestApp(t)
	ta.payments.err = &paypal.APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Name:       "UNPROCESSABLE_ENTITY",
		Issues:     []paypal.Issue{{Issue: "INSTRUMENT_DECLINED"}},
	}

	rr := do(ta.app.PaymentCaptureOrder, http.MethodPost, "/payment/capture-order", `{"orderID":"ORDER-1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	msg, _ := decodeBody(t, rr)["error"].(string)
	if !strings.Contains(msg, "declined") {
		t.Fatalf("error = %q", msg)
	}
	if got := len(ta.store.ReadAll(context.Background())); got != 0 {
		t.Fatalf("records = %d, want 0", got)
	}
	if ta.primary.calls+ta.fallback.calls != 0 {
		t.Fatal("no email expected after a failed capture")
	}
}

func TestPaymentCaptureSuccess(t *testing.T) {
	ta := newTestApp(t)
	ta.payments.capture = &paypal.Capture{CaptureID: "CAP-1", OrderID: "ORDER-1", Amount: 40, Currency: "EUR", Status: "COMPLETED"}

	rr := do(ta.app.PaymentCaptureOrder, http.MethodPost, "/payment/capture-order",
		`{"orderID":"ORDER-1","donorName":"Jane","donorEmail":"jane@example.com"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["captureID"] != "CAP-1" || body["orderID"] != "ORDER-1" || body["donationId"] == nil || body["emailSent"] != true {
		t.Fatalf("unexpected body %#v", body)
	}
}

func TestPaymentCaptureRequiresOrderID(t *testing.T) {
	ta := newTestApp(t)
	rr := do(ta.app.PaymentCaptureOrder, http.MethodPost, "/payment/capture-order", `{}`)
	if rr.Code != http.StatusBadRequest || decodeBody(t, rr)["error"] != "Order ID is required" {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPaymentCreateOrder(t *testing.T) {
	ta := newTestApp(t)

	rr := do(ta.app.PaymentCreateOrder, http.MethodPost, "/payment/create-order", `{"amount":0}`)
	if rr.Code != http.StatusBadRequest || decodeBody(t, rr)["error"] != "Invalid amount" {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(ta.app.PaymentCreateOrder, http.MethodPost, "/payment/create-order", `{"amount":25,"currency":"usd"}`)
	body := decodeBody(t, rr)
	if rr.Code != http.StatusOK || body["orderID"] != "ORDER-1" || body["status"] != "CREATED" {
		t.Fatalf("status = %d body=%#v", rr.Code, body)
	}

	ta.payments.err = errors.New("boom")
	rr = do(ta.app.PaymentCreateOrder, http.MethodPost, "/payment/create-order", `{"amount":25}`)
	if rr.Code != http.StatusInternalServerError || decodeBody(t, rr)["error"] != "Failed to create PayPal order" {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAdminLogin(t *testing.T) {
	ta := newTestApp(t)

	rr := do(ta.app.AdminLogin, http.MethodPost, "/admin/login", `{"password":"wrong"}`)
	if rr.Code != http.StatusUnauthorized || decodeBody(t, rr)["error"] != "Invalid password" {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(ta.app.AdminLogin, http.MethodPost, "/admin/login", `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}

	rr = do(ta.app.AdminLogin, http.MethodPost, "/admin/login", `{"password":"letmein"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.SessionCookie {
		t.Fatalf("cookies = %#v", cookies)
	}
	if err := ta.app.Sessions.Verify(cookies[0].Value); err != nil {
		t.Fatalf("issued cookie does not verify: %v", err)
	}

	ta.app.Passwords = middleware.PasswordChecker{}
	rr = do(ta.app.AdminLogin, http.MethodPost, "/admin/login", `{"password":"letmein"}`)
	if rr.Code != http.StatusInternalServerError || decodeBody(t, rr)["error"] != "ADMIN_PASSWORD not configured" {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAdminContent(t *testing.T) {
	ta := newTestApp(t)

	rr := do(ta.app.AdminContentList, http.MethodGet, "/admin/content", "")
	if rr.Code != http.StatusNotFound || decodeBody(t, rr)["error"] != "Content directory not found" {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(ta.app.AdminContentSave, http.MethodPost, "/admin/content", `{"fileName":"../secret.md","content":"x"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("traversal status = %d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(ta.app.AdminContentSave, http.MethodPost, "/admin/content", `{"fileName":"hero.md","content":"---\ntitle: Hi\n---\nBody"}`)
	if rr.Code != http.StatusOK || decodeBody(t, rr)["message"] != "Content updated successfully" {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(ta.app.AdminContentList, http.MethodGet, "/admin/content", "")
	body := decodeBody(t, rr)
	hero, ok := body["hero.md"].(map[string]any)
	if !ok || !strings.Contains(hero["content"].(string), "title: Hi") {
		t.Fatalf("body = %#v", body)
	}
}

func TestAdminStatsAndExport(t *testing.T) {
	ta := newTestApp(t)
	do(ta.app.DonationsSubmit, http.MethodPost, "/donations/submit",
		`{"donorName":"Jane","donorEmail":"jane@example.com","amount":25}`)

	body := decodeBody(t, do(ta.app.AdminStats, http.MethodGet, "/admin/stats", ""))
	if body["totalDonations"] != float64(1) || body["totalAmount"] != float64(25) {
		t.Fatalf("stats = %#v", body)
	}

	rr := do(ta.app.AdminExport, http.MethodGet, "/admin/donations/export", "")
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "application/zip" {
		t.Fatalf("status = %d headers=%v", rr.Code, rr.Header())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "donations-20240601.zip") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Fatal("expected zip payload")
	}
}

func TestAPITest(t *testing.T) {
	ta := newTestApp(t)
	body := decodeBody(t, do(ta.app.APITestGet, http.MethodGet, "/api/test", ""))
	if body["status"] != "ok" || body["environment"] != "test" {
		t.Fatalf("body = %#v", body)
	}
	body = decodeBody(t, do(ta.app.APITestPost, http.MethodPost, "/api/test", `{"hello":"world"}`))
	data, _ := body["receivedData"].(map[string]any)
	if data["hello"] != "world" {
		t.Fatalf("body = %#v", body)
	}
}

func TestContentPage(t *testing.T) {
	ta := newTestApp(t)
	if err := ta.app.Content.Save(context.Background(), "hero.md", "---\ntitle: Clean water\nsubtitle: For everyone\n---\nJoin us."); err != nil {
		t.Fatalf("Save: %v", err)
	}
	r := chi.NewRouter()
	r.Get("/content/{page}", ta.app.ContentPage)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/content/hero", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["title"] != "Clean water" || body["body"] != "Join us." {
		t.Fatalf("body = %#v", body)
	}

	for _, path := range []string{"/content/about", "/content/unknown"} {
		rr = httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}
}
