package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type fakePayPal struct {
	tokenCalls atomic.Int32
	lastOrder  createOrderBody
	capture    func(w http.ResponseWriter, orderID string)
}

func (f *fakePayPal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"Client Authentication failed"}`))
			return
		}
		f.tokenCalls.Add(1)
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":32400}`))
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&f.lastOrder); err != nil {
			t.Errorf("decode order: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"CREATED"}`))
	})
	mux.HandleFunc("/v2/checkout/orders/", func(w http.ResponseWriter, r *http.Request) {
		orderID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v2/checkout/orders/"), "/capture")
		f.capture(w, orderID)
	})
	return mux
}

func newTestClient(t *testing.T, f *fakePayPal) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	client, err := NewClient(Options{ClientID: "id", ClientSecret: "secret", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestNewClientSelectsEnvironment(t *testing.T) {
	if _, err := NewClient(Options{ClientID: "id"}); err == nil {
		t.Fatal("expected error without secret")
	}
	sandbox, _ := NewClient(Options{ClientID: "id", ClientSecret: "s"})
	if sandbox.BaseURL() != SandboxBaseURL {
		t.Fatalf("default base = %s", sandbox.BaseURL())
	}
	live, _ := NewClient(Options{ClientID: "id", ClientSecret: "s", Mode: "LIVE"})
	if live.BaseURL() != LiveBaseURL {
		t.Fatalf("live base = %s", live.BaseURL())
	}
}

func TestCreateOrderDefaults(t *testing.T) {
	f := &fakePayPal{}
	client := newTestClient(t, f)

	order, err := client.CreateOrder(context.Background(), OrderRequest{
		Amount:    25,
		ReturnURL: "http://localhost/donation/success",
		CancelURL: "http://localhost/donation/cancel",
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if order.ID != "ORDER-1" || order.Status != "CREATED" {
		t.Fatalf("order = %#v", order)
	}
	unit := f.lastOrder.PurchaseUnits[0]
	if f.lastOrder.Intent != "CAPTURE" || unit.Amount.Value != "25.00" || unit.Amount.CurrencyCode != "USD" {
		t.Fatalf("order body = %#v", f.lastOrder)
	}
	if unit.Description != "Donation from Anonymous" || unit.CustomID != "anonymous@example.com" {
		t.Fatalf("purchase unit = %#v", unit)
	}
	if f.lastOrder.ApplicationContext == nil || f.lastOrder.ApplicationContext.ReturnURL != "http://localhost/donation/success" {
		t.Fatalf("application context = %#v", f.lastOrder.ApplicationContext)
	}
}

func TestTokenIsCached(t *testing.T) {
	f := &fakePayPal{}
	client := newTestClient(t, f)
	for i := 0; i < 3; i++ {
		if _, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 5, DonorName: "Jane"}); err != nil {
			t.Fatalf("CreateOrder returned error: %v", err)
		}
	}
	if got := f.tokenCalls.Load(); got != 1 {
		t.Fatalf("token calls = %d, want 1", got)
	}
}

func TestCaptureOrder(t *testing.T) {
	f := &fakePayPal{capture: func(w http.ResponseWriter, orderID string) {
		fmt.Fprintf(w, `{"id":%q,"status":"COMPLETED","purchase_units":[{"payments":{"captures":[{"id":"CAP-9","status":"COMPLETED","amount":{"currency_code":"EUR","value":"40.50"}}]}}]}`, orderID)
	}}
	client := newTestClient(t, f)

	captured, err := client.CaptureOrder(context.Background(), "ORDER-7")
	if err != nil {
		t.Fatalf("CaptureOrder returned error: %v", err)
	}
	want := Capture{CaptureID: "CAP-9", OrderID: "ORDER-7", Amount: 40.5, Currency: "EUR", Status: "COMPLETED"}
	if *captured != want {
		t.Fatalf("capture = %#v, want %#v", *captured, want)
	}
}

func TestCaptureOrderDeclined(t *testing.T) {
	f := &fakePayPal{capture: func(w http.ResponseWriter, _ string) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","message":"The requested action could not be performed.","debug_id":"abc","details":[{"issue":"INSTRUMENT_DECLINED","description":"declined"}]}`))
	}}
	client := newTestClient(t, f)

	_, err := client.CaptureOrder(context.Background(), "ORDER-7")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity || !apiErr.HasIssue("INSTRUMENT_DECLINED") {
		t.Fatalf("apiErr = %#v", apiErr)
	}
	if !strings.Contains(err.Error(), "INSTRUMENT_DECLINED") {
		t.Fatalf("error text = %q", err.Error())
	}
	if got := ClassifyCaptureError(err); got.Kind != FailureDeclined || got.Status != http.StatusBadRequest {
		t.Fatalf("classification = %#v", got)
	}
}

func TestCaptureOrderRequiresID(t *testing.T) {
	client := newTestClient(t, &fakePayPal{})
	if _, err := client.CaptureOrder(context.Background(), " "); err == nil {
		t.Fatal("expected error for blank order id")
	}
}

func TestBadCredentials(t *testing.T) {
	srv := httptest.NewServer((&fakePayPal{}).handler(t))
	t.Cleanup(srv.Close)
	client, err := NewClient(Options{ClientID: "id", ClientSecret: "wrong", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = client.CreateOrder(context.Background(), OrderRequest{Amount: 1})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Name != "invalid_client" {
		t.Fatalf("error = %v", err)
	}
}

func TestClassifyCaptureError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
		code int
		msg  string
	}{
		{"declined text", errors.New("INSTRUMENT_DECLINED"), FailureDeclined, 400, "Payment method was declined. Please try a different payment method or contact your bank."},
		{"funds", fmt.Errorf("wrapped: %w", &APIError{StatusCode: 422, Issues: []Issue{{Issue: "INSUFFICIENT_FUNDS"}}}), FailureInsufficientFunds, 400, "Insufficient funds. Please check your account balance or try a different payment method."},
		{"payer action", &APIError{StatusCode: 422, Name: "PAYER_ACTION_REQUIRED"}, FailurePayerActionRequired, 400, "Additional verification required. Please complete the payment process."},
		{"not approved", errors.New("paypal: status 422 [ORDER_NOT_APPROVED]"), FailureOrderNotApproved, 400, "Payment was not approved. Please try again."},
		{"first rule wins", errors.New("INSUFFICIENT_FUNDS then INSTRUMENT_DECLINED"), FailureDeclined, 400, "Payment method was declined. Please try a different payment method or contact your bank."},
		{"generic", errors.New("network timeout"), FailureGeneric, 500, "Failed to capture PayPal payment"},
		{"nil", nil, FailureGeneric, 500, "Failed to capture PayPal payment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCaptureError(tt.err)
			if got.Kind != tt.kind || got.Status != tt.code || got.Message != tt.msg {
				t.Fatalf("ClassifyCaptureError = %#v", got)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		amount float64
		code   string
		want   string
	}{
		{10, "USD", "10.00"},
		{10.5, "eur", "10.50"},
		{1500, "JPY", "1500"},
		{1.25, "KWD", "1.250"},
		{7, "BTC", "7.00"},
		{7, "", "7.00"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.amount, tt.code); got != tt.want {
			t.Fatalf("FormatValue(%v, %q) = %q, want %q", tt.amount, tt.code, got, tt.want)
		}
	}
}
