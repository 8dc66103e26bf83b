package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/currency"

	"socialgood/internal/infra"
)

const (
	SandboxBaseURL = "https://api-m.sandbox.paypal.com"
	LiveBaseURL    = "https://api-m.paypal.com"

	// ModeLive selects the live environment; anything else is sandbox.
	ModeLive = "live"

	tokenExpirySlack = 60 * time.Second
)

// Options configures the PayPal REST client.
type Options struct {
	ClientID     string
	ClientSecret string
	Mode         string
	BaseURL      string
	HTTPClient   *http.Client
	Logger       *infra.Logger
}

// Client talks to the Orders v2 API with client-credentials OAuth.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
	logger       zerolog.Logger
	now          func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// OrderRequest describes a donation order to create.
type OrderRequest struct {
	Amount     float64
	Currency   string
	DonorName  string
	DonorEmail string
	ReturnURL  string
	CancelURL  string
}

// Order is the subset of a created order returned to the browser.
type Order struct {
	ID     string `json:"orderID"`
	Status string `json:"status"`
}

// Capture is the settled outcome of capturing an order.
type Capture struct {
	CaptureID string
	OrderID   string
	Amount    float64
	Currency  string
	Status    string
}

type money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Amount      money  `json:"amount"`
	Description string `json:"description,omitempty"`
	CustomID    string `json:"custom_id,omitempty"`
}

type applicationContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

type createOrderBody struct {
	Intent             string              `json:"intent"`
	PurchaseUnits      []purchaseUnit      `json:"purchase_units"`
	ApplicationContext *applicationContext `json:"application_context,omitempty"`
}

type orderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Amount money  `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// NewClient requires both client credentials.
func NewClient(opts Options) (*Client, error) {
	id := strings.TrimSpace(opts.ClientID)
	secret := strings.TrimSpace(opts.ClientSecret)
	if id == "" || secret == "" {
		return nil, errors.New("paypal: client id and secret are required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = SandboxBaseURL
		if strings.EqualFold(strings.TrimSpace(opts.Mode), ModeLive) {
			baseURL = LiveBaseURL
		}
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		clientID:     id,
		clientSecret: secret,
		baseURL:      baseURL,
		httpClient:   client,
		logger:       infra.OrDiscard(opts.Logger),
		now:          time.Now,
	}, nil
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string { return c.baseURL }

// CreateOrder creates a CAPTURE-intent order with one purchase unit.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Currency))
	if code == "" {
		code = "USD"
	}
	name := strings.TrimSpace(req.DonorName)
	if name == "" {
		name = "Anonymous"
	}
	email := strings.TrimSpace(req.DonorEmail)
	if email == "" {
		email = "anonymous@example.com"
	}
	body := createOrderBody{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount:      money{CurrencyCode: code, Value: FormatValue(req.Amount, code)},
			Description: "Donation from " + name,
			CustomID:    email,
		}},
	}
	if req.ReturnURL != "" || req.CancelURL != "" {
		body.ApplicationContext = &applicationContext{ReturnURL: req.ReturnURL, CancelURL: req.CancelURL}
	}

	var out orderResponse
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", body, &out); err != nil {
		return nil, err
	}
	c.logger.Info().Str("order_id", out.ID).Str("status", out.Status).Msg("paypal: order created")
	return &Order{ID: out.ID, Status: out.Status}, nil
}

// CaptureOrder captures a previously approved order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errors.New("paypal: order id is required")
	}
	var out orderResponse
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &out); err != nil {
		return nil, err
	}
	if len(out.PurchaseUnits) == 0 || len(out.PurchaseUnits[0].Payments.Captures) == 0 {
		return nil, fmt.Errorf("paypal: capture response for %s has no captures", orderID)
	}
	captured := out.PurchaseUnits[0].Payments.Captures[0]
	amount, err := strconv.ParseFloat(captured.Amount.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("paypal: parse capture amount %q: %w", captured.Amount.Value, err)
	}
	c.logger.Info().
		Str("order_id", out.ID).
		Str("capture_id", captured.ID).
		Str("status", out.Status).
		Msg("paypal: order captured")
	return &Capture{
		CaptureID: captured.ID,
		OrderID:   out.ID,
		Amount:    amount,
		Currency:  captured.Amount.CurrencyCode,
		Status:    out.Status,
	}, nil
}

// FormatValue renders amount with the minor-unit scale of an ISO 4217 code
// (JPY 0, USD 2, KWD 3). Unrecognised codes use two decimals.
func FormatValue(amount float64, code string) string {
	scale := 2
	if unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code))); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
	}
	return strconv.FormatFloat(amount, 'f', scale, 64)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return fmt.Errorf("paypal: encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("paypal: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.resetToken()
		}
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("paypal: decode response: %w", err)
	}
	return nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("paypal: build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal: token request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", decodeAPIError(resp)
	}
	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("paypal: decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("paypal: empty access token")
	}
	ttl := time.Duration(tok.ExpiresIn)*time.Second - tokenExpirySlack
	if ttl <= 0 {
		ttl = time.Minute
	}
	c.token = tok.AccessToken
	c.tokenExpiry = c.now().Add(ttl)
	c.logger.Debug().Dur("ttl", ttl).Msg("paypal: access token refreshed")
	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Name    string  `json:"name"`
		Message string  `json:"message"`
		DebugID string  `json:"debug_id"`
		Details []Issue `json:"details"`
		// OAuth endpoints use a different shape.
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Name = body.Name
		apiErr.Message = body.Message
		apiErr.DebugID = body.DebugID
		apiErr.Issues = body.Details
		if apiErr.Name == "" {
			apiErr.Name = body.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = body.ErrorDescription
		}
	} else if msg := strings.TrimSpace(string(data)); msg != "" {
		apiErr.Message = msg
	}
	return apiErr
}
