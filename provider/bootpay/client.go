package bootpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	readme "github.com/readmecorp/readme-server"
)

// DefaultBaseURL is the production Bootpay REST endpoint.
const DefaultBaseURL = "https://api.bootpay.co.kr/v2"

// Config holds the Bootpay application credentials.
type Config struct {
	// BaseURL overrides the API endpoint (optional).
	BaseURL string

	// ApplicationID identifies the Bootpay application.
	ApplicationID string

	// PrivateKey authorizes server side API calls.
	PrivateKey string

	// HTTPClient overrides the transport (optional).
	HTTPClient *http.Client
}

func (c Config) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

// Client talks to the Bootpay billing API. It implements
// readme.PaymentGateway for recurring membership charges.
type Client struct {
	config Config
	http   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a gateway client for the configured application.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ApplicationID == "" || cfg.PrivateKey == "" {
		return nil, fmt.Errorf("bootpay: application id and private key are required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		config: cfg,
		http:   httpClient,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiredAt   int64  `json:"expired_at"`
}

type billingResponse struct {
	BillingKey string `json:"billing_key"`
	ReceiptID  string `json:"receipt_id"`
	Message    string `json:"message"`
}

// RegisterRecurring registers a recurring charge for the plan and returns
// the billing key Bootpay hands back. The key is the only handle needed to
// cancel the subscription later.
func (c *Client) RegisterRecurring(ctx context.Context, user *readme.User, plan *readme.Membership) (string, error) {
	if user == nil || plan == nil {
		return "", goerrors.New("user and plan are required", goerrors.CategoryBadInput)
	}

	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"order_name": plan.Name,
		"order_id":   user.ID.String(),
		"price":      plan.Price,
		"user": map[string]any{
			"id":       user.ID.String(),
			"username": user.Username,
		},
	}

	var res billingResponse
	if err := c.do(ctx, http.MethodPost, "/request/subscribe", token, payload, &res); err != nil {
		return "", err
	}

	ref := res.BillingKey
	if ref == "" {
		ref = res.ReceiptID
	}
	if ref == "" {
		return "", goerrors.New("billing registration returned no reference", goerrors.CategoryExternal).
			WithMetadata(map[string]any{"message": res.Message})
	}

	return ref, nil
}

// CancelRecurring revokes a previously registered billing key.
func (c *Client) CancelRecurring(ctx context.Context, billingRef string) error {
	if billingRef == "" {
		return goerrors.New("billing reference is required", goerrors.CategoryBadInput)
	}

	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	path := "/subscribe/billing_key/" + url.PathEscape(billingRef)
	return c.do(ctx, http.MethodDelete, path, token, nil, nil)
}

// token returns a cached access token, requesting a fresh one when the
// cached one is missing or about to expire.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Add(time.Minute).Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	payload := map[string]any{
		"application_id": c.config.ApplicationID,
		"private_key":    c.config.PrivateKey,
	}

	var res tokenResponse
	if err := c.do(ctx, http.MethodPost, "/request/token", "", payload, &res); err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", goerrors.New("token request returned no access token", goerrors.CategoryExternal)
	}

	c.accessToken = res.AccessToken
	c.tokenExpiry = time.Unix(res.ExpiredAt, 0)
	if res.ExpiredAt == 0 {
		c.tokenExpiry = time.Now().Add(30 * time.Minute)
	}

	return c.accessToken, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode gateway request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.baseURL()+path, body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "gateway request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return goerrors.New("gateway returned an error response", goerrors.CategoryExternal).
			WithMetadata(map[string]any{
				"status": res.StatusCode,
				"path":   path,
				"body":   string(raw),
			})
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to decode gateway response")
	}

	return nil
}

var _ readme.PaymentGateway = (*Client)(nil)
