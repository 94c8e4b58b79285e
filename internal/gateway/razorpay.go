package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com"

// Subscription is the slice of the gateway's subscription entity mirrored
// locally: id plus status ("created", "active", "cancelled", ...).
type Subscription struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	PlanID string `json:"plan_id,omitempty"`
}

// SubscriptionGateway is the payment processor collaborator. Implemented by
// Client against the Razorpay REST API; tests substitute a fake.
type SubscriptionGateway interface {
	CreateSubscription(ctx context.Context) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	ListSubscriptions(ctx context.Context, count int) ([]Subscription, error)
}

// Client talks to the Razorpay REST API using basic auth (key id / secret).
type Client struct {
	keyID      string
	secret     string
	planID     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(keyID, secret, planID string) *Client {
	return &Client{
		keyID:   keyID,
		secret:  secret,
		planID:  planID,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithBaseURL overrides the API endpoint; used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// CreateSubscription creates a gateway subscription on the configured plan.
func (c *Client) CreateSubscription(ctx context.Context) (*Subscription, error) {
	payload := map[string]interface{}{
		"plan_id":         c.planID,
		"customer_notify": 1,
		"total_count":     12,
	}

	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions", payload, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription cancels the subscription and returns its final state.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	path := fmt.Sprintf("/v1/subscriptions/%s/cancel", subscriptionID)

	var sub Subscription
	if err := c.do(ctx, http.MethodPost, path, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubscriptions fetches up to count subscriptions from the gateway.
func (c *Client) ListSubscriptions(ctx context.Context, count int) ([]Subscription, error) {
	if count <= 0 {
		count = 10
	}
	path := fmt.Sprintf("/v1/subscriptions?count=%d", count)

	var result struct {
		Items []Subscription `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.secret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("razorpay request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("razorpay api error: status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// VerifySignature recomputes the HMAC-SHA256 of "paymentID|subscriptionID"
// with the gateway secret and compares it against the supplied hex signature
// in constant time.
func VerifySignature(secret, paymentID, subscriptionID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(paymentID + "|" + subscriptionID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
