package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const stripeBaseURL = "https://api.stripe.com/v1"

const placeholderStripeSecret = "test_stripe_secret_key"

type StripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
}

type StripeGateway struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       stripeBaseURL,
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *StripeGateway) Configured() bool {
	return g.secretKey != "" && g.secretKey != placeholderStripeSecret
}

// CreateIntent opens a payment intent. Amount is in rupees; Stripe wants the
// smallest currency unit.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountRupees float64, currency string, metadata map[string]string) (*StripeIntent, error) {
	if !g.Configured() {
		return nil, ErrGatewayNotConfigured
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(int64(amountRupees*100), 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create stripe intent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("create stripe intent: unexpected status %d", resp.StatusCode)
	}
	var intent StripeIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode stripe intent: %w", err)
	}
	return &intent, nil
}

// VerifyWebhookSignature checks a Stripe-Signature header value
// ("t=<ts>,v1=<hex>") against the raw body. The signed payload is
// "<ts>.<body>" under the endpoint secret.
func (g *StripeGateway) VerifyWebhookSignature(body []byte, header string) bool {
	if g.webhookSecret == "" {
		return false
	}
	var timestamp string
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	for _, sig := range candidates {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return true
		}
	}
	return false
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*StripeIntent, error) {
	if !g.Configured() {
		return nil, ErrGatewayNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payment_intents/"+intentID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieve stripe intent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retrieve stripe intent: unexpected status %d", resp.StatusCode)
	}
	var intent StripeIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode stripe intent: %w", err)
	}
	return &intent, nil
}
