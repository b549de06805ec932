package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrGatewayNotConfigured = errors.New("payment gateway not configured")

const razorpayBaseURL = "https://api.razorpay.com/v1"

// Placeholder credentials shipped in sample env files must not count as a
// configured gateway.
const (
	placeholderRazorpayKeyID  = "test_key_id"
	placeholderRazorpaySecret = "test_key_secret"
)

type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type RazorpayPayment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
}

type RazorpayGateway struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

func NewRazorpayGateway(keyID, keySecret, webhookSecret string) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		baseURL:       razorpayBaseURL,
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *RazorpayGateway) Configured() bool {
	return g.keyID != "" && g.keySecret != "" &&
		g.keyID != placeholderRazorpayKeyID && g.keySecret != placeholderRazorpaySecret
}

func (g *RazorpayGateway) KeyID() string { return g.keyID }

// CreateOrder registers an order with Razorpay. Amount is in rupees; the
// wire format wants paise.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountRupees float64, currency, receipt string, notes map[string]string) (*RazorpayOrder, error) {
	if !g.Configured() {
		return nil, ErrGatewayNotConfigured
	}

	payload := map[string]any{
		"amount":   int64(amountRupees * 100),
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode razorpay order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create razorpay order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("create razorpay order: unexpected status %d", resp.StatusCode)
	}
	var order RazorpayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode razorpay order: %w", err)
	}
	return &order, nil
}

func (g *RazorpayGateway) FetchPayment(ctx context.Context, paymentID string) (*RazorpayPayment, error) {
	if !g.Configured() {
		return nil, ErrGatewayNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch razorpay payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch razorpay payment: unexpected status %d", resp.StatusCode)
	}
	var payment RazorpayPayment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("decode razorpay payment: %w", err)
	}
	return &payment, nil
}

// VerifyPaymentSignature checks the checkout callback signature, an
// HMAC-SHA256 of "<order_id>|<payment_id>" under the key secret.
func (g *RazorpayGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return verifyHMAC([]byte(orderID+"|"+paymentID), signature, g.keySecret)
}

func (g *RazorpayGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if g.webhookSecret == "" {
		return false
	}
	return verifyHMAC(body, signature, g.webhookSecret)
}

func verifyHMAC(message []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
