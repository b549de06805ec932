package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/harvesthub/harvesthub-api/internal/http/middleware"
	"github.com/harvesthub/harvesthub-api/internal/http/response"
	"github.com/harvesthub/harvesthub-api/internal/observability"
	"github.com/harvesthub/harvesthub-api/internal/payment"
	"github.com/harvesthub/harvesthub-api/internal/repository"
)

const webhookBodyLimit = 1 << 20

type PaymentHandler struct {
	gateways *payment.Gateways
	logger   *slog.Logger
}

func NewPaymentHandler(gateways *payment.Gateways, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{gateways: gateways, logger: logger}
}

func (h *PaymentHandler) CreateRazorpayOrder(w http.ResponseWriter, r *http.Request) {
	if !h.gateways.Razorpay.Configured() {
		response.Error(w, r, http.StatusServiceUnavailable, "Razorpay payment gateway not configured. Please contact support.")
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	var body struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Amount <= 0 {
		response.Error(w, r, http.StatusBadRequest, "Valid amount is required")
		return
	}
	currency := body.Currency
	if currency == "" {
		currency = "INR"
	}

	receipt := fmt.Sprintf("receipt_%d", time.Now().UnixMilli())
	notes := map[string]string{
		"userId":    strconv.FormatUint(uint64(user.ID), 10),
		"userEmail": user.Email,
	}
	order, err := h.gateways.Razorpay.CreateOrder(r.Context(), body.Amount, currency, receipt, notes)
	if err != nil {
		h.logger.Error("razorpay order creation failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "Failed to create Razorpay order")
		return
	}

	observability.Audit(r, "payment.razorpay.order_created", "order_id", order.ID, "user_id", user.ID)
	observability.RecordPaymentEvent(r.Context(), "razorpay", "create_order", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{
		"order_id": order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"key_id":   h.gateways.Razorpay.KeyID(),
	})
}

func (h *PaymentHandler) VerifyRazorpayPayment(w http.ResponseWriter, r *http.Request) {
	if !h.gateways.Razorpay.Configured() {
		response.Error(w, r, http.StatusServiceUnavailable, "Razorpay payment gateway not configured. Please contact support.")
		return
	}
	var body struct {
		RazorpayOrderID   string `json:"razorpay_order_id"`
		RazorpayPaymentID string `json:"razorpay_payment_id"`
		RazorpaySignature string `json:"razorpay_signature"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.RazorpayOrderID == "" || body.RazorpayPaymentID == "" || body.RazorpaySignature == "" {
		response.Error(w, r, http.StatusBadRequest, "Missing required payment verification data")
		return
	}

	if !h.gateways.Razorpay.VerifyPaymentSignature(body.RazorpayOrderID, body.RazorpayPaymentID, body.RazorpaySignature) {
		observability.Audit(r, "payment.razorpay.signature_rejected", "order_id", body.RazorpayOrderID)
		observability.RecordPaymentEvent(r.Context(), "razorpay", "verify", "signature_rejected")
		response.Error(w, r, http.StatusBadRequest, "Invalid payment signature")
		return
	}

	pay, err := h.gateways.Razorpay.FetchPayment(r.Context(), body.RazorpayPaymentID)
	if err != nil {
		h.logger.Error("razorpay payment fetch failed", "error", err, "payment_id", body.RazorpayPaymentID)
		response.Error(w, r, http.StatusInternalServerError, "Payment verification failed")
		return
	}
	if pay.Status != "captured" {
		response.Error(w, r, http.StatusBadRequest, "Payment not successful")
		return
	}

	observability.Audit(r, "payment.razorpay.verified", "payment_id", pay.ID, "order_id", body.RazorpayOrderID)
	observability.RecordPaymentEvent(r.Context(), "razorpay", "verify", "success")
	response.MessageData(w, r, http.StatusOK, "Payment verified successfully", map[string]any{
		"payment_id": body.RazorpayPaymentID,
		"order_id":   body.RazorpayOrderID,
		"amount":     float64(pay.Amount) / 100,
		"status":     pay.Status,
	})
}

func (h *PaymentHandler) CreateStripeIntent(w http.ResponseWriter, r *http.Request) {
	if !h.gateways.Stripe.Configured() {
		response.Error(w, r, http.StatusServiceUnavailable, "Stripe payment gateway not configured. Please contact support.")
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	var body struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Amount <= 0 {
		response.Error(w, r, http.StatusBadRequest, "Valid amount is required")
		return
	}
	currency := body.Currency
	if currency == "" {
		currency = "inr"
	}

	metadata := map[string]string{
		"userId":    strconv.FormatUint(uint64(user.ID), 10),
		"userEmail": user.Email,
	}
	intent, err := h.gateways.Stripe.CreateIntent(r.Context(), body.Amount, currency, metadata)
	if err != nil {
		h.logger.Error("stripe intent creation failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "Failed to create payment intent")
		return
	}

	observability.Audit(r, "payment.stripe.intent_created", "intent_id", intent.ID, "user_id", user.ID)
	observability.RecordPaymentEvent(r.Context(), "stripe", "create_intent", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{
		"client_secret":     intent.ClientSecret,
		"payment_intent_id": intent.ID,
	})
}

func (h *PaymentHandler) ConfirmStripePayment(w http.ResponseWriter, r *http.Request) {
	if !h.gateways.Stripe.Configured() {
		response.Error(w, r, http.StatusServiceUnavailable, "Stripe payment gateway not configured. Please contact support.")
		return
	}
	var body struct {
		PaymentIntentID string `json:"payment_intent_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.PaymentIntentID == "" {
		response.Error(w, r, http.StatusBadRequest, "Payment intent ID is required")
		return
	}

	intent, err := h.gateways.Stripe.RetrieveIntent(r.Context(), body.PaymentIntentID)
	if err != nil {
		h.logger.Error("stripe intent retrieval failed", "error", err, "intent_id", body.PaymentIntentID)
		response.Error(w, r, http.StatusInternalServerError, "Payment confirmation failed")
		return
	}
	if intent.Status != "succeeded" {
		response.Error(w, r, http.StatusBadRequest, "Payment not successful")
		return
	}

	observability.Audit(r, "payment.stripe.confirmed", "intent_id", intent.ID)
	observability.RecordPaymentEvent(r.Context(), "stripe", "confirm", "success")
	response.MessageData(w, r, http.StatusOK, "Payment confirmed successfully", map[string]any{
		"payment_intent_id": body.PaymentIntentID,
		"amount":            float64(intent.Amount) / 100,
		"status":            intent.Status,
	})
}

// StripeWebhook verifies the Stripe-Signature header against the raw body
// before acknowledging. Order state updates land here once orders persist.
func (h *PaymentHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.gateways.Stripe.Configured() {
		response.Error(w, r, http.StatusServiceUnavailable, "Stripe payment gateway not configured")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Could not read webhook body")
		return
	}
	defer r.Body.Close()

	if !h.gateways.Stripe.VerifyWebhookSignature(body, r.Header.Get("Stripe-Signature")) {
		response.Error(w, r, http.StatusBadRequest, "Invalid webhook signature")
		return
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		h.logger.Info("stripe payment succeeded", "intent_id", event.Data.Object.ID)
		observability.RecordPaymentEvent(r.Context(), "stripe", "webhook", "succeeded")
	case "payment_intent.payment_failed":
		h.logger.Warn("stripe payment failed", "intent_id", event.Data.Object.ID)
		observability.RecordPaymentEvent(r.Context(), "stripe", "webhook", "failed")
	default:
		h.logger.Debug("unhandled stripe event", "type", event.Type)
	}

	response.JSON(w, r, http.StatusOK, map[string]any{"received": true})
}

func (h *PaymentHandler) RazorpayWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.gateways.Razorpay.Configured() {
		response.Error(w, r, http.StatusServiceUnavailable, "Razorpay payment gateway not configured")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Could not read webhook body")
		return
	}
	defer r.Body.Close()

	if !h.gateways.Razorpay.VerifyWebhookSignature(body, r.Header.Get("X-Razorpay-Signature")) {
		response.Error(w, r, http.StatusBadRequest, "Invalid webhook signature")
		return
	}

	var event struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					ID string `json:"id"`
				} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	switch event.Event {
	case "payment.captured":
		h.logger.Info("razorpay payment captured", "payment_id", event.Payload.Payment.Entity.ID)
		observability.RecordPaymentEvent(r.Context(), "razorpay", "webhook", "captured")
	case "payment.failed":
		h.logger.Warn("razorpay payment failed", "payment_id", event.Payload.Payment.Entity.ID)
		observability.RecordPaymentEvent(r.Context(), "razorpay", "webhook", "failed")
	default:
		h.logger.Debug("unhandled razorpay event", "event", event.Event)
	}

	response.JSON(w, r, http.StatusOK, map[string]any{"status": "ok"})
}

// ConfirmCOD acknowledges a cash-on-delivery checkout. Payment stays
// pending until collected at the door.
func (h *PaymentHandler) ConfirmCOD(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID string `json:"order_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.OrderID == "" {
		response.Error(w, r, http.StatusBadRequest, "Order ID is required")
		return
	}

	observability.Audit(r, "payment.cod.confirmed", "order_id", body.OrderID)
	observability.RecordPaymentEvent(r.Context(), "cod", "confirm", "pending")
	response.MessageData(w, r, http.StatusOK, "COD order confirmed successfully", map[string]any{
		"order_id":       body.OrderID,
		"payment_method": "cod",
		"payment_status": "pending",
	})
}

// History returns an empty, well-formed page until payment records persist.
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	req := parsePageRequest(r)
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = repository.DefaultPageSize
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"payments": []any{},
		"pagination": pagination{
			Page:  req.Page,
			Limit: req.PageSize,
			Total: 0,
			Pages: 0,
		},
	})
}

func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PaymentID string  `json:"payment_id"`
		Amount    float64 `json:"amount"`
		Reason    string  `json:"reason"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.PaymentID == "" || body.Amount <= 0 {
		response.Error(w, r, http.StatusBadRequest, "Payment ID and amount are required")
		return
	}

	observability.Audit(r, "payment.refund.requested", "payment_id", body.PaymentID, "amount", body.Amount)
	observability.RecordPaymentEvent(r.Context(), "razorpay", "refund", "requested")
	response.MessageData(w, r, http.StatusAccepted, "Refund request accepted", map[string]any{
		"payment_id": body.PaymentID,
		"amount":     body.Amount,
		"status":     "pending",
	})
}
