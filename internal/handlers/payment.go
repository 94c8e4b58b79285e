package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gyanpath/lms-backend/internal/gateway"
	"github.com/gyanpath/lms-backend/internal/middleware"
	"github.com/gyanpath/lms-backend/internal/models"
	"github.com/gyanpath/lms-backend/internal/store"
)

type PaymentHandler struct {
	users    store.UserStore
	payments store.PaymentStore
	gateway  gateway.SubscriptionGateway
	keyID    string
	secret   string
}

func NewPaymentHandler(users store.UserStore, payments store.PaymentStore, gw gateway.SubscriptionGateway, keyID, secret string) *PaymentHandler {
	return &PaymentHandler{
		users:    users,
		payments: payments,
		gateway:  gw,
		keyID:    keyID,
		secret:   secret,
	}
}

type VerifyPaymentRequest struct {
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
	SubscriptionID string `json:"razorpay_subscription_id"`
}

// Key exposes the publishable gateway key id for the checkout widget.
func (h *PaymentHandler) Key(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "Razorpay API key", map[string]interface{}{
		"key": h.keyID,
	})
}

// Subscribe creates a gateway subscription for the user and mirrors the
// returned id and status verbatim. Admins cannot subscribe.
func (h *PaymentHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if user.Role == models.RoleAdmin {
		writeError(w, http.StatusForbidden, "Admin cannot purchase a subscription")
		return
	}

	sub, err := h.gateway.CreateSubscription(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create subscription, please try again")
		return
	}

	err = h.users.SetSubscription(r.Context(), user.ID.Hex(), models.Subscription{
		ID:     sub.ID,
		Status: sub.Status,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create subscription, please try again")
		return
	}

	writeSuccess(w, http.StatusOK, "Subscribed successfully", map[string]interface{}{
		"subscription_id": sub.ID,
	})
}

// Verify recomputes the payment signature over "paymentID|subscriptionID"
// and, only on a constant-time match, appends the payment record and
// activates the subscription. A mismatch mutates nothing. Re-verifying the
// same payment is a no-op beyond the already-active status.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.PaymentID == "" || req.Signature == "" || req.SubscriptionID == "" {
		writeError(w, http.StatusBadRequest, "Payment id, subscription id and signature are required")
		return
	}

	// The signature binds the payment to the subscription we created for
	// this user, not to whatever subscription id the client sent.
	subscriptionID := user.Subscription.ID
	if subscriptionID == "" {
		writeError(w, http.StatusBadRequest, "No subscription found, please subscribe first")
		return
	}

	if !gateway.VerifySignature(h.secret, req.PaymentID, subscriptionID, req.Signature) {
		writeError(w, http.StatusBadRequest, "Payment not verified, please try again")
		return
	}

	// Ledger write and status transition are sequential; the payment record
	// lands first so an "active without payment" state is never observable.
	err := h.payments.Create(r.Context(), &models.Payment{
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
		SubscriptionID: req.SubscriptionID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record payment, please try again")
		return
	}

	if err := h.users.SetSubscriptionStatus(r.Context(), user.ID.Hex(), models.SubscriptionActive); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to activate subscription, please try again")
		return
	}

	writeSuccess(w, http.StatusOK, "Payment verified successfully", nil)
}

// Unsubscribe cancels the gateway subscription and writes back the status
// the gateway reports. Admins have no subscription to cancel.
func (h *PaymentHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if user.Role == models.RoleAdmin {
		writeError(w, http.StatusForbidden, "Admin cannot cancel a subscription")
		return
	}
	if user.Subscription.ID == "" {
		writeError(w, http.StatusBadRequest, "No active subscription to cancel")
		return
	}

	sub, err := h.gateway.CancelSubscription(r.Context(), user.Subscription.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to cancel subscription, please try again")
		return
	}

	if err := h.users.SetSubscriptionStatus(r.Context(), user.ID.Hex(), sub.Status); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to cancel subscription, please try again")
		return
	}

	writeSuccess(w, http.StatusOK, "Subscription cancelled successfully", nil)
}

// ListAll returns the gateway's recent subscriptions together with the local
// payment ledger. Admin only.
func (h *PaymentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	count := 10
	if v := r.URL.Query().Get("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			count = n
		}
	}

	subs, err := h.gateway.ListSubscriptions(r.Context(), count)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch payments, please try again")
		return
	}

	payments, err := h.payments.List(r.Context(), int64(count))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch payments, please try again")
		return
	}

	writeSuccess(w, http.StatusOK, "All payments", map[string]interface{}{
		"subscriptions": subs,
		"payments":      payments,
	})
}

// currentUser loads the store record behind the verified session. Each
// payment operation reads fresh state, never stale token claims.
func (h *PaymentHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please log in to continue")
		return nil, false
	}

	user, err := h.users.GetByID(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Please log in to continue")
		return nil, false
	}
	return user, true
}
