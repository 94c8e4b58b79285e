package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gyanpath/lms-backend/internal/middleware"
	"github.com/gyanpath/lms-backend/internal/store"
	"github.com/gyanpath/lms-backend/pkg/utils"
)

// resetTokenTTL bounds how long a password-reset token stays usable.
const resetTokenTTL = 15 * time.Minute

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ForgotPassword issues a single-use reset token and emails the reset link.
// Only the token's SHA-256 is persisted; if the email cannot be delivered
// the pending token is rolled back so no unusable state lingers.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusNotFound, "Email is not registered")
		return
	}

	rawToken, err := utils.GenerateResetToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate reset token")
		return
	}

	// A repeated request overwrites any pending token; last writer wins.
	expiry := time.Now().Add(resetTokenTTL)
	if err := h.users.SetResetToken(r.Context(), user.ID.Hex(), utils.HashResetToken(rawToken), expiry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate reset token")
		return
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", h.frontendURL, rawToken)
	body := fmt.Sprintf(
		"Hello %s,\n\nYou requested a password reset. Open the link below to choose a new password. The link expires in 15 minutes.\n\n%s\n\nIf you did not request this, you can ignore this email.\n",
		user.FullName, resetURL)

	if err := h.mailer.Send(user.Email, "Reset your password", body); err != nil {
		// Roll back so no undeliverable pending token remains.
		if clearErr := h.users.ClearResetToken(r.Context(), user.ID.Hex()); clearErr != nil {
			writeError(w, http.StatusInternalServerError, "Failed to send reset email, please try again later")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to send reset email, please try again later")
		return
	}

	writeSuccess(w, http.StatusOK, fmt.Sprintf("Reset token has been sent to %s", user.Email), nil)
}

// ResetPassword consumes a reset token. The lookup and the clear happen in
// one conditional update, so a token can be spent exactly once; unknown and
// expired tokens fail identically.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	rawToken := chi.URLParam(r, "resetToken")

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if rawToken == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Reset token and new password are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	_, err = h.users.ConsumeResetToken(r.Context(), utils.HashResetToken(rawToken), hashedPassword, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Reset token is invalid or has expired")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	writeSuccess(w, http.StatusOK, "Password has been reset successfully", nil)
}

// ChangePassword replaces the password after checking the current one.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please log in to continue")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Old and new password are required")
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	user, err := h.users.GetByID(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	valid, err := utils.VerifyPassword(req.OldPassword, user.Password)
	if err != nil || !valid {
		writeError(w, http.StatusBadRequest, "Old password is incorrect")
		return
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to change password")
		return
	}

	if err := h.users.UpdatePassword(r.Context(), user.ID.Hex(), hashedPassword); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to change password")
		return
	}

	writeSuccess(w, http.StatusOK, "Password changed successfully", nil)
}
