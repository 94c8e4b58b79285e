package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gyanpath/lms-backend/internal/middleware"
	"github.com/gyanpath/lms-backend/internal/models"
	"github.com/gyanpath/lms-backend/internal/services"
	"github.com/gyanpath/lms-backend/internal/store"
	"github.com/gyanpath/lms-backend/pkg/utils"
)

const (
	// Placeholder avatar assigned at registration; replaced best-effort when
	// the user uploads an image.
	defaultAvatarURL = "https://res.cloudinary.com/demo/image/upload/v1674647316/lms/default_avatar.jpg"

	maxUploadSize = 20 << 20 // 20MB
)

type AuthHandler struct {
	users       store.UserStore
	sessions    *services.SessionService
	media       services.MediaUploader
	mailer      services.Mailer
	frontendURL string
}

func NewAuthHandler(users store.UserStore, sessions *services.SessionService, media services.MediaUploader, mailer services.Mailer, frontendURL string) *AuthHandler {
	return &AuthHandler{
		users:       users,
		sessions:    sessions,
		media:       media,
		mailer:      mailer,
		frontendURL: frontendURL,
	}
}

type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a user account and logs it in. Accepts JSON or
// multipart/form-data; the multipart form may carry an "avatar" file which is
// uploaded after the account exists, so a failed upload never blocks
// registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	var avatarFile multipart.File

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		req.FullName = r.FormValue("full_name")
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")

		if file, _, err := r.FormFile("avatar"); err == nil {
			avatarFile = file
			defer file.Close()
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = normalizeEmail(req.Email)

	if req.FullName == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Full name, email and password are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := &models.User{
		FullName: req.FullName,
		Email:    req.Email,
		Password: hashedPassword,
		Role:     models.RoleUser,
		Avatar: models.Media{
			PublicID:  req.Email,
			SecureURL: defaultAvatarURL,
		},
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Email already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	// Best-effort avatar enrichment; the account stays usable with the
	// default avatar if the upload fails.
	if avatarFile != nil && h.media != nil {
		if media, err := h.media.Upload(r.Context(), avatarFile, "lms"); err != nil {
			log.Printf("avatar upload failed for %s: %v", user.Email, err)
		} else if err := h.users.UpdateAvatar(r.Context(), user.ID.Hex(), *media); err != nil {
			log.Printf("avatar update failed for %s: %v", user.Email, err)
		} else {
			user.Avatar = *media
		}
	}

	token, err := h.sessions.Issue(user.ID.Hex(), user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	h.setSessionCookie(w, token)

	writeSuccess(w, http.StatusCreated, "User registered successfully", map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// Login verifies credentials and issues a session token. An unknown email
// and a wrong password produce the same failure.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Email or password does not match")
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !valid {
		writeError(w, http.StatusBadRequest, "Email or password does not match")
		return
	}

	token, err := h.sessions.Issue(user.ID.Hex(), user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	h.setSessionCookie(w, token)

	writeSuccess(w, http.StatusOK, "Logged in successfully", map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// Logout clears the session cookie. Tokens are stateless, so client-side
// discard is the whole mechanism.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})

	writeSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

// GetProfile returns the authenticated user's own record.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please log in to continue")
		return
	}

	user, err := h.users.GetByID(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeSuccess(w, http.StatusOK, "User details", map[string]interface{}{
		"user": user,
	})
}

// UpdateProfile applies the allow-listed profile fields (full name) and
// optionally replaces the avatar. The user is always loaded by the session
// id, never a client-supplied one.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please log in to continue")
		return
	}

	user, err := h.users.GetByID(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	var fullName string
	var avatarFile multipart.File

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		fullName = r.FormValue("full_name")
		if file, _, err := r.FormFile("avatar"); err == nil {
			avatarFile = file
			defer file.Close()
		}
	} else {
		var req struct {
			FullName string `json:"full_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		fullName = req.FullName
	}

	if fullName = strings.TrimSpace(fullName); fullName != "" {
		if err := h.users.UpdateFullName(r.Context(), user.ID.Hex(), fullName); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update profile")
			return
		}
		user.FullName = fullName
	}

	if avatarFile != nil && h.media != nil {
		media, err := h.media.Upload(r.Context(), avatarFile, "lms")
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to upload avatar, please try again")
			return
		}
		old := user.Avatar
		if err := h.users.UpdateAvatar(r.Context(), user.ID.Hex(), *media); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update profile")
			return
		}
		user.Avatar = *media

		// The placeholder avatar is keyed by email and not a real asset.
		if old.PublicID != "" && old.PublicID != user.Email {
			if err := h.media.Destroy(r.Context(), old.PublicID); err != nil {
				log.Printf("failed to destroy old avatar %s: %v", old.PublicID, err)
			}
		}
	}

	writeSuccess(w, http.StatusOK, "Profile updated successfully", map[string]interface{}{
		"user": user,
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
