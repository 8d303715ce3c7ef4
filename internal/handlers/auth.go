package handlers

import (
	"net/http"

	"github.com/vidupload/backend/internal/auth"
	"github.com/vidupload/backend/internal/logging"
	"github.com/vidupload/backend/internal/models"
)

// AuthHandler implements the account and session endpoints.
type AuthHandler struct {
	Accounts Accounts
	Tokens   TokenIssuer
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,contains=@,max=320"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Code    int                `json:"code"`
	Message string             `json:"message"`
	Data    models.AccessToken `json:"data"`
}

const tokenTypeBearer = "bearer"

// Register handles POST /auth/register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Accounts.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logging.FromContext(ctx).Info("user registered", "userId", user.ID)
	respondJSON(ctx, w, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Accounts.Verify(ctx, req.Username, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	token, err := h.Tokens.Issue(user.Username)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, loginResponse{
		Code:    http.StatusOK,
		Message: "Login successful",
		Data:    models.AccessToken{AccessToken: token, TokenType: tokenTypeBearer},
	})
}

// Refresh handles POST /auth/refresh, exchanging a valid bearer token for a fresh one.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	current, err := auth.ExtractBearer(r.Header.Get("Authorization"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	token, err := h.Tokens.Refresh(current)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, models.AccessToken{AccessToken: token, TokenType: tokenTypeBearer})
}

// Me handles GET /auth/me.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, caller)
}
