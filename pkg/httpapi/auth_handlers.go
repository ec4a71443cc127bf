package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bizchat/bizchat/pkg/auth"
	"github.com/bizchat/bizchat/pkg/chatstore"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, req *http.Request) {
	in := registerRequest{}
	if err := readJSON(req, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		h.logger.Error().Err(err).Msg("password hashing failed")
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	user, err := h.store.CreateUser(req.Context(), in.Email, hash)
	if errors.Is(err, chatstore.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("user creation failed")
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	h.logger.Info().Int64("user_id", user.ID).Msg("user registered")
	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt})
}

// handleToken implements the password-grant login form: username + password,
// returning a bearer token. A correlation id header accompanies every issued
// token for log cross-referencing.
func (h *Handler) handleToken(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	email := strings.TrimSpace(req.PostFormValue("username"))
	password := req.PostFormValue("password")

	user, err := h.store.UserByEmail(req.Context(), email)
	if err != nil {
		h.logger.Error().Err(err).Msg("user lookup failed")
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || !auth.VerifyPassword(password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	token, err := h.tokens.Issue(user.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("token issue failed")
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	w.Header().Set("X-Correlation-ID", uuid.NewString())
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}
