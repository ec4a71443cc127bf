package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bizchat/bizchat/pkg/auth"
	"github.com/bizchat/bizchat/pkg/chatstore"
)

// Handler exposes the REST surface around the chat gateway: registration,
// login, business profile CRUD and recent activity.
type Handler struct {
	store    *chatstore.Store
	tokens   *auth.TokenService
	verifier *auth.Verifier
	logger   zerolog.Logger
}

func NewHandler(store *chatstore.Store, tokens *auth.TokenService, verifier *auth.Verifier) (*Handler, error) {
	if store == nil {
		return nil, errors.New("httpapi: nil store")
	}
	if tokens == nil {
		return nil, errors.New("httpapi: nil token service")
	}
	if verifier == nil {
		return nil, errors.New("httpapi: nil verifier")
	}
	return &Handler{
		store:    store,
		tokens:   tokens,
		verifier: verifier,
		logger:   log.With().Str("component", "httpapi").Logger(),
	}, nil
}

// Routes mounts all REST handlers on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/token", h.handleToken)
	mux.HandleFunc("POST /business", h.requireUser(h.handleCreateBusiness))
	mux.HandleFunc("GET /business", h.requireUser(h.handleGetBusiness))
	mux.HandleFunc("PUT /business", h.requireUser(h.handleUpdateBusiness))
	mux.HandleFunc("GET /business/activity", h.requireUser(h.handleActivity))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// requireUser resolves the bearer token to an identity before invoking next.
func (h *Handler) requireUser(next func(http.ResponseWriter, *http.Request, auth.Identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		header := req.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		identity, err := h.verifier.VerifyToken(req.Context(), strings.TrimSpace(token))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		next(w, req, identity)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func readJSON(req *http.Request, v any) error {
	defer func() { _ = req.Body.Close() }()
	return json.NewDecoder(req.Body).Decode(v)
}
