package httpapi

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/bizchat/bizchat/pkg/auth"
	"github.com/bizchat/bizchat/pkg/chatstore"
)

type businessRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Services    string `json:"services"`
	Address     string `json:"address,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Hours       string `json:"operating_hours,omitempty"`
}

type businessResponse struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Services    string `json:"services"`
	Address     string `json:"address,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Hours       string `json:"operating_hours,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type activityEntry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

func toBusinessResponse(b *chatstore.Business) businessResponse {
	return businessResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		Name:        b.Name,
		Description: b.Description,
		Services:    b.Services,
		Address:     b.Address,
		Contact:     b.Contact,
		Hours:       b.Hours,
		CreatedAt:   b.CreatedAt,
	}
}

func (in businessRequest) toModel() chatstore.Business {
	return chatstore.Business{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Services:    in.Services,
		Address:     in.Address,
		Contact:     in.Contact,
		Hours:       in.Hours,
	}
}

func (h *Handler) handleCreateBusiness(w http.ResponseWriter, req *http.Request, identity auth.Identity) {
	in := businessRequest{}
	if err := readJSON(req, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	created, err := h.store.CreateBusiness(req.Context(), identity.UserID, in.toModel())
	if errors.Is(err, chatstore.ErrBusinessExists) {
		writeError(w, http.StatusBadRequest, "business profile already exists")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", identity.UserID).Msg("business creation failed")
		writeError(w, http.StatusInternalServerError, "could not create business profile")
		return
	}
	writeJSON(w, http.StatusCreated, toBusinessResponse(created))
}

func (h *Handler) handleGetBusiness(w http.ResponseWriter, req *http.Request, identity auth.Identity) {
	b, err := h.store.BusinessByUser(req.Context(), identity.UserID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", identity.UserID).Msg("business lookup failed")
		writeError(w, http.StatusInternalServerError, "could not load business profile")
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "business not found")
		return
	}
	writeJSON(w, http.StatusOK, toBusinessResponse(b))
}

func (h *Handler) handleUpdateBusiness(w http.ResponseWriter, req *http.Request, identity auth.Identity) {
	in := businessRequest{}
	if err := readJSON(req, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	updated, err := h.store.UpdateBusiness(req.Context(), identity.UserID, in.toModel())
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", identity.UserID).Msg("business update failed")
		writeError(w, http.StatusInternalServerError, "could not update business profile")
		return
	}
	writeJSON(w, http.StatusOK, toBusinessResponse(updated))
}

// handleActivity returns the user's five most recent chat turns, newest
// first, for the dashboard.
func (h *Handler) handleActivity(w http.ResponseWriter, req *http.Request, identity auth.Identity) {
	turns, err := h.store.LatestTurns(req.Context(), identity.UserID, 5)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", identity.UserID).Msg("activity lookup failed")
		writeError(w, http.StatusInternalServerError, "could not load activity")
		return
	}
	entries := make([]activityEntry, 0, len(turns))
	for _, t := range turns {
		entries = append(entries, activityEntry{Role: t.Role, Content: t.Content, Timestamp: t.CreatedAtMs})
	}
	writeJSON(w, http.StatusOK, entries)
}
