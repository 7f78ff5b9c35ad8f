package http

import (
	"net/http"
	"time"

	"github.com/atvirokodosprendimai/webbudget/internal/adapters/view"
	"github.com/atvirokodosprendimai/webbudget/internal/application"
	"github.com/atvirokodosprendimai/webbudget/internal/domain"
)

type loginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      view.User `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var cred application.Credential
	if err := decodeJSON(w, r, &cred); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.auth.Login(r.Context(), cred)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresAt: result.ExpiresAt,
		User:      view.UserOf(result.User),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		h.writeError(w, r, domain.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, view.UserOf(identity.User))
}

func (h *Handler) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query(), "limit", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.audit.ListAuditLogs(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
