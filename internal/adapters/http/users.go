package http

import (
	"net/http"
	"net/url"
	"path"

	"github.com/atvirokodosprendimai/webbudget/internal/adapters/view"
	"github.com/atvirokodosprendimai/webbudget/internal/application"
	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePageRequest(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status, err := domain.ParseStatusFilter(q.Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.users.List(r.Context(), domain.UserFilter{Filter: queryFilter(q), Status: status}, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.MapPage(result, view.UserOf))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.UserOf(u))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var form application.UserForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.users.Create(r.Context(), form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAudit(r.Context(), "user.create", "user", u.ExternalID.String())
	writeCreated(w, r, u.ExternalID.String())
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var form application.UserForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.users.Update(r.Context(), id, form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAudit(r.Context(), "user.update", "user", u.ExternalID.String())
	writeJSON(w, http.StatusOK, view.UserOf(u))
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAudit(r.Context(), "user.delete", "user", id.String())
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var form application.PasswordForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), id, form); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAudit(r.Context(), "user.password", "user", id.String())
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleListGrants(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	grants, err := h.users.ListGrants(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Grants(grants))
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var form application.GrantForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h.users.Grant(r.Context(), id, form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAudit(r.Context(), "user.grant", "user", id.String())
	writeCreated(w, r, url.PathEscape(g.Authority.Name))
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	authority := chi.URLParam(r, "authority")
	if err := h.users.Revoke(r.Context(), id, authority); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAudit(r.Context(), "user.revoke", "user", path.Join(id.String(), authority))
	w.WriteHeader(http.StatusOK)
}
