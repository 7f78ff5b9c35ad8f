package http

import (
	"net/http"

	"github.com/atvirokodosprendimai/webbudget/internal/adapters/view"
	"github.com/atvirokodosprendimai/webbudget/internal/application"
	"github.com/atvirokodosprendimai/webbudget/internal/domain"
)

func (h *Handler) handleListAuthorities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePageRequest(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.authorities.List(r.Context(), domain.AuthorityFilter{Filter: queryFilter(q)}, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.MapPage(result, view.AuthorityOf))
}

func (h *Handler) handleGetAuthority(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.authorities.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.AuthorityOf(a))
}

func (h *Handler) handleCreateAuthority(w http.ResponseWriter, r *http.Request) {
	var form application.AuthorityForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.authorities.Create(r.Context(), form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAudit(r.Context(), "authority.create", "authority", a.ExternalID.String())
	writeCreated(w, r, a.ExternalID.String())
}

func (h *Handler) handleUpdateAuthority(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var form application.AuthorityForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.authorities.Update(r.Context(), id, form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAudit(r.Context(), "authority.update", "authority", a.ExternalID.String())
	writeJSON(w, http.StatusOK, view.AuthorityOf(a))
}

func (h *Handler) handleDeleteAuthority(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorities.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAudit(r.Context(), "authority.delete", "authority", id.String())
	w.WriteHeader(http.StatusOK)
}
