package http

import (
	"net/http"

	"github.com/atvirokodosprendimai/webbudget/internal/adapters/view"
	"github.com/atvirokodosprendimai/webbudget/internal/application"
	"github.com/atvirokodosprendimai/webbudget/internal/domain"
)

func (h *Handler) handleListCostCenters(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.costCenters.List(r.Context(), domain.CostCenterFilter{Filter: queryFilter(q), Status: status}, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.MapPage(result, view.CostCenterOf))
}

func (h *Handler) handleGetCostCenter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.costCenters.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.CostCenterOf(c))
}

func (h *Handler) handleCreateCostCenter(w http.ResponseWriter, r *http.Request) {
	var form application.CostCenterForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.costCenters.Create(r.Context(), form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAudit(r.Context(), "cost_center.create", "cost_center", c.ExternalID.String())
	writeCreated(w, r, c.ExternalID.String())
}

func (h *Handler) handleUpdateCostCenter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var form application.CostCenterForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.costCenters.Update(r.Context(), id, form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAudit(r.Context(), "cost_center.update", "cost_center", c.ExternalID.String())
	writeJSON(w, http.StatusOK, view.CostCenterOf(c))
}

func (h *Handler) handleDeleteCostCenter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.costCenters.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAudit(r.Context(), "cost_center.delete", "cost_center", id.String())
	w.WriteHeader(http.StatusOK)
}
