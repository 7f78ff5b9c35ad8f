package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"violations": verr.Violations})
	case errors.Is(err, domain.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
	default:
		h.log.Errorw("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func writeCreated(w http.ResponseWriter, r *http.Request, id string) {
	w.Header().Set("Location", path.Join(r.URL.Path, id))
	w.WriteHeader(http.StatusCreated)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrInvalidInput)
	}
	return nil
}

// pathID reads the {id} segment. A malformed id cannot name a stored row,
// so it is reported as not found.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, nil
}

func parsePageRequest(q url.Values) (domain.PageRequest, error) {
	var req domain.PageRequest
	var err error
	if req.Page, err = queryInt(q, "page", 0); err != nil {
		return req, err
	}
	if req.Page < 0 {
		return req, fmt.Errorf("%w: page must not be negative", domain.ErrInvalidInput)
	}
	if req.Size, err = queryInt(q, "size", domain.DefaultPageSize); err != nil {
		return req, err
	}
	if req.Size < 1 {
		return req, fmt.Errorf("%w: size must be positive", domain.ErrInvalidInput)
	}
	if req.Sort, err = domain.ParseSort(q["sort"]); err != nil {
		return req, err
	}
	req = req.Normalize()
	return req, req.Validate()
}

func queryInt(q url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
	}
	return v, nil
}

func queryFilter(q url.Values) string {
	return strings.TrimSpace(q.Get("filter"))
}
