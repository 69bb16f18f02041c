package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/PatronScore/pkg/httputil"
)

// CustomerHandler serves reputation profiles.
type CustomerHandler struct {
	service ReputationService
	logger  *slog.Logger
}

// NewCustomerHandler creates a new customer HTTP handler.
func NewCustomerHandler(svc ReputationService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{service: svc, logger: logger}
}

// Lookup handles GET /api/v1/customers/lookup?phone=. The number is hashed
// by the service and never logged.
func (h *CustomerHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Lookup(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: profile})
}

// GetProfile handles GET /api/v1/customers/{id}/profile.
func (h *CustomerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	profile, err := h.service.ProfileByCustomerID(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: profile})
}
