package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/PatronScore/internal/domain"
	"github.com/utafrali/PatronScore/internal/repository"
	"github.com/utafrali/PatronScore/internal/service"
	"github.com/utafrali/PatronScore/pkg/httputil"
	"github.com/utafrali/PatronScore/pkg/pagination"
	"github.com/utafrali/PatronScore/pkg/validator"
)

// ReputationService is the service surface the HTTP layer needs. It is
// satisfied by *service.ReputationService.
type ReputationService interface {
	Lookup(ctx context.Context, phone string) (*domain.ReputationProfile, error)
	ProfileByCustomerID(ctx context.Context, customerID string) (*domain.ReputationProfile, error)
	SubmitReview(ctx context.Context, input service.SubmitReviewInput) (*domain.Review, error)
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	UpdateReview(ctx context.Context, id string, input service.UpdateReviewInput) (*domain.Review, error)
	DeleteReview(ctx context.Context, id string) error
	ListReviewsByBusiness(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error)
	Share(ctx context.Context, reviewID string) (*domain.PublishResult, error)
}

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service ReputationService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc ReputationService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for submitting a review.
// Omitted dimension ratings default to the overall rating.
type CreateReviewRequest struct {
	Phone        string  `json:"phone" validate:"required,phone10"`
	DisplayName  *string `json:"display_name" validate:"omitempty,max=100"`
	Overall      float64 `json:"overall" validate:"required,rating"`
	Behavior     float64 `json:"behavior" validate:"rating"`
	Payment      float64 `json:"payment" validate:"rating"`
	Maintenance  float64 `json:"maintenance" validate:"rating"`
	Comment      string  `json:"comment" validate:"max=2000"`
	Role         string  `json:"role" validate:"required,oneof=server bartender host manager delivery_driver other"`
	BusinessName *string `json:"business_name" validate:"omitempty,max=200"`
}

// UpdateReviewRequest is the JSON request body for a partial review update.
type UpdateReviewRequest struct {
	Overall      *float64 `json:"overall" validate:"omitempty,gte=1,lte=5"`
	Behavior     *float64 `json:"behavior" validate:"omitempty,gte=1,lte=5"`
	Payment      *float64 `json:"payment" validate:"omitempty,gte=1,lte=5"`
	Maintenance  *float64 `json:"maintenance" validate:"omitempty,gte=1,lte=5"`
	Comment      *string  `json:"comment" validate:"omitempty,max=2000"`
	Role         *string  `json:"role" validate:"omitempty,oneof=server bartender host manager delivery_driver other"`
	BusinessName *string  `json:"business_name" validate:"omitempty,max=200"`
}

// --- Handlers ---

// CreateReview handles POST /api/v1/reviews.
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		writeDecodeError(w, r, err, h.logger)
		return
	}

	review, err := h.service.SubmitReview(r.Context(), service.SubmitReviewInput{
		Phone:        req.Phone,
		DisplayName:  req.DisplayName,
		Overall:      req.Overall,
		Behavior:     req.Behavior,
		Payment:      req.Payment,
		Maintenance:  req.Maintenance,
		Comment:      req.Comment,
		Role:         req.Role,
		BusinessName: req.BusinessName,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// GetReview handles GET /api/v1/reviews/{id}.
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// UpdateReview handles PATCH /api/v1/reviews/{id}.
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateReviewRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		writeDecodeError(w, r, err, h.logger)
		return
	}

	review, err := h.service.UpdateReview(r.Context(), id.String(), service.UpdateReviewInput{
		Overall:      req.Overall,
		Behavior:     req.Behavior,
		Payment:      req.Payment,
		Maintenance:  req.Maintenance,
		Comment:      req.Comment,
		Role:         req.Role,
		BusinessName: req.BusinessName,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}.
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"id":      id.String(),
		"deleted": true,
	}})
}

// ListReviews handles GET /api/v1/reviews?business=&page=&per_page=.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	reviews, total, err := h.service.ListReviewsByBusiness(r.Context(), repository.ReviewFilter{
		BusinessName: r.URL.Query().Get("business"),
		Page:         params.Page,
		PerPage:      params.PerPage,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(reviews, total, params))
}

// ShareReview handles POST /api/v1/reviews/{id}/share. A publish failure is
// answered with 502 and the failed result rather than the error envelope.
func (h *ReviewHandler) ShareReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	res, err := h.service.Share(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	httputil.WriteJSON(w, status, res)
}

// writeDecodeError answers a body that failed to decode or validate.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteError(w, r, err, logger)
		return
	}
	httputil.WriteBadRequest(w, "invalid request body")
}
