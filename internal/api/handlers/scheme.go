package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/api"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

type SchemeService interface {
	List(ctx context.Context, activeOnly bool) ([]*domain.Scheme, error)
	Get(ctx context.Context, id string) (*domain.Scheme, error)
	Rename(ctx context.Context, id, name string) (*domain.Scheme, error)
	SetActive(ctx context.Context, id string, active bool) (*domain.Scheme, error)
	Delete(ctx context.Context, id string) error
}

type SchemeHandler struct {
	svc SchemeService
}

func NewSchemeHandler(svc SchemeService) *SchemeHandler {
	return &SchemeHandler{svc: svc}
}

// UpdateSchemeRequest carries a partial update; absent fields are left alone.
type UpdateSchemeRequest struct {
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type SchemeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	TotalChunks int    `json:"total_chunks"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func SchemeToResponse(s *domain.Scheme) *SchemeResponse {
	return &SchemeResponse{
		ID:          s.ID,
		Name:        s.Name,
		Category:    s.Category,
		Description: s.Description,
		Active:      s.Active,
		TotalChunks: s.TotalChunks,
		CreatedAt:   s.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   s.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *SchemeHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "active must be a boolean")
			return
		}
		activeOnly = parsed
	}

	schemes, err := h.svc.List(r.Context(), activeOnly)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*SchemeResponse, 0, len(schemes))
	for _, s := range schemes {
		resp = append(resp, SchemeToResponse(s))
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *SchemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	scheme, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, SchemeToResponse(scheme))
}

func (h *SchemeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateSchemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == nil && req.Active == nil {
		api.Error(w, http.StatusBadRequest, "name or active is required")
		return
	}

	var scheme *domain.Scheme
	var err error
	if req.Name != nil {
		if scheme, err = h.svc.Rename(r.Context(), id, *req.Name); err != nil {
			api.HandleError(w, err)
			return
		}
	}
	if req.Active != nil {
		if scheme, err = h.svc.SetActive(r.Context(), id, *req.Active); err != nil {
			api.HandleError(w, err)
			return
		}
	}

	api.Success(w, http.StatusOK, SchemeToResponse(scheme))
}

func (h *SchemeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
