package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/api"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
)

type IngestionJobService interface {
	Enqueue(ctx context.Context, input service.EnqueueIngestionInput) (*domain.IngestionJob, error)
	Get(ctx context.Context, id string) (*domain.IngestionJob, error)
}

// UploadURLSigner issues presigned upload URLs for extracted documents.
type UploadURLSigner interface {
	GenerateUploadURL(ctx context.Context, key string) (string, error)
}

type IngestionHandler struct {
	svc    IngestionJobService
	signer UploadURLSigner
}

// NewIngestionHandler creates the handler. signer may be nil when no object
// store is configured.
func NewIngestionHandler(svc IngestionJobService, signer UploadURLSigner) *IngestionHandler {
	return &IngestionHandler{svc: svc, signer: signer}
}

type CreateIngestionJobRequest struct {
	SchemeName  string `json:"scheme_name"`
	Category    string `json:"category"`
	DocumentKey string `json:"document_key"`
}

type IngestionJobResponse struct {
	ID          string  `json:"id"`
	SchemeName  string  `json:"scheme_name"`
	Category    string  `json:"category,omitempty"`
	DocumentKey string  `json:"document_key"`
	Status      string  `json:"status"`
	Retries     int32   `json:"retries"`
	Error       string  `json:"error,omitempty"`
	CreatedAt   string  `json:"created_at"`
	ProcessedAt *string `json:"processed_at,omitempty"`
}

type UploadURLRequest struct {
	Filename string `json:"filename"`
}

type UploadURLResponse struct {
	DocumentKey string `json:"document_key"`
	UploadURL   string `json:"upload_url"`
}

func jobToResponse(j *domain.IngestionJob) *IngestionJobResponse {
	resp := &IngestionJobResponse{
		ID:          j.ID,
		SchemeName:  j.SchemeName,
		Category:    j.Category,
		DocumentKey: j.DocumentKey,
		Status:      string(j.Status),
		Retries:     j.Retries,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if j.ProcessedAt != nil {
		processed := j.ProcessedAt.Format("2006-01-02T15:04:05Z")
		resp.ProcessedAt = &processed
	}
	return resp
}

func (h *IngestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateIngestionJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.svc.Enqueue(r.Context(), service.EnqueueIngestionInput{
		SchemeName:  req.SchemeName,
		Category:    req.Category,
		DocumentKey: req.DocumentKey,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, jobToResponse(job))
}

func (h *IngestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, jobToResponse(job))
}

func (h *IngestionHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	if h.signer == nil {
		api.Error(w, http.StatusServiceUnavailable, "document storage is not configured")
		return
	}

	var req UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	filename := path.Base(strings.TrimSpace(req.Filename))
	if filename == "" || filename == "." || filename == "/" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	key := "documents/" + uuid.NewString() + "/" + filename
	url, err := h.signer.GenerateUploadURL(r.Context(), key)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, UploadURLResponse{DocumentKey: key, UploadURL: url})
}
