package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/api"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
)

const maxRetrieveLimit = 50

type RetrievalService interface {
	Retrieve(ctx context.Context, input service.RetrieveInput) ([]*service.SearchCandidate, error)
}

type RetrievalHandler struct {
	svc RetrievalService
}

func NewRetrievalHandler(svc RetrievalService) *RetrievalHandler {
	return &RetrievalHandler{svc: svc}
}

type RetrieveRequest struct {
	Query    string   `json:"query"`
	SchemeID string   `json:"scheme_id,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Lambda   *float64 `json:"lambda,omitempty"`
}

type PassageResponse struct {
	ChunkID         string  `json:"chunk_id"`
	SchemeID        string  `json:"scheme_id"`
	SchemeName      string  `json:"scheme_name"`
	ChunkIndex      int     `json:"chunk_index"`
	Content         string  `json:"content"`
	PageNumber      int     `json:"page_number"`
	Section         string  `json:"section"`
	ParagraphNumber int     `json:"paragraph_number"`
	DocumentPath    string  `json:"document_path,omitempty"`
	Score           float64 `json:"score"`
	SemanticScore   float64 `json:"semantic_score"`
	LexicalScore    float64 `json:"lexical_score"`
}

type RetrieveResponse struct {
	Results []*PassageResponse `json:"results"`
}

func passageToResponse(c *service.SearchCandidate) *PassageResponse {
	return &PassageResponse{
		ChunkID:         c.ID,
		SchemeID:        c.SchemeID,
		SchemeName:      c.SchemeName,
		ChunkIndex:      c.ChunkIndex,
		Content:         c.Content,
		PageNumber:      c.Metadata.PageNumber,
		Section:         c.Metadata.Section,
		ParagraphNumber: c.Metadata.ParagraphNumber,
		DocumentPath:    c.Metadata.DocumentPath,
		Score:           c.Score,
		SemanticScore:   c.SemanticScore,
		LexicalScore:    c.LexicalScore,
	}
}

func PassagesToResponse(candidates []*service.SearchCandidate) []*PassageResponse {
	out := make([]*PassageResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, passageToResponse(c))
	}
	return out
}

func (h *RetrievalHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit < 0 || req.Limit > maxRetrieveLimit {
		api.Error(w, http.StatusBadRequest, "limit must be between 0 and 50")
		return
	}

	results, err := h.svc.Retrieve(r.Context(), service.RetrieveInput{
		QueryText: req.Query,
		SchemeID:  strings.TrimSpace(req.SchemeID),
		Limit:     req.Limit,
		Lambda:    req.Lambda,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, RetrieveResponse{Results: PassagesToResponse(results)})
}
