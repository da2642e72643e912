package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/api"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
)

type SuggestionService interface {
	SuggestAlternatives(ctx context.Context, input service.SuggestInput) ([]*service.Suggestion, error)
}

type SuggestionHandler struct {
	svc SuggestionService
}

func NewSuggestionHandler(svc SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{svc: svc}
}

type SuggestRequest struct {
	Profile         *domain.FarmerProfile `json:"profile"`
	ExcludeSchemeID string                `json:"exclude_scheme_id"`
	CandidateLimit  int                   `json:"candidate_limit,omitempty"`
}

type SuggestionResponse struct {
	SchemeID   string             `json:"scheme_id"`
	SchemeName string             `json:"scheme_name"`
	Category   string             `json:"category,omitempty"`
	Eligible   bool               `json:"eligible"`
	Confidence float64            `json:"confidence"`
	Reason     string             `json:"reason"`
	TopScore   float64            `json:"top_score"`
	Passages   []*PassageResponse `json:"passages"`
}

type SuggestResponse struct {
	Suggestions []*SuggestionResponse `json:"suggestions"`
}

func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Profile == nil {
		api.Error(w, http.StatusBadRequest, "profile is required")
		return
	}
	if req.CandidateLimit < 0 {
		api.Error(w, http.StatusBadRequest, "candidate_limit cannot be negative")
		return
	}

	suggestions, err := h.svc.SuggestAlternatives(r.Context(), service.SuggestInput{
		Profile:         req.Profile,
		ExcludeSchemeID: req.ExcludeSchemeID,
		CandidateLimit:  req.CandidateLimit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SuggestResponse{Suggestions: SuggestionsToResponse(suggestions)})
}

// SuggestionsToResponse converts ranked suggestions to their wire form.
func SuggestionsToResponse(suggestions []*service.Suggestion) []*SuggestionResponse {
	out := make([]*SuggestionResponse, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, &SuggestionResponse{
			SchemeID:   s.SchemeID,
			SchemeName: s.SchemeName,
			Category:   s.Category,
			Eligible:   s.Eligible,
			Confidence: s.Confidence,
			Reason:     s.Reason,
			TopScore:   s.TopScore,
			Passages:   PassagesToResponse(s.Passages),
		})
	}
	return out
}
