package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
)

// DefaultDecisionModel is the chat model used for eligibility verdicts
const DefaultDecisionModel = openai.GPT4oMini

const decisionSystemPrompt = `You assess whether a farmer is eligible for an Indian government scheme.
Use only the numbered passages provided. If they do not settle a criterion, say so in the reason.
Respond with a JSON object: {"eligible": boolean, "score": number between 0 and 1, "reason": string}.
Cite passages by their number in the reason.`

// ChatAPI defines the interface for chat completions
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Decider asks a chat model for a grounded eligibility verdict.
type Decider struct {
	api   ChatAPI
	model string
}

// NewDecider creates a Decider. An empty model uses DefaultDecisionModel.
func NewDecider(api ChatAPI, model string) *Decider {
	if model == "" {
		model = DefaultDecisionModel
	}
	return &Decider{api: api, model: model}
}

// Decide returns the model's verdict for profile against scheme, grounded on passages.
func (d *Decider) Decide(ctx context.Context, profile *domain.FarmerProfile, scheme *domain.Scheme, passages []*service.SearchCandidate) (*domain.Determination, error) {
	if len(passages) == 0 {
		return nil, domain.NewValidationError("at least one passage is required")
	}

	prompt, err := buildDecisionPrompt(profile, scheme, passages)
	if err != nil {
		return nil, err
	}

	resp, err := d.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       d.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: decisionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, classifyAPIError("failed to request eligibility decision", err)
	}
	if len(resp.Choices) == 0 {
		return nil, domain.NewTransientError("failed to request eligibility decision", fmt.Errorf("no choices returned"))
	}

	return parseDetermination(resp.Choices[0].Message.Content)
}

func buildDecisionPrompt(profile *domain.FarmerProfile, scheme *domain.Scheme, passages []*service.SearchCandidate) (string, error) {
	if profile == nil {
		profile = &domain.FarmerProfile{}
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Scheme: %s", scheme.Name)
	if scheme.Category != "" {
		fmt.Fprintf(&b, " (%s)", scheme.Category)
	}
	fmt.Fprintf(&b, "\nFarmer profile: %s\n\nPassages:\n", profileJSON)
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] (page %d, %s) %s\n", i+1, p.Metadata.PageNumber, p.Metadata.Section, p.Content)
	}
	return b.String(), nil
}

func parseDetermination(content string) (*domain.Determination, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var det domain.Determination
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &det); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "decision response is not valid JSON", err)
	}
	det.Score = min(max(det.Score, 0), 1)
	det.Reason = strings.TrimSpace(det.Reason)
	return &det, nil
}
