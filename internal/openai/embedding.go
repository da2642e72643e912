package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the vector width requested from the model
	DefaultEmbeddingDimensions = 384

	warmupText = "PM-KISAN eligibility for small and marginal farmers"
)

var (
	// ErrNoEmbeddingData is returned when the API responds without vectors
	ErrNoEmbeddingData = errors.New("no embedding data returned")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Config holds OpenAI connection and model settings.
type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      string
	EmbeddingDimensions int
	DecisionModel       string
}

// NewAPIClient builds a go-openai client, honouring a custom base URL.
func NewAPIClient(cfg Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// OpenAIAdapter calls the embeddings endpoint with a fixed model and width.
type OpenAIAdapter struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

func NewOpenAIAdapter(client *openai.Client, model string, dimensions int) *OpenAIAdapter {
	if model == "" {
		model = string(DefaultEmbeddingModel)
	}
	return &OpenAIAdapter{
		client:     client,
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings, returned in input order
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      a.model,
		Dimensions: a.dimensions,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, ErrNoEmbeddingData
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// EmbeddingModel is the loaded embedding resource backed by the OpenAI API.
type EmbeddingModel struct {
	api        EmbeddingAPI
	dimensions int
}

// NewEmbeddingModel wraps an EmbeddingAPI producing vectors of the given width.
func NewEmbeddingModel(api EmbeddingAPI, dimensions int) *EmbeddingModel {
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &EmbeddingModel{api: api, dimensions: dimensions}
}

// EmbedTexts embeds texts in one request.
func (m *EmbeddingModel) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := m.api.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, classifyAPIError("failed to create embeddings", err)
	}
	return vectors, nil
}

// Dimensions returns the vector width.
func (m *EmbeddingModel) Dimensions() int {
	return m.dimensions
}

// NewModelLoader returns a loader that builds the API client and verifies the
// model's output width with a warm-up request.
func NewModelLoader(cfg Config) service.ModelLoader {
	return func(ctx context.Context) (service.EmbeddingModel, error) {
		if cfg.APIKey == "" {
			return nil, domain.ErrEmbeddingNotConfigured
		}
		dims := cfg.EmbeddingDimensions
		if dims <= 0 {
			dims = DefaultEmbeddingDimensions
		}
		api := NewOpenAIAdapter(NewAPIClient(cfg), cfg.EmbeddingModel, dims)
		return loadModel(ctx, api, dims)
	}
}

func loadModel(ctx context.Context, api EmbeddingAPI, dims int) (*EmbeddingModel, error) {
	model := NewEmbeddingModel(api, dims)
	probe, err := model.EmbedTexts(ctx, []string{warmupText})
	if err != nil {
		return nil, fmt.Errorf("warm-up request failed: %w", err)
	}
	if len(probe) != 1 || len(probe[0]) != dims {
		got := 0
		if len(probe) == 1 {
			got = len(probe[0])
		}
		return nil, domain.NewConfigurationError(
			fmt.Sprintf("warm-up returned %d dimensions, expected %d", got, dims),
			domain.ErrDimensionMismatch,
		)
	}
	return model, nil
}

// classifyAPIError separates credential and model errors, which need an
// operator, from rate limits and outages, which the caller may retry.
func classifyAPIError(message string, err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusBadRequest:
		return domain.NewConfigurationError(message, err)
	default:
		return domain.NewTransientError(message, err)
	}
}
