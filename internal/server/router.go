package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/api"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/api/handlers"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/api/middleware"
)

type RouterConfig struct {
	Logger            zerolog.Logger
	RetrievalHandler  *handlers.RetrievalHandler
	SuggestionHandler *handlers.SuggestionHandler
	SchemeHandler     *handlers.SchemeHandler
	IngestionHandler  *handlers.IngestionHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/retrieve", cfg.RetrievalHandler.Retrieve)
	r.Post("/suggestions", cfg.SuggestionHandler.Suggest)

	r.Route("/schemes", func(r chi.Router) {
		r.Get("/", cfg.SchemeHandler.List)
		r.Get("/{id}", cfg.SchemeHandler.Get)
		r.Patch("/{id}", cfg.SchemeHandler.Update)
		r.Delete("/{id}", cfg.SchemeHandler.Delete)
	})

	r.Route("/ingestion-jobs", func(r chi.Router) {
		r.Post("/", cfg.IngestionHandler.Create)
		r.Get("/{id}", cfg.IngestionHandler.Get)
	})
	r.Post("/documents/upload-url", cfg.IngestionHandler.UploadURL)

	return r
}
