package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/api/handlers"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/database"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/jobs"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/server"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and ingestion worker",
		Long:  "Start the schemerag API server on the specified port, applying database migrations first",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().String("migrations", "file://migrations", "Migration source URL")
	cmd.Flags().String("documents-dir", ".", "Directory ingestion jobs read documents from when S3 is not configured")
	cmd.Flags().Bool("no-worker", false, "Do not process queued ingestion jobs")
	cmd.Flags().Bool("warm-up", false, "Load the embedding model before accepting requests")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 10% sampling outside development
	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}
	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer shutdownTelemetry()

	if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
		source, _ := cmd.Flags().GetString("migrations")
		if err := database.Migrate(cfg.DatabaseURL, source, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	logger.Info().Msg("connected to database")

	if warmUp, _ := cmd.Flags().GetBool("warm-up"); warmUp {
		if err := a.embedder.Initialize(ctx); err != nil {
			return fmt.Errorf("failed to load embedding model: %w", err)
		}
	}

	// a nil *S3Client must not reach the handler as a non-nil interface
	var signer handlers.UploadURLSigner
	if a.documents != nil {
		if err := a.documents.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		logger.Info().Str("bucket", cfg.S3Bucket).Msg("S3 bucket ready")
		signer = a.documents
	}

	var worker *jobs.Worker
	if noWorker, _ := cmd.Flags().GetBool("no-worker"); !noWorker {
		root, _ := cmd.Flags().GetString("documents-dir")
		processor := jobs.NewIngestionWorker(a.jobRepo, a.documentSource(root), a.ingester, logger)
		worker = jobs.NewWorker(processor, cfg.IngestPollInterval, logger)
		go worker.Start(ctx)
		logger.Info().Dur("poll_interval", cfg.IngestPollInterval).Msg("ingestion worker started")
	}

	router := server.NewRouter(server.RouterConfig{
		Logger:            logger,
		RetrievalHandler:  handlers.NewRetrievalHandler(a.retriever),
		SuggestionHandler: handlers.NewSuggestionHandler(a.suggester),
		SchemeHandler:     handlers.NewSchemeHandler(a.schemes),
		IngestionHandler:  handlers.NewIngestionHandler(a.jobs, signer),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")

	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server exited")
	return nil
}
