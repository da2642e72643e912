package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/storage"
)

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	var (
		file        string
		s3Key       string
		scheme      string
		category    string
		description string
		queue       bool
		outputJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest an extracted scheme document",
		Long: `Segments, embeds and stores an extracted document under a scheme, replacing
any chunks the scheme already has.

The document is a JSON object {"text", "pages": [{"number", "text"}], "page_count"}
or plain text. Use --queue with --s3-key to hand the work to the server's ingestion worker.`,
		Example: `  schemerag ingest --file pm-kisan.json --scheme PM-KISAN --category "income support"
  schemerag ingest --s3-key documents/pmfby.json --scheme PMFBY --queue`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (file == "") == (s3Key == "") {
				return errors.New("exactly one of --file or --s3-key is required")
			}
			if queue && s3Key == "" {
				return errors.New("--queue requires --s3-key")
			}

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()

			if queue {
				job, err := a.jobs.Enqueue(ctx, service.EnqueueIngestionInput{
					SchemeName:  scheme,
					Category:    category,
					DocumentKey: s3Key,
				})
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(out, job)
				}
				fmt.Fprintf(out, "Queued ingestion job %s for %s\n", job.ID, job.SchemeName)
				return nil
			}

			var doc *domain.ExtractedDocument
			if file != "" {
				doc, err = storage.NewFileSource(filepath.Dir(file)).Load(ctx, filepath.Base(file))
			} else {
				if a.documents == nil {
					return errors.New("--s3-key requires SCHEMERAG_S3_ENDPOINT and credentials")
				}
				doc, err = a.documents.Load(ctx, s3Key)
			}
			if err != nil {
				return err
			}

			result, err := a.ingester.Ingest(ctx, service.IngestInput{
				SchemeName:  scheme,
				Category:    category,
				Description: description,
				Document:    doc,
				ChunkSize:   cfg.ChunkSize,
				Overlap:     &cfg.ChunkOverlap,
			})
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(out, result)
			}
			verb := "Updated"
			if result.Created {
				verb = "Created"
			}
			fmt.Fprintf(out, "%s scheme %s (%s): %d chunks\n", verb, result.SchemeName, result.SchemeID, result.Chunks)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Extracted document on the local filesystem")
	cmd.Flags().StringVar(&s3Key, "s3-key", "", "Extracted document key in the S3 bucket")
	cmd.Flags().StringVarP(&scheme, "scheme", "s", "", "Scheme name")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Scheme category")
	cmd.Flags().StringVar(&description, "description", "", "Scheme description")
	cmd.Flags().Int("chunk-size", service.DefaultSegmentConfig().ChunkSize, "Segment window in characters")
	cmd.Flags().Int("overlap", service.DefaultSegmentConfig().Overlap, "Characters shared by consecutive segments")
	cmd.Flags().BoolVar(&queue, "queue", false, "Enqueue an ingestion job instead of ingesting now")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("scheme")

	return cmd
}
