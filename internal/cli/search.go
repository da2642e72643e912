package cli

import (
	"github.com/spf13/cobra"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/api/handlers"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
)

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		schemeID   string
		limit      int
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Retrieve passages for a query",
		Long:  "Retrieves diverse, relevance-ranked passages across active schemes or within one scheme.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			results, err := a.retriever.Retrieve(ctx, service.RetrieveInput{
				QueryText: args[0],
				SchemeID:  schemeID,
				Limit:     limit,
			})
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(cmd.OutOrStdout(), handlers.RetrieveResponse{Results: handlers.PassagesToResponse(results)})
			}
			printPassages(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().StringVarP(&schemeID, "scheme", "s", "", "Restrict to one scheme ID")
	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultRetrievalLimit, "Maximum number of passages")
	cmd.Flags().Float64("lambda", service.DefaultMMRLambda, "Relevance weight for diversification, 0 to 1")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output as JSON")

	return cmd
}
