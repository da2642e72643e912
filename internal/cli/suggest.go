package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/api/handlers"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
)

// SuggestCmd creates the suggest command.
func SuggestCmd() *cobra.Command {
	var (
		profilePath string
		exclude     string
		candidates  int
		outputJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest alternative schemes for a farmer profile",
		Long: `Evaluates other active schemes for a farmer rejected by --exclude and prints
up to three, eligible ones first.`,
		Example: `  schemerag suggest --profile farmer.json --exclude 3f1c...`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := readProfile(profilePath)
			if err != nil {
				return err
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

			suggestions, err := a.suggester.SuggestAlternatives(ctx, service.SuggestInput{
				Profile:         profile,
				ExcludeSchemeID: exclude,
				CandidateLimit:  candidates,
			})
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(cmd.OutOrStdout(), handlers.SuggestResponse{Suggestions: handlers.SuggestionsToResponse(suggestions)})
			}
			printSuggestions(cmd.OutOrStdout(), suggestions)
			return nil
		},
	}

	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "Farmer profile JSON file")
	cmd.Flags().StringVarP(&exclude, "exclude", "x", "", "Scheme ID the farmer was rejected by")
	cmd.Flags().IntVar(&candidates, "candidates", 0, "Maximum schemes to evaluate (default from config)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("exclude")

	return cmd
}

func readProfile(path string) (*domain.FarmerProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var profile domain.FarmerProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return &profile, nil
}
