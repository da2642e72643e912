// Package cli implements the schemerag command line: the API server and
// operator commands for ingestion, retrieval and suggestions.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/config"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/logger"
)

// NewRootCmd builds the schemerag command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "schemerag",
		Short: "Retrieval and eligibility suggestions over agricultural scheme documents",
		Long: `schemerag ingests government scheme documents, retrieves grounded passages
and suggests alternative schemes for farmers rejected by a scheme.

Configuration is read from SCHEMERAG_* environment variables and an optional .env file.
SCHEMERAG_DATABASE_URL is required.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("debug", false, "Human-readable log output")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(IngestCmd())
	rootCmd.AddCommand(SearchCmd())
	rootCmd.AddCommand(SuggestCmd())
	rootCmd.AddCommand(SchemesCmd())

	return rootCmd
}

// loadConfig reads the environment and applies flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	applyFlagOverrides(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger.New(cfg.LogLevel, cfg.Debug), nil
}

func applyFlagOverrides(flags *pflag.FlagSet, cfg *config.Config) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = f.Value.String()
		case "debug":
			cfg.Debug = f.Value.String() == "true"
		case "port":
			cfg.Port = f.Value.String()
		case "chunk-size":
			if v, err := flags.GetInt(f.Name); err == nil {
				cfg.ChunkSize = v
			}
		case "overlap":
			if v, err := flags.GetInt(f.Name); err == nil {
				cfg.ChunkOverlap = v
			}
		case "lambda":
			if v, err := flags.GetFloat64(f.Name); err == nil {
				cfg.MMRLambda = v
			}
		}
	})
}
