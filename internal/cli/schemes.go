package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/api/handlers"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

// SchemesCmd creates the schemes command group.
func SchemesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemes",
		Short: "Manage ingested schemes",
	}

	cmd.PersistentFlags().Bool("json", false, "Output as JSON")

	cmd.AddCommand(schemesListCmd())
	cmd.AddCommand(schemesRenameCmd())
	cmd.AddCommand(schemesSetActiveCmd("activate", true))
	cmd.AddCommand(schemesSetActiveCmd("deactivate", false))
	cmd.AddCommand(schemesDeleteCmd())

	return cmd
}

// withApp loads configuration, wires the services and runs fn.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printScheme(cmd *cobra.Command, scheme *domain.Scheme) error {
	if outputJSON, _ := cmd.Flags().GetBool("json"); outputJSON {
		return printJSON(cmd.OutOrStdout(), handlers.SchemeToResponse(scheme))
	}
	printSchemes(cmd.OutOrStdout(), []*domain.Scheme{scheme})
	return nil
}

func schemesListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schemes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				schemes, err := a.schemes.List(cmd.Context(), !all)
				if err != nil {
					return err
				}
				if outputJSON, _ := cmd.Flags().GetBool("json"); outputJSON {
					out := make([]*handlers.SchemeResponse, len(schemes))
					for i, s := range schemes {
						out[i] = handlers.SchemeToResponse(s)
					}
					return printJSON(cmd.OutOrStdout(), out)
				}
				printSchemes(cmd.OutOrStdout(), schemes)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include inactive schemes")

	return cmd
}

func schemesRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a scheme and its stored chunks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				scheme, err := a.schemes.Rename(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return printScheme(cmd, scheme)
			})
		},
	}
}

func schemesSetActiveCmd(use string, active bool) *cobra.Command {
	short := "Include a scheme in global search and suggestions"
	if !active {
		short = "Exclude a scheme from global search and suggestions"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				scheme, err := a.schemes.SetActive(cmd.Context(), args[0], active)
				if err != nil {
					return err
				}
				return printScheme(cmd, scheme)
			})
		},
	}
}

func schemesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a scheme and all of its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.schemes.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted scheme %s\n", args[0])
				return nil
			})
		},
	}
}
