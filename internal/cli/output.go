package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
)

const excerptLength = 160

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func excerpt(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= excerptLength {
		return content
	}
	return string(runes[:excerptLength-3]) + "..."
}

func printPassages(w io.Writer, passages []*service.SearchCandidate) {
	if len(passages) == 0 {
		fmt.Fprintln(w, "No passages found.")
		return
	}

	fmt.Fprintf(w, "Found %d passages:\n\n", len(passages))
	for i, p := range passages {
		fmt.Fprintf(w, "%d. %s, page %d, %s (%.3f)\n", i+1, p.SchemeName, p.Metadata.PageNumber, p.Metadata.Section, p.Score)
		fmt.Fprintf(w, "   %s\n", excerpt(p.Content))
		fmt.Fprintf(w, "   ID: %s\n", p.ID)
		if i < len(passages)-1 {
			fmt.Fprintln(w, strings.Repeat("-", 40))
		}
	}
}

func printSuggestions(w io.Writer, suggestions []*service.Suggestion) {
	if len(suggestions) == 0 {
		fmt.Fprintln(w, "No alternative schemes found.")
		return
	}

	for i, s := range suggestions {
		verdict := "not eligible"
		if s.Eligible {
			verdict = "eligible"
		}
		fmt.Fprintf(w, "%d. %s [%s, confidence %.2f]\n", i+1, s.SchemeName, verdict, s.Confidence)
		if s.Category != "" {
			fmt.Fprintf(w, "   Category: %s\n", s.Category)
		}
		fmt.Fprintf(w, "   %s\n", s.Reason)
		for _, p := range s.Passages {
			fmt.Fprintf(w, "   - page %d, %s: %s\n", p.Metadata.PageNumber, p.Metadata.Section, excerpt(p.Content))
		}
		if i < len(suggestions)-1 {
			fmt.Fprintln(w, strings.Repeat("-", 40))
		}
	}
}

func printSchemes(w io.Writer, schemes []*domain.Scheme) {
	if len(schemes) == 0 {
		fmt.Fprintln(w, "No schemes found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tACTIVE\tCHUNKS")
	for _, s := range schemes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\n", s.ID, s.Name, s.Category, s.Active, s.TotalChunks)
	}
	_ = tw.Flush()
}
