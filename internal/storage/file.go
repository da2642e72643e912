package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

// DecodeDocument reads an extracted document in its JSON interchange form.
// Plain text documents are accepted when the body is not a JSON object.
func DecodeDocument(r io.Reader) (*domain.ExtractedDocument, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.NewTransientError("failed to read document", err)
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, domain.ErrEmptyText
	}
	if !strings.HasPrefix(trimmed, "{") {
		return &domain.ExtractedDocument{Text: string(body)}, nil
	}

	var doc domain.ExtractedDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "document is not valid JSON", err)
	}
	if strings.TrimSpace(doc.Text) == "" && len(doc.Pages) > 0 {
		texts := make([]string, 0, len(doc.Pages))
		for _, p := range doc.Pages {
			texts = append(texts, p.Text)
		}
		doc.Text = strings.Join(texts, "\n\n")
	}
	return &doc, nil
}

// FileSource loads extracted documents from a local directory.
type FileSource struct {
	root string
}

func NewFileSource(root string) *FileSource {
	return &FileSource{root: root}
}

// Load reads the document at key, relative to the source root. Keys may not
// escape the root.
func (s *FileSource) Load(ctx context.Context, key string) (*domain.ExtractedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsLocal(key) {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid document key %q", key))
	}

	path := filepath.Join(s.root, key)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeNotFound, domain.ErrDocumentNotFound.Message, err)
		}
		return nil, domain.NewTransientError("failed to open document", err)
	}
	defer f.Close()

	doc, err := DecodeDocument(f)
	if err != nil {
		return nil, err
	}
	if doc.Path == "" {
		doc.Path = key
	}
	return doc, nil
}
