package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

func TestDecodeDocument(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *domain.ExtractedDocument
	}{
		{
			name: "json with pages",
			body: `{"text":"a b","pages":[{"number":1,"text":"a"},{"number":2,"text":"b"}],"page_count":2}`,
			want: &domain.ExtractedDocument{Text: "a b", Pages: []domain.Page{{Number: 1, Text: "a"}, {Number: 2, Text: "b"}}, PageCount: 2},
		},
		{
			name: "text rebuilt from pages",
			body: `{"pages":[{"number":1,"text":"first"},{"number":2,"text":"second"}]}`,
			want: &domain.ExtractedDocument{Text: "first\n\nsecond", Pages: []domain.Page{{Number: 1, Text: "first"}, {Number: 2, Text: "second"}}},
		},
		{
			name: "plain text",
			body: "Objectives\nIncome support for farmers.",
			want: &domain.ExtractedDocument{Text: "Objectives\nIncome support for farmers."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeDocument(strings.NewReader(tt.body))

			require.NoError(t, err)
			assert.Equal(t, tt.want, doc)
		})
	}
}

func TestDecodeDocument_Empty(t *testing.T) {
	_, err := DecodeDocument(strings.NewReader("  \n"))

	assert.ErrorIs(t, err, domain.ErrEmptyText)
}

func TestFileSource_Load(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "kcc.txt"), []byte("Kisan Credit Card benefits."), 0o644))

	source := NewFileSource(root)
	ctx := context.Background()

	doc, err := source.Load(ctx, "docs/kcc.txt")
	require.NoError(t, err)
	assert.Equal(t, "Kisan Credit Card benefits.", doc.Text)
	assert.Equal(t, "docs/kcc.txt", doc.Path)

	_, err = source.Load(ctx, "docs/missing.json")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, err = source.Load(ctx, "../outside.json")
	assert.True(t, domain.IsCode(err, domain.ErrCodeValidation))
}
