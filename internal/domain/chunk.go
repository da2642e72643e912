package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultSection is the label given to chunks that match no canonical heading.
const DefaultSection = "General"

// ChunkMetadata locates a chunk inside its source document.
// Zero values are replaced by WithDefaults: page 1, section "General".
type ChunkMetadata struct {
	PageNumber      int
	Section         string
	ParagraphNumber int
	DocumentPath    string
}

// WithDefaults returns a copy of m with documented defaults applied.
func (m ChunkMetadata) WithDefaults() ChunkMetadata {
	if m.PageNumber <= 0 {
		m.PageNumber = 1
	}
	if strings.TrimSpace(m.Section) == "" {
		m.Section = DefaultSection
	}
	if m.ParagraphNumber < 0 {
		m.ParagraphNumber = 0
	}
	return m
}

// Chunk is a bounded, contiguous slice of a scheme document, embedded and
// independently retrievable. Content and Embedding are write-once; only
// SchemeName follows a scheme rename.
type Chunk struct {
	ID         string
	SchemeID   string
	SchemeName string
	ChunkIndex int
	Content    string
	Embedding  []float32
	Metadata   ChunkMetadata
	CreatedAt  time.Time
}

// ValidateChunk validates a chunk against the store contract for the given dimensionality.
func ValidateChunk(c *Chunk, dimensions int) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}
	if c.SchemeID == "" {
		return fmt.Errorf("chunk SchemeID is required")
	}
	if strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("chunk Content is required")
	}
	if c.ChunkIndex < 0 {
		return fmt.Errorf("chunk ChunkIndex cannot be negative")
	}
	if dimensions > 0 && len(c.Embedding) != dimensions {
		return fmt.Errorf("chunk Embedding has %d dimensions, expected %d", len(c.Embedding), dimensions)
	}
	return nil
}
