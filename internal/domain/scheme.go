package domain

import (
	"fmt"
	"strings"
	"time"
)

// Scheme is a logical grouping of chunks ingested from one government scheme document.
type Scheme struct {
	ID          string
	Name        string
	Category    string
	Description string
	Active      bool
	TotalChunks int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewScheme creates a new active Scheme instance
func NewScheme(id, name, category, description string, createdAt time.Time) *Scheme {
	return &Scheme{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Category:    strings.TrimSpace(category),
		Description: description,
		Active:      true,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// ValidateScheme validates a Scheme instance
func ValidateScheme(s *Scheme) error {
	if s == nil {
		return fmt.Errorf("scheme cannot be nil")
	}
	if s.ID == "" {
		return fmt.Errorf("scheme ID is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("scheme Name is required")
	}
	if s.TotalChunks < 0 {
		return fmt.Errorf("scheme TotalChunks cannot be negative")
	}
	return nil
}
