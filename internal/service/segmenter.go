package service

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

// SegmentConfig controls document segmentation.
type SegmentConfig struct {
	ChunkSize    int
	Overlap      int
	PageCount    int
	DocumentPath string
}

// DefaultSegmentConfig provides the default window and overlap sizes in characters.
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		ChunkSize: 1000,
		Overlap:   200,
	}
}

// Segment is one overlapping window over the normalized document text.
// Offsets are rune offsets into the normalized text.
type Segment struct {
	Index       int
	Content     string
	StartOffset int
	EndOffset   int
	Metadata    domain.ChunkMetadata
}

type sectionPattern struct {
	label   string
	pattern *regexp.Regexp
}

// Ordered: the first matching heading wins.
var sectionPatterns = []sectionPattern{
	{"Eligibility Criteria", regexp.MustCompile(`(?i)\beligibility(\s+criteria|\s+conditions)?\b`)},
	{"Who Can Apply", regexp.MustCompile(`(?i)\bwho\s+(can|is\s+eligible\s+to|may)\s+apply\b`)},
	{"Benefits", regexp.MustCompile(`(?i)\b(benefits?|financial\s+assistance)\b`)},
	{"Required Documents", regexp.MustCompile(`(?i)\b(required\s+documents|documents\s+required|supporting\s+documents)\b`)},
	{"Application Process", regexp.MustCompile(`(?i)\b(application\s+process|how\s+to\s+apply|procedure\s+for\s+application)\b`)},
	{"Objectives", regexp.MustCompile(`(?i)\b(objectives?|aims?\s+of\s+the\s+scheme)\b`)},
	{"Scope", regexp.MustCompile(`(?i)\b(scope|coverage)\b`)},
	{"Introduction", regexp.MustCompile(`(?i)\b(introduction|background|overview)\b`)},
	{"Definitions", regexp.MustCompile(`(?i)\b(definitions?|glossary)\b`)},
}

// SegmentDocument splits text into overlapping, metadata-tagged windows.
//
// Each window ends at the last sentence or line boundary found in its back half,
// otherwise at the hard ChunkSize limit. The next window starts at end-Overlap but
// never before start+1, so segmentation always terminates.
func SegmentDocument(text string, pages []domain.Page, cfg SegmentConfig) []Segment {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultSegmentConfig().ChunkSize
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}

	runes := normalizeText(text)
	n := len(runes)
	if n == 0 {
		return []Segment{}
	}

	pager := newPageMapper(pages, n, cfg.PageCount)
	minCut := cfg.ChunkSize / 2

	segments := make([]Segment, 0, n/cfg.ChunkSize+2)
	start := 0
	for start < n {
		end := start + cfg.ChunkSize
		if end > n {
			end = n
		}

		if end < n {
			if cut, ok := findBoundary(runes, start, end, minCut); ok {
				end = cut
			}
		}

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			index := len(segments)
			segments = append(segments, Segment{
				Index:       index,
				Content:     content,
				StartOffset: start,
				EndOffset:   end,
				Metadata: domain.ChunkMetadata{
					PageNumber:      pager.pageFor((start + end) / 2),
					Section:         detectSection(content),
					ParagraphNumber: index + 1,
					DocumentPath:    cfg.DocumentPath,
				},
			})
		}

		if end >= n {
			break
		}

		next := end - cfg.Overlap
		if next < start+1 {
			next = start + 1
		}
		start = next
	}

	return segments
}

// normalizeText collapses every whitespace run to a single space, or to a
// single newline when the run spans a line break.
func normalizeText(text string) []rune {
	out := make([]rune, 0, len(text))
	inSpace := false
	sawNewline := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inSpace = true
			if r == '\n' || r == '\r' {
				sawNewline = true
			}
			continue
		}
		if inSpace && len(out) > 0 {
			if sawNewline {
				out = append(out, '\n')
			} else {
				out = append(out, ' ')
			}
		}
		inSpace = false
		sawNewline = false
		out = append(out, r)
	}
	return out
}

// findBoundary scans back from end for a sentence or line break at or after start+minCut.
// It returns the exclusive cut position.
func findBoundary(runes []rune, start, end, minCut int) (int, bool) {
	for i := end - 1; i >= start+minCut; i-- {
		switch runes[i] {
		case '\n':
			return i + 1, true
		case '.', '!', '?':
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				return i + 1, true
			}
		}
	}
	return 0, false
}

func detectSection(content string) string {
	for _, sp := range sectionPatterns {
		if sp.pattern.MatchString(content) {
			return sp.label
		}
	}
	return domain.DefaultSection
}

// pageMapper maps normalized-text offsets to page numbers.
type pageMapper struct {
	textLen   int
	pageCount int
	// proportional mode
	ends    []int
	numbers []int
	total   int
	even    bool
}

func newPageMapper(pages []domain.Page, textLen, declaredCount int) *pageMapper {
	m := &pageMapper{textLen: textLen}

	sorted := make([]domain.Page, 0, len(pages))
	sorted = append(sorted, pages...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	total := 0
	for i, p := range sorted {
		total += len(normalizeText(p.Text))
		if i > 0 {
			total++
		}
		m.ends = append(m.ends, total)
		number := p.Number
		if number <= 0 {
			number = i + 1
		}
		m.numbers = append(m.numbers, number)
	}
	m.total = total

	m.pageCount = declaredCount
	if m.pageCount <= 0 {
		m.pageCount = len(sorted)
	}
	if m.pageCount <= 0 {
		m.pageCount = 1
	}

	switch {
	case len(sorted) == 0:
		m.even = true
	case total == 0:
		m.even = true
	case math.Abs(float64(total-textLen)) > 0.5*float64(textLen):
		m.even = true
	case declaredCount > 0 && math.Abs(float64(len(sorted)-declaredCount)) > 0.5*float64(declaredCount):
		m.even = true
	}
	return m
}

func (m *pageMapper) pageFor(offset int) int {
	if m.textLen == 0 {
		return 1
	}
	if m.even {
		perPage := float64(m.textLen) / float64(m.pageCount)
		page := int(float64(offset)/perPage) + 1
		if page < 1 {
			page = 1
		}
		if page > m.pageCount {
			page = m.pageCount
		}
		return page
	}

	pos := int(float64(offset) * float64(m.total) / float64(m.textLen))
	idx := sort.SearchInts(m.ends, pos+1)
	if idx >= len(m.numbers) {
		idx = len(m.numbers) - 1
	}
	return m.numbers[idx]
}
