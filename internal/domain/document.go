package domain

// Page is the text extracted from one page of a source document.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// ExtractedDocument is the output of the text extraction collaborator.
type ExtractedDocument struct {
	Path      string `json:"path,omitempty"`
	Text      string `json:"text"`
	Pages     []Page `json:"pages,omitempty"`
	PageCount int    `json:"page_count,omitempty"`
}

// EffectivePageCount returns the best known page count, never less than one.
func (d *ExtractedDocument) EffectivePageCount() int {
	if d.PageCount > 0 {
		return d.PageCount
	}
	if len(d.Pages) > 0 {
		return len(d.Pages)
	}
	return 1
}
