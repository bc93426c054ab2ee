package pdftext

// Page is one page of a decoded document, 1-indexed.
// Text is the extracted plain text, trimmed; empty when the page has no
// extractable text (blank or image-only pages).
type Page struct {
	Number int
	Text   string
}

// Extractor decodes raw document bytes into ordered pages.
type Extractor interface {
	Pages(content []byte) ([]Page, error)
}
