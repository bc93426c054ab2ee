package pdftext

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Reader extracts per-page plain text from PDF bytes.
type Reader struct{}

// NewReader returns a PDF page extractor.
func NewReader() *Reader {
	return &Reader{}
}

// Pages decodes the PDF and returns all pages in ascending order.
// Pages whose text cannot be extracted come back with empty Text rather
// than failing the whole document; only an undecodable document errors.
func (r *Reader) Pages(content []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	pages := make([]Page, 0, numPages)

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		text := ""
		page := reader.Page(pageNum)
		if !page.V.IsNull() && page.V.Key("Contents").Kind() != pdf.Null {
			if plain, err := page.GetPlainText(nil); err == nil {
				text = strings.TrimSpace(plain)
			}
		}
		pages = append(pages, Page{Number: pageNum, Text: text})
	}

	return pages, nil
}
