package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dibesmab-cyber/OCR/internal/llm"
	"github.com/dibesmab-cyber/OCR/internal/pdftext"
)

// Transcriber turns PDF bytes into model-transcribed text, one inference
// call per page, strictly in ascending page order.
type Transcriber struct {
	llm     llm.Client
	extract pdftext.Extractor
	log     *slog.Logger
}

// New builds a Transcriber over the given model client and page extractor.
func New(client llm.Client, extractor pdftext.Extractor, log *slog.Logger) *Transcriber {
	return &Transcriber{
		llm:     client,
		extract: extractor,
		log:     log,
	}
}

// Strict transcribes only pages that contain extractable text, skipping empty
// ones, and asks the model for a verbatim passthrough of each page. Any page
// failure aborts the whole document; partial output is discarded.
func (t *Transcriber) Strict(ctx context.Context, content []byte) (string, error) {
	pages, err := t.extract.Pages(content)
	if err != nil {
		return "", fmt.Errorf("decode pdf: %w", err)
	}

	var full strings.Builder
	for _, page := range pages {
		if page.Text == "" {
			continue
		}

		out, err := t.llm.Generate(ctx, strictPrompt(page))
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page.Number, err)
		}
		appendPage(&full, page.Number, out)
	}

	return full.String(), nil
}

// OCRFallback transcribes every page. Pages with extracted text send it along
// for cleanup; empty pages ask the model to read the page image instead. A
// failed page is recorded inline as a placeholder and does not abort the rest.
func (t *Transcriber) OCRFallback(ctx context.Context, content []byte) (string, error) {
	pages, err := t.extract.Pages(content)
	if err != nil {
		return "", fmt.Errorf("decode pdf: %w", err)
	}

	var full strings.Builder
	for _, page := range pages {
		var prompt string
		if page.Text != "" {
			prompt = fmt.Sprintf("Extract the text on this page:\n\n%s", page.Text)
		} else {
			prompt = "Extract the text on this page. If the page contains an image, extract the text from the image. " +
				"Do not summarize, return the text from this page exactly as it is."
		}

		pageText, err := t.llm.Generate(ctx, prompt)
		if err != nil {
			t.log.Warn("page inference failed", "page", page.Number, "err", err)
			pageText = fmt.Sprintf("(model error on page %d: %v)", page.Number, err)
		} else {
			pageText = strings.TrimSpace(pageText)
		}
		appendPage(&full, page.Number, pageText)
	}

	return full.String(), nil
}

func strictPrompt(page pdftext.Page) string {
	return fmt.Sprintf("Page %d content:\n\n%s\n\n"+
		"Extract the text on this page. Do not add anything yourself. "+
		"Return the text exactly as it is. Do not summarize, just return the full text verbatim:",
		page.Number, page.Text)
}

func appendPage(b *strings.Builder, pageNum int, text string) {
	fmt.Fprintf(b, "\n\n--- Page %d ---\n%s", pageNum, text)
}
