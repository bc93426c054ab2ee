package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/dibesmab-cyber/OCR/internal/llm"
	"github.com/dibesmab-cyber/OCR/internal/pdftext"
)

func newTestTranscriber(client *llm.MockClient, extractor *pdftext.MockExtractor) *Transcriber {
	return New(client, extractor, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fourPages is the canonical fixture: two empty pages interleaved with text.
func fourPages() []pdftext.Page {
	return []pdftext.Page{
		{Number: 1, Text: ""},
		{Number: 2, Text: "Hello"},
		{Number: 3, Text: ""},
		{Number: 4, Text: "World"},
	}
}

func TestStrictSkipsEmptyPages(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockExtract := new(pdftext.MockExtractor)

	mockExtract.On("Pages", mock.Anything).Return(fourPages(), nil).Once()
	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Hello")
	})).Return("hello out", nil).Once()
	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "World")
	})).Return("world out", nil).Once()

	tr := newTestTranscriber(mockLLM, mockExtract)
	out, err := tr.Strict(context.Background(), []byte("pdf"))
	if err != nil {
		t.Fatalf("Strict: %v", err)
	}

	// Exactly 2 calls, only for pages 2 and 4, markers in ascending order.
	mockLLM.AssertNumberOfCalls(t, "Generate", 2)
	if strings.Contains(out, "--- Page 1 ---") || strings.Contains(out, "--- Page 3 ---") {
		t.Errorf("expected no markers for empty pages, got %q", out)
	}
	idx2 := strings.Index(out, "--- Page 2 ---")
	idx4 := strings.Index(out, "--- Page 4 ---")
	if idx2 < 0 || idx4 < 0 || idx2 > idx4 {
		t.Errorf("expected markers for pages 2 then 4, got %q", out)
	}
	if !strings.Contains(out, "hello out") || !strings.Contains(out, "world out") {
		t.Errorf("expected model output under markers, got %q", out)
	}
	mockExtract.AssertExpectations(t)
	mockLLM.AssertExpectations(t)
}

func TestStrictPromptEmbedsPageNumberAndText(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockExtract := new(pdftext.MockExtractor)

	mockExtract.On("Pages", mock.Anything).
		Return([]pdftext.Page{{Number: 7, Text: "some content"}}, nil).Once()

	var gotPrompt string
	mockLLM.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { gotPrompt = args.String(1) }).
		Return("ok", nil).Once()

	tr := newTestTranscriber(mockLLM, mockExtract)
	if _, err := tr.Strict(context.Background(), []byte("pdf")); err != nil {
		t.Fatalf("Strict: %v", err)
	}

	if !strings.Contains(gotPrompt, "Page 7") {
		t.Errorf("expected prompt to name the page, got %q", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "some content") {
		t.Errorf("expected prompt to embed page text, got %q", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "Do not summarize") {
		t.Errorf("expected verbatim instruction, got %q", gotPrompt)
	}
}

func TestStrictAbortsOnPageFailure(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockExtract := new(pdftext.MockExtractor)

	mockExtract.On("Pages", mock.Anything).Return(fourPages(), nil).Once()
	mockLLM.On("Generate", mock.Anything, mock.Anything).
		Return("", errors.New("model blew up")).Once()

	tr := newTestTranscriber(mockLLM, mockExtract)
	out, err := tr.Strict(context.Background(), []byte("pdf"))
	if err == nil {
		t.Fatal("expected error when a page call fails")
	}
	if out != "" {
		t.Errorf("expected partial output discarded, got %q", out)
	}
	if !strings.Contains(err.Error(), "page 2") {
		t.Errorf("expected error to name the failing page, got %v", err)
	}
	// No further pages attempted after the failure.
	mockLLM.AssertNumberOfCalls(t, "Generate", 1)
}

func TestStrictDecodeFailure(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockExtract := new(pdftext.MockExtractor)

	mockExtract.On("Pages", mock.Anything).Return(nil, errors.New("bad pdf")).Once()

	tr := newTestTranscriber(mockLLM, mockExtract)
	if _, err := tr.Strict(context.Background(), []byte("junk")); err == nil {
		t.Fatal("expected decode error")
	}
	mockLLM.AssertNumberOfCalls(t, "Generate", 0)
}

func TestOCRFallbackCallsEveryPage(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockExtract := new(pdftext.MockExtractor)

	mockExtract.On("Pages", mock.Anything).Return(fourPages(), nil).Once()
	mockLLM.On("Generate", mock.Anything, mock.Anything).Return("page text", nil).Times(4)

	tr := newTestTranscriber(mockLLM, mockExtract)
	out, err := tr.OCRFallback(context.Background(), []byte("pdf"))
	if err != nil {
		t.Fatalf("OCRFallback: %v", err)
	}

	mockLLM.AssertNumberOfCalls(t, "Generate", 4)
	last := -1
	for _, n := range []int{1, 2, 3, 4} {
		idx := strings.Index(out, fmt.Sprintf("--- Page %d ---", n))
		if idx < 0 {
			t.Fatalf("missing marker for page %d in %q", n, out)
		}
		if idx < last {
			t.Fatalf("marker for page %d out of order in %q", n, out)
		}
		last = idx
	}
}

func TestOCRFallbackPromptsByPageKind(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockExtract := new(pdftext.MockExtractor)

	mockExtract.On("Pages", mock.Anything).Return([]pdftext.Page{
		{Number: 1, Text: "Hello"},
		{Number: 2, Text: ""},
	}, nil).Once()

	var prompts []string
	mockLLM.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { prompts = append(prompts, args.String(1)) }).
		Return("out", nil).Times(2)

	tr := newTestTranscriber(mockLLM, mockExtract)
	if _, err := tr.OCRFallback(context.Background(), []byte("pdf")); err != nil {
		t.Fatalf("OCRFallback: %v", err)
	}

	if len(prompts) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(prompts))
	}
	if !strings.Contains(prompts[0], "Hello") {
		t.Errorf("expected text page prompt to embed extracted text, got %q", prompts[0])
	}
	if !strings.Contains(prompts[1], "image") {
		t.Errorf("expected empty page prompt to ask for image extraction, got %q", prompts[1])
	}
}

func TestOCRFallbackIsolatesPageFailure(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockExtract := new(pdftext.MockExtractor)

	mockExtract.On("Pages", mock.Anything).Return([]pdftext.Page{
		{Number: 1, Text: "alpha"},
		{Number: 2, Text: "bravo"},
		{Number: 3, Text: "charlie"},
		{Number: 4, Text: "delta"},
	}, nil).Once()

	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "charlie")
	})).Return("", errors.New("timeout")).Once()
	mockLLM.On("Generate", mock.Anything, mock.Anything).Return("ok", nil).Times(3)

	tr := newTestTranscriber(mockLLM, mockExtract)
	out, err := tr.OCRFallback(context.Background(), []byte("pdf"))
	if err != nil {
		t.Fatalf("OCRFallback should not fail on a single page: %v", err)
	}

	for _, n := range []int{1, 2, 3, 4} {
		if !strings.Contains(out, fmt.Sprintf("--- Page %d ---", n)) {
			t.Errorf("missing marker for page %d", n)
		}
	}
	if !strings.Contains(out, "(model error on page 3") {
		t.Errorf("expected placeholder for failed page 3, got %q", out)
	}
	if !strings.Contains(out, "timeout") {
		t.Errorf("expected failure reason in placeholder, got %q", out)
	}
}

func TestOCRFallbackTrimsModelOutput(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockExtract := new(pdftext.MockExtractor)

	mockExtract.On("Pages", mock.Anything).
		Return([]pdftext.Page{{Number: 1, Text: "x"}}, nil).Once()
	mockLLM.On("Generate", mock.Anything, mock.Anything).Return("  padded  \n", nil).Once()

	tr := newTestTranscriber(mockLLM, mockExtract)
	out, err := tr.OCRFallback(context.Background(), []byte("pdf"))
	if err != nil {
		t.Fatalf("OCRFallback: %v", err)
	}
	if !strings.HasSuffix(out, "\n--- Page 1 ---\npadded") {
		t.Errorf("expected trimmed page text, got %q", out)
	}
}
