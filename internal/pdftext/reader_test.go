package pdftext

import (
	"testing"
)

func TestPagesMalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", []byte{}},
		{"not a pdf", []byte("hello world, definitely not a pdf")},
		{"truncated header", []byte("%PDF-1.4")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewReader().Pages(tt.content); err == nil {
				t.Error("expected decode error for malformed input")
			}
		})
	}
}
