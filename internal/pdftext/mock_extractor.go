package pdftext

import (
	"github.com/stretchr/testify/mock"
)

// MockExtractor is a mock implementation of Extractor using testify/mock.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Pages(content []byte) ([]Page, error) {
	args := m.Called(content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Page), args.Error(1)
}
