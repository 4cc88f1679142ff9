// Package extract turns an uploaded CV file into plain text. Extraction
// never fails the caller: unreadable or unsupported input degrades to a
// human-readable diagnostic string that flows through the pipeline instead.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Extractor converts one file format into plain text.
type Extractor interface {
	// Extract reads the file at path and returns its text content.
	Extract(path string) (string, error)

	// SupportedTypes returns the file extensions this extractor handles
	// (lowercase, with leading dot).
	SupportedTypes() []string
}

// Service routes extraction to the registered Extractor for the file's
// extension.
type Service struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
	logger     *zap.Logger
}

// NewService creates a Service pre-populated with the PDF and DOCX
// extractors.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		extractors: make(map[string]Extractor),
		logger:     logger.With(zap.String("component", "extract")),
	}
	for _, e := range []Extractor{NewPDFExtractor(), NewDOCXExtractor()} {
		for _, ext := range e.SupportedTypes() {
			s.extractors[strings.ToLower(ext)] = e
		}
	}
	return s
}

// Register adds or replaces an extractor for the given extension.
func (s *Service) Register(ext string, e Extractor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extractors[strings.ToLower(ext)] = e
}

// Extract returns the text of the file at path, or a diagnostic string when
// the path is missing, the extension is unsupported, or extraction fails.
// The returned text is always safe to feed downstream.
func (s *Service) Extract(path string) string {
	if strings.TrimSpace(path) == "" {
		return "No CV file provided."
	}

	ext := strings.ToLower(filepath.Ext(path))

	s.mu.RLock()
	e, ok := s.extractors[ext]
	s.mu.RUnlock()

	if !ok {
		s.logger.Warn("unsupported cv file type", zap.String("path", path), zap.String("ext", ext))
		return fmt.Sprintf("Unsupported file type: %s. Please upload PDF or DOCX.", ext)
	}

	text, err := e.Extract(path)
	if err != nil {
		s.logger.Warn("cv extraction failed", zap.String("path", path), zap.Error(err))
		return fmt.Sprintf("Error reading CV file: %v", err)
	}
	return text
}
