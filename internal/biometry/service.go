package biometry

import (
	"fmt"

	"github.com/YoussefMamlouk/ophta-flow/internal/report"
)

// ExtractFileRequest represents a request to extract measurement records
// from a report PDF
type ExtractFileRequest struct {
	Path        string `json:"path"`
	MachineType string `json:"machine_type"`
}

// ExtractFileResult represents the result of an extraction operation
type ExtractFileResult struct {
	Path    string   `json:"path"`
	Pages   int      `json:"pages"`
	Records []Record `json:"records"`
}

// Service handles biometry report extraction by combining the report loader
// with the per-machine parsers.
type Service struct {
	loader *report.Loader
}

// NewService creates a new extraction service with the given file size
// constraint.
func NewService(maxFileSize int64) *Service {
	return &Service{
		loader: report.NewLoader(maxFileSize),
	}
}

// ExtractFile parses one report PDF into exactly two eye records.
func (s *Service) ExtractFile(req ExtractFileRequest) (*ExtractFileResult, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	parser, err := ParserFor(req.MachineType)
	if err != nil {
		return nil, err
	}

	doc, err := s.loader.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	return &ExtractFileResult{
		Path:    doc.Path,
		Pages:   doc.Pages,
		Records: parser.Parse(doc),
	}, nil
}
