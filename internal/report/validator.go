package report

import (
	"fmt"
	"os"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ValidateFileRequest represents a request to validate a report PDF
type ValidateFileRequest struct {
	Path string `json:"path"`
}

// ValidateFileResult represents the result of a report validation operation
type ValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Message string `json:"message,omitempty"`
}

// Validator handles report file validation operations
type Validator struct {
	maxFileSize int64
	pdfcpuConf  *model.Configuration
}

// NewValidator creates a new report validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Validator{
		maxFileSize: maxFileSize,
		pdfcpuConf:  conf,
	}
}

// ValidateFile performs comprehensive validation on a report PDF
func (v *Validator) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	result := &ValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	err := v.validateReportFile(req.Path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	result.Valid = true
	return result, nil
}

// validateReportFile performs detailed validation on a report PDF
func (v *Validator) validateReportFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	// Check if file exists and get basic info
	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	// Check if it's a regular file (not a directory)
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	// Check file extension
	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	// Check file size
	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	// Structural validation first; instrument PDFs are occasionally sloppy,
	// hence relaxed mode.
	if err := api.ValidateFile(filePath, v.pdfcpuConf); err != nil {
		return fmt.Errorf("invalid PDF structure: %w", err)
	}

	// Try to open the PDF to confirm text extraction is possible
	f, _, err := ledongthuc.Open(filePath)
	if err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	return nil
}

// IsValidPDF performs a quick check to see if a file is a valid report PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	return v.validateReportFile(filePath) == nil
}
