package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/YoussefMamlouk/ophta-flow/internal/biometry"
	"github.com/YoussefMamlouk/ophta-flow/internal/config"
	"github.com/YoussefMamlouk/ophta-flow/internal/xlsx"
)

const (
	multipartMemoryLimit = 32 << 20
	shutdownTimeout      = 5 * time.Second

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Server is the HTTP upload boundary: it accepts biometry report PDFs plus
// an optional tracking workbook and returns the merged workbook.
type Server struct {
	config    *config.Config
	extractor *biometry.Service
	merger    *xlsx.Merger
}

// NewServer creates the HTTP boundary around the extraction service.
func NewServer(cfg *config.Config, extractor *biometry.Service, merger *xlsx.Merger) (*Server, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if merger == nil {
		return nil, fmt.Errorf("merger cannot be nil")
	}
	return &Server{config: cfg, extractor: extractor, merger: merger}, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/extract", s.handleExtract)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": s.config.ServerName,
		"version": s.config.Version,
	})
}

// handleExtract accepts a machine type selector, one or more report PDFs,
// and an optional existing workbook; it responds with the merged workbook
// as a download.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	s.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	machineType := r.FormValue("machine_type")
	if _, err := biometry.ParserFor(machineType); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pdfHeaders := r.MultipartForm.File["pdf_files"]
	if len(pdfHeaders) == 0 {
		writeError(w, http.StatusBadRequest, "at least one PDF file is required")
		return
	}

	tempDir, err := os.MkdirTemp("", "ophta-flow-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create working directory")
		return
	}
	defer os.RemoveAll(tempDir)

	var allRecords []biometry.Record
	for _, header := range pdfHeaders {
		pdfPath, err := saveUpload(header, tempDir)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store %s", header.Filename))
			return
		}

		result, err := s.extractor.ExtractFile(biometry.ExtractFileRequest{
			Path:        pdfPath,
			MachineType: machineType,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError,
				fmt.Sprintf("error parsing PDF %s: %v", header.Filename, err))
			return
		}
		if s.config.IsDebug() {
			log.Printf("extracted %d records from %s (%d pages)",
				len(result.Records), header.Filename, result.Pages)
		}
		allRecords = append(allRecords, result.Records...)
	}

	existingPath := ""
	if excelHeaders := r.MultipartForm.File["excel_file"]; len(excelHeaders) > 0 {
		existingPath, err = saveUpload(excelHeaders[0], tempDir)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store workbook")
			return
		}
	}

	outputPath := filepath.Join(tempDir, "output.xlsx")
	if err := s.merger.Merge(existingPath, allRecords, outputPath); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("error creating workbook: %v", err))
		return
	}

	content, err := os.ReadFile(outputPath)
	if err != nil || len(content) == 0 {
		writeError(w, http.StatusInternalServerError, "output workbook is empty")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename=extracted_data.xlsx`)
	_, _ = w.Write(content)
}

func (s *Server) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", s.config.AllowedOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// saveUpload copies one uploaded file into dir and returns its path. Only
// the base name of the client-provided filename is used.
func saveUpload(header *multipart.FileHeader, dir string) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(dir, filepath.Base(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
