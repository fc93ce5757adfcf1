package mcp

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/YoussefMamlouk/ophta-flow/internal/biometry"
	"github.com/YoussefMamlouk/ophta-flow/internal/config"
	"github.com/YoussefMamlouk/ophta-flow/internal/descriptions"
	"github.com/YoussefMamlouk/ophta-flow/internal/report"
	"github.com/YoussefMamlouk/ophta-flow/internal/xlsx"
)

// Server exposes the biometry extraction pipeline as MCP tools over stdio.
type Server struct {
	config    *config.Config
	extractor *biometry.Service
	validator *report.Validator
	merger    *xlsx.Merger
	guard     *report.PathGuard
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, extractor *biometry.Service, merger *xlsx.Merger) (*Server, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if merger == nil {
		return nil, fmt.Errorf("merger cannot be nil")
	}

	guard, err := report.NewPathGuard(cfg.WorkDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path guard: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		extractor: extractor,
		validator: report.NewValidator(cfg.MaxFileSize),
		merger:    merger,
		guard:     guard,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractTool := mcp.NewTool(
		"biometry_extract_file",
		mcp.WithDescription(descriptions.BiometryExtractFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the report PDF (relative paths resolve inside the working directory)"),
		),
		mcp.WithString("machine_type",
			mcp.Description("Instrument type (defaults to IOL700)"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtractFile)

	validateTool := mcp.NewTool(
		"biometry_validate_file",
		mcp.WithDescription(descriptions.BiometryValidateFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the report PDF"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateFile)

	exportTool := mcp.NewTool(
		"biometry_export_file",
		mcp.WithDescription(descriptions.BiometryExportFileDescription),
		mcp.WithString("paths",
			mcp.Required(),
			mcp.Description("Comma-separated report PDF paths"),
		),
		mcp.WithString("workbook",
			mcp.Description("Optional existing workbook to merge into"),
		),
		mcp.WithString("output",
			mcp.Required(),
			mcp.Description("Output workbook path"),
		),
		mcp.WithString("machine_type",
			mcp.Description("Instrument type (defaults to IOL700)"),
		),
	)
	s.mcpServer.AddTool(exportTool, s.handleExportFile)
}

// Handler functions
func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resolved, err := s.guard.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.extractor.ExtractFile(biometry.ExtractFileRequest{
		Path:        resolved,
		MachineType: s.machineType(request),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatExtractFileResult(result)), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resolved, err := s.guard.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.validator.ValidateFile(report.ValidateFileRequest{Path: resolved})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("Report %s is valid and readable", result.Path)
	} else {
		responseText = fmt.Sprintf("Report validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleExportFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawPaths, err := request.RequireString("paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	output, err := request.RequireString("output")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outputPath, err := s.guard.Resolve(output)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	machineType := s.machineType(request)

	var records []biometry.Record
	count := 0
	for _, raw := range strings.Split(rawPaths, ",") {
		path := strings.TrimSpace(raw)
		if path == "" {
			continue
		}
		resolved, err := s.guard.Resolve(path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, err := s.extractor.ExtractFile(biometry.ExtractFileRequest{
			Path:        resolved,
			MachineType: machineType,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("error parsing %s: %v", path, err)), nil
		}
		records = append(records, result.Records...)
		count++
	}
	if count == 0 {
		return mcp.NewToolResultError("no report paths given"), nil
	}

	workbookPath := ""
	args := request.GetArguments()
	if wb, ok := args["workbook"].(string); ok && wb != "" {
		workbookPath, err = s.guard.Resolve(wb)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	if err := s.merger.Merge(workbookPath, records, outputPath); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Merged %d records from %d reports into %s",
		len(records), count, outputPath)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) machineType(request mcp.CallToolRequest) string {
	args := request.GetArguments()
	if mt, ok := args["machine_type"].(string); ok && mt != "" {
		return mt
	}
	return biometry.MachineIOL700
}

func (s *Server) formatExtractFileResult(result *biometry.ExtractFileResult) string {
	text := fmt.Sprintf("Extracted %d records from %s (%d pages)\n",
		len(result.Records), filepath.Base(result.Path), result.Pages)

	fields := []string{
		biometry.FieldPatientID,
		biometry.FieldAge,
		biometry.FieldAL,
		biometry.FieldPachy,
		biometry.FieldACD,
		biometry.FieldLT,
		biometry.FieldK1,
		biometry.FieldK2,
		biometry.FieldWTW,
		biometry.FieldAxis,
	}
	for _, record := range result.Records {
		text += fmt.Sprintf("\n%s:\n", record[biometry.FieldEye])
		for _, field := range fields {
			value := record[field]
			if value == "" {
				value = "-"
			}
			text += fmt.Sprintf("  %s: %s\n", field, value)
		}
	}
	return text
}

// Run starts the MCP server over stdio
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting biometry MCP server in stdio mode")
		log.Printf("Working directory: %s", s.config.WorkDirectory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
