package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort          = 8080
	DefaultHost          = "127.0.0.1"
	DefaultLogLevel      = "info"
	DefaultMaxFileSize   = 50 * 1024 * 1024 // 50MB per uploaded report
	DefaultSheetName     = "donnée"
	DefaultAllowedOrigin = "http://localhost:3000"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the biometry extraction service
type Config struct {
	// Server configuration
	Mode string // "server" for the HTTP upload boundary, "stdio" for MCP tools
	Host string
	Port int

	// Extraction configuration
	WorkDirectory string // directory MCP tools may read reports from and write workbooks to
	SheetName     string // worksheet receiving merged measurement rows
	MaxFileSize   int64  // maximum PDF file size in bytes

	// HTTP configuration
	AllowedOrigin string // frontend origin allowed by CORS on the upload endpoint

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:          ModeServer, // the upload boundary is the primary interface
		Host:          DefaultHost,
		Port:          DefaultPort,
		WorkDirectory: currentDir,
		SheetName:     DefaultSheetName,
		MaxFileSize:   DefaultMaxFileSize,
		AllowedOrigin: getEnvOrDefault("FRONTEND_URL", DefaultAllowedOrigin),
		Version:       "1.0.0",
		ServerName:    "ophta-flow",
		LogLevel:      DefaultLogLevel,
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.WorkDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.WorkDirectory); err == nil {
			cfg.WorkDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("OPHTA")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.WorkDirectory)
	viper.SetDefault("sheet", cfg.SheetName)
	viper.SetDefault("origin", cfg.AllowedOrigin)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'server' for the HTTP upload endpoint, 'stdio' for MCP standard I/O")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.WorkDirectory, "Working directory for biometry reports and workbooks")
	pflag.String("sheet", cfg.SheetName, "Worksheet name that receives merged measurement rows")
	pflag.String("origin", cfg.AllowedOrigin, "Frontend origin allowed by CORS")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("sheet", pflag.Lookup("sheet"))
	_ = viper.BindPFlag("origin", pflag.Lookup("origin"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nophta-flow - Biometry report extraction and tracking spreadsheet service\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# HTTP upload endpoint on 127.0.0.1:8080 (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --host=0.0.0.0 --port=8081               # endpoint on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/path/to/reports      # MCP tool server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  OPHTA_MODE        Run mode\n")
		fmt.Fprintf(os.Stderr, "  OPHTA_HOST        Server host\n")
		fmt.Fprintf(os.Stderr, "  OPHTA_PORT        Server port\n")
		fmt.Fprintf(os.Stderr, "  OPHTA_DIR         Working directory\n")
		fmt.Fprintf(os.Stderr, "  OPHTA_SHEET       Target worksheet name\n")
		fmt.Fprintf(os.Stderr, "  OPHTA_ORIGIN      Allowed CORS origin\n")
		fmt.Fprintf(os.Stderr, "  OPHTA_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  OPHTA_MAXFILESIZE Maximum file size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.WorkDirectory = viper.GetString("dir")
	cfg.SheetName = viper.GetString("sheet")
	cfg.AllowedOrigin = viper.GetString("origin")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.WorkDirectory == "" {
		return errors.New("working directory cannot be empty")
	}

	// Check if working directory exists, create if it doesn't
	if _, err := os.Stat(c.WorkDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.WorkDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create working directory %s: %w", c.WorkDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access working directory %s: %w", c.WorkDirectory, err)
	}

	if c.SheetName == "" {
		return errors.New("sheet name cannot be empty")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, WorkDirectory: %s, SheetName: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.WorkDirectory, c.SheetName, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if running the HTTP upload boundary
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if running as an MCP stdio tool server
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
