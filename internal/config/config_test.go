package config

import (
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != ModeServer {
		t.Errorf("Expected default mode to be 'server', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.ServerName != "ophta-flow" {
		t.Errorf("Expected default server name to be 'ophta-flow', got '%s'", cfg.ServerName)
	}

	if cfg.SheetName != "donnée" {
		t.Errorf("Expected default sheet name to be 'donnée', got '%s'", cfg.SheetName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 50*1024*1024 {
		t.Errorf("Expected default max file size to be 50MB, got %d", cfg.MaxFileSize)
	}

	currentDir, _ := os.Getwd()
	if cfg.WorkDirectory != currentDir {
		t.Errorf("Expected default working directory to be '%s', got '%s'", currentDir, cfg.WorkDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	tmpDir := t.TempDir()

	valid := func() *Config {
		return &Config{
			Mode:          ModeServer,
			Host:          "127.0.0.1",
			Port:          8080,
			WorkDirectory: tmpDir,
			SheetName:     "donnée",
			LogLevel:      "info",
			MaxFileSize:   1024,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config - server mode",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid config - stdio mode",
			mutate: func(c *Config) { c.Mode = ModeStdio },
		},
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Mode = "invalid" },
			wantErr: "mode must be",
		},
		{
			name:    "invalid port - too low (server mode)",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: "port must be",
		},
		{
			name:    "invalid port - too high (server mode)",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: "port must be",
		},
		{
			name: "port ignored in stdio mode",
			mutate: func(c *Config) {
				c.Mode = ModeStdio
				c.Port = 0
			},
		},
		{
			name:    "empty working directory",
			mutate:  func(c *Config) { c.WorkDirectory = "" },
			wantErr: "working directory",
		},
		{
			name:    "empty sheet name",
			mutate:  func(c *Config) { c.SheetName = "" },
			wantErr: "sheet name",
		},
		{
			name:    "non-positive max file size",
			mutate:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: "maximum file size",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateCreatesMissingDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/workdir"
	cfg := &Config{
		Mode:          ModeStdio,
		WorkDirectory: dir,
		SheetName:     "donnée",
		LogLevel:      "info",
		MaxFileSize:   1024,
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("expected directory to be created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory", dir)
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.Address(); got != "127.0.0.1:8080" {
		t.Errorf("Address() = %s, want 127.0.0.1:8080", got)
	}

	if cfg.IsDebug() {
		t.Error("IsDebug() should be false for info level")
	}
	cfg.LogLevel = "debug"
	if !cfg.IsDebug() {
		t.Error("IsDebug() should be true for debug level")
	}

	if !cfg.IsServerMode() || cfg.IsStdioMode() {
		t.Error("default config should report server mode")
	}
	cfg.Mode = ModeStdio
	if cfg.IsServerMode() || !cfg.IsStdioMode() {
		t.Error("stdio config should report stdio mode")
	}

	if !strings.Contains(cfg.String(), "SheetName: donnée") {
		t.Errorf("String() missing sheet name: %s", cfg.String())
	}
}
