// Package testutil provides test helpers shared by secretconf packages.
//
// It contains a fluent builder for secretconf.yaml files and a logger that
// captures output for assertions.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/systmms/secretconf/internal/config"
	"github.com/systmms/secretconf/pkg/awsclient"
	"github.com/systmms/secretconf/pkg/azurekeyvault"
	"github.com/systmms/secretconf/pkg/gcpsecretmanager"
)

// TestConfigBuilder builds a secretconf.yaml in a temporary directory.
//
// Example usage:
//
//	path := NewTestConfig(t).
//	    WithFile("appsettings.json", `{"logging":{"level":"warn"}}`).
//	    WithSource(config.SourceConfig{Type: "json", Path: "appsettings.json"}).
//	    WithSecret("aws.secretsmanager", "prod/app", false).
//	    Write()
type TestConfigBuilder struct {
	config  *config.Definition
	tempDir string
	t       *testing.T
}

// NewTestConfig creates a builder holding a valid, empty configuration.
func NewTestConfig(t *testing.T) *TestConfigBuilder {
	t.Helper()

	return &TestConfigBuilder{
		config:  &config.Definition{Version: config.CurrentVersion},
		tempDir: t.TempDir(),
		t:       t,
	}
}

// WithAWS sets the aws section.
func (b *TestConfigBuilder) WithAWS(c awsclient.Config) *TestConfigBuilder {
	b.config.AWS = c
	return b
}

// WithGCP sets the gcp section.
func (b *TestConfigBuilder) WithGCP(c gcpsecretmanager.Config) *TestConfigBuilder {
	b.config.GCP = c
	return b
}

// WithAzure sets the azure section.
func (b *TestConfigBuilder) WithAzure(c azurekeyvault.Config) *TestConfigBuilder {
	b.config.Azure = c
	return b
}

// WithSource appends a source.
func (b *TestConfigBuilder) WithSource(src config.SourceConfig) *TestConfigBuilder {
	b.config.Sources = append(b.config.Sources, src)
	return b
}

// WithSecret appends a secret store source.
func (b *TestConfigBuilder) WithSecret(sourceType, name string, optional bool) *TestConfigBuilder {
	return b.WithSource(config.SourceConfig{Type: sourceType, Name: name, Optional: optional})
}

// WithFile writes a file next to the configuration, for json sources and
// schemas.
func (b *TestConfigBuilder) WithFile(name, content string) *TestConfigBuilder {
	b.t.Helper()

	if err := os.WriteFile(filepath.Join(b.tempDir, name), []byte(content), 0644); err != nil {
		b.t.Fatalf("Failed to write %s: %v", name, err)
	}
	return b
}

// Build returns the in-memory Definition.
func (b *TestConfigBuilder) Build() *config.Definition {
	return b.config
}

// Write writes secretconf.yaml and returns its path.
func (b *TestConfigBuilder) Write() string {
	b.t.Helper()

	data, err := yaml.Marshal(b.config)
	if err != nil {
		b.t.Fatalf("Failed to marshal test config: %v", err)
	}
	return writeConfig(b.t, b.tempDir, data)
}

// WriteTestConfig writes a hand-written YAML document to secretconf.yaml in
// a temporary directory and returns its path.
func WriteTestConfig(t *testing.T, yamlContent string) string {
	t.Helper()
	return writeConfig(t, t.TempDir(), []byte(yamlContent))
}

func writeConfig(t *testing.T, dir string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, "secretconf.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}
