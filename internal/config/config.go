package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/secretconf/internal/errors"
	"github.com/systmms/secretconf/internal/logging"
	"github.com/systmms/secretconf/pkg/awsclient"
	"github.com/systmms/secretconf/pkg/azurekeyvault"
	"github.com/systmms/secretconf/pkg/gcpsecretmanager"
)

// CurrentVersion is the only supported value of the version field.
const CurrentVersion = 1

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the secretconf.yaml structure
type Definition struct {
	Version int                     `yaml:"version"`
	AWS     awsclient.Config        `yaml:"aws,omitempty"`
	GCP     gcpsecretmanager.Config `yaml:"gcp,omitempty"`
	Azure   azurekeyvault.Config    `yaml:"azure,omitempty"`
	Sources []SourceConfig          `yaml:"sources"`
}

// SourceConfig describes one configuration source. Sources are merged in
// order, later sources overriding earlier ones.
type SourceConfig struct {
	Type string `yaml:"type"`

	// Name is the secret or parameter name for secret store sources.
	Name string `yaml:"name,omitempty"`
	// Path is the file path for json sources, relative to the config file.
	Path string `yaml:"path,omitempty"`
	// Prefix filters environment variables for env sources.
	Prefix string `yaml:"prefix,omitempty"`
	// Values are the literal entries of memory sources.
	Values map[string]string `yaml:"values,omitempty"`

	Optional bool `yaml:"optional,omitempty"`
}

// Describe returns a short human-readable label for the source.
func (s SourceConfig) Describe() string {
	switch {
	case s.Name != "":
		return fmt.Sprintf("%s %q", s.Type, s.Name)
	case s.Path != "":
		return fmt.Sprintf("%s %q", s.Type, s.Path)
	case s.Prefix != "":
		return fmt.Sprintf("%s %q", s.Type, s.Prefix)
	default:
		return s.Type
	}
}

// Load reads and parses the secretconf.yaml file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Create secretconf.yaml or pass --config with the path to your file",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if def.Version != CurrentVersion {
		return dserrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: fmt.Sprintf("Set 'version: %d' at the top of your secretconf.yaml file", CurrentVersion),
		}
	}

	for i, src := range def.Sources {
		if src.Type == "" {
			return dserrors.ConfigError{
				Field:      fmt.Sprintf("sources[%d].type", i),
				Message:    "source type is required",
				Suggestion: "Add a type such as 'aws.secretsmanager' or 'json'",
			}
		}
	}

	if c.Logger != nil {
		c.Logger.Debug("Loaded %d sources from %s", len(def.Sources), c.Path)
	}
	c.Definition = &def
	return nil
}

// Dir returns the directory json source paths are resolved against.
func (c *Config) Dir() string {
	return filepath.Dir(c.Path)
}
