// Package compose turns a loaded secretconf.yaml definition into a
// configuration builder.
package compose

import (
	"fmt"
	"sort"

	"github.com/systmms/secretconf/internal/config"
	dserrors "github.com/systmms/secretconf/internal/errors"
	"github.com/systmms/secretconf/internal/logging"
	"github.com/systmms/secretconf/pkg/awssecretsmanager"
	"github.com/systmms/secretconf/pkg/awsssm"
	"github.com/systmms/secretconf/pkg/azurekeyvault"
	"github.com/systmms/secretconf/pkg/configuration"
	"github.com/systmms/secretconf/pkg/configuration/fileprovider"
	"github.com/systmms/secretconf/pkg/configuration/jsonsource"
	"github.com/systmms/secretconf/pkg/gcpsecretmanager"
	"github.com/systmms/secretconf/pkg/secretfile"
)

// Source types understood in the sources section.
const (
	TypeJSON              = "json"
	TypeEnv               = "env"
	TypeMemory            = "memory"
	TypeAWSSecretsManager = "aws.secretsmanager"
	TypeAWSSSM            = "aws.ssm"
	TypeGCPSecretManager  = "gcp.secretmanager"
	TypeAzureKeyVault     = "azure.keyvault"
)

// Clients overrides the SDK client factories, mainly for tests. A nil field
// uses the store's default factory built from the definition.
type Clients struct {
	SecretsManager awssecretsmanager.ClientFactory
	SSM            awsssm.ClientFactory
	GCP            gcpsecretmanager.ClientFactory
	Azure          azurekeyvault.ClientFactory
}

// Registry maps source types to the code registering them
type Registry struct {
	clients  Clients
	logger   *logging.Logger
	observer secretfile.Observer
	adders   map[string]adder
}

type adder func(r *Registry, b *configuration.Builder, def *config.Definition, src config.SourceConfig) *configuration.Builder

// Option configures a Registry.
type Option func(*Registry)

// WithClients overrides SDK client factories.
func WithClients(c Clients) Option {
	return func(r *Registry) { r.clients = c }
}

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithObserver sets the observer notified of every secret fetch.
func WithObserver(o secretfile.Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// NewRegistry creates a registry with every built-in source type
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		adders: map[string]adder{
			TypeJSON:              addJSON,
			TypeEnv:               addEnv,
			TypeMemory:            addMemory,
			TypeAWSSecretsManager: addSecretsManager,
			TypeAWSSSM:            addSSM,
			TypeGCPSecretManager:  addGCP,
			TypeAzureKeyVault:     addAzure,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsSupported checks if a source type is supported
func (r *Registry) IsSupported(sourceType string) bool {
	_, ok := r.adders[sourceType]
	return ok
}

// GetSupportedTypes returns the supported source types, sorted
func (r *Registry) GetSupportedTypes() []string {
	types := make([]string, 0, len(r.adders))
	for t := range r.adders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsSecretStore reports whether sourceType fetches from a remote secret store
func IsSecretStore(sourceType string) bool {
	switch sourceType {
	case TypeAWSSecretsManager, TypeAWSSSM, TypeGCPSecretManager, TypeAzureKeyVault:
		return true
	}
	return false
}

// Builder registers every source of cfg, in order, on a new builder. json
// paths are resolved relative to the configuration file. Registration
// problems are reported by the builder's Build.
func (r *Registry) Builder(cfg *config.Config) (*configuration.Builder, error) {
	if cfg.Definition == nil {
		return nil, dserrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	b := configuration.NewBuilder().SetFileProvider(fileprovider.NewPhysical(cfg.Dir()))
	for i, src := range cfg.Definition.Sources {
		add, ok := r.adders[src.Type]
		if !ok {
			return nil, dserrors.ConfigError{
				Field:      fmt.Sprintf("sources[%d].type", i),
				Value:      src.Type,
				Message:    "unsupported source type",
				Suggestion: fmt.Sprintf("Use one of: %v", r.GetSupportedTypes()),
			}
		}
		if err := requireField(i, src); err != nil {
			return nil, err
		}
		r.debug("Registering source %d: %s", i, src.Describe())
		add(r, b, cfg.Definition, src)
	}
	return b, nil
}

func requireField(i int, src config.SourceConfig) error {
	field, value := "name", src.Name
	switch src.Type {
	case TypeJSON:
		field, value = "path", src.Path
	case TypeEnv, TypeMemory:
		return nil
	}
	if value != "" {
		return nil
	}
	return dserrors.ConfigError{
		Field:      fmt.Sprintf("sources[%d].%s", i, field),
		Message:    fmt.Sprintf("%s is required for %s sources", field, src.Type),
		Suggestion: fmt.Sprintf("Add '%s:' to the source entry", field),
	}
}

// FileOptions returns the file provider options applied to secret sources.
func (r *Registry) FileOptions() []secretfile.Option {
	var opts []secretfile.Option
	if r.logger != nil {
		opts = append(opts, secretfile.WithLogger(r.logger))
	}
	if r.observer != nil {
		opts = append(opts, secretfile.WithObserver(r.observer))
	}
	return opts
}

func (r *Registry) debug(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(format, args...)
	}
}

func addJSON(_ *Registry, b *configuration.Builder, _ *config.Definition, src config.SourceConfig) *configuration.Builder {
	return jsonsource.Add(b, src.Path, src.Optional)
}

func addEnv(_ *Registry, b *configuration.Builder, _ *config.Definition, src config.SourceConfig) *configuration.Builder {
	return b.Add(&configuration.EnvSource{Prefix: src.Prefix})
}

func addMemory(_ *Registry, b *configuration.Builder, _ *config.Definition, src config.SourceConfig) *configuration.Builder {
	return b.Add(&configuration.MemorySource{Values: src.Values})
}

func addSecretsManager(r *Registry, b *configuration.Builder, def *config.Definition, src config.SourceConfig) *configuration.Builder {
	factory := r.clients.SecretsManager
	if factory == nil {
		factory = awssecretsmanager.DefaultClientFactory(def.AWS)
	}
	opts := []awssecretsmanager.Option{awssecretsmanager.WithClientFactory(factory)}
	if r.logger != nil {
		opts = append(opts, awssecretsmanager.WithLogger(r.logger))
	}
	if r.observer != nil {
		opts = append(opts, awssecretsmanager.WithObserver(r.observer))
	}
	return awssecretsmanager.AddOptional(b, src.Name, src.Optional, opts...)
}

func addSSM(r *Registry, b *configuration.Builder, def *config.Definition, src config.SourceConfig) *configuration.Builder {
	factory := r.clients.SSM
	if factory == nil {
		factory = awsssm.DefaultClientFactory(def.AWS)
	}
	return awsssm.AddOptional(b, src.Name, src.Optional,
		awsssm.WithClientFactory(factory),
		awsssm.WithFileOptions(r.FileOptions()...))
}

func addGCP(r *Registry, b *configuration.Builder, def *config.Definition, src config.SourceConfig) *configuration.Builder {
	opts := []gcpsecretmanager.Option{
		gcpsecretmanager.WithConfig(def.GCP),
		gcpsecretmanager.WithFileOptions(r.FileOptions()...),
	}
	if r.clients.GCP != nil {
		opts = append(opts, gcpsecretmanager.WithClientFactory(r.clients.GCP))
	}
	return gcpsecretmanager.AddOptional(b, src.Name, src.Optional, opts...)
}

func addAzure(r *Registry, b *configuration.Builder, def *config.Definition, src config.SourceConfig) *configuration.Builder {
	opts := []azurekeyvault.Option{
		azurekeyvault.WithConfig(def.Azure),
		azurekeyvault.WithFileOptions(r.FileOptions()...),
	}
	if r.clients.Azure != nil {
		opts = append(opts, azurekeyvault.WithClientFactory(r.clients.Azure))
	}
	return azurekeyvault.AddOptional(b, src.Name, src.Optional, opts...)
}
