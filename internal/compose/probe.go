package compose

import (
	"context"
	"fmt"

	"github.com/systmms/secretconf/internal/config"
	"github.com/systmms/secretconf/pkg/awssecretsmanager"
	"github.com/systmms/secretconf/pkg/awsssm"
	"github.com/systmms/secretconf/pkg/azurekeyvault"
	"github.com/systmms/secretconf/pkg/configuration/fileprovider"
	"github.com/systmms/secretconf/pkg/gcpsecretmanager"
)

// ProbeStatus classifies the result of probing one secret source.
type ProbeStatus string

const (
	ProbeFound    ProbeStatus = "found"
	ProbeNotFound ProbeStatus = "not found"
	ProbeError    ProbeStatus = "error"
)

// ProbeResult describes whether a secret source resolves. It never carries
// the secret value.
type ProbeResult struct {
	Source  config.SourceConfig
	Status  ProbeStatus
	Version string
	Size    int64
	Err     error
}

// Probe fetches every secret store source of def once and reports whether
// it exists. Non-secret sources are skipped.
func (r *Registry) Probe(ctx context.Context, def *config.Definition) []ProbeResult {
	var results []ProbeResult
	for _, src := range def.Sources {
		if !IsSecretStore(src.Type) {
			continue
		}
		results = append(results, r.probe(ctx, def, src))
	}
	return results
}

func (r *Registry) probe(ctx context.Context, def *config.Definition, src config.SourceConfig) ProbeResult {
	result := ProbeResult{Source: src}

	files, name, err := r.fileProvider(ctx, def, src)
	if err != nil {
		result.Status, result.Err = ProbeError, err
		return result
	}

	info, err := files.Stat(ctx, name)
	switch {
	case err != nil:
		result.Status, result.Err = ProbeError, err
	case !info.Exists():
		result.Status = ProbeNotFound
	default:
		result.Status = ProbeFound
		result.Size = info.Size()
		if v, ok := info.(interface{ Version() string }); ok {
			result.Version = v.Version()
		}
	}
	return result
}

func (r *Registry) fileProvider(ctx context.Context, def *config.Definition, src config.SourceConfig) (fileprovider.Provider, string, error) {
	if src.Name == "" {
		return nil, "", fmt.Errorf("%s source has no name", src.Type)
	}
	opts := r.FileOptions()

	switch src.Type {
	case TypeAWSSecretsManager:
		factory := r.clients.SecretsManager
		if factory == nil {
			factory = awssecretsmanager.DefaultClientFactory(def.AWS)
		}
		client, err := factory(ctx)
		if err != nil {
			return nil, "", err
		}
		return awssecretsmanager.NewFileProvider(client, opts...), src.Name, nil

	case TypeAWSSSM:
		factory := r.clients.SSM
		if factory == nil {
			factory = awsssm.DefaultClientFactory(def.AWS)
		}
		client, err := factory(ctx)
		if err != nil {
			return nil, "", err
		}
		return awsssm.NewFileProvider(client, opts...), src.Name, nil

	case TypeGCPSecretManager:
		resource, err := gcpsecretmanager.ResourceName(def.GCP.ProjectID, src.Name)
		if err != nil {
			return nil, "", err
		}
		factory := r.clients.GCP
		if factory == nil {
			factory = gcpsecretmanager.DefaultClientFactory(def.GCP)
		}
		client, err := factory(ctx)
		if err != nil {
			return nil, "", err
		}
		return gcpsecretmanager.NewFileProvider(client, opts...), resource, nil

	case TypeAzureKeyVault:
		factory := r.clients.Azure
		if factory == nil {
			factory = azurekeyvault.DefaultClientFactory(def.Azure)
		}
		client, err := factory(ctx)
		if err != nil {
			return nil, "", err
		}
		return azurekeyvault.NewFileProvider(client, opts...), src.Name, nil
	}
	return nil, "", fmt.Errorf("unsupported secret store type %q", src.Type)
}
