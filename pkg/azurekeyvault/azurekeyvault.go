// Package azurekeyvault exposes a JSON secret stored in Azure Key Vault as a
// configuration source. The current version of the secret is always read.
package azurekeyvault

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/secretconf/pkg/configuration"
	"github.com/systmms/secretconf/pkg/configuration/jsonsource"
	"github.com/systmms/secretconf/pkg/secretfile"
)

// StoreName identifies Key Vault in logs and metrics.
const StoreName = "azure.keyvault"

// Client is the subset of *azsecrets.Client used by this package.
type Client interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// Config selects the vault and how to authenticate to it. Without a client
// secret or managed identity the default Azure credential chain is used.
type Config struct {
	VaultURL string `yaml:"vault_url"`

	TenantID     string `yaml:"tenant_id,omitempty"`
	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`

	UseManagedIdentity bool   `yaml:"use_managed_identity,omitempty"`
	UserAssignedID     string `yaml:"user_assigned_id,omitempty"`
}

// ClientFactory creates the client used when none is supplied.
type ClientFactory func(ctx context.Context) (Client, error)

// DefaultClientFactory returns a factory for the vault named by c.
func DefaultClientFactory(c Config) ClientFactory {
	return func(context.Context) (Client, error) {
		if c.VaultURL == "" {
			return nil, fmt.Errorf("vault URL is required: %w", configuration.ErrInvalidArgument)
		}
		if _, err := url.ParseRequestURI(c.VaultURL); err != nil {
			return nil, fmt.Errorf("invalid vault URL %q: %w", c.VaultURL, configuration.ErrInvalidArgument)
		}

		cred, err := credential(c)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}
		client, err := azsecrets.NewClient(c.VaultURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
		}
		return client, nil
	}
}

func credential(c Config) (azcore.TokenCredential, error) {
	switch {
	case c.UseManagedIdentity && c.UserAssignedID != "":
		return azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
			ID: azidentity.ClientID(c.UserAssignedID),
		})
	case c.UseManagedIdentity:
		return azidentity.NewManagedIdentityCredential(nil)
	case c.ClientSecret != "":
		return azidentity.NewClientSecretCredential(c.TenantID, c.ClientID, c.ClientSecret, nil)
	default:
		return azidentity.NewDefaultAzureCredential(nil)
	}
}

type fetcher struct {
	client Client
}

func (f fetcher) Fetch(ctx context.Context, name string) (secretfile.Payload, bool, error) {
	resp, err := f.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return secretfile.Payload{}, false, nil
		}
		return secretfile.Payload{}, false, err
	}

	p := secretfile.Payload{Name: name, Text: resp.Value}
	if resp.Value == nil {
		empty := ""
		p.Text = &empty
	}
	if resp.ID != nil {
		p.Version = resp.ID.Version()
	}
	if a := resp.Attributes; a != nil {
		switch {
		case a.Updated != nil:
			p.CreatedAt = *a.Updated
		case a.Created != nil:
			p.CreatedAt = *a.Created
		}
	}
	return p, true, nil
}

// NewFileProvider returns a file provider that resolves each name to the
// current version of the secret with that name.
func NewFileProvider(client Client, opts ...secretfile.Option) *secretfile.Provider {
	return secretfile.NewProvider(StoreName, fetcher{client: client}, opts...)
}

// Source is a configuration source backed by one secret.
type Source struct {
	name     string
	optional bool
	client   Client
	fileOpts []secretfile.Option
}

type options struct {
	config   Config
	client   Client
	factory  ClientFactory
	fileOpts []secretfile.Option
}

// Option configures a Source.
type Option func(*options)

// WithConfig sets the vault and credentials used by the default client.
func WithConfig(c Config) Option {
	return func(o *options) { o.config = c }
}

// WithClient sets the client used for every fetch.
func WithClient(client Client) Option {
	return func(o *options) { o.client = client }
}

// WithClientFactory sets the factory used when no client is supplied.
func WithClientFactory(factory ClientFactory) Option {
	return func(o *options) { o.factory = factory }
}

// WithFileOptions passes options to the underlying file provider.
func WithFileOptions(opts ...secretfile.Option) Option {
	return func(o *options) { o.fileOpts = append(o.fileOpts, opts...) }
}

// NewSource returns a source for the secret called name.
func NewSource(name string, optional bool, opts ...Option) (*Source, error) {
	if name == "" {
		return nil, fmt.Errorf("secret name must not be empty: %w", configuration.ErrInvalidArgument)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	client := o.client
	if client == nil {
		factory := o.factory
		if factory == nil {
			factory = DefaultClientFactory(o.config)
		}
		var err error
		if client, err = factory(context.Background()); err != nil {
			return nil, err
		}
	}
	return &Source{name: name, optional: optional, client: client, fileOpts: o.fileOpts}, nil
}

// Build implements configuration.Source.
func (s *Source) Build(ctx context.Context, b *configuration.Builder) (*configuration.Provider, error) {
	json := &jsonsource.Source{
		FileProvider: NewFileProvider(s.client, s.fileOpts...),
		Path:         s.name,
		Optional:     s.optional,
	}
	return json.Build(ctx, b)
}

// Add registers a required secret fetched with the default client.
func Add(b *configuration.Builder, name string, opts ...Option) *configuration.Builder {
	return AddOptional(b, name, false, opts...)
}

// AddOptional registers a secret fetched with the default client.
func AddOptional(b *configuration.Builder, name string, optional bool, opts ...Option) *configuration.Builder {
	src, err := NewSource(name, optional, opts...)
	if err != nil {
		return b.AddError(err)
	}
	return b.Add(src)
}

// AddWithClient registers a secret fetched with client.
func AddWithClient(b *configuration.Builder, name string, optional bool, client Client, opts ...Option) *configuration.Builder {
	if client == nil {
		return b.AddError(fmt.Errorf("client must not be nil: %w", configuration.ErrInvalidArgument))
	}
	return AddOptional(b, name, optional, append(opts, WithClient(client))...)
}
