// Package gcpsecretmanager exposes a JSON secret stored in Google Cloud
// Secret Manager as a configuration source.
//
// Secret names are resolved against Config.ProjectID and always read the
// "latest" version; a full resource name (projects/...) is used as given.
package gcpsecretmanager

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/secretconf/pkg/configuration"
	"github.com/systmms/secretconf/pkg/configuration/jsonsource"
	"github.com/systmms/secretconf/pkg/secretfile"
)

// StoreName identifies Secret Manager in logs and metrics.
const StoreName = "gcp.secretmanager"

// LatestVersion is the version alias every fetch requests.
const LatestVersion = "latest"

// Client is the subset of *secretmanager.Client used by this package.
type Client interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Config selects the project and credentials.
type Config struct {
	ProjectID string `yaml:"project_id,omitempty"`

	// CredentialsFile is a service account key file. "~/" is expanded.
	CredentialsFile string `yaml:"credentials_file,omitempty"`

	// ImpersonateServiceAccount is a service account email to impersonate.
	ImpersonateServiceAccount string `yaml:"impersonate_service_account,omitempty"`

	// Endpoint overrides the API endpoint, for emulators or testing.
	Endpoint string `yaml:"endpoint,omitempty"`
}

// ClientFactory creates the client used when none is supplied.
type ClientFactory func(ctx context.Context) (Client, error)

// DefaultClientFactory returns a factory using Application Default
// Credentials unless c names a key file or an account to impersonate.
func DefaultClientFactory(c Config) ClientFactory {
	return func(ctx context.Context) (Client, error) {
		opts, err := clientOptions(ctx, c)
		if err != nil {
			return nil, err
		}
		client, err := secretmanager.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
		}
		return client, nil
	}
}

func clientOptions(ctx context.Context, c Config) ([]option.ClientOption, error) {
	var opts []option.ClientOption

	if c.CredentialsFile != "" {
		path := c.CredentialsFile
		if strings.HasPrefix(path, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			path = filepath.Join(home, path[2:])
		}
		opts = append(opts, option.WithCredentialsFile(path))
	}

	if c.ImpersonateServiceAccount != "" {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: c.ImpersonateServiceAccount,
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create impersonated credentials: %w", err)
		}
		opts = []option.ClientOption{option.WithTokenSource(ts)}
	}

	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}
	return opts, nil
}

// ResourceName returns the version resource read for name in projectID.
func ResourceName(projectID, name string) (string, error) {
	if strings.HasPrefix(name, "projects/") {
		if strings.Contains(name, "/versions/") {
			return name, nil
		}
		return name + "/versions/" + LatestVersion, nil
	}
	if projectID == "" {
		return "", fmt.Errorf("project ID is required for secret %q: %w", name, configuration.ErrInvalidArgument)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", projectID, name, LatestVersion), nil
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

type fetcher struct {
	client Client
}

// Fetch reads name, which must be a version resource name.
func (f fetcher) Fetch(ctx context.Context, name string) (secretfile.Payload, bool, error) {
	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return secretfile.Payload{}, false, nil
		}
		return secretfile.Payload{}, false, err
	}

	data := resp.GetPayload().GetData()
	if sum := resp.GetPayload().DataCrc32C; sum != nil && int64(crc32.Checksum(data, castagnoli)) != *sum {
		return secretfile.Payload{}, false, fmt.Errorf("secret %q failed checksum verification", name)
	}
	if data == nil {
		data = []byte{}
	}

	return secretfile.Payload{
		Name:    name,
		Binary:  data,
		Version: versionOf(resp.GetName()),
	}, true, nil
}

func versionOf(resource string) string {
	if i := strings.LastIndex(resource, "/versions/"); i >= 0 {
		return resource[i+len("/versions/"):]
	}
	return ""
}

// NewFileProvider returns a file provider that resolves version resource
// names to their payloads.
func NewFileProvider(client Client, opts ...secretfile.Option) *secretfile.Provider {
	return secretfile.NewProvider(StoreName, fetcher{client: client}, opts...)
}

// Source is a configuration source backed by one secret.
type Source struct {
	resource string
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

// WithConfig sets the project and credentials.
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

	resource, err := ResourceName(o.config.ProjectID, name)
	if err != nil {
		return nil, err
	}

	client := o.client
	if client == nil {
		factory := o.factory
		if factory == nil {
			factory = DefaultClientFactory(o.config)
		}
		if client, err = factory(context.Background()); err != nil {
			return nil, err
		}
	}
	return &Source{resource: resource, optional: optional, client: client, fileOpts: o.fileOpts}, nil
}

// Resource returns the version resource name the source reads.
func (s *Source) Resource() string {
	return s.resource
}

// Build implements configuration.Source.
func (s *Source) Build(ctx context.Context, b *configuration.Builder) (*configuration.Provider, error) {
	json := &jsonsource.Source{
		FileProvider: NewFileProvider(s.client, s.fileOpts...),
		Path:         s.resource,
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
