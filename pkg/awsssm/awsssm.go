// Package awsssm exposes a JSON value stored in an AWS Systems Manager
// Parameter Store parameter as a configuration source.
//
// SecureString parameters are decrypted on fetch. A missing parameter fails
// the build unless the source is optional.
package awsssm

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/systmms/secretconf/pkg/awsclient"
	"github.com/systmms/secretconf/pkg/configuration"
	"github.com/systmms/secretconf/pkg/configuration/jsonsource"
	"github.com/systmms/secretconf/pkg/secretfile"
)

// StoreName identifies Parameter Store in logs and metrics.
const StoreName = "aws.ssm"

// ErrMissingParameter is returned when GetParameter succeeds without a
// parameter in its response.
var ErrMissingParameter = errors.New("GetParameter returned no parameter")

// Client is the subset of *ssm.Client used by this package.
type Client interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ClientFactory creates the client used when none is supplied.
type ClientFactory func(ctx context.Context) (Client, error)

// DefaultClientFactory returns a factory resolving credentials and region
// from c and the ambient AWS configuration chain.
func DefaultClientFactory(c awsclient.Config) ClientFactory {
	return func(ctx context.Context) (Client, error) {
		cfg, err := awsclient.Load(ctx, c)
		if err != nil {
			return nil, err
		}
		return ssm.NewFromConfig(cfg, func(o *ssm.Options) {
			if endpoint := c.BaseEndpoint(); endpoint != nil {
				o.BaseEndpoint = endpoint
			}
		}), nil
	}
}

type fetcher struct {
	client Client
}

func (f fetcher) Fetch(ctx context.Context, name string) (secretfile.Payload, bool, error) {
	out, err := f.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return secretfile.Payload{}, false, nil
		}
		return secretfile.Payload{}, false, err
	}
	if out == nil || out.Parameter == nil {
		return secretfile.Payload{}, false, fmt.Errorf("parameter %q: %w", name, ErrMissingParameter)
	}

	p := out.Parameter
	return secretfile.Payload{
		Name:      aws.ToString(p.Name),
		Text:      p.Value,
		CreatedAt: aws.ToTime(p.LastModifiedDate),
		Version:   strconv.FormatInt(p.Version, 10),
	}, true, nil
}

// NewFileProvider returns a file provider that resolves each name to the
// decrypted value of the parameter with that name.
func NewFileProvider(client Client, opts ...secretfile.Option) *secretfile.Provider {
	return secretfile.NewProvider(StoreName, fetcher{client: client}, opts...)
}

// Source is a configuration source backed by one parameter.
type Source struct {
	name     string
	optional bool
	client   Client
	fileOpts []secretfile.Option
}

type options struct {
	client   Client
	factory  ClientFactory
	fileOpts []secretfile.Option
}

// Option configures a Source.
type Option func(*options)

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

// NewSource returns a source for the parameter called name.
func NewSource(name string, optional bool, opts ...Option) (*Source, error) {
	if name == "" {
		return nil, fmt.Errorf("parameter name must not be empty: %w", configuration.ErrInvalidArgument)
	}

	o := options{factory: DefaultClientFactory(awsclient.Config{})}
	for _, opt := range opts {
		opt(&o)
	}

	client := o.client
	if client == nil {
		var err error
		if client, err = o.factory(context.Background()); err != nil {
			return nil, fmt.Errorf("creating SSM client: %w", err)
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

// Add registers a required parameter fetched with the default client.
func Add(b *configuration.Builder, name string, opts ...Option) *configuration.Builder {
	return AddOptional(b, name, false, opts...)
}

// AddOptional registers a parameter fetched with the default client.
func AddOptional(b *configuration.Builder, name string, optional bool, opts ...Option) *configuration.Builder {
	src, err := NewSource(name, optional, opts...)
	if err != nil {
		return b.AddError(err)
	}
	return b.Add(src)
}

// AddWithClient registers a parameter fetched with client.
func AddWithClient(b *configuration.Builder, name string, optional bool, client Client, opts ...Option) *configuration.Builder {
	if client == nil {
		return b.AddError(fmt.Errorf("client must not be nil: %w", configuration.ErrInvalidArgument))
	}
	return AddOptional(b, name, optional, append(opts, WithClient(client))...)
}
