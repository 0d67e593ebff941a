// Package awssecretsmanager exposes a JSON secret stored in AWS Secrets
// Manager as a configuration source.
//
// The secret is fetched once per build through a file provider whose only
// file is the secret itself, then parsed by the generic JSON source:
//
//	b := configuration.NewBuilder()
//	awssecretsmanager.AddOptional(b, "prod/app", true)
//	cfg, err := b.Build(ctx)
//	dsn := cfg.Get("database:dsn")
//
// A missing secret fails the build unless the source is optional. Every
// other store error is returned as the SDK reported it.
package awssecretsmanager

import (
	"context"
	"fmt"

	"github.com/systmms/secretconf/pkg/awsclient"
	"github.com/systmms/secretconf/pkg/configuration"
	"github.com/systmms/secretconf/pkg/configuration/jsonsource"
	"github.com/systmms/secretconf/pkg/secretfile"
)

// Source is a configuration source backed by one Secrets Manager secret.
type Source struct {
	secretName string
	optional   bool
	client     Client
	fileOpts   []secretfile.Option
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
	return func(o *options) {
		o.client = client
	}
}

// WithClientFactory sets the factory used when no client is supplied.
func WithClientFactory(factory ClientFactory) Option {
	return func(o *options) {
		o.factory = factory
	}
}

// WithLogger sets a logger for fetch diagnostics.
func WithLogger(l secretfile.Logger) Option {
	return func(o *options) {
		o.fileOpts = append(o.fileOpts, secretfile.WithLogger(l))
	}
}

// WithObserver sets an observer for fetch outcomes.
func WithObserver(obs secretfile.Observer) Option {
	return func(o *options) {
		o.fileOpts = append(o.fileOpts, secretfile.WithObserver(obs))
	}
}

// NewSource returns a source for secretName. No request is made until Build.
func NewSource(secretName string, optional bool, opts ...Option) (*Source, error) {
	if secretName == "" {
		return nil, fmt.Errorf("secretName must not be empty: %w", configuration.ErrInvalidArgument)
	}

	o := options{factory: DefaultClientFactory(awsclient.Config{})}
	for _, opt := range opts {
		opt(&o)
	}

	client := o.client
	if client == nil {
		var err error
		client, err = o.factory(context.Background())
		if err != nil {
			return nil, fmt.Errorf("creating Secrets Manager client: %w", err)
		}
	}

	return &Source{
		secretName: secretName,
		optional:   optional,
		client:     client,
		fileOpts:   o.fileOpts,
	}, nil
}

// SecretName returns the secret identifier.
func (s *Source) SecretName() string {
	return s.secretName
}

// Optional reports whether a missing secret is tolerated.
func (s *Source) Optional() bool {
	return s.optional
}

// Build implements configuration.Source.
func (s *Source) Build(ctx context.Context, b *configuration.Builder) (*configuration.Provider, error) {
	json := &jsonsource.Source{
		FileProvider: NewFileProvider(s.client, s.fileOpts...),
		Path:         s.secretName,
		Optional:     s.optional,
	}
	return json.Build(ctx, b)
}

// Add registers a required secret fetched with the default client.
func Add(b *configuration.Builder, secretName string, opts ...Option) *configuration.Builder {
	return AddOptional(b, secretName, false, opts...)
}

// AddOptional registers a secret fetched with the default client.
func AddOptional(b *configuration.Builder, secretName string, optional bool, opts ...Option) *configuration.Builder {
	src, err := NewSource(secretName, optional, opts...)
	if err != nil {
		return b.AddError(err)
	}
	return b.Add(src)
}

// AddWithClient registers a secret fetched with client.
func AddWithClient(b *configuration.Builder, secretName string, optional bool, client Client, opts ...Option) *configuration.Builder {
	if client == nil {
		return b.AddError(fmt.Errorf("client must not be nil: %w", configuration.ErrInvalidArgument))
	}
	return AddOptional(b, secretName, optional, append(opts, WithClient(client))...)
}
