package secretfile

import (
	"context"
	"time"

	"github.com/systmms/secretconf/pkg/configuration/fileprovider"
)

// Fetcher retrieves the current version of a named secret from a store.
//
// found is false, with a nil error, when the store reports that the secret
// does not exist. Any other failure is returned as err and must be the
// store's own error value.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (p Payload, found bool, err error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, name string) (Payload, bool, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, name string) (Payload, bool, error) {
	return f(ctx, name)
}

// Logger receives debug output. Secret values are never logged.
type Logger interface {
	Debug(format string, args ...interface{})
}

// Observer is notified of every fetch.
type Observer interface {
	ObserveFetch(store string, outcome Outcome, elapsed time.Duration)
}

// Outcome classifies a fetch.
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeError    Outcome = "error"
	OutcomeInvalid  Outcome = "invalid"
)

// Provider is a fileprovider.Provider that resolves each name by fetching the
// secret of that name. It has no directories and never reports changes.
type Provider struct {
	store    string
	fetcher  Fetcher
	logger   Logger
	observer Observer
	now      func() time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets a logger for fetch diagnostics.
func WithLogger(l Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

// WithObserver sets an observer for fetch outcomes.
func WithObserver(o Observer) Option {
	return func(p *Provider) {
		p.observer = o
	}
}

// NewProvider returns a Provider for the named store backed by fetcher.
func NewProvider(store string, fetcher Fetcher, opts ...Option) *Provider {
	p := &Provider{
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the store name the provider was created with.
func (p *Provider) Store() string {
	return p.store
}

// Stat fetches the secret called name. A missing secret yields a not-found
// FileInfo; store errors are returned unchanged.
func (p *Provider) Stat(ctx context.Context, name string) (fileprovider.FileInfo, error) {
	start := p.now()
	p.debug("fetching secret %q from %s", name, p.store)

	payload, found, err := p.fetcher.Fetch(ctx, name)
	switch {
	case err != nil:
		p.observe(OutcomeError, start)
		p.debug("fetching secret %q from %s failed: %v", name, p.store, err)
		return nil, err
	case !found:
		p.observe(OutcomeNotFound, start)
		p.debug("secret %q not found in %s", name, p.store)
		return fileprovider.NotFound(name), nil
	}

	if payload.Name == "" {
		payload.Name = name
	}
	file, err := NewFile(payload)
	if err != nil {
		p.observe(OutcomeInvalid, start)
		return nil, err
	}

	p.observe(OutcomeFound, start)
	p.debug("fetched secret %q from %s (version %q)", name, p.store, payload.Version)
	return file, nil
}

// ReadDir always reports a missing directory.
func (p *Provider) ReadDir(context.Context, string) (fileprovider.DirContents, error) {
	return fileprovider.NotFoundDir, nil
}

// Watch returns a token that never fires. Secret rotation is not observed.
func (p *Provider) Watch(string) fileprovider.ChangeToken {
	return fileprovider.NullChangeToken
}

func (p *Provider) debug(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(format, args...)
	}
}

func (p *Provider) observe(outcome Outcome, start time.Time) {
	if p.observer != nil {
		p.observer.ObserveFetch(p.store, outcome, p.now().Sub(start))
	}
}
