// Package configuration composes configuration from layered sources.
//
// Sources are registered on a Builder in order. Build asks every source for a
// Provider of flattened key/value pairs and merges them into a single tree,
// later sources overriding earlier ones. Keys are hierarchical paths joined by
// Delimiter, for example "database:host".
//
//	b := configuration.NewBuilder()
//	jsonsource.Add(b, "appsettings.json", true)
//	awssecretsmanager.Add(b, "prod/myapp")
//	cfg, err := b.Build(ctx)
//	if err != nil {
//	    return err
//	}
//	host := cfg.Get("database:host")
//
// Build is not cached. Every call builds each source again.
package configuration

import (
	"context"
	"errors"
	"fmt"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/systmms/secretconf/pkg/configuration/fileprovider"
)

// Delimiter separates the segments of a hierarchical key.
const Delimiter = ":"

// Source produces a Provider when the configuration is built.
type Source interface {
	Build(ctx context.Context, b *Builder) (*Provider, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, b *Builder) (*Provider, error)

// Build calls f.
func (f SourceFunc) Build(ctx context.Context, b *Builder) (*Provider, error) {
	return f(ctx, b)
}

// Builder collects sources and builds them into a Configuration.
type Builder struct {
	sources []Source
	errs    []error
	files   fileprovider.Provider
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a source. Nil sources are ignored.
func (b *Builder) Add(s Source) *Builder {
	if s != nil {
		b.sources = append(b.sources, s)
	}
	return b
}

// AddError records a registration failure. Build returns recorded errors
// before building any source.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Sources returns the registered sources in order.
func (b *Builder) Sources() []Source {
	return append([]Source(nil), b.sources...)
}

// SetFileProvider sets the file provider used by file-based sources that do
// not carry their own.
func (b *Builder) SetFileProvider(p fileprovider.Provider) *Builder {
	b.files = p
	return b
}

// FileProvider returns the builder's file provider, defaulting to the local
// filesystem rooted at the working directory.
func (b *Builder) FileProvider() fileprovider.Provider {
	if b.files == nil {
		b.files = fileprovider.NewPhysical("")
	}
	return b.files
}

// Build builds every source in registration order and merges the results.
// The first source error aborts the build and is returned unchanged.
func (b *Builder) Build(ctx context.Context) (*Configuration, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}

	providers := make([]*Provider, 0, len(b.sources))
	for _, s := range b.sources {
		p, err := s.Build(ctx, b)
		if err != nil {
			return nil, err
		}
		if p != nil {
			providers = append(providers, p)
		}
	}

	k := koanf.New(Delimiter)
	for _, p := range providers {
		if err := k.Load(confmap.Provider(p.values(), Delimiter), nil); err != nil {
			return nil, fmt.Errorf("merging provider %q: %w", p.Name(), err)
		}
	}

	return &Configuration{
		root:      &Section{k: k},
		providers: providers,
	}, nil
}
