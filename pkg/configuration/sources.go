package configuration

import (
	"context"
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// MemorySource serves a fixed set of flattened key/value pairs. It is
// typically registered first to supply defaults.
type MemorySource struct {
	Name   string
	Values map[string]string
}

// Build implements Source.
func (s *MemorySource) Build(context.Context, *Builder) (*Provider, error) {
	name := s.Name
	if name == "" {
		name = "memory"
	}
	return NewProvider(name, s.Values), nil
}

// EnvSource reads environment variables that start with Prefix. The prefix is
// removed and a double underscore in the remaining name becomes Delimiter, so
// APP_DATABASE__HOST with prefix "APP_" is stored as "DATABASE:HOST".
type EnvSource struct {
	Prefix string
}

// Build implements Source.
func (s *EnvSource) Build(context.Context, *Builder) (*Provider, error) {
	p := env.Provider(s.Prefix, Delimiter, func(name string) string {
		return strings.ReplaceAll(strings.TrimPrefix(name, s.Prefix), "__", Delimiter)
	})

	k := koanf.New(Delimiter)
	if err := k.Load(p, nil); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	raw := k.All()
	values := make(map[string]string, len(raw))
	for key, v := range raw {
		values[key] = stringify(v)
	}
	return NewProvider("env:"+s.Prefix, values), nil
}
