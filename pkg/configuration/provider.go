package configuration

import "sort"

// Provider holds the flattened key/value pairs produced by a single source.
// Keys use Delimiter between path segments.
type Provider struct {
	name string
	data map[string]string
}

// NewProvider returns a provider over data. The map is copied.
func NewProvider(name string, data map[string]string) *Provider {
	cp := make(map[string]string, len(data))
	for k, v := range data {
		cp[k] = v
	}
	return &Provider{name: name, data: cp}
}

// Name identifies the source that produced the provider.
func (p *Provider) Name() string {
	return p.name
}

// Lookup returns the value stored under key.
func (p *Provider) Lookup(key string) (string, bool) {
	v, ok := p.data[key]
	return v, ok
}

// Keys returns every key in the provider, sorted.
func (p *Provider) Keys() []string {
	keys := make([]string, 0, len(p.data))
	for k := range p.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys.
func (p *Provider) Len() int {
	return len(p.data)
}

func (p *Provider) values() map[string]interface{} {
	out := make(map[string]interface{}, len(p.data))
	for k, v := range p.data {
		out[k] = v
	}
	return out
}
