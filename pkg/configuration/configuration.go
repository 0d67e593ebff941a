package configuration

import (
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/v2"
)

// Configuration is the merged result of a Build. Its methods act on the root
// section of the tree.
type Configuration struct {
	root      *Section
	providers []*Provider
}

// Root returns the root section.
func (c *Configuration) Root() *Section { return c.root }

// Get returns the value at key, or "" when key does not name a value.
func (c *Configuration) Get(key string) string { return c.root.Get(key) }

// Lookup returns the value at key. Sections with children do not have a value.
func (c *Configuration) Lookup(key string) (string, bool) { return c.root.Lookup(key) }

// Section returns the subsection at key. The result is never nil.
func (c *Configuration) Section(key string) *Section { return c.root.Section(key) }

// Children returns the top-level sections, sorted by key.
func (c *Configuration) Children() []*Section { return c.root.Children() }

// Entries returns every node of the tree with its full key, sorted by key.
func (c *Configuration) Entries() []Entry { return c.root.Entries() }

// Keys returns the keys of every leaf value, sorted.
func (c *Configuration) Keys() []string { return c.root.Keys() }

// Exists reports whether the configuration holds anything.
func (c *Configuration) Exists() bool { return c.root.Exists() }

// AsMap returns the configuration as a nested map.
func (c *Configuration) AsMap() map[string]interface{} { return c.root.AsMap() }

// Unmarshal decodes the whole configuration into out.
func (c *Configuration) Unmarshal(out interface{}) error { return c.root.Unmarshal(out) }

// Providers returns the providers that were merged, in build order.
func (c *Configuration) Providers() []*Provider {
	return append([]*Provider(nil), c.providers...)
}

// Entry is one node of the configuration tree. Intermediate sections are
// entries too, with an empty Value.
type Entry struct {
	Key   string
	Value string
}

// Section is a subtree of the configuration rooted at Path.
type Section struct {
	path  string
	value string
	leaf  bool
	k     *koanf.Koanf
}

// Path returns the full key of the section. The root section has an empty path.
func (s *Section) Path() string {
	return s.path
}

// Key returns the last segment of Path.
func (s *Section) Key() string {
	if i := strings.LastIndex(s.path, Delimiter); i >= 0 {
		return s.path[i+len(Delimiter):]
	}
	return s.path
}

// Value returns the value of a leaf section.
func (s *Section) Value() string {
	return s.value
}

// Exists reports whether the section holds a value or has children.
func (s *Section) Exists() bool {
	return s.leaf || len(s.k.Raw()) > 0
}

// Get returns the value at key relative to the section, or "" when key does
// not name a value.
func (s *Section) Get(key string) string {
	v, _ := s.Lookup(key)
	return v
}

// Lookup returns the value at key relative to the section. Sections with
// children do not have a value.
func (s *Section) Lookup(key string) (string, bool) {
	if s.leaf || key == "" {
		return "", false
	}
	switch v := s.k.Get(key).(type) {
	case nil:
		return "", false
	case map[string]interface{}:
		return "", false
	default:
		return stringify(v), true
	}
}

// Section returns the subsection at key. The result is never nil; use Exists
// to test whether anything is stored there.
func (s *Section) Section(key string) *Section {
	path := s.join(key)
	if s.leaf || key == "" {
		return &Section{path: path, k: koanf.New(Delimiter)}
	}
	switch v := s.k.Get(key).(type) {
	case nil:
		return &Section{path: path, k: koanf.New(Delimiter)}
	case map[string]interface{}:
		return &Section{path: path, k: s.k.Cut(key)}
	default:
		return &Section{path: path, value: stringify(v), leaf: true, k: koanf.New(Delimiter)}
	}
}

// Children returns the immediate subsections, sorted by key.
func (s *Section) Children() []*Section {
	raw := s.k.Raw()
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	children := make([]*Section, 0, len(keys))
	for _, k := range keys {
		children = append(children, s.Section(k))
	}
	return children
}

// Entries returns every node below the section with its full key, sorted by
// key. Intermediate sections are included with an empty value.
func (s *Section) Entries() []Entry {
	var out []Entry
	walk(s.path, s.k.Raw(), func(key string, value interface{}) {
		if _, ok := value.(map[string]interface{}); ok {
			out = append(out, Entry{Key: key})
			return
		}
		out = append(out, Entry{Key: key, Value: stringify(value)})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Keys returns the keys of every leaf value relative to the section, sorted.
func (s *Section) Keys() []string {
	return s.k.Keys()
}

// AsMap returns the section as a nested map.
func (s *Section) AsMap() map[string]interface{} {
	return s.k.Raw()
}

// Unmarshal decodes the section into out. Struct fields are matched with the
// "config" tag; string values are converted to the field types.
func (s *Section) Unmarshal(out interface{}) error {
	if err := s.k.UnmarshalWithConf("", out, koanf.UnmarshalConf{Tag: "config"}); err != nil {
		return fmt.Errorf("unmarshal section %q: %w", s.path, err)
	}
	return nil
}

func (s *Section) join(key string) string {
	if s.path == "" {
		return key
	}
	return s.path + Delimiter + key
}

func walk(prefix string, m map[string]interface{}, fn func(key string, value interface{})) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + Delimiter + k
		}
		fn(key, v)
		if child, ok := v.(map[string]interface{}); ok {
			walk(key, child, fn)
		}
	}
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
