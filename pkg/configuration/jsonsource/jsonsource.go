// Package jsonsource reads JSON documents from a file provider and flattens
// them into configuration keys.
//
// Objects contribute path segments, arrays contribute their index as a
// segment and scalars become leaf values:
//
//	{"db": {"hosts": ["a", "b"], "port": 5432, "tls": true}}
//
// flattens to db:hosts:0=a, db:hosts:1=b, db:port=5432 and db:tls=true.
package jsonsource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/systmms/secretconf/pkg/configuration"
	"github.com/systmms/secretconf/pkg/configuration/fileprovider"
)

// Source is a configuration source backed by one JSON file.
type Source struct {
	// FileProvider resolves Path. When nil, the builder's file provider is used.
	FileProvider fileprovider.Provider

	// Path is the name passed to FileProvider.Stat.
	Path string

	// Optional makes a missing file produce an empty provider instead of a
	// FileNotFoundError.
	Optional bool
}

// Add registers a JSON file read through the builder's file provider.
func Add(b *configuration.Builder, path string, optional bool) *configuration.Builder {
	return b.Add(&Source{Path: path, Optional: optional})
}

// Build implements configuration.Source.
func (s *Source) Build(ctx context.Context, b *configuration.Builder) (*configuration.Provider, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("json source path must not be empty: %w", configuration.ErrInvalidArgument)
	}

	files := s.FileProvider
	if files == nil {
		files = b.FileProvider()
	}

	info, err := files.Stat(ctx, s.Path)
	if err != nil {
		return nil, err
	}

	name := "json:" + s.Path
	if !info.Exists() {
		if s.Optional {
			return configuration.NewProvider(name, nil), nil
		}
		return nil, &configuration.FileNotFoundError{Path: s.Path}
	}

	data, err := readAll(info)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", s.Path, err)
	}

	values, err := Parse(data)
	if err != nil {
		return nil, &configuration.ParseError{Path: s.Path, Err: err}
	}
	return configuration.NewProvider(name, values), nil
}

func readAll(info fileprovider.FileInfo) ([]byte, error) {
	rc, err := info.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

var errNotObject = errors.New("top-level JSON value must be an object")

// Parse flattens a JSON object into configuration keys. Numbers keep their
// literal text. Two members that flatten to the same key, such as "a:b" and
// {"a":{"b":...}}, are an error.
func Parse(data []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level JSON object")
	}

	root, ok := doc.(map[string]interface{})
	if !ok {
		return nil, errNotObject
	}

	out := make(map[string]string)
	if err := flatten("", root, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(prefix string, v interface{}, out map[string]string) error {
	switch t := v.(type) {
	case map[string]interface{}:
		if len(t) == 0 && prefix != "" {
			return set(out, prefix, "")
		}
		for k, child := range t {
			if err := flatten(join(prefix, k), child, out); err != nil {
				return err
			}
		}
		return nil
	case []interface{}:
		if len(t) == 0 {
			return set(out, prefix, "")
		}
		for i, child := range t {
			if err := flatten(join(prefix, strconv.Itoa(i)), child, out); err != nil {
				return err
			}
		}
		return nil
	case string:
		return set(out, prefix, t)
	case json.Number:
		return set(out, prefix, t.String())
	case bool:
		return set(out, prefix, strconv.FormatBool(t))
	case nil:
		return set(out, prefix, "")
	default:
		return set(out, prefix, fmt.Sprint(t))
	}
}

func set(out map[string]string, key, value string) error {
	if _, dup := out[key]; dup {
		return fmt.Errorf("duplicate key %q", key)
	}
	out[key] = value
	return nil
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + configuration.Delimiter + key
}
