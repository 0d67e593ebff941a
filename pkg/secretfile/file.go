// Package secretfile presents remote secrets as files so that file-based
// configuration sources can read them.
//
// A store integration supplies a Fetcher that retrieves the current version of
// a named secret. Provider wraps the Fetcher in a fileprovider.Provider: a
// found secret becomes a File, a missing secret becomes a not-found FileInfo,
// and any other store failure is returned to the caller unchanged. The
// consuming source (usually jsonsource) decides what a missing secret means.
package secretfile

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrInvalidPayload is returned for a payload that carries both a text and a
// binary value, or neither.
var ErrInvalidPayload = errors.New("secret payload must carry exactly one of text or binary content")

// Payload is the content and metadata of one retrieved secret version.
type Payload struct {
	// Name is the display name reported by the store.
	Name string

	// Text holds a textual secret. Exactly one of Text and Binary is set.
	Text *string

	// Binary holds a binary secret.
	Binary []byte

	// CreatedAt is when the retrieved version was created.
	CreatedAt time.Time

	// Version identifies the retrieved version, when the store reports one.
	Version string
}

// File is a fileprovider.FileInfo over one retrieved secret version.
type File struct {
	payload Payload

	once sync.Once
	data []byte
}

// NewFile wraps p. It returns ErrInvalidPayload unless exactly one of Text and
// Binary is set.
func NewFile(p Payload) (*File, error) {
	if (p.Text == nil) == (p.Binary == nil) {
		return nil, ErrInvalidPayload
	}
	return &File{payload: p}, nil
}

// Exists is always true; missing secrets are never represented by a File.
func (f *File) Exists() bool { return true }

// Name returns the store's display name for the secret.
func (f *File) Name() string { return f.payload.Name }

// ModTime returns the creation time of the retrieved version.
func (f *File) ModTime() time.Time { return f.payload.CreatedAt }

// IsDir is always false.
func (f *File) IsDir() bool { return false }

// Version returns the store's identifier for the retrieved version.
func (f *File) Version() string { return f.payload.Version }

// Size returns the length of the decoded content.
func (f *File) Size() int64 {
	return int64(len(f.bytes()))
}

// Open returns a new reader over the decoded content.
func (f *File) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.bytes())), nil
}

// bytes decodes the payload on first use. Text is stored as its UTF-8
// encoding; binary content is used as is.
func (f *File) bytes() []byte {
	f.once.Do(func() {
		if f.payload.Text != nil {
			f.data = []byte(*f.payload.Text)
			return
		}
		f.data = f.payload.Binary
	})
	return f.data
}
