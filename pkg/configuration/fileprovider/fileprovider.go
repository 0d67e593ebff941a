// Package fileprovider defines the file abstraction that configuration sources
// read from.
//
// A Provider resolves names to FileInfo values. Absence is never an error: a
// provider returns a FileInfo whose Exists reports false, and the consuming
// source decides whether a missing file is tolerated. Errors are reserved for
// failures to answer the question at all (I/O, network, permissions).
//
// Two kinds of providers exist in this module: Physical, which reads from the
// local filesystem, and the secret-backed providers built on package
// secretfile, which expose one remote secret per name.
package fileprovider

import (
	"context"
	"io"
	"time"
)

// FileInfo describes a single file returned by a Provider.
type FileInfo interface {
	// Exists reports whether the file was found.
	Exists() bool

	// Name is the display name of the file.
	Name() string

	// Size is the content length in bytes, or -1 when the file does not exist.
	Size() int64

	// ModTime is the last modification time of the file.
	ModTime() time.Time

	// IsDir reports whether the entry is a directory.
	IsDir() bool

	// Open returns a new reader positioned at the start of the content.
	// Each call returns an independent reader.
	Open() (io.ReadCloser, error)
}

// DirContents is the result of listing a directory.
type DirContents interface {
	Exists() bool
	Entries() []FileInfo
}

// ChangeToken signals that the files matched by a Watch call have changed.
type ChangeToken interface {
	// HasChanged reports whether a change has occurred.
	HasChanged() bool

	// Done returns a channel that is closed when a change occurs. A nil
	// channel never fires.
	Done() <-chan struct{}
}

// Provider resolves file names into FileInfo values.
type Provider interface {
	// Stat resolves name. A missing file is reported with a FileInfo whose
	// Exists returns false, not with an error.
	Stat(ctx context.Context, name string) (FileInfo, error)

	// ReadDir lists the entries of the named directory.
	ReadDir(ctx context.Context, name string) (DirContents, error)

	// Watch returns a token that fires when files matching filter change.
	Watch(filter string) ChangeToken
}
