package fileprovider

import (
	"fmt"
	"io"
	"io/fs"
	"time"
)

// NotFound returns a FileInfo for a file that does not exist.
func NotFound(name string) FileInfo {
	return notFoundFile{name: name}
}

type notFoundFile struct {
	name string
}

func (f notFoundFile) Exists() bool       { return false }
func (f notFoundFile) Name() string       { return f.name }
func (f notFoundFile) Size() int64        { return -1 }
func (f notFoundFile) ModTime() time.Time { return time.Time{} }
func (f notFoundFile) IsDir() bool        { return false }

func (f notFoundFile) Open() (io.ReadCloser, error) {
	return nil, &fs.PathError{Op: "open", Path: f.name, Err: fs.ErrNotExist}
}

func (f notFoundFile) String() string {
	return fmt.Sprintf("file %q (not found)", f.name)
}

// NotFoundDir is the listing returned for directories that do not exist.
var NotFoundDir DirContents = notFoundDir{}

type notFoundDir struct{}

func (notFoundDir) Exists() bool        { return false }
func (notFoundDir) Entries() []FileInfo { return nil }

// NullChangeToken is a ChangeToken that never fires.
var NullChangeToken ChangeToken = nullChangeToken{}

type nullChangeToken struct{}

func (nullChangeToken) HasChanged() bool      { return false }
func (nullChangeToken) Done() <-chan struct{} { return nil }
