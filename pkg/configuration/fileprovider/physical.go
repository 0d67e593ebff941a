package fileprovider

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Physical serves files from a directory on the local filesystem.
//
// Names are interpreted relative to Root. Names that are absolute or that
// escape Root resolve to a not-found FileInfo, as do directories.
type Physical struct {
	Root string
}

// NewPhysical returns a Physical provider rooted at root. An empty root means
// the current working directory.
func NewPhysical(root string) *Physical {
	if root == "" {
		root = "."
	}
	return &Physical{Root: root}
}

func (p *Physical) resolve(name string) (string, bool) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if !filepath.IsLocal(clean) {
		return "", false
	}
	return filepath.Join(p.Root, clean), true
}

// Stat implements Provider.
func (p *Physical) Stat(_ context.Context, name string) (FileInfo, error) {
	full, ok := p.resolve(name)
	if !ok {
		return NotFound(name), nil
	}

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NotFound(name), nil
		}
		return nil, err
	}
	if info.IsDir() {
		return NotFound(name), nil
	}
	return &physicalFile{path: full, info: info}, nil
}

// ReadDir implements Provider.
func (p *Physical) ReadDir(_ context.Context, name string) (DirContents, error) {
	full, ok := p.resolve(name)
	if !ok {
		return NotFoundDir, nil
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NotFoundDir, nil
		}
		return nil, err
	}

	contents := &physicalDir{}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		contents.entries = append(contents.entries, &physicalFile{
			path: filepath.Join(full, entry.Name()),
			info: info,
		})
	}
	return contents, nil
}

// Watch implements Provider. File watching is not supported.
func (p *Physical) Watch(string) ChangeToken {
	return NullChangeToken
}

type physicalFile struct {
	path string
	info fs.FileInfo
}

func (f *physicalFile) Exists() bool       { return true }
func (f *physicalFile) Name() string       { return f.info.Name() }
func (f *physicalFile) Size() int64        { return f.info.Size() }
func (f *physicalFile) ModTime() time.Time { return f.info.ModTime() }
func (f *physicalFile) IsDir() bool        { return f.info.IsDir() }

func (f *physicalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

type physicalDir struct {
	entries []FileInfo
}

func (d *physicalDir) Exists() bool        { return true }
func (d *physicalDir) Entries() []FileInfo { return d.entries }
