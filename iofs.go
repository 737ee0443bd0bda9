package sfs

import (
	"io"
	"io/fs"
	"path"
)

// iofs.go adapts a Context to io/fs.FS, io/fs.ReadDirFS and io/fs.StatFS so
// that an SFS filesystem can be handed to anything written against the
// standard library's fs interfaces (text/template, http.FileServer-style
// servers, archive/zip's writer, ...).

// FS wraps a Context as a read-only io/fs.FS rooted at "/".
type FS struct {
	c *Context
}

// NewFS returns an io/fs.FS view of c.
func NewFS(c *Context) *FS { return &FS{c: c} }

// FS returns a read-only io/fs.FS view of c, for callers that want to use
// the standard library's fs.ReadFile/fs.Glob/fs.WalkDir/fs.Stat helpers
// directly against this Context.
func (c *Context) FS() fs.FS { return NewFS(c) }

var (
	_ fs.FS        = (*FS)(nil)
	_ fs.ReadDirFS = (*FS)(nil)
	_ fs.StatFS    = (*FS)(nil)
)

func (f *FS) resolvePath(name string) (string, error) {
	if !fs.ValidPath(name) {
		return "", fs.ErrInvalid
	}
	if name == "." {
		return "/", nil
	}
	return "/" + name, nil
}

// Open implements fs.FS.
func (f *FS) Open(name string) (fs.File, error) {
	p, err := f.resolvePath(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	ino, err := f.c.resolve(p)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: translateErr(err)}
	}
	i, err := f.c.readInode(ino)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: translateErr(err)}
	}

	base := path.Base(name)
	if i.isDir() {
		return &fsDir{c: f.c, ino: i, name: base}, nil
	}
	return &fsFile{c: f.c, ino: i, name: base}, nil
}

// ReadDir implements fs.ReadDirFS.
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	p, err := f.resolvePath(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	ino, err := f.c.resolve(p)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: translateErr(err)}
	}
	dir, err := f.c.readInode(ino)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: translateErr(err)}
	}
	if !dir.isDir() {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: ErrNotDir}
	}
	entries := f.c.readdir(dir)
	out := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out, nil
}

// Stat implements fs.StatFS.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	p, err := f.resolvePath(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	ino, err := f.c.resolve(p)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: translateErr(err)}
	}
	i, err := f.c.readInode(ino)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: translateErr(err)}
	}
	return &fileinfo{name: path.Base(name), ino: i}, nil
}

// translateErr maps the package's sentinel errors onto the io/fs ones
// callers of fs.FS already know how to check with errors.Is.
func translateErr(err error) error {
	switch err {
	case ErrNotFound:
		return fs.ErrNotExist
	case ErrExists:
		return fs.ErrExist
	case ErrInval:
		return fs.ErrInvalid
	default:
		return err
	}
}

// fsFile is the fs.File view of a regular file's bytes.
type fsFile struct {
	c    *Context
	ino  *Inode
	name string
	pos  int64
}

var (
	_ fs.File     = (*fsFile)(nil)
	_ io.ReaderAt = (*fsFile)(nil)
)

func (f *fsFile) Stat() (fs.FileInfo, error) { return &fileinfo{name: f.name, ino: f.ino}, nil }

func (f *fsFile) Read(p []byte) (int, error) {
	n, err := f.c.readRange(f.ino, f.pos, p)
	f.pos += int64(n)
	return n, err
}

func (f *fsFile) ReadAt(p []byte, off int64) (int, error) {
	return f.c.readRange(f.ino, off, p)
}

func (f *fsFile) Close() error { return nil }

// fsDir is the fs.ReadDirFile view of a directory.
type fsDir struct {
	c       *Context
	ino     *Inode
	name    string
	entries []*DirEntry
	read    bool
	pos     int
}

var _ fs.ReadDirFile = (*fsDir)(nil)

func (d *fsDir) Stat() (fs.FileInfo, error) { return &fileinfo{name: d.name, ino: d.ino}, nil }
func (d *fsDir) Read([]byte) (int, error)   { return 0, fs.ErrInvalid }
func (d *fsDir) Close() error               { return nil }

func (d *fsDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.read {
		d.entries = d.c.readdir(d.ino)
		d.read = true
	}
	if n <= 0 {
		out := make([]fs.DirEntry, len(d.entries)-d.pos)
		for i, e := range d.entries[d.pos:] {
			out[i] = e
		}
		d.pos = len(d.entries)
		return out, nil
	}
	if d.pos >= len(d.entries) {
		return nil, io.EOF
	}
	end := d.pos + n
	if end > len(d.entries) {
		end = len(d.entries)
	}
	out := make([]fs.DirEntry, end-d.pos)
	for i, e := range d.entries[d.pos:end] {
		out[i] = e
	}
	d.pos = end
	return out, nil
}
