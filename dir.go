package sfs

import (
	"io/fs"
	"path"
	"time"
)

// dir.go implements readdir and the fs.DirEntry/fs.FileInfo views used both
// by the Readdir operation and by the read-only io/fs adapter in iofs.go.

// DirEntry describes one live entry of a directory, skipping "." and "..".
// It satisfies fs.DirEntry.
type DirEntry struct {
	name string
	ino  uint32
	typ  DType
	c    *Context
}

var _ fs.DirEntry = (*DirEntry)(nil)

func (e *DirEntry) Name() string { return e.name }

// Ino returns the target inode number, exposed for callers (the FUSE
// adapter, debugging tools) that need it beyond what fs.DirEntry exposes.
func (e *DirEntry) Ino() uint32 { return e.ino }
func (e *DirEntry) IsDir() bool  { return e.typ.IsDir() }
func (e *DirEntry) Type() fs.FileMode {
	return e.typ.Mode().Type()
}

func (e *DirEntry) Info() (fs.FileInfo, error) {
	i, err := e.c.readInode(e.ino)
	if err != nil {
		return nil, err
	}
	return &fileinfo{name: e.name, ino: i}, nil
}

// fileinfo is the fs.FileInfo returned by Stat/Lstat and by DirEntry.Info.
type fileinfo struct {
	name string
	ino  *Inode
}

var _ fs.FileInfo = (*fileinfo)(nil)

func (fi *fileinfo) Name() string       { return fi.name }
func (fi *fileinfo) Size() int64        { return int64(fi.ino.size()) }
func (fi *fileinfo) Mode() fs.FileMode  { return UnixToMode(fi.ino.rec.Mode) }
func (fi *fileinfo) ModTime() time.Time { return time.Unix(int64(fi.ino.rec.Mtime), 0) }
func (fi *fileinfo) IsDir() bool        { return fi.ino.isDir() }
func (fi *fileinfo) Sys() any           { return fi.ino }

// readdir lists dir's live entries other than "." and "..", in on-buffer
// slot order; no particular order is guaranteed since directories are an
// unordered array of entries.
func (c *Context) readdir(dir *Inode) []*DirEntry {
	var entries []*DirEntry
	c.forEachDirent(dir, func(_ uint64, d *dirent) bool {
		if d.free() {
			return true
		}
		name := d.name()
		if name == "." || name == ".." {
			return true
		}
		entries = append(entries, &DirEntry{name: name, ino: d.Inode, typ: DType(d.Type), c: c})
		return true
	})
	return entries
}

func baseName(p string) string {
	return path.Base(p)
}
