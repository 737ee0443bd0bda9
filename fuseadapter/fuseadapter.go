//go:build fuse

// Package fuseadapter exposes a sfs.Context over a real FUSE mount,
// build-tag-gated as an optional surface. It talks to go-fuse's
// low-level API directly rather than the higher-level nodefs wrapper:
// Lookup/Open/OpenDir/ReadDir callbacks and a FillAttr helper.
package fuseadapter

import (
	"context"
	"log"
	"os"

	"github.com/KarpelesLab/sfs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Node wraps one inode of a sfs.Context for use as a FUSE entry point.
type Node struct {
	c    *sfs.Context
	ino  uint32
	path string // the path this node was resolved at, for diagnostics
}

// Root returns the FUSE entry point for c's root directory.
func Root(c *sfs.Context) *Node {
	return &Node{c: c, ino: sfs.RootIno, path: "/"}
}

func (n *Node) Lookup(ctx context.Context, name string) (uint64, error) {
	child, err := n.c.Readdir(n.path)
	if err != nil {
		return 0, err
	}
	for _, e := range child {
		if e.Name() == name {
			return uint64(inoOf(e)), nil
		}
	}
	return 0, os.ErrNotExist
}

// Open always succeeds; files are read directly through the shared buffer
// so there is nothing to prepare.
func (n *Node) Open(flags uint32) (uint32, error) {
	return 0, nil
}

// OpenDir permits opening only when this node is a directory.
func (n *Node) OpenDir() (uint32, error) {
	info, err := n.c.Stat(n.path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, os.ErrInvalid
	}
	return 0, nil
}

// ReadDir fills out with this directory's entries starting at the FUSE
// offset convention (1-based, "." and ".." synthesized first).
func (n *Node) ReadDir(input *fuse.ReadIn, out *fuse.DirEntryList) error {
	entries, err := n.c.Readdir(n.path)
	if err != nil {
		return err
	}

	pos := input.Offset + 1
	cur := uint64(0)

	cur++
	if cur >= pos {
		if !out.Add(0, ".", uint64(n.ino), fuse.S_IFDIR) {
			return nil
		}
	}
	cur++
	if cur >= pos {
		if !out.Add(0, "..", uint64(n.ino), fuse.S_IFDIR) {
			return nil
		}
	}

	for _, e := range entries {
		cur++
		if cur < pos {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Printf("sfs/fuseadapter: failed to stat %q: %s", e.Name(), err)
			continue
		}
		mode := sfs.ModeToUnix(info.Mode())
		if !out.Add(0, e.Name(), uint64(inoOf(e)), mode) {
			return nil
		}
	}
	return nil
}

// FillAttr populates a fuse.Attr from this node's current stat information.
func (n *Node) FillAttr(attr *fuse.Attr) error {
	info, err := n.c.Lstat(n.path)
	if err != nil {
		return err
	}
	t := uint64(info.ModTime().Unix())
	attr.Size = uint64(info.Size())
	attr.Mode = sfs.ModeToUnix(info.Mode())
	attr.Atime = t
	attr.Mtime = t
	attr.Ctime = t
	return nil
}

// inoOf derives a stable public FUSE inode number for a directory entry.
// sfs inode numbers are already small and dense, thanks to the monotonic
// allocator; every one is shifted up by one so that the root (sfs inode 0)
// is reported as inode 1, as FUSE requires.
func inoOf(e *sfs.DirEntry) uint64 {
	return uint64(e.Ino()) + 1
}
