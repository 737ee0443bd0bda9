package sfs_test

import (
	"io/fs"
	"testing"

	"github.com/KarpelesLab/sfs"
)

func TestFSAdapterReadFileAndReadDir(t *testing.T) {
	c := newTestFS(t, 1<<20)
	if err := c.Mkdir("/d", 0755); err != nil {
		t.Fatalf("mkdir: %s", err)
	}
	fd, err := c.Open("/d/f", sfs.OCreat|sfs.OWrOnly, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	if _, err := c.Write(fd, []byte("contents")); err != nil {
		t.Fatalf("write: %s", err)
	}
	c.Close(fd)

	fsys := c.FS()

	data, err := fs.ReadFile(fsys, "d/f")
	if err != nil {
		t.Fatalf("fs.ReadFile: %s", err)
	}
	if string(data) != "contents" {
		t.Errorf("expected %q, got %q", "contents", data)
	}

	entries, err := fs.ReadDir(fsys, "d")
	if err != nil {
		t.Fatalf("fs.ReadDir: %s", err)
	}
	if len(entries) != 1 || entries[0].Name() != "f" {
		t.Errorf("unexpected directory listing: %v", entries)
	}

	if err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		return err
	}); err != nil {
		t.Errorf("fs.WalkDir: %s", err)
	}
}
