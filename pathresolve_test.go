package sfs_test

import (
	"testing"

	"github.com/KarpelesLab/sfs"
)

func TestDotDotNormalization(t *testing.T) {
	c := newTestFS(t, 1<<20)
	if err := c.Mkdir("/a", 0755); err != nil {
		t.Fatalf("mkdir /a: %s", err)
	}
	if err := c.Mkdir("/a/b", 0755); err != nil {
		t.Fatalf("mkdir /a/b: %s", err)
	}

	if _, err := c.Stat("/a/b/../b"); err != nil {
		t.Errorf("expected /a/b/../b to resolve: %s", err)
	}
	if _, err := c.Stat("/a/./b"); err != nil {
		t.Errorf("expected /a/./b to resolve: %s", err)
	}
	if _, err := c.Stat("/a/b/../../a"); err != nil {
		t.Errorf("expected /a/b/../../a to resolve: %s", err)
	}
}

func TestSymlinkLoopIsRejected(t *testing.T) {
	c := newTestFS(t, 1<<20)
	if err := c.Symlink("/loop2", "/loop1"); err != nil {
		t.Fatalf("symlink loop1: %s", err)
	}
	if err := c.Symlink("/loop1", "/loop2"); err != nil {
		t.Fatalf("symlink loop2: %s", err)
	}

	if _, err := c.Stat("/loop1"); err == nil {
		t.Fatal("expected resolving a symlink cycle to fail")
	}
}

func TestSymlinkChainIsFollowed(t *testing.T) {
	c := newTestFS(t, 1<<20)
	fd, err := c.Open("/real", sfs.OCreat|sfs.OWrOnly, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	if _, err := c.Write(fd, []byte("x")); err != nil {
		t.Fatalf("write: %s", err)
	}
	c.Close(fd)

	if err := c.Symlink("/real", "/link1"); err != nil {
		t.Fatalf("symlink link1: %s", err)
	}
	if err := c.Symlink("/link1", "/link2"); err != nil {
		t.Fatalf("symlink link2: %s", err)
	}

	info, err := c.Stat("/link2")
	if err != nil {
		t.Fatalf("stat through chain: %s", err)
	}
	if info.Size() != 1 {
		t.Errorf("expected chained symlink to resolve to /real (size 1), got %d", info.Size())
	}
}

func TestRelativeSymlinkSplicesFromCurrentDirectory(t *testing.T) {
	c := newTestFS(t, 1<<20)
	if err := c.Mkdir("/dir", 0755); err != nil {
		t.Fatalf("mkdir: %s", err)
	}
	fd, err := c.Open("/dir/target", sfs.OCreat|sfs.OWrOnly, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	c.Close(fd)

	if err := c.Symlink("target", "/dir/link"); err != nil {
		t.Fatalf("symlink: %s", err)
	}

	if _, err := c.Stat("/dir/link"); err != nil {
		t.Errorf("expected relative symlink to resolve: %s", err)
	}
}
