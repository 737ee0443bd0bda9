package sfs_test

import (
	"bytes"
	"testing"

	"github.com/KarpelesLab/sfs"
)

// P1/P2/P3 (block and inode bookkeeping) are checked via CheckInvariants
// after a sequence of mutations exercises every operation.
func TestInvariantsHoldAfterMixedWorkload(t *testing.T) {
	c := newTestFS(t, 4<<20)

	if err := c.Mkdir("/a", 0755); err != nil {
		t.Fatalf("mkdir: %s", err)
	}
	fd, err := c.Open("/a/f", sfs.OCreat|sfs.OWrOnly, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	if _, err := c.Write(fd, bytes.Repeat([]byte("x"), 4096*3)); err != nil {
		t.Fatalf("write: %s", err)
	}
	c.Close(fd)

	if err := c.Symlink("/a/f", "/link"); err != nil {
		t.Fatalf("symlink: %s", err)
	}
	if err := c.Link("/a/f", "/hard"); err != nil {
		t.Fatalf("link: %s", err)
	}
	if err := c.Rename("/hard", "/hard2"); err != nil {
		t.Fatalf("rename: %s", err)
	}
	if err := c.Unlink("/hard2"); err != nil {
		t.Fatalf("unlink: %s", err)
	}

	if violations := c.CheckInvariants(); len(violations) > 0 {
		for _, v := range violations {
			t.Errorf("invariant violation: %s", v)
		}
	}
}

// P6: write followed by read at the same offset round-trips.
func TestWriteReadRoundTrip(t *testing.T) {
	c := newTestFS(t, 4<<20)
	fd, err := c.Open("/f", sfs.OCreat|sfs.ORdWr, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	defer c.Close(fd)

	want := bytes.Repeat([]byte("roundtrip"), 5000)
	if _, err := c.Pwrite(fd, want, 0); err != nil {
		t.Fatalf("pwrite: %s", err)
	}
	got := make([]byte, len(want))
	if _, err := c.Pread(fd, got, 0); err != nil {
		t.Fatalf("pread: %s", err)
	}
	if !bytes.Equal(want, got) {
		t.Error("write/read round trip did not preserve content")
	}
}

// P7: applying chmod/chown twice is equivalent to applying it once.
func TestChmodChownIdempotent(t *testing.T) {
	c := newTestFS(t, 1<<20)
	fd, err := c.Open("/f", sfs.OCreat|sfs.OWrOnly, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	c.Close(fd)

	if err := c.Chmod("/f", 0600); err != nil {
		t.Fatalf("chmod: %s", err)
	}
	if err := c.Chmod("/f", 0600); err != nil {
		t.Fatalf("chmod again: %s", err)
	}
	info, err := c.Stat("/f")
	if err != nil {
		t.Fatalf("stat: %s", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
	}

	if err := c.Chown("/f", 42, 7); err != nil {
		t.Fatalf("chown: %s", err)
	}
	if err := c.Chown("/f", 42, 7); err != nil {
		t.Fatalf("chown again: %s", err)
	}
}

// P8: after rename(a, b), a is gone and b resolves to a's former inode; no
// path observes both names simultaneously.
func TestRenameAtomicityOfDirectoryEntries(t *testing.T) {
	c := newTestFS(t, 1<<20)
	fd, err := c.Open("/a", sfs.OCreat|sfs.OWrOnly, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	c.Close(fd)

	aInfo, err := c.Lstat("/a")
	if err != nil {
		t.Fatalf("lstat /a: %s", err)
	}
	aIno := aInfo.Sys().(*sfs.Inode).Number()

	if err := c.Rename("/a", "/b"); err != nil {
		t.Fatalf("rename: %s", err)
	}

	if _, err := c.Stat("/a"); err == nil {
		t.Fatal("expected /a gone after rename")
	}
	bInfo, err := c.Lstat("/b")
	if err != nil {
		t.Fatalf("lstat /b: %s", err)
	}
	if bInfo.Sys().(*sfs.Inode).Number() != aIno {
		t.Error("expected /b to resolve to the inode formerly named /a")
	}
}
