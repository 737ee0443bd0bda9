package sfs_test

import (
	"bytes"
	"testing"

	"github.com/KarpelesLab/sfs"
)

func newTestFS(t *testing.T, size int) *sfs.Context {
	t.Helper()
	buf := make([]byte, size)
	c, err := sfs.Initialize(buf, sfs.WithClock(sfs.NewFixedClock(1700000000)))
	if err != nil {
		t.Fatalf("Initialize: %s", err)
	}
	return c
}

// Scenario A: create, write, read back.
func TestCreateWriteReadBack(t *testing.T) {
	c := newTestFS(t, 4<<20)

	if err := c.Mkdir("/etc", 0755); err != nil {
		t.Fatalf("mkdir: %s", err)
	}

	fd, err := c.Open("/etc/hostname", sfs.OCreat|sfs.OWrOnly, 0644)
	if err != nil {
		t.Fatalf("open CREAT: %s", err)
	}
	if fd < 3 {
		t.Errorf("expected fd >= 3, got %d", fd)
	}
	n, err := c.Write(fd, []byte("hello\n"))
	if err != nil || n != 6 {
		t.Fatalf("write: n=%d err=%s", n, err)
	}
	if err := c.Close(fd); err != nil {
		t.Fatalf("close: %s", err)
	}

	info, err := c.Stat("/etc/hostname")
	if err != nil {
		t.Fatalf("stat: %s", err)
	}
	if info.Size() != 6 {
		t.Errorf("expected size 6, got %d", info.Size())
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("expected mode 0644, got %o", info.Mode().Perm())
	}

	fd2, err := c.Open("/etc/hostname", sfs.ORdOnly, 0)
	if err != nil {
		t.Fatalf("reopen: %s", err)
	}
	defer c.Close(fd2)
	buf := make([]byte, 16)
	n, err = c.Read(fd2, buf)
	if err != nil {
		t.Fatalf("read: %s", err)
	}
	if n != 6 || !bytes.Equal(buf[:6], []byte("hello\n")) {
		t.Errorf("unexpected read result: n=%d data=%q", n, buf[:n])
	}
}

// Scenario C: sparse hole.
func TestSparseHole(t *testing.T) {
	c := newTestFS(t, 4<<20)

	fd, err := c.Open("/sparse", sfs.OCreat|sfs.OWrOnly, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	pos, err := c.Lseek(fd, 10*4096, sfs.SeekSet)
	if err != nil || pos != 10*4096 {
		t.Fatalf("lseek: pos=%d err=%s", pos, err)
	}
	n, err := c.Write(fd, []byte("x"))
	if err != nil || n != 1 {
		t.Fatalf("write: n=%d err=%s", n, err)
	}
	if err := c.Close(fd); err != nil {
		t.Fatalf("close: %s", err)
	}

	info, err := c.Stat("/sparse")
	if err != nil {
		t.Fatalf("stat: %s", err)
	}
	if info.Size() != 40961 {
		t.Errorf("expected size 40961, got %d", info.Size())
	}

	fd2, err := c.Open("/sparse", sfs.ORdOnly, 0)
	if err != nil {
		t.Fatalf("reopen: %s", err)
	}
	defer c.Close(fd2)
	buf := make([]byte, 4096)
	n, err = c.Pread(fd2, buf, 0)
	if err != nil {
		t.Fatalf("pread: %s", err)
	}
	if n != 4096 {
		t.Errorf("expected to read 4096 bytes, got %d", n)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("expected hole to read as zero, byte %d = %d", i, b)
		}
	}
}

func TestOpenNotFound(t *testing.T) {
	c := newTestFS(t, 1<<20)
	if _, err := c.Open("/missing", sfs.ORdOnly, 0); err == nil {
		t.Fatal("expected NOT_FOUND opening a nonexistent file without CREAT")
	}
}

func TestOpenExclRejectsExisting(t *testing.T) {
	c := newTestFS(t, 1<<20)
	fd, err := c.Open("/f", sfs.OCreat|sfs.OWrOnly, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	c.Close(fd)

	if _, err := c.Open("/f", sfs.OCreat|sfs.OExcl|sfs.OWrOnly, 0644); err == nil {
		t.Fatal("expected EXISTS when O_CREAT|O_EXCL targets an existing file")
	}
}

func TestOpenDirectoryForWriteFails(t *testing.T) {
	c := newTestFS(t, 1<<20)
	if err := c.Mkdir("/d", 0755); err != nil {
		t.Fatalf("mkdir: %s", err)
	}
	if _, err := c.Open("/d", sfs.OWrOnly, 0); err == nil {
		t.Fatal("expected ISDIR opening a directory for writing")
	}
}

func TestTruncateFreesBlocks(t *testing.T) {
	c := newTestFS(t, 4<<20)
	fd, err := c.Open("/f", sfs.OCreat|sfs.OWrOnly, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	data := bytes.Repeat([]byte("a"), 4096*5)
	if _, err := c.Write(fd, data); err != nil {
		t.Fatalf("write: %s", err)
	}

	before := c.Statfs()
	if err := c.Truncate(fd, 0); err != nil {
		t.Fatalf("truncate: %s", err)
	}
	after := c.Statfs()
	if after.FreeBlocks <= before.FreeBlocks {
		t.Errorf("expected truncate to free blocks: before=%d after=%d", before.FreeBlocks, after.FreeBlocks)
	}
	c.Close(fd)

	info, err := c.Stat("/f")
	if err != nil {
		t.Fatalf("stat: %s", err)
	}
	if info.Size() != 0 {
		t.Errorf("expected size 0 after truncate, got %d", info.Size())
	}
}

func TestReadPastEndOfFile(t *testing.T) {
	c := newTestFS(t, 1<<20)
	fd, err := c.Open("/f", sfs.OCreat|sfs.ORdWr, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	defer c.Close(fd)
	if _, err := c.Write(fd, []byte("abc")); err != nil {
		t.Fatalf("write: %s", err)
	}
	buf := make([]byte, 16)
	n, err := c.Pread(fd, buf, 3)
	if err != nil {
		t.Fatalf("pread at eof: %s", err)
	}
	if n != 0 {
		t.Errorf("expected 0 bytes read at eof, got %d", n)
	}
}
