package sfs_test

import (
	"testing"

	"github.com/KarpelesLab/sfs"
)

// Scenario F: capacity exhaustion.
func TestCapacityExhaustion(t *testing.T) {
	// A small buffer gives few data blocks, so the loop below reaches
	// NOSPACE quickly.
	c := newTestFS(t, 256*1024)

	fd, err := c.Open("/big", sfs.OCreat|sfs.OWrOnly, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	defer c.Close(fd)

	chunk := make([]byte, 4096)
	var wrote int
	for {
		n, werr := c.Write(fd, chunk)
		wrote += n
		if werr != nil {
			break
		}
		if wrote > 64<<20 {
			t.Fatal("never hit NOSPACE within a generous bound")
		}
	}

	before := c.Statfs()
	if before.FreeBlocks != 0 {
		t.Errorf("expected statfs to report 0 free blocks after exhaustion, got %d", before.FreeBlocks)
	}

	blocksBefore := before.FreeBlocks
	if err := c.Unlink("/big"); err != nil {
		t.Fatalf("unlink: %s", err)
	}
	after := c.Statfs()
	if after.FreeBlocks <= blocksBefore {
		t.Errorf("expected free_blocks to increase after unlinking the file that exhausted capacity: before=%d after=%d", blocksBefore, after.FreeBlocks)
	}
}

func TestInodeExhaustion(t *testing.T) {
	buf := make([]byte, 1<<20)
	c, err := sfs.Initialize(buf, sfs.WithInodeCount(4))
	if err != nil {
		t.Fatalf("Initialize: %s", err)
	}

	var lastErr error
	for i := 0; i < 16; i++ {
		fd, err := c.Open("/f"+string(rune('a'+i)), sfs.OCreat|sfs.OWrOnly, 0644)
		if err != nil {
			lastErr = err
			break
		}
		c.Close(fd)
	}
	if lastErr == nil {
		t.Fatal("expected to exhaust the small inode table")
	}
}
