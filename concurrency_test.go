package sfs_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/KarpelesLab/sfs"
	"golang.org/x/sync/errgroup"
)

// Scenario E: concurrent allocation from two contexts attached to the same
// buffer, each creating 1000 files in disjoint directories.
func TestConcurrentAllocationFromTwoContexts(t *testing.T) {
	const perWorker = 1000

	buf := make([]byte, 32<<20)
	c1, err := sfs.Initialize(buf)
	if err != nil {
		t.Fatalf("Initialize: %s", err)
	}
	c2, err := sfs.Attach(buf)
	if err != nil {
		t.Fatalf("Attach: %s", err)
	}

	if err := c1.Mkdir("/w1", 0755); err != nil {
		t.Fatalf("mkdir /w1: %s", err)
	}
	if err := c1.Mkdir("/w2", 0755); err != nil {
		t.Fatalf("mkdir /w2: %s", err)
	}

	var g errgroup.Group
	var mu sync.Mutex
	inos := make(map[uint32]string)

	worker := func(ctx *sfs.Context, dir string) error {
		for i := 0; i < perWorker; i++ {
			path := fmt.Sprintf("%s/f%d", dir, i)
			fd, err := ctx.Open(path, sfs.OCreat|sfs.OWrOnly, 0644)
			if err != nil {
				return err
			}
			if err := ctx.Close(fd); err != nil {
				return err
			}
			info, err := ctx.Lstat(path)
			if err != nil {
				return err
			}
			if info.Size() != 0 {
				return fmt.Errorf("%s: expected size 0, got %d", path, info.Size())
			}
			ino := info.Sys().(*sfs.Inode).Number()
			mu.Lock()
			if prev, ok := inos[ino]; ok {
				mu.Unlock()
				return fmt.Errorf("inode %d allocated for both %s and %s", ino, prev, path)
			}
			inos[ino] = path
			mu.Unlock()
		}
		return nil
	}

	g.Go(func() error { return worker(c1, "/w1") })
	g.Go(func() error { return worker(c2, "/w2") })

	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent workers: %s", err)
	}

	if len(inos) != 2*perWorker {
		t.Errorf("expected %d distinct inodes, got %d", 2*perWorker, len(inos))
	}

	if violations := c1.CheckInvariants(); len(violations) > 0 {
		for _, v := range violations {
			t.Errorf("invariant violation: %s", v)
		}
	}
}
