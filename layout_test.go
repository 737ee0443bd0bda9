package sfs_test

import (
	"testing"

	"github.com/KarpelesLab/sfs"
)

func TestInitializeRejectsTooSmallBuffer(t *testing.T) {
	_, err := sfs.Initialize(make([]byte, 100))
	if err == nil {
		t.Fatal("expected error initializing a too-small buffer")
	}
}

func TestInitializeAndAttachRoundTrip(t *testing.T) {
	buf := make([]byte, 1<<20)
	c, err := sfs.Initialize(buf)
	if err != nil {
		t.Fatalf("Initialize: %s", err)
	}

	info, err := c.Stat("/")
	if err != nil {
		t.Fatalf("stat root: %s", err)
	}
	if !info.IsDir() {
		t.Fatal("root is not reported as a directory")
	}

	c2, err := sfs.Attach(buf)
	if err != nil {
		t.Fatalf("Attach: %s", err)
	}
	info2, err := c2.Stat("/")
	if err != nil {
		t.Fatalf("stat root after attach: %s", err)
	}
	if info2.Size() != info.Size() {
		t.Errorf("root size mismatch after attach: %d vs %d", info2.Size(), info.Size())
	}
}

func TestAttachRejectsForeignBuffer(t *testing.T) {
	buf := make([]byte, 1<<16)
	for i := range buf {
		buf[i] = 0xAA
	}
	if _, err := sfs.Attach(buf); err == nil {
		t.Fatal("expected Attach to reject a buffer with no valid magic")
	}
}

func TestAttachRejectsTruncatedBuffer(t *testing.T) {
	buf := make([]byte, 1<<20)
	if _, err := sfs.Initialize(buf); err != nil {
		t.Fatalf("Initialize: %s", err)
	}
	if _, err := sfs.Attach(buf[:len(buf)/2]); err == nil {
		t.Fatal("expected Attach to reject a buffer whose size no longer matches the stored layout")
	}
}
