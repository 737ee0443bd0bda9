package sfs

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Context is one execution context's handle onto a shared SFS buffer.
// Multiple Contexts may Attach to the same backing buf
// concurrently from different goroutines, processes (via a shared mmap) or,
// in the FUSE adapter, different mount requests; all synchronization
// against that shared state happens through the lock-free primitives in
// atomic.go, block_alloc.go and inode_alloc.go. Fields that are private to
// this Context (the descriptor table, the path cache) are never touched by
// any other Context and need no locking of their own beyond the mutex
// guarding them.
type Context struct {
	buf    []byte
	layout layout
	clock  Clock
	log    *logrus.Entry
	id     uuid.UUID

	fdMu sync.Mutex
	fds  map[int]*descriptor
	next int

	cacheEnabled bool
	cacheMu      sync.RWMutex
	cache        map[string]uint32
}

func newContext(buf []byte, l layout, o *ctxOptions) *Context {
	id := uuid.New()
	return &Context{
		buf:          buf,
		layout:       l,
		clock:        o.clock,
		log:          o.logger.WithField("sfs_session", id.String()),
		id:           id,
		fds:          make(map[int]*descriptor),
		next:         3,
		cacheEnabled: o.enablePathCache,
		cache:        make(map[string]uint32),
	}
}

// Initialize lays a fresh filesystem over buf and returns a Context
// attached to it. buf is zeroed as a side effect of the free list and
// inode table setup; any prior content is discarded.
func Initialize(buf []byte, opts ...Option) (*Context, error) {
	o := defaultCtxOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	l, err := computeLayout(len(buf), o.inodeCount)
	if err != nil {
		return nil, err
	}

	c := newContext(buf, l, o)

	sb := &superblockFields{
		Magic:          sbMagic,
		Version:        sbVersion,
		BlockSizeField: BlockSize,
		TotalBlocks:    l.totalBlocks,
		InodeCount:     l.inodeCount,
		FreeBlockHead:  FreeListEnd,
		NextFreeInode:  RootIno + 1,
		RootInode:      RootIno,
		DataBlockCount: l.dataBlockCount,
	}

	// Thread the free list. Data block 0 is a reserved sentinel (never
	// handed out, never appears on the list); the list runs 1..dataBlockCount-1
	// with the last entry terminated by FreeListEnd. A data region with
	// fewer than two blocks has nothing to thread; see DESIGN.md for how
	// that edge case is handled.
	if l.dataBlockCount >= 2 {
		sb.FreeBlockHead = 1
		for b := uint32(1); b < l.dataBlockCount; b++ {
			next := b + 1
			if next >= l.dataBlockCount {
				next = FreeListEnd
			}
			c.zeroBlock(b)
			atomicStore(c.buf, l.blockOffset(b), next)
		}
		if l.dataBlockCount > 0 {
			c.zeroBlock(0)
		}
	} else if l.dataBlockCount == 1 {
		// Only the sentinel block exists; nothing to free.
		c.zeroBlock(0)
	}

	copy(c.buf[:superblockWireSize], sbEncode(sb))

	// Zero the whole inode table, then create the root directory at
	// inode 0; its nlink starts at 2, one for "." and one for the entry
	// in its parent, which is itself.
	tableStart := int64(l.inodeTableBlock) * BlockSize
	tableEnd := tableStart + int64(l.inodeTableBlocks)*BlockSize
	for i := range c.buf[tableStart:tableEnd] {
		c.buf[tableStart+int64(i)] = 0
	}

	root := &Inode{
		ino: RootIno,
		rec: newInodeRecord(S_IFDIR|0755, 2, 0, 0, c.clock),
	}
	c.writeInode(root)
	atomicStore(c.buf, sbOffNextFreeInode, RootIno+1)

	if err := c.addEntry(root, ".", RootIno, DTDir); err != nil {
		return nil, err
	}
	if err := c.addEntry(root, "..", RootIno, DTDir); err != nil {
		return nil, err
	}
	c.writeInode(root)

	c.log.Debug("sfs: initialized filesystem")
	return c, nil
}

// Attach opens an existing, already-initialized buf. It validates the
// magic and recomputes the layout from the superblock's stored inode_count
// rather than trusting WithInodeCount, trusting on-disk metadata over
// caller-supplied hints once a filesystem already exists.
func Attach(buf []byte, opts ...Option) (*Context, error) {
	o := defaultCtxOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if len(buf) < superblockWireSize {
		return nil, fmt.Errorf("%w: buffer too small for superblock", ErrInvalidBuffer)
	}

	sb := sbDecode(buf)
	if sb.Magic != sbMagic {
		o.logger.WithFields(logrus.Fields{
			"want_magic": fmt.Sprintf("%#x", sbMagic),
			"got_magic":  fmt.Sprintf("%#x", sb.Magic),
		}).Error("sfs: attach rejected, bad magic")
		return nil, fmt.Errorf("%w: bad magic %#x", ErrInvalidBuffer, sb.Magic)
	}
	if sb.Version != sbVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidBuffer, sb.Version)
	}
	if sb.BlockSizeField != BlockSize {
		return nil, fmt.Errorf("%w: block size mismatch (%d)", ErrInvalidBuffer, sb.BlockSizeField)
	}

	l, err := computeLayout(len(buf), sb.InodeCount)
	if err != nil {
		return nil, err
	}
	if l.totalBlocks != sb.TotalBlocks || l.dataBlockCount != sb.DataBlockCount {
		return nil, fmt.Errorf("%w: stored layout does not match buffer size", ErrInvalidBuffer)
	}

	c := newContext(buf, l, o)
	c.log.Debug("sfs: attached to filesystem")
	return c, nil
}

// Detach releases this Context's private resources (its open descriptor
// table). It does not touch the shared buffer; other Contexts attached to
// it are unaffected, since Contexts are independent of one another.
func (c *Context) Detach() error {
	c.fdMu.Lock()
	defer c.fdMu.Unlock()
	c.fds = make(map[int]*descriptor)
	return nil
}

func (c *Context) invalidatePathCache() {
	if !c.cacheEnabled {
		return
	}
	c.cacheMu.Lock()
	c.cache = make(map[string]uint32)
	c.cacheMu.Unlock()
}
