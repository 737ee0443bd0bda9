package sfs

import "fmt"

// allocBlock pops the head of the free-block list. Block 0 of the data
// region is a reserved sentinel and never appears on the list, so a
// returned block number is always >= 1.
func (c *Context) allocBlock() (uint32, error) {
	for {
		head := c.freeBlockHead()
		if head == FreeListEnd {
			return 0, ErrNoSpace
		}

		next := atomicLoad(c.buf, c.layout.blockOffset(head))

		if atomicCAS(c.buf, sbOffFreeBlockHead, head, next) {
			c.zeroBlock(head)
			return head, nil
		}
		// CAS lost the race against a concurrent allocator; retry from (1).
	}
}

// freeBlock pushes block onto the free-block list head.
func (c *Context) freeBlock(block uint32) {
	if block == 0 || block >= c.layout.dataBlockCount {
		panic(fmt.Sprintf("sfs: freeBlock called with out-of-range block %d", block))
	}
	for {
		head := c.freeBlockHead()
		atomicStore(c.buf, c.layout.blockOffset(block), head)
		if atomicCAS(c.buf, sbOffFreeBlockHead, head, block) {
			return
		}
		// Lost the race; the "next" pointer we wrote is stale, retry.
	}
}

func (c *Context) zeroBlock(b uint32) {
	off := c.layout.blockOffset(b)
	buf := c.buf[off : off+BlockSize]
	for i := range buf {
		buf[i] = 0
	}
}

func (c *Context) blockBytes(b uint32) []byte {
	off := c.layout.blockOffset(b)
	return c.buf[off : off+BlockSize]
}

// freeBlocksCount walks the free list and counts its length. Used by
// statfs and by tests verifying P1 (free-block conservation); it is not on
// any hot path.
func (c *Context) freeBlocksCount() uint32 {
	count := uint32(0)
	seen := make(map[uint32]bool)
	cur := c.freeBlockHead()
	for cur != FreeListEnd {
		if seen[cur] {
			// A cycle in the free list would be a bug; stop rather than
			// loop forever.
			break
		}
		seen[cur] = true
		count++
		cur = atomicLoad(c.buf, c.layout.blockOffset(cur))
	}
	return count
}
