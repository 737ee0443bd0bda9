package sfs

// allocInode does a monotonic bump of next_free_inode via CAS. Freed
// inodes are never returned to this counter — they are tombstoned in
// place instead of being recycled.
func (c *Context) allocInode() (uint32, error) {
	for {
		n := c.nextFreeInodeVal()
		if n >= c.layout.inodeCount {
			return 0, ErrNoSpace
		}
		if atomicCAS(c.buf, sbOffNextFreeInode, n, n+1) {
			c.zeroInodeRecord(n)
			return n, nil
		}
	}
}

func (c *Context) zeroInodeRecord(ino uint32) {
	off := c.layout.inodeOffset(ino)
	buf := c.buf[off : off+InodeSize]
	for i := range buf {
		buf[i] = 0
	}
}

func (c *Context) freeInodesCount() uint32 {
	return c.layout.inodeCount - c.nextFreeInodeVal()
}
