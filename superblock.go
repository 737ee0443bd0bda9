package sfs

// Byte offsets of the superblock fields. The two fields mutated
// by the lock-free allocators (FreeBlockHead, NextFreeInode) are read and
// written exclusively through atomic.go; every other field is written once
// at Initialize time and treated as immutable afterwards.
const (
	sbOffMagic          = 0
	sbOffVersion        = 4
	sbOffBlockSize      = 8
	sbOffTotalBlocks    = 12
	sbOffInodeCount     = 16
	sbOffFreeBlockHead  = 20
	sbOffNextFreeInode  = 24
	sbOffRootInode      = 28
	sbOffDataBlockCount = 32
)

func sbDecode(buf []byte) superblockFields {
	var f superblockFields
	_ = unmarshalFields(&f, buf[:superblockWireSize])
	return f
}

func sbEncode(f *superblockFields) []byte {
	data, err := marshalFields(f)
	if err != nil {
		panic(err)
	}
	return data
}

// freeBlockHead atomically loads the free-block list head.
func (c *Context) freeBlockHead() uint32 {
	return atomicLoad(c.buf, sbOffFreeBlockHead)
}

// nextFreeInodeVal atomically loads the inode allocator's high-water mark.
func (c *Context) nextFreeInodeVal() uint32 {
	return atomicLoad(c.buf, sbOffNextFreeInode)
}

func (c *Context) inodeCountVal() uint32 {
	return c.layout.inodeCount
}

func (c *Context) dataBlockCountVal() uint32 {
	return c.layout.dataBlockCount
}

func (c *Context) blockSizeVal() uint32 {
	return BlockSize
}

func (c *Context) totalBlocksVal() uint32 {
	return c.layout.totalBlocks
}
