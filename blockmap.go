package sfs

import "encoding/binary"

// blockmap.go translates a 0-based file-block index into a data-block
// number through the direct/indirect/double-indirect scheme, including
// lazy allocation of intermediate pointer blocks on write and rollback of
// everything allocated in a single call when an intermediate allocation
// fails partway through.

const (
	indirectRangeBlocks       = PointersPerBlock
	doubleIndirectRangeBlocks = PointersPerBlock * PointersPerBlock
)

func (c *Context) readPointer(block uint32, slot uint32) uint32 {
	buf := c.blockBytes(block)
	return binary.LittleEndian.Uint32(buf[slot*4:])
}

func (c *Context) writePointer(block uint32, slot uint32, value uint32) {
	buf := c.blockBytes(block)
	binary.LittleEndian.PutUint32(buf[slot*4:], value)
}

// blockForRead resolves fb to a data block number, returning ok=false for a
// hole; reading a hole returns zeroes.
func (c *Context) blockForRead(i *Inode, fb uint64) (block uint32, ok bool) {
	if fb < DirectBlocks {
		b := i.rec.Direct[fb]
		return b, b != 0
	}
	fb -= DirectBlocks
	if fb < indirectRangeBlocks {
		if i.rec.Indirect == 0 {
			return 0, false
		}
		b := c.readPointer(i.rec.Indirect, uint32(fb))
		return b, b != 0
	}
	fb -= indirectRangeBlocks
	if fb < doubleIndirectRangeBlocks {
		if i.rec.DoubleIndirect == 0 {
			return 0, false
		}
		l1 := uint32(fb / PointersPerBlock)
		l2 := uint32(fb % PointersPerBlock)
		l1Block := c.readPointer(i.rec.DoubleIndirect, l1)
		if l1Block == 0 {
			return 0, false
		}
		b := c.readPointer(l1Block, l2)
		return b, b != 0
	}
	// Beyond the addressable range; callers clamp size so this should not
	// be reached in practice.
	return 0, false
}

// allocateBlockForFile installs a newly allocated data block at file-block
// index fb, allocating any intermediate indirect/double-indirect pointer
// blocks lazily. On any intermediate allocation failure it frees everything
// it allocated during this call and returns the error, so a partial failure
// never leaves a dangling pointer block.
func (c *Context) allocateBlockForFile(i *Inode, fb uint64) (uint32, error) {
	var allocated []uint32
	rollback := func() {
		for _, b := range allocated {
			c.freeBlock(b)
		}
	}

	if fb < DirectBlocks {
		b, err := c.allocBlock()
		if err != nil {
			return 0, err
		}
		i.rec.Direct[fb] = b
		i.rec.Blocks++
		return b, nil
	}
	fb -= DirectBlocks

	if fb < indirectRangeBlocks {
		if i.rec.Indirect == 0 {
			ptrBlock, err := c.allocBlock()
			if err != nil {
				return 0, err
			}
			i.rec.Indirect = ptrBlock
			allocated = append(allocated, ptrBlock)
		}
		b, err := c.allocBlock()
		if err != nil {
			rollback()
			i.rec.Indirect = clearIfAllocated(i.rec.Indirect, allocated)
			return 0, err
		}
		c.writePointer(i.rec.Indirect, uint32(fb), b)
		i.rec.Blocks++
		return b, nil
	}
	fb -= indirectRangeBlocks

	if fb < doubleIndirectRangeBlocks {
		l1 := uint32(fb / PointersPerBlock)
		l2 := uint32(fb % PointersPerBlock)

		if i.rec.DoubleIndirect == 0 {
			l0Block, err := c.allocBlock()
			if err != nil {
				return 0, err
			}
			i.rec.DoubleIndirect = l0Block
			allocated = append(allocated, l0Block)
		}

		l1Block := c.readPointer(i.rec.DoubleIndirect, l1)
		newL1 := false
		if l1Block == 0 {
			nb, err := c.allocBlock()
			if err != nil {
				rollback()
				i.rec.DoubleIndirect = clearIfAllocated(i.rec.DoubleIndirect, allocated)
				return 0, err
			}
			l1Block = nb
			c.writePointer(i.rec.DoubleIndirect, l1, l1Block)
			allocated = append(allocated, l1Block)
			newL1 = true
		}

		b, err := c.allocBlock()
		if err != nil {
			if newL1 {
				c.writePointer(i.rec.DoubleIndirect, l1, 0)
			}
			rollback()
			i.rec.DoubleIndirect = clearIfAllocated(i.rec.DoubleIndirect, allocated)
			return 0, err
		}
		c.writePointer(l1Block, l2, b)
		i.rec.Blocks++
		return b, nil
	}

	return 0, ErrNoSpace
}

// clearIfAllocated zeroes field back to 0 if the block it references is one
// this call allocated (and is therefore being rolled back), otherwise
// leaves a pre-existing pointer untouched.
func clearIfAllocated(field uint32, allocated []uint32) uint32 {
	for _, b := range allocated {
		if b == field {
			return 0
		}
	}
	return field
}

// freeAllBlocks walks every block reachable from i's direct/indirect/
// double-indirect pointers and frees them, pointer blocks included. It is
// used by Open with OTrunc and by the final reclamation of an inode in
// Unlink, Rmdir and Rename; Truncate frees only the blocks past the new
// size, through shrinkFile.
func (c *Context) freeAllBlocks(i *Inode) {
	for idx := range i.rec.Direct {
		if b := i.rec.Direct[idx]; b != 0 {
			c.freeBlock(b)
			i.rec.Direct[idx] = 0
		}
	}
	if i.rec.Indirect != 0 {
		for slot := uint32(0); slot < PointersPerBlock; slot++ {
			if b := c.readPointer(i.rec.Indirect, slot); b != 0 {
				c.freeBlock(b)
			}
		}
		c.freeBlock(i.rec.Indirect)
		i.rec.Indirect = 0
	}
	if i.rec.DoubleIndirect != 0 {
		for l1 := uint32(0); l1 < PointersPerBlock; l1++ {
			l1Block := c.readPointer(i.rec.DoubleIndirect, l1)
			if l1Block == 0 {
				continue
			}
			for l2 := uint32(0); l2 < PointersPerBlock; l2++ {
				if b := c.readPointer(l1Block, l2); b != 0 {
					c.freeBlock(b)
				}
			}
			c.freeBlock(l1Block)
		}
		c.freeBlock(i.rec.DoubleIndirect)
		i.rec.DoubleIndirect = 0
	}
	i.rec.Blocks = 0
}

// maxFileSize is the number of bytes addressable via the block map (the
// largest addressable byte offset is maxFileSize-1):
// 8 direct + 1024 indirect + 1024*1024 double-indirect blocks.
const maxFileSize = uint64(DirectBlocks+indirectRangeBlocks+doubleIndirectRangeBlocks) * BlockSize
