package sfs

import (
	"io"
	"strings"
)

// ops_file.go implements the descriptor-based operation surface:
// Open/Close/Read/Write/Pread/Pwrite/Lseek/Truncate.

// Open resolves path and installs a descriptor for it. Opening a symlink
// directly (without ONoFollow) follows it like any other path component;
// opening one with ONoFollow set returns ErrInval rather than a descriptor
// onto the symlink itself. SFS has no ability to read/write a symlink
// inode as a file, so NOFOLLOW on the final component is only useful to
// reject it cleanly.
func (c *Context) Open(path string, flags OpenFlag, mode uint32) (int, error) {
	const op = "open"

	parent, name, err := c.resolveParent(path)
	if err != nil {
		return 0, newPathError(op, path, err)
	}

	ino, dtype, found := c.lookupIn(parent, name)
	switch {
	case !found && !flags.Has(OCreat):
		return 0, newPathError(op, path, ErrNotFound)
	case !found:
		newIno, err := c.createFile(parent, name, mode)
		if err != nil {
			return 0, newPathError(op, path, err)
		}
		ino, dtype = newIno, DTReg
	case found && flags.Has(OCreat) && flags.Has(OExcl):
		return 0, newPathError(op, path, ErrExists)
	}

	if dtype == DTLnk && flags.Has(ONoFollow) {
		return 0, newPathError(op, path, ErrInval)
	}
	if dtype == DTLnk {
		target, err := c.readLinkTarget(ino)
		if err != nil {
			return 0, newPathError(op, path, err)
		}
		var resolved uint32
		if strings.HasPrefix(target, "/") {
			resolved, err = c.resolve(target)
		} else {
			resolved, err = c.resolveFrom(parent, target, 1, true)
		}
		if err != nil {
			return 0, newPathError(op, path, err)
		}
		ino = resolved
	}

	i, err := c.readInode(ino)
	if err != nil {
		return 0, newPathError(op, path, err)
	}
	if i.isDir() {
		if flags.writable() {
			return 0, newPathError(op, path, ErrIsDir)
		}
	}

	if flags.Has(OTrunc) && flags.writable() && i.isRegular() {
		c.freeAllBlocks(i)
		i.rec.setSize(0)
		i.touch(c.clock)
		c.writeInode(i)
	}

	pos := int64(0)
	if flags.Has(OAppend) {
		pos = int64(i.size())
	}

	fd := c.allocFd(&descriptor{inode: ino, flags: flags, position: pos, path: path})
	return fd, nil
}

// createFile allocates a new regular-file inode and links it into parent
// under name.
func (c *Context) createFile(parentIno uint32, name string, mode uint32) (uint32, error) {
	parent, err := c.readInode(parentIno)
	if err != nil {
		return 0, err
	}
	if !parent.isDir() {
		return 0, ErrNotDir
	}

	ino, err := c.allocInode()
	if err != nil {
		return 0, err
	}
	f := &Inode{ino: ino, rec: newInodeRecord(S_IFREG|(mode&0o7777), 1, 0, 0, c.clock)}
	c.writeInode(f)

	if err := c.addEntry(parent, name, ino, DTReg); err != nil {
		return 0, err
	}
	parent.touch(c.clock)
	c.writeInode(parent)
	c.invalidatePathCache()
	return ino, nil
}

// Close releases fd.
func (c *Context) Close(fd int) error {
	if err := c.releaseFd(fd); err != nil {
		return newFdError("close", fd, err)
	}
	return nil
}

// Read reads from fd's current position and advances it.
func (c *Context) Read(fd int, p []byte) (int, error) {
	d, err := c.getFd(fd)
	if err != nil {
		return 0, newFdError("read", fd, err)
	}
	if !d.flags.readable() {
		return 0, newFdError("read", fd, ErrInval)
	}
	n, err := c.Pread(fd, p, d.position)
	d.position += int64(n)
	return n, err
}

// Write writes to fd's current position (or the file's end, if the
// descriptor was opened with OAppend) and advances the position.
func (c *Context) Write(fd int, p []byte) (int, error) {
	d, err := c.getFd(fd)
	if err != nil {
		return 0, newFdError("write", fd, err)
	}
	if !d.flags.writable() {
		return 0, newFdError("write", fd, ErrInval)
	}
	off := d.position
	if d.flags.Has(OAppend) {
		i, err := c.readInode(d.inode)
		if err != nil {
			return 0, newFdError("write", fd, err)
		}
		off = int64(i.size())
	}
	n, err := c.Pwrite(fd, p, off)
	d.position = off + int64(n)
	return n, err
}

// Pread reads from fd at off without touching fd's stored position.
func (c *Context) Pread(fd int, p []byte, off int64) (int, error) {
	d, err := c.getFd(fd)
	if err != nil {
		return 0, newFdError("pread", fd, err)
	}
	i, err := c.readInode(d.inode)
	if err != nil {
		return 0, newFdError("pread", fd, err)
	}
	i.touchAtime(c.clock)
	c.writeInode(i)
	n, err := c.readRange(i, off, p)
	if err == io.EOF {
		return n, nil
	}
	if err != nil {
		return n, newFdError("pread", fd, err)
	}
	return n, nil
}

// Pwrite writes to fd at off without touching fd's stored position.
func (c *Context) Pwrite(fd int, p []byte, off int64) (int, error) {
	d, err := c.getFd(fd)
	if err != nil {
		return 0, newFdError("pwrite", fd, err)
	}
	i, err := c.readInode(d.inode)
	if err != nil {
		return 0, newFdError("pwrite", fd, err)
	}
	n, err := c.writeRange(i, off, p)
	if err != nil {
		return n, newFdError("pwrite", fd, err)
	}
	i.touch(c.clock)
	c.writeInode(i)
	return n, nil
}

// Lseek repositions fd.
func (c *Context) Lseek(fd int, offset int64, whence Whence) (int64, error) {
	d, err := c.getFd(fd)
	if err != nil {
		return 0, newFdError("lseek", fd, err)
	}

	var base int64
	switch whence {
	case SeekSet:
		base = 0
	case SeekCur:
		base = d.position
	case SeekEnd:
		i, err := c.readInode(d.inode)
		if err != nil {
			return 0, newFdError("lseek", fd, err)
		}
		base = int64(i.size())
	default:
		return 0, newFdError("lseek", fd, ErrInval)
	}

	newPos := base + offset
	if newPos < 0 {
		return 0, newFdError("lseek", fd, ErrInval)
	}
	d.position = newPos
	return newPos, nil
}

// Truncate changes an open file's size in place: growing it leaves a hole
// (reads as zero), shrinking it frees every block no longer covered by the
// new size rather than leaking them.
func (c *Context) Truncate(fd int, size uint64) error {
	d, err := c.getFd(fd)
	if err != nil {
		return newFdError("truncate", fd, err)
	}
	i, err := c.readInode(d.inode)
	if err != nil {
		return newFdError("truncate", fd, err)
	}
	if !i.isRegular() {
		return newFdError("truncate", fd, ErrInval)
	}

	switch {
	case size == i.size():
		return nil
	case size < i.size():
		if err := c.shrinkFile(i, size); err != nil {
			return newFdError("truncate", fd, err)
		}
	default:
		i.rec.setSize(size)
	}

	i.touch(c.clock)
	c.writeInode(i)
	return nil
}

// shrinkFile frees every block whose file-block index is entirely beyond
// newSize, then records the smaller size.
func (c *Context) shrinkFile(i *Inode, newSize uint64) error {
	oldBlocks := (i.size() + BlockSize - 1) / BlockSize
	newBlocks := (newSize + BlockSize - 1) / BlockSize
	for fb := newBlocks; fb < oldBlocks; fb++ {
		if b, ok := c.blockForRead(i, fb); ok {
			c.freeBlock(b)
			c.clearBlockPointer(i, fb)
		}
	}
	i.rec.setSize(newSize)
	return nil
}

// clearBlockPointer zeroes out the pointer that was referencing fb's data
// block, without freeing any indirect/double-indirect pointer block itself
// (those are reclaimed in bulk by freeAllBlocks on unlink).
func (c *Context) clearBlockPointer(i *Inode, fb uint64) {
	if fb < DirectBlocks {
		i.rec.Direct[fb] = 0
		return
	}
	fb -= DirectBlocks
	if fb < indirectRangeBlocks {
		if i.rec.Indirect != 0 {
			c.writePointer(i.rec.Indirect, uint32(fb), 0)
		}
		return
	}
	fb -= indirectRangeBlocks
	if i.rec.DoubleIndirect != 0 {
		l1 := uint32(fb / PointersPerBlock)
		l2 := uint32(fb % PointersPerBlock)
		if l1Block := c.readPointer(i.rec.DoubleIndirect, l1); l1Block != 0 {
			c.writePointer(l1Block, l2, 0)
		}
	}
}
