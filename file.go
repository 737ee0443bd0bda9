package sfs

import "io"

// file.go implements raw byte-range I/O against an inode's block map:
// reading a range (holes read as zero) and writing a range (allocating
// blocks lazily, the way blockmap.go's allocateBlockForFile expects). Every
// higher-level read/write — the descriptor-based ops_file.go operations,
// readlink, and the io/fs adapter — goes through readRange/writeRange
// rather than touching the block map directly.

// readRange reads up to len(p) bytes from i starting at off, zero-filling
// any holes, and returns the number of bytes copied. It never reads past
// i.size(), returning io.EOF once off reaches it, mirroring io.ReaderAt.
func (c *Context) readRange(i *Inode, off int64, p []byte) (int, error) {
	if off < 0 {
		return 0, ErrInval
	}
	size := int64(i.size())
	if off >= size {
		return 0, io.EOF
	}
	if int64(len(p)) > size-off {
		p = p[:size-off]
	}

	n := 0
	for n < len(p) {
		fb := uint64(off+int64(n)) / BlockSize
		inBlock := int((off + int64(n)) % BlockSize)
		want := BlockSize - inBlock
		if want > len(p)-n {
			want = len(p) - n
		}

		b, ok := c.blockForRead(i, fb)
		if !ok {
			for k := 0; k < want; k++ {
				p[n+k] = 0
			}
		} else {
			buf := c.blockBytes(b)
			copy(p[n:n+want], buf[inBlock:inBlock+want])
		}
		n += want
	}
	return n, nil
}

// writeRange writes p into i's data starting at off, allocating new blocks
// as needed and growing i's recorded size if the write extends past it.
// Writing past the current end of file over a hole block leaves the
// untouched portion of that block zero, since allocateBlockForFile hands
// back freshly zeroed blocks.
func (c *Context) writeRange(i *Inode, off int64, p []byte) (int, error) {
	if off < 0 {
		return 0, ErrInval
	}
	if uint64(off)+uint64(len(p)) > maxFileSize {
		return 0, ErrNoSpace
	}

	n := 0
	for n < len(p) {
		fb := uint64(off+int64(n)) / BlockSize
		inBlock := int((off + int64(n)) % BlockSize)
		want := BlockSize - inBlock
		if want > len(p)-n {
			want = len(p) - n
		}

		b, ok := c.blockForRead(i, fb)
		if !ok {
			nb, err := c.allocateBlockForFile(i, fb)
			if err != nil {
				return n, err
			}
			b = nb
		}
		buf := c.blockBytes(b)
		copy(buf[inBlock:inBlock+want], p[n:n+want])
		n += want
	}

	end := uint64(off) + uint64(n)
	if end > i.size() {
		i.rec.setSize(end)
	}
	return n, nil
}

// readLinkTarget returns the stored target path of a symlink inode, whose
// data blocks hold the target path bytes verbatim.
func (c *Context) readLinkTarget(ino uint32) (string, error) {
	i, err := c.readInode(ino)
	if err != nil {
		return "", err
	}
	if !i.isSymlink() {
		return "", ErrInval
	}
	buf := make([]byte, i.size())
	if _, err := c.readRange(i, 0, buf); err != nil && err != io.EOF {
		return "", err
	}
	return string(buf), nil
}

// writeLinkTarget stores target as a newly created symlink's data.
func (c *Context) writeLinkTarget(i *Inode, target string) error {
	if len(target) == 0 {
		return ErrInval
	}
	_, err := c.writeRange(i, 0, []byte(target))
	return err
}
