package sfs

// dirstore.go implements directories as regular files whose data blocks
// hold a flat, unordered array of fixed 32-byte directory entries, looked
// up and mutated linearly through the same block map every other file
// uses (blockmap.go). A zero Inode field marks a free slot that
// add/remove reuse before growing the directory.

const direntsPerBlock = BlockSize / DirentSize

// forEachDirent walks every slot of dir's data, including free ones, and
// calls fn with the slot's 0-based index and decoded entry. fn returns
// false to stop the walk early.
func (c *Context) forEachDirent(dir *Inode, fn func(slot uint64, d *dirent) bool) {
	nslots := dir.size() / DirentSize
	for slot := uint64(0); slot < nslots; slot++ {
		fb := slot / direntsPerBlock
		b, ok := c.blockForRead(dir, fb)
		var d dirent
		if ok {
			buf := c.blockBytes(b)
			off := (slot % direntsPerBlock) * DirentSize
			_ = d.unmarshal(buf[off : off+DirentSize])
		}
		if !fn(slot, &d) {
			return
		}
	}
}

// lookup scans dir's entries for name and returns the target inode number
// and on-disk type.
func (c *Context) lookup(dir *Inode, name string) (ino uint32, dtype DType, found bool) {
	c.forEachDirent(dir, func(_ uint64, d *dirent) bool {
		if d.free() {
			return true
		}
		if d.name() == name {
			ino, dtype, found = d.Inode, DType(d.Type), true
			return false
		}
		return true
	})
	return
}

// lookupIn is a convenience wrapper around lookup that reads the parent
// inode itself; callers that already hold the parent *Inode should call
// lookup directly instead.
func (c *Context) lookupIn(parentIno uint32, name string) (ino uint32, dtype DType, found bool) {
	parent, err := c.readInode(parentIno)
	if err != nil {
		return 0, 0, false
	}
	return c.lookup(parent, name)
}

func (c *Context) dirSlot(dir *Inode, slot uint64) (block uint32, off int64) {
	fb := slot / direntsPerBlock
	b, _ := c.blockForRead(dir, fb)
	return b, int64(slot%direntsPerBlock) * DirentSize
}

// addEntry installs a new (name -> targetIno) mapping in dir, reusing a
// free slot if one exists and otherwise appending one slot at the end
// (allocating a new data block only when the last one is full). It does not check for a pre-existing entry with the same
// name; callers (the ops_* layer) are responsible for the EXISTS check so
// that "." and ".." can be installed unconditionally at mkdir/Initialize
// time.
func (c *Context) addEntry(dir *Inode, name string, targetIno uint32, dtype DType) error {
	if len(name) > MaxNameLen {
		return ErrInval
	}

	var reuseSlot uint64
	haveReuse := false
	c.forEachDirent(dir, func(slot uint64, d *dirent) bool {
		if d.free() {
			reuseSlot, haveReuse = slot, true
			return false
		}
		return true
	})

	d := dirent{Inode: targetIno, Type: uint16(dtype)}
	d.setName(name)

	if haveReuse {
		fb := reuseSlot / direntsPerBlock
		b, ok := c.blockForRead(dir, fb)
		if !ok {
			return ErrInval
		}
		buf := c.blockBytes(b)
		off := (reuseSlot % direntsPerBlock) * DirentSize
		copy(buf[off:off+DirentSize], d.marshal())
		return nil
	}

	// Grow: append a new slot at the end, allocating a fresh data block
	// whenever the current size lands exactly on a block boundary.
	slot := dir.size() / DirentSize
	fb := slot / direntsPerBlock
	b, ok := c.blockForRead(dir, fb)
	if !ok {
		nb, err := c.allocateBlockForFile(dir, fb)
		if err != nil {
			return err
		}
		b = nb
	}
	buf := c.blockBytes(b)
	off := (slot % direntsPerBlock) * DirentSize
	copy(buf[off:off+DirentSize], d.marshal())
	dir.rec.setSize(dir.size() + DirentSize)
	return nil
}

// removeEntry clears the slot matching name, turning it into a free slot
// that a later addEntry can reuse. The directory never shrinks its block
// allocation on removal; only removal of the directory itself (Rmdir, or
// being replaced by Rename) reclaims those blocks (freeAllBlocks).
func (c *Context) removeEntry(dir *Inode, name string) error {
	found := false
	c.forEachDirent(dir, func(slot uint64, d *dirent) bool {
		if d.free() || d.name() != name {
			return true
		}
		b, off := c.dirSlot(dir, slot)
		buf := c.blockBytes(b)
		var empty dirent
		copy(buf[off:off+DirentSize], empty.marshal())
		found = true
		return false
	})
	if !found {
		return ErrNotFound
	}
	return nil
}

// isDirEmpty reports whether dir contains only "." and "..".
func (c *Context) isDirEmpty(dir *Inode) bool {
	count := 0
	c.forEachDirent(dir, func(_ uint64, d *dirent) bool {
		if !d.free() {
			count++
		}
		return true
	})
	return count <= 2
}
