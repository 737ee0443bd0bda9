package sfs

// ops_link.go implements unlink, symlink, readlink, link and rename.

// Unlink removes a directory entry and, once its inode's link count drops
// to zero, reclaims the inode and all of its data blocks. Unlinking a
// directory is rejected with ErrIsDir; use Rmdir.
func (c *Context) Unlink(path string) error {
	const op = "unlink"

	parentIno, name, err := c.resolveParent(path)
	if err != nil {
		return newPathError(op, path, err)
	}
	if name == "." || name == ".." {
		return newPathError(op, path, ErrInval)
	}

	targetIno, dtype, found := c.lookupIn(parentIno, name)
	if !found {
		return newPathError(op, path, ErrNotFound)
	}
	if dtype == DTDir {
		return newPathError(op, path, ErrIsDir)
	}

	parent, err := c.readInode(parentIno)
	if err != nil {
		return newPathError(op, path, err)
	}
	if err := c.removeEntry(parent, name); err != nil {
		return newPathError(op, path, err)
	}
	parent.touch(c.clock)
	c.writeInode(parent)

	target, err := c.readInode(targetIno)
	if err != nil {
		return newPathError(op, path, err)
	}
	if target.rec.Nlink > 0 {
		target.rec.Nlink--
	}
	if target.rec.Nlink == 0 {
		c.freeAllBlocks(target)
		target.rec.Mode = 0
	}
	target.touchCtime(c.clock)
	c.writeInode(target)

	c.invalidatePathCache()
	return nil
}

// Symlink creates a symlink at path whose data holds target verbatim,
// unresolved and unvalidated: target may point nowhere, and is only
// interpreted the next time it is resolved.
func (c *Context) Symlink(target, path string) error {
	const op = "symlink"

	if target == "" {
		return newPathError(op, path, ErrInval)
	}

	parentIno, name, err := c.resolveParent(path)
	if err != nil {
		return newPathError(op, path, err)
	}
	if _, _, found := c.lookupIn(parentIno, name); found {
		return newPathError(op, path, ErrExists)
	}

	parent, err := c.readInode(parentIno)
	if err != nil {
		return newPathError(op, path, err)
	}
	if !parent.isDir() {
		return newPathError(op, path, ErrNotDir)
	}

	ino, err := c.allocInode()
	if err != nil {
		return newPathError(op, path, err)
	}
	link := &Inode{ino: ino, rec: newInodeRecord(S_IFLNK|0o777, 1, 0, 0, c.clock)}
	c.writeInode(link)
	if err := c.writeLinkTarget(link, target); err != nil {
		return newPathError(op, path, err)
	}
	c.writeInode(link)

	if err := c.addEntry(parent, name, ino, DTLnk); err != nil {
		return newPathError(op, path, err)
	}
	parent.touch(c.clock)
	c.writeInode(parent)

	c.invalidatePathCache()
	return nil
}

// Readlink returns a symlink's stored target without interpreting it.
func (c *Context) Readlink(path string) (string, error) {
	const op = "readlink"

	ino, err := c.lresolve(path)
	if err != nil {
		return "", newPathError(op, path, err)
	}
	i, err := c.readInode(ino)
	if err != nil {
		return "", newPathError(op, path, err)
	}
	if !i.isSymlink() {
		return "", newPathError(op, path, ErrInval)
	}
	target, err := c.readLinkTarget(ino)
	if err != nil {
		return "", newPathError(op, path, err)
	}
	return target, nil
}

// Link creates a new directory entry newPath pointing at the same inode as
// oldPath (a hard link), bumping its nlink. Hard-linking a directory is
// rejected.
func (c *Context) Link(oldPath, newPath string) error {
	const op = "link"

	oldIno, err := c.lresolve(oldPath)
	if err != nil {
		return newPathError(op, oldPath, err)
	}
	old, err := c.readInode(oldIno)
	if err != nil {
		return newPathError(op, oldPath, err)
	}
	if old.isDir() {
		return newPathError(op, oldPath, ErrIsDir)
	}

	parentIno, name, err := c.resolveParent(newPath)
	if err != nil {
		return newPathError(op, newPath, err)
	}
	if _, _, found := c.lookupIn(parentIno, name); found {
		return newPathError(op, newPath, ErrExists)
	}
	parent, err := c.readInode(parentIno)
	if err != nil {
		return newPathError(op, newPath, err)
	}

	dtype := dtypeFromMode(old.rec.Mode)
	if err := c.addEntry(parent, name, oldIno, dtype); err != nil {
		return newPathError(op, newPath, err)
	}
	parent.touch(c.clock)
	c.writeInode(parent)

	old.rec.Nlink++
	old.touchCtime(c.clock)
	c.writeInode(old)

	c.invalidatePathCache()
	return nil
}

// Rename moves the entry at oldPath to newPath, replacing newPath if it
// already exists and is compatible: a file may replace a file, a directory
// may replace an empty directory. The replacement is made of separate
// directory-entry edits (remove the old target, remove the source entry,
// add the new one), so it is not atomic for a concurrent observer.
func (c *Context) Rename(oldPath, newPath string) error {
	const op = "rename"

	oldParentIno, oldName, err := c.resolveParent(oldPath)
	if err != nil {
		return newPathError(op, oldPath, err)
	}
	srcIno, srcType, found := c.lookupIn(oldParentIno, oldName)
	if !found {
		return newPathError(op, oldPath, ErrNotFound)
	}

	newParentIno, newName, err := c.resolveParent(newPath)
	if err != nil {
		return newPathError(op, newPath, err)
	}

	if dstIno, dstType, found := c.lookupIn(newParentIno, newName); found {
		if dstIno == srcIno {
			return nil
		}
		if srcType == DTDir {
			if dstType != DTDir {
				return newPathError(op, newPath, ErrNotDir)
			}
			dstInode, err := c.readInode(dstIno)
			if err != nil {
				return newPathError(op, newPath, err)
			}
			if !c.isDirEmpty(dstInode) {
				return newPathError(op, newPath, ErrNotEmpty)
			}
		} else if dstType == DTDir {
			return newPathError(op, newPath, ErrIsDir)
		}

		newParent, err := c.readInode(newParentIno)
		if err != nil {
			return newPathError(op, newPath, err)
		}
		if err := c.removeEntry(newParent, newName); err != nil {
			return newPathError(op, newPath, err)
		}
		c.writeInode(newParent)
		if err := c.unlinkTarget(dstIno, dstType); err != nil {
			return newPathError(op, newPath, err)
		}
	}

	oldParent, err := c.readInode(oldParentIno)
	if err != nil {
		return newPathError(op, oldPath, err)
	}
	newParent, err := c.readInode(newParentIno)
	if err != nil {
		return newPathError(op, newPath, err)
	}

	if err := c.removeEntry(oldParent, oldName); err != nil {
		return newPathError(op, oldPath, err)
	}
	if err := c.addEntry(newParent, newName, srcIno, srcType); err != nil {
		return newPathError(op, newPath, err)
	}

	if srcType == DTDir && oldParentIno != newParentIno {
		moved, err := c.readInode(srcIno)
		if err != nil {
			return newPathError(op, newPath, err)
		}
		if err := c.removeEntry(moved, ".."); err == nil {
			_ = c.addEntry(moved, "..", newParentIno, DTDir)
		}
		c.writeInode(moved)
		oldParent.rec.Nlink--
		newParent.rec.Nlink++
	}

	now := c.clock.Now()
	oldParent.rec.Mtime, oldParent.rec.Ctime = now, now
	newParent.rec.Mtime, newParent.rec.Ctime = now, now
	c.writeInode(oldParent)
	c.writeInode(newParent)

	c.invalidatePathCache()
	return nil
}

// unlinkTarget drops the link(s) held by an inode replaced by rename,
// reclaiming it once its nlink reaches zero, exactly as Unlink/Rmdir would.
// A directory being replaced is always empty (the caller already checked),
// so it carries only its own "." self-reference and the parent's entry
// being removed, contributing nlink=2; both are dropped here rather than
// the single decrement a file's replacement needs.
func (c *Context) unlinkTarget(ino uint32, dtype DType) error {
	i, err := c.readInode(ino)
	if err != nil {
		return err
	}
	switch {
	case dtype == DTDir && i.rec.Nlink > 2:
		i.rec.Nlink -= 2
	case dtype == DTDir:
		i.rec.Nlink = 0
	case i.rec.Nlink > 0:
		i.rec.Nlink--
	}
	if i.rec.Nlink == 0 {
		c.freeAllBlocks(i)
		i.rec.Mode = 0
	}
	i.touchCtime(c.clock)
	c.writeInode(i)
	return nil
}
