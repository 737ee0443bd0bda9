package sfs

// ops_dir.go implements mkdir, rmdir and readdir.

// Mkdir creates a new, empty directory at path. The new
// directory's nlink starts at 2 (its own "." entry and the entry its parent
// holds); the parent's nlink gains one for the new directory's "..".
func (c *Context) Mkdir(path string, mode uint32) error {
	const op = "mkdir"

	parent, name, err := c.resolveParent(path)
	if err != nil {
		return newPathError(op, path, err)
	}
	if _, _, found := c.lookupIn(parent, name); found {
		return newPathError(op, path, ErrExists)
	}

	parentInode, err := c.readInode(parent)
	if err != nil {
		return newPathError(op, path, err)
	}
	if !parentInode.isDir() {
		return newPathError(op, path, ErrNotDir)
	}

	ino, err := c.allocInode()
	if err != nil {
		return newPathError(op, path, err)
	}
	dir := &Inode{ino: ino, rec: newInodeRecord(S_IFDIR|(mode&0o7777), 2, 0, 0, c.clock)}
	c.writeInode(dir)

	if err := c.addEntry(dir, ".", ino, DTDir); err != nil {
		return newPathError(op, path, err)
	}
	if err := c.addEntry(dir, "..", parent, DTDir); err != nil {
		return newPathError(op, path, err)
	}
	c.writeInode(dir)

	if err := c.addEntry(parentInode, name, ino, DTDir); err != nil {
		return newPathError(op, path, err)
	}
	parentInode.rec.Nlink++
	parentInode.touch(c.clock)
	c.writeInode(parentInode)

	c.invalidatePathCache()
	return nil
}

// Rmdir removes an empty directory. Attempting to remove
// a non-empty directory or the root returns ErrNotEmpty/ErrInval
// respectively.
func (c *Context) Rmdir(path string) error {
	const op = "rmdir"

	parentIno, name, err := c.resolveParent(path)
	if err != nil {
		return newPathError(op, path, err)
	}
	if name == "." || name == ".." {
		return newPathError(op, path, ErrInval)
	}

	target, dtype, found := c.lookupIn(parentIno, name)
	if !found {
		return newPathError(op, path, ErrNotFound)
	}
	if dtype != DTDir {
		return newPathError(op, path, ErrNotDir)
	}
	if target == RootIno {
		return newPathError(op, path, ErrInval)
	}

	dir, err := c.readInode(target)
	if err != nil {
		return newPathError(op, path, err)
	}
	if !c.isDirEmpty(dir) {
		return newPathError(op, path, ErrNotEmpty)
	}

	parent, err := c.readInode(parentIno)
	if err != nil {
		return newPathError(op, path, err)
	}
	if err := c.removeEntry(parent, name); err != nil {
		return newPathError(op, path, err)
	}
	parent.rec.Nlink--
	parent.touch(c.clock)
	c.writeInode(parent)

	c.freeAllBlocks(dir)
	dir.rec.Mode = 0
	dir.rec.Nlink = 0
	c.writeInode(dir)

	c.invalidatePathCache()
	return nil
}

// Readdir lists path's entries, excluding "." and "..".
func (c *Context) Readdir(path string) ([]*DirEntry, error) {
	const op = "readdir"

	ino, err := c.resolve(path)
	if err != nil {
		return nil, newPathError(op, path, err)
	}
	dir, err := c.readInode(ino)
	if err != nil {
		return nil, newPathError(op, path, err)
	}
	if !dir.isDir() {
		return nil, newPathError(op, path, ErrNotDir)
	}
	return c.readdir(dir), nil
}
