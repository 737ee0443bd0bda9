package sfs

import "io/fs"

// ops_meta.go implements stat, lstat, statfs, chmod, chown and utimes.

// Stat resolves path (following a trailing symlink) and returns its
// metadata.
func (c *Context) Stat(path string) (fs.FileInfo, error) {
	const op = "stat"
	ino, err := c.resolve(path)
	if err != nil {
		return nil, newPathError(op, path, err)
	}
	i, err := c.readInode(ino)
	if err != nil {
		return nil, newPathError(op, path, err)
	}
	return &fileinfo{name: baseName(path), ino: i}, nil
}

// Lstat behaves like Stat but does not follow a trailing symlink.
func (c *Context) Lstat(path string) (fs.FileInfo, error) {
	const op = "lstat"
	ino, err := c.lresolve(path)
	if err != nil {
		return nil, newPathError(op, path, err)
	}
	i, err := c.readInode(ino)
	if err != nil {
		return nil, newPathError(op, path, err)
	}
	return &fileinfo{name: baseName(path), ino: i}, nil
}

// StatfsResult reports filesystem-wide capacity figures.
type StatfsResult struct {
	BlockSize   uint32
	TotalBlocks uint32
	FreeBlocks  uint32
	TotalInodes uint32
	FreeInodes  uint32
	Namelen     uint32
}

// Statfs reports capacity figures for the attached filesystem.
func (c *Context) Statfs() StatfsResult {
	return StatfsResult{
		BlockSize:   c.blockSizeVal(),
		TotalBlocks: c.totalBlocksVal(),
		FreeBlocks:  c.freeBlocksCount(),
		TotalInodes: c.inodeCountVal(),
		FreeInodes:  c.freeInodesCount(),
		Namelen:     MaxNameLen,
	}
}

// Chmod changes a path's permission bits, preserving its type bits.
func (c *Context) Chmod(path string, perm uint32) error {
	const op = "chmod"
	ino, err := c.resolve(path)
	if err != nil {
		return newPathError(op, path, err)
	}
	i, err := c.readInode(ino)
	if err != nil {
		return newPathError(op, path, err)
	}
	i.rec.Mode = fileType(i.rec.Mode) | (perm & 0xfff)
	i.touchCtime(c.clock)
	c.writeInode(i)
	return nil
}

// Chown changes a path's owning uid/gid. -1 leaves the corresponding field
// unchanged, matching POSIX chown's convention.
func (c *Context) Chown(path string, uid, gid int64) error {
	const op = "chown"
	ino, err := c.resolve(path)
	if err != nil {
		return newPathError(op, path, err)
	}
	i, err := c.readInode(ino)
	if err != nil {
		return newPathError(op, path, err)
	}
	if uid >= 0 {
		i.rec.Uid = uint32(uid)
	}
	if gid >= 0 {
		i.rec.Gid = uint32(gid)
	}
	i.touchCtime(c.clock)
	c.writeInode(i)
	return nil
}

// Utimes sets a path's access and modification times explicitly.
func (c *Context) Utimes(path string, atime, mtime uint32) error {
	const op = "utimes"
	ino, err := c.resolve(path)
	if err != nil {
		return newPathError(op, path, err)
	}
	i, err := c.readInode(ino)
	if err != nil {
		return newPathError(op, path, err)
	}
	i.rec.Atime = atime
	i.rec.Mtime = mtime
	i.touchCtime(c.clock)
	c.writeInode(i)
	return nil
}
