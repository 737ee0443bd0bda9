package sfs

// Inode is an in-memory view of one 128-byte inode record. It holds the
// inode number alongside the decoded record so callers don't have to
// thread ino and record separately.
type Inode struct {
	ino uint32
	rec inodeRecord
}

// readInode decodes the inode record at ino directly from the shared
// buffer's inode table, a flat array of fixed 128-byte records.
func (c *Context) readInode(ino uint32) (*Inode, error) {
	if ino >= c.layout.inodeCount {
		return nil, ErrInval
	}
	off := c.layout.inodeOffset(ino)
	data := c.buf[off : off+InodeSize]
	i := &Inode{ino: ino}
	if err := i.rec.unmarshal(data); err != nil {
		return nil, err
	}
	return i, nil
}

// writeInode encodes i back to its slot in the inode table.
func (c *Context) writeInode(i *Inode) {
	off := c.layout.inodeOffset(i.ino)
	copy(c.buf[off:off+InodeSize], i.rec.marshal())
}

// Number returns this inode's number, exposed so callers that reach an
// *Inode through fs.FileInfo.Sys() can identify it without a separate stat.
func (i *Inode) Number() uint32 { return i.ino }

func (i *Inode) isLive() bool       { return i.rec.Mode != 0 }
func (i *Inode) isTombstone() bool  { return i.rec.Mode == 0 && i.rec.Nlink == 0 }
func (i *Inode) isDir() bool        { return isDirMode(i.rec.Mode) }
func (i *Inode) isRegular() bool    { return isRegMode(i.rec.Mode) }
func (i *Inode) isSymlink() bool    { return isSymlinkMode(i.rec.Mode) }
func (i *Inode) size() uint64       { return i.rec.size() }
func (i *Inode) blockCount() uint32 { return i.rec.Blocks }

// touch updates mtime and ctime (content/metadata change) to the clock's
// current value.
func (i *Inode) touch(clock Clock) {
	t := clock.Now()
	i.rec.Mtime = t
	i.rec.Ctime = t
}

// touchCtime updates only ctime (metadata-only change, e.g. chmod/chown).
func (i *Inode) touchCtime(clock Clock) {
	i.rec.Ctime = clock.Now()
}

// touchAtime updates only atime (a read occurred).
func (i *Inode) touchAtime(clock Clock) {
	i.rec.Atime = clock.Now()
}

// newInodeRecord fills in a freshly allocated inode's record for a new
// file/directory/symlink.
func newInodeRecord(mode uint32, nlink uint32, uid, gid uint32, clock Clock) inodeRecord {
	t := clock.Now()
	return inodeRecord{
		Mode:  mode,
		Nlink: nlink,
		Uid:   uid,
		Gid:   gid,
		Atime: t,
		Mtime: t,
		Ctime: t,
	}
}
