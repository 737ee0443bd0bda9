package sfs

// descriptor is the per-Context open-file-table entry. It is never shared
// between Contexts: two Contexts that open the same inode get
// independent descriptors with independent positions, even though both
// read and write through the same underlying blocks.
type descriptor struct {
	inode    uint32
	flags    OpenFlag
	position int64
	path     string // diagnostic only, used in error messages and logging
}

// allocFd installs d in the descriptor table and returns its number.
// Numbers start at 3, leaving 0/1/2 free the way POSIX reserves
// stdin/stdout/stderr, matching the convention a reader of POSIX-flavored
// code expects even though SFS has no standard streams of its own.
func (c *Context) allocFd(d *descriptor) int {
	c.fdMu.Lock()
	defer c.fdMu.Unlock()
	fd := c.next
	c.next++
	c.fds[fd] = d
	return fd
}

func (c *Context) getFd(fd int) (*descriptor, error) {
	c.fdMu.Lock()
	defer c.fdMu.Unlock()
	d, ok := c.fds[fd]
	if !ok {
		return nil, ErrBadFd
	}
	return d, nil
}

func (c *Context) releaseFd(fd int) error {
	c.fdMu.Lock()
	defer c.fdMu.Unlock()
	if _, ok := c.fds[fd]; !ok {
		return ErrBadFd
	}
	delete(c.fds, fd)
	return nil
}
