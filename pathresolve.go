package sfs

import "strings"

// maxSymlinkDepth bounds symlink-following recursion, matching the classic
// POSIX ELOOP limit.
const maxSymlinkDepth = 40

// splitPath normalizes a path textually before any inode lookups happen:
// split on '/', drop empty components (collapsing repeated slashes), drop
// "." components, and pop a preceding real component on ".." (a leading
// ".." with nothing to pop is simply dropped, since every path is resolved
// from the root and there is no parent above it).
func splitPath(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		switch c {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, c)
		}
	}
	return out
}

// resolve walks path from the root, following symlinks encountered at any
// component including the final one. It returns the inode number of the
// final target.
func (c *Context) resolve(path string) (uint32, error) {
	return c.resolveDepth(path, 0, true)
}

// lresolve behaves like resolve but does not follow a symlink at the final
// path component, returning the symlink inode itself. Used by
// lstat, readlink and link's source-side lookup.
func (c *Context) lresolve(path string) (uint32, error) {
	return c.resolveDepth(path, 0, false)
}

func (c *Context) resolveDepth(path string, depth int, followFinal bool) (uint32, error) {
	if !strings.HasPrefix(path, "/") {
		return 0, ErrInval
	}
	if depth > maxSymlinkDepth {
		return 0, ErrLoop
	}

	if c.cacheEnabled && followFinal {
		if ino, ok := c.cacheLookup(path); ok {
			return ino, nil
		}
	}

	comps := splitPath(path)
	cur := RootIno

	for idx, name := range comps {
		dirInode, err := c.readInode(cur)
		if err != nil {
			return 0, err
		}
		if !dirInode.isDir() {
			return 0, ErrNotDir
		}
		ino, dtype, found := c.lookup(dirInode, name)
		if !found {
			return 0, ErrNotFound
		}

		isFinal := idx == len(comps)-1
		if dtype == DTLnk && (!isFinal || followFinal) {
			target, err := c.readLinkTarget(ino)
			if err != nil {
				return 0, err
			}
			if strings.HasPrefix(target, "/") {
				resolved, err := c.resolveDepth(target, depth+1, true)
				if err != nil {
					return 0, err
				}
				cur = resolved
			} else {
				// Splice the symlink's (relative) target ahead of the
				// remaining components and keep walking from the current
				// directory, rather than restarting from the root.
				rest := strings.Join(comps[idx+1:], "/")
				spliced := target
				if rest != "" {
					spliced = target + "/" + rest
				}
				return c.resolveFrom(cur, spliced, depth+1, followFinal)
			}
			continue
		}

		cur = ino
	}

	if c.cacheEnabled && followFinal {
		c.cacheStore(path, cur)
	}
	return cur, nil
}

// resolveFrom continues resolution of path using cur (rather than the
// root) as the starting directory, used when a relative symlink target is
// spliced into the remaining path components.
func (c *Context) resolveFrom(cur uint32, path string, depth int, followFinal bool) (uint32, error) {
	if depth > maxSymlinkDepth {
		return 0, ErrLoop
	}
	comps := splitPath(path)
	for idx, name := range comps {
		dirInode, err := c.readInode(cur)
		if err != nil {
			return 0, err
		}
		if !dirInode.isDir() {
			return 0, ErrNotDir
		}
		ino, dtype, found := c.lookup(dirInode, name)
		if !found {
			return 0, ErrNotFound
		}
		isFinal := idx == len(comps)-1
		if dtype == DTLnk && (!isFinal || followFinal) {
			target, err := c.readLinkTarget(ino)
			if err != nil {
				return 0, err
			}
			if strings.HasPrefix(target, "/") {
				return c.resolveDepth(target, depth+1, followFinal)
			}
			rest := strings.Join(comps[idx+1:], "/")
			spliced := target
			if rest != "" {
				spliced = target + "/" + rest
			}
			return c.resolveFrom(cur, spliced, depth+1, followFinal)
		}
		cur = ino
	}
	return cur, nil
}

// resolveParent resolves all but the last component of path (which must
// be a directory) and returns that directory's inode number together with
// the final component's name, for operations that create or remove an
// entry (mkdir, unlink, rename, symlink, link).
func (c *Context) resolveParent(path string) (parent uint32, name string, err error) {
	if !strings.HasPrefix(path, "/") {
		return 0, "", ErrInval
	}
	comps := splitPath(path)
	if len(comps) == 0 {
		return 0, "", ErrInval
	}
	name = comps[len(comps)-1]
	if len(comps) == 1 {
		return RootIno, name, nil
	}
	parentPath := "/" + strings.Join(comps[:len(comps)-1], "/")
	parent, err = c.resolve(parentPath)
	return parent, name, err
}

func (c *Context) cacheLookup(path string) (uint32, bool) {
	c.cacheMu.RLock()
	ino, ok := c.cache[path]
	c.cacheMu.RUnlock()
	return ino, ok
}

func (c *Context) cacheStore(path string, ino uint32) {
	c.cacheMu.Lock()
	c.cache[path] = ino
	c.cacheMu.Unlock()
}
