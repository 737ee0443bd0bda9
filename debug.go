package sfs

import "fmt"

// debug.go implements CheckInvariants, the property-test helper that checks
// four bookkeeping invariants (reported under the codes P1-P4 below), plus
// a helper that logs violations through the Context's logger.

// InvariantViolation describes one broken invariant found by
// CheckInvariants.
type InvariantViolation struct {
	Code    string
	Message string
}

func (v InvariantViolation) String() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// CheckInvariants walks the whole filesystem and reports every invariant
// violation it finds among the four checks P1-P4 below. It is read-only and safe
// to call concurrently with other readers, though it offers no snapshot
// isolation against concurrent writers: a write racing the walk can produce
// a spurious report, which is why tests call it only after quiescing all
// other Contexts.
func (c *Context) CheckInvariants() []InvariantViolation {
	var violations []InvariantViolation
	report := func(code, format string, args ...interface{}) {
		violations = append(violations, InvariantViolation{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	// P1: every block is either on the free list or reachable from exactly
	// one live inode.
	seenFree := make(map[uint32]bool)
	cur := c.freeBlockHead()
	for cur != FreeListEnd {
		if seenFree[cur] {
			report("P1", "free list contains a cycle at block %d", cur)
			break
		}
		seenFree[cur] = true
		cur = atomicLoad(c.buf, c.layout.blockOffset(cur))
	}

	owner := make(map[uint32]uint32)
	markBlock := func(b, ino uint32) {
		if b == 0 {
			return
		}
		if seenFree[b] {
			report("P1", "block %d is both free and referenced by inode %d", b, ino)
		}
		if prev, ok := owner[b]; ok {
			report("P1", "block %d is referenced by both inode %d and inode %d", b, prev, ino)
		}
		owner[b] = ino
	}

	for ino := uint32(0); ino < c.layout.inodeCount; ino++ {
		i, err := c.readInode(ino)
		if err != nil || !i.isLive() {
			continue
		}
		if i.rec.Nlink == 0 {
			report("P2", "inode %d is live (mode != 0) but has nlink 0", ino)
		}
		for _, b := range i.rec.Direct {
			markBlock(b, ino)
		}
		if i.rec.Indirect != 0 {
			markBlock(i.rec.Indirect, ino)
			for slot := uint32(0); slot < PointersPerBlock; slot++ {
				if b := c.readPointer(i.rec.Indirect, slot); b != 0 {
					markBlock(b, ino)
				}
			}
		}
		if i.rec.DoubleIndirect != 0 {
			markBlock(i.rec.DoubleIndirect, ino)
			for l1 := uint32(0); l1 < PointersPerBlock; l1++ {
				l1Block := c.readPointer(i.rec.DoubleIndirect, l1)
				if l1Block == 0 {
					continue
				}
				markBlock(l1Block, ino)
				for l2 := uint32(0); l2 < PointersPerBlock; l2++ {
					if b := c.readPointer(l1Block, l2); b != 0 {
						markBlock(b, ino)
					}
				}
			}
		}

		// P3: a directory's entries point only at live inodes.
		if i.isDir() {
			c.forEachDirent(i, func(_ uint64, d *dirent) bool {
				if d.free() {
					return true
				}
				target, err := c.readInode(d.Inode)
				if err != nil || !target.isLive() {
					report("P3", "directory inode %d has entry %q pointing at dead inode %d", ino, d.name(), d.Inode)
				}
				return true
			})
		}
	}

	// P4: next_free_inode never regresses below its initial value (the
	// root inode plus one).
	if c.nextFreeInodeVal() < RootIno+1 {
		report("P4", "next_free_inode %d is below the minimum of %d", c.nextFreeInodeVal(), RootIno+1)
	}

	return violations
}

// logInvariantViolations logs each violation at Error level through this
// Context's structured logger. CheckInvariants does not call it; it only
// returns what it finds.
func (c *Context) logInvariantViolations(violations []InvariantViolation) {
	for _, v := range violations {
		c.log.WithField("invariant", v.Code).Error(v.Message)
	}
}
