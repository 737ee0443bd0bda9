package sfs

import (
	"sync/atomic"
	"unsafe"
)

// atomicWord views 4 bytes inside a shared buffer as an atomically
// accessible uint32. This backs the free-block list head and the
// next-free-inode counter with lock-free CAS over memory owned by the
// caller, not by this package, built directly on sync/atomic + unsafe,
// matching Go's standard idiom for lock-free numeric CAS on a
// known-aligned address.
func atomicWord(buf []byte, offset int64) *uint32 {
	return (*uint32)(unsafe.Pointer(&buf[offset]))
}

func atomicLoad(buf []byte, offset int64) uint32 {
	return atomic.LoadUint32(atomicWord(buf, offset))
}

func atomicStore(buf []byte, offset int64, v uint32) {
	atomic.StoreUint32(atomicWord(buf, offset), v)
}

func atomicCAS(buf []byte, offset int64, old, new uint32) bool {
	return atomic.CompareAndSwapUint32(atomicWord(buf, offset), old, new)
}
