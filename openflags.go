package sfs

import "strings"

// OpenFlag is the flag set recognized by Open. The access mode
// (RDONLY/WRONLY/RDWR) occupies the low two bits like POSIX O_* flags; the
// rest are independent bits.
type OpenFlag int

const (
	ORdOnly OpenFlag = 0
	OWrOnly OpenFlag = 1
	ORdWr   OpenFlag = 2

	accessModeMask OpenFlag = 0x3

	OCreat    OpenFlag = 1 << 6
	OExcl     OpenFlag = 1 << 7
	OTrunc    OpenFlag = 1 << 9
	OAppend   OpenFlag = 1 << 10
	ONoFollow OpenFlag = 1 << 17
)

func (f OpenFlag) String() string {
	var opt []string

	switch f.accessMode() {
	case OWrOnly:
		opt = append(opt, "WRONLY")
	case ORdWr:
		opt = append(opt, "RDWR")
	default:
		opt = append(opt, "RDONLY")
	}

	if f.Has(OCreat) {
		opt = append(opt, "CREAT")
	}
	if f.Has(OExcl) {
		opt = append(opt, "EXCL")
	}
	if f.Has(OTrunc) {
		opt = append(opt, "TRUNC")
	}
	if f.Has(OAppend) {
		opt = append(opt, "APPEND")
	}
	if f.Has(ONoFollow) {
		opt = append(opt, "NOFOLLOW")
	}

	return strings.Join(opt, "|")
}

func (f OpenFlag) Has(what OpenFlag) bool {
	return f&what == what
}

func (f OpenFlag) accessMode() OpenFlag {
	return f & accessModeMask
}

func (f OpenFlag) readable() bool {
	m := f.accessMode()
	return m == ORdOnly || m == ORdWr
}

func (f OpenFlag) writable() bool {
	m := f.accessMode()
	return m == OWrOnly || m == ORdWr
}

// Whence values for Lseek, matching POSIX SEEK_SET/SEEK_CUR/SEEK_END.
type Whence int

const (
	SeekSet Whence = 0
	SeekCur Whence = 1
	SeekEnd Whence = 2
)
