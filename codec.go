package sfs

import (
	"bytes"
	"encoding/binary"
	"reflect"
)

// marshalFields and unmarshalFields implement the fixed-layout record codec
// used throughout this package (superblock, inode, directory entry): walk
// the exported fields of a struct with reflect, encoding each one in
// declaration order with encoding/binary, instead of hand-writing
// per-field offsets.

func recordSize(v interface{}) int {
	rv := reflect.ValueOf(v).Elem()
	n := rv.NumField()
	size := 0
	for i := 0; i < n; i++ {
		size += int(rv.Type().Field(i).Type.Size())
	}
	return size
}

func marshalFields(v interface{}) ([]byte, error) {
	rv := reflect.ValueOf(v).Elem()
	n := rv.NumField()
	buf := &bytes.Buffer{}
	for i := 0; i < n; i++ {
		if err := binary.Write(buf, binary.LittleEndian, rv.Field(i).Interface()); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func unmarshalFields(v interface{}, data []byte) error {
	rv := reflect.ValueOf(v).Elem()
	n := rv.NumField()
	r := bytes.NewReader(data)
	for i := 0; i < n; i++ {
		if err := binary.Read(r, binary.LittleEndian, rv.Field(i).Addr().Interface()); err != nil {
			return err
		}
	}
	return nil
}

// --- inode record ---

type inodeRecord struct {
	Mode           uint32
	Nlink          uint32
	Uid            uint32
	Gid            uint32
	SizeLo         uint32
	SizeHi         uint32
	Atime          uint32
	Mtime          uint32
	Ctime          uint32
	Blocks         uint32
	Direct         [DirectBlocks]uint32
	Indirect       uint32
	DoubleIndirect uint32
	Flags          uint32
}

func (r *inodeRecord) size() uint64 {
	return uint64(r.SizeLo) | uint64(r.SizeHi)<<32
}

func (r *inodeRecord) setSize(sz uint64) {
	r.SizeLo = uint32(sz)
	r.SizeHi = uint32(sz >> 32)
}

func (r *inodeRecord) marshal() []byte {
	data, err := marshalFields(r)
	if err != nil {
		// marshaling a fixed-size struct of uint32s to a growable buffer
		// cannot fail.
		panic(err)
	}
	if len(data) > InodeSize {
		panic("sfs: inode record encodes larger than InodeSize")
	}
	padded := make([]byte, InodeSize)
	copy(padded, data)
	return padded
}

func (r *inodeRecord) unmarshal(data []byte) error {
	return unmarshalFields(r, data[:recordSize(r)])
}

// --- directory entry ---

type dirent struct {
	Inode   uint32
	NameLen uint16
	Type    uint16
	Name    [MaxNameLen]byte
}

func (d *dirent) free() bool { return d.Inode == 0 }

func (d *dirent) name() string {
	return string(d.Name[:d.NameLen])
}

func (d *dirent) setName(name string) {
	d.Name = [MaxNameLen]byte{}
	copy(d.Name[:], name)
	d.NameLen = uint16(len(name))
}

func (d *dirent) marshal() []byte {
	data, err := marshalFields(d)
	if err != nil {
		panic(err)
	}
	if len(data) != DirentSize {
		panic("sfs: directory entry does not encode to DirentSize bytes")
	}
	return data
}

func (d *dirent) unmarshal(data []byte) error {
	return unmarshalFields(d, data[:DirentSize])
}
