package jgfs

import (
	"encoding/binary"
	"time"
)

// Directory entry field byte offsets within its 32-byte slot.
const (
	entOffName  = 0
	entOffType  = 20
	entOffAttr  = 21
	entOffMtime = 22
	entOffSize  = 26
	entOffBegin = 30
)

// DirEntry is a view over one 32-byte directory entry slot. Like header, it
// never copies: every accessor reads or writes through to the slice it was
// constructed with, which aliases the mapped image. Callers must not retain
// a DirEntry past the Session it was obtained from.
type DirEntry struct {
	b []byte
}

func newDirEntryView(slot []byte) *DirEntry {
	return &DirEntry{b: slot[:DirEntrySize]}
}

// Empty reports whether this slot holds no entry (name[0] == 0).
func (e *DirEntry) Empty() bool { return e.b[entOffName] == 0 }

// Name returns the visible (NUL-trimmed) name stored in this entry.
func (e *DirEntry) Name() string {
	raw := e.b[entOffName : entOffName+NameSize]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return string(raw[:n])
}

// nameBytes returns the raw, NUL-padded 20-byte name field, used for exact
// comparisons that must not treat a full-length name as a prefix match.
func (e *DirEntry) nameBytes() [NameSize]byte {
	var out [NameSize]byte
	copy(out[:], e.b[entOffName:entOffName+NameSize])
	return out
}

func (e *DirEntry) setName(name string) {
	field := e.b[entOffName : entOffName+NameSize]
	for i := range field {
		field[i] = 0
	}
	copy(field, name)
}

func (e *DirEntry) Type() EntType  { return EntType(e.b[entOffType]) }
func (e *DirEntry) setType(t EntType) { e.b[entOffType] = byte(t) }

func (e *DirEntry) Attr() uint8     { return e.b[entOffAttr] }
func (e *DirEntry) setAttr(a uint8) { e.b[entOffAttr] = a }

func (e *DirEntry) Mtime() uint32 { return binary.LittleEndian.Uint32(e.b[entOffMtime:]) }
func (e *DirEntry) setMtime(t uint32) {
	binary.LittleEndian.PutUint32(e.b[entOffMtime:], t)
}

func (e *DirEntry) Size() uint32     { return binary.LittleEndian.Uint32(e.b[entOffSize:]) }
func (e *DirEntry) setSize(s uint32) { binary.LittleEndian.PutUint32(e.b[entOffSize:], s) }

func (e *DirEntry) Begin() uint16     { return binary.LittleEndian.Uint16(e.b[entOffBegin:]) }
func (e *DirEntry) setBegin(c uint16) { binary.LittleEndian.PutUint16(e.b[entOffBegin:], c) }

// IsDir, IsRegular, IsSymlink are convenience predicates over Type.
func (e *DirEntry) IsDir() bool     { return e.Type() == EntDirectory }
func (e *DirEntry) IsRegular() bool { return e.Type() == EntRegular }
func (e *DirEntry) IsSymlink() bool { return e.Type() == EntSymlink }

// clear zeroes the entire 32-byte slot, destroying the entry.
func (e *DirEntry) clear() {
	for i := range e.b {
		e.b[i] = 0
	}
}

// touch stamps the entry's mtime with the current time.
func (e *DirEntry) touch() {
	e.setMtime(uint32(time.Now().Unix()))
}

// copyFrom overwrites this slot's bytes with src's. Copying a slot onto
// itself leaves it unchanged.
func (e *DirEntry) copyFrom(src *DirEntry) {
	copy(e.b, src.b)
}
