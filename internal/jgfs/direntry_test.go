package jgfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDirEntry() *DirEntry {
	return newDirEntryView(make([]byte, DirEntrySize))
}

func TestDirEntryEmptyUntilNamed(t *testing.T) {
	e := newTestDirEntry()
	require.True(t, e.Empty())

	e.setName("a")
	require.False(t, e.Empty())
}

func TestDirEntryNameTruncatesAtNUL(t *testing.T) {
	e := newTestDirEntry()
	e.setName("short")
	require.Equal(t, "short", e.Name())

	raw := e.nameBytes()
	require.Equal(t, byte('s'), raw[0])
	require.Equal(t, byte(0), raw[len("short")])
}

func TestDirEntryNameBytesFullLengthKeepsTerminatorSlot(t *testing.T) {
	e := newTestDirEntry()
	full := "1234567890123456789" // 19 chars, exactly NameLimit
	e.setName(full)

	raw := e.nameBytes()
	require.Equal(t, byte(0), raw[NameSize-1], "the 20th byte is always a terminator slot")
	require.Equal(t, full, e.Name())
}

func TestDirEntryFieldRoundTrip(t *testing.T) {
	e := newTestDirEntry()
	e.setType(EntDirectory)
	e.setAttr(0x7)
	e.setMtime(1234567)
	e.setSize(4096)
	e.setBegin(42)

	require.Equal(t, EntDirectory, e.Type())
	require.EqualValues(t, 0x7, e.Attr())
	require.EqualValues(t, 1234567, e.Mtime())
	require.EqualValues(t, 4096, e.Size())
	require.EqualValues(t, 42, e.Begin())
}

func TestDirEntryClearZeroesEverything(t *testing.T) {
	e := newTestDirEntry()
	e.setName("x")
	e.setType(EntRegular)
	e.setSize(10)
	e.setBegin(3)

	e.clear()
	require.True(t, e.Empty())
	require.EqualValues(t, 0, e.Type())
	require.EqualValues(t, 0, e.Size())
	require.EqualValues(t, 0, e.Begin())
}

func TestDirEntryCopyFrom(t *testing.T) {
	src := newTestDirEntry()
	src.setName("src")
	src.setType(EntSymlink)
	src.setSize(7)
	src.setBegin(9)

	dst := newTestDirEntry()
	dst.copyFrom(src)

	require.Equal(t, "src", dst.Name())
	require.True(t, dst.IsSymlink())
	require.EqualValues(t, 7, dst.Size())
	require.EqualValues(t, 9, dst.Begin())
}
