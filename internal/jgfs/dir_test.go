package jgfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidName(t *testing.T) {
	require.True(t, isValidName("a"))
	require.True(t, isValidName("file_01.txt"))
	require.True(t, isValidName("1234567890123456789")) // 19 chars, the limit
	require.False(t, isValidName(""))
	require.False(t, isValidName("12345678901234567890")) // 20 chars, over limit
	require.False(t, isValidName("has space"))
	require.False(t, isValidName("slash/es"))
}

func TestCreateFileAndLookupChild(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	ent, err := sess.CreateFile(0, "hello.txt")
	require.NoError(t, err)
	require.True(t, ent.IsRegular())
	require.EqualValues(t, 0, ent.Size())
	require.EqualValues(t, NotAllocated, ent.Begin())

	found, ok := sess.lookupChild(0, "hello.txt")
	require.True(t, ok)
	require.Equal(t, "hello.txt", found.Name())

	_, ok = sess.lookupChild(0, "nope.txt")
	require.False(t, ok)
}

func TestCreateFileDuplicateNameFails(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	_, err := sess.CreateFile(0, "dup.txt")
	require.NoError(t, err)

	_, err = sess.CreateFile(0, "dup.txt")
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, ErrExists, je.Code)
}

func TestCreateFileNameTooLong(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	_, err := sess.CreateFile(0, "012345678901234567890")
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, ErrNameTooLong, je.Code)
}

func TestDirectoryFillsUpReturnsNoSpace(t *testing.T) {
	// One cluster per directory, 1 sector per cluster: 512/32 = 16 slots.
	sess := newTestImage(t, 128, 2, 1)
	n := sess.entriesPerCluster()

	for i := 0; i < n; i++ {
		_, err := sess.CreateFile(0, "f"+string(rune('a'+i)))
		require.NoErrorf(t, err, "creating entry %d of %d", i, n)
	}

	_, err := sess.CreateFile(0, "overflow")
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, ErrNoSpace, je.Code)
}

func TestCreateDirAllocatesClusterAndInitsEmpty(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	sub, err := sess.CreateDir(0, "sub")
	require.NoError(t, err)
	require.True(t, sub.IsDir())
	require.NotEqual(t, uint16(NotAllocated), sub.Begin())
	require.EqualValues(t, sess.ClusterSize(), sub.Size())
	require.Equal(t, 0, sess.dirCount(uint32(sub.Begin())))
	require.Equal(t, FatEOF, int(sess.fat(uint32(sub.Begin()))))
}

func TestDirForEachVisitsEveryEntry(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	names := []string{"a", "b", "c"}
	for _, n := range names {
		_, err := sess.CreateFile(0, n)
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	sess.DirForEach(0, func(e *DirEntry) bool {
		seen[e.Name()] = true
		return false
	})
	require.Len(t, seen, len(names))
	for _, n := range names {
		require.True(t, seen[n], "missing %q", n)
	}
}
