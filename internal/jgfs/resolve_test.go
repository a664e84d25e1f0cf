package jgfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupRoot(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	parent, child, err := sess.Lookup("/", true)
	require.NoError(t, err)
	require.EqualValues(t, 0, parent)
	require.True(t, child.IsDir())
}

func TestLookupNestedFile(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	sub, err := sess.CreateDir(0, "sub")
	require.NoError(t, err)
	_, err = sess.CreateFile(uint32(sub.Begin()), "leaf.txt")
	require.NoError(t, err)

	parent, child, err := sess.Lookup("/sub/leaf.txt", true)
	require.NoError(t, err)
	require.Equal(t, uint32(sub.Begin()), parent)
	require.Equal(t, "leaf.txt", child.Name())
}

func TestLookupParentOnlyStopsBeforeLastComponent(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	sub, err := sess.CreateDir(0, "sub")
	require.NoError(t, err)

	parent, child, err := sess.Lookup("/sub/notyetcreated.txt", false)
	require.NoError(t, err)
	require.Equal(t, uint32(sub.Begin()), parent)
	require.Nil(t, child)
}

func TestLookupMissingComponentFails(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	_, _, err := sess.Lookup("/does/not/exist", true)
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, ErrNoEntry, je.Code)
}

func TestLookupThroughNonDirectoryFails(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	_, err := sess.CreateFile(0, "notadir")
	require.NoError(t, err)

	_, _, err = sess.Lookup("/notadir/child.txt", true)
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, ErrNotADirectory, je.Code)
}
