package jgfs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSymlinkCreateAndReadLink(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	ent, err := sess.CreateSymlink(0, "link", "../target/path")
	require.NoError(t, err)
	require.True(t, ent.IsSymlink())

	target, err := sess.ReadLink(ent)
	require.NoError(t, err)
	require.Equal(t, "../target/path", target)
}

func TestSymlinkTargetTooLongFails(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)
	cl := sess.ClusterSize()

	tooLong := make([]byte, cl) // clusterSize bytes, one over the cl-1 limit
	for i := range tooLong {
		tooLong[i] = 'x'
	}

	_, err := sess.CreateSymlink(0, "badlink", string(tooLong))
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, ErrInvalidArgument, je.Code)
}

func TestDeleteEntRequiresEmptyDirectory(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	sub, err := sess.CreateDir(0, "sub")
	require.NoError(t, err)
	_, err = sess.CreateFile(uint32(sub.Begin()), "child.txt")
	require.NoError(t, err)

	err = sess.DeleteEnt(sub, true)
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, ErrNotEmpty, je.Code)
}

func TestDeleteEntFreesRegularFileChain(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)
	ent, err := sess.CreateFile(0, "f.bin")
	require.NoError(t, err)
	require.NoError(t, sess.Enlarge(ent, sess.ClusterSize()*2))

	freeBefore := sess.FatFreeCount()
	require.NoError(t, sess.DeleteEnt(ent, true))
	require.True(t, ent.Empty())
	require.Equal(t, freeBefore+2, sess.FatFreeCount())
}

func TestMoveEntIntoNewDirectory(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	sub, err := sess.CreateDir(0, "sub")
	require.NoError(t, err)
	file, err := sess.CreateFile(0, "move.txt")
	require.NoError(t, err)

	require.NoError(t, sess.MoveEnt(file, uint32(sub.Begin())))
	require.True(t, file.Empty())

	moved, ok := sess.lookupChild(uint32(sub.Begin()), "move.txt")
	require.True(t, ok)
	require.True(t, moved.IsRegular())
}

func TestMoveEntSelfMoveIsNoOp(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)
	file, err := sess.CreateFile(0, "same.txt")
	require.NoError(t, err)

	require.NoError(t, sess.MoveEnt(file, 0))
	require.False(t, file.Empty())
	require.Equal(t, "same.txt", file.Name())
}

func TestMoveEntOverwritesExistingNonDirInPlace(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	victim, err := sess.CreateFile(0, "dup.txt")
	require.NoError(t, err)
	require.NoError(t, sess.Enlarge(victim, sess.ClusterSize()))

	sub, err := sess.CreateDir(0, "sub")
	require.NoError(t, err)
	mover, err := sess.CreateFile(uint32(sub.Begin()), "dup.txt")
	require.NoError(t, err)

	err = sess.Rename(mover, "dup.txt", 0)
	require.NoError(t, err)

	replaced, ok := sess.lookupChild(0, "dup.txt")
	require.True(t, ok)
	require.True(t, replaced.IsRegular())
	require.EqualValues(t, 0, replaced.Size())
}

func TestMoveEntDirOverNonEmptyDirFails(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	destDir, err := sess.CreateDir(0, "dest")
	require.NoError(t, err)
	_, err = sess.CreateFile(uint32(destDir.Begin()), "occupant.txt")
	require.NoError(t, err)

	srcParent, err := sess.CreateDir(0, "src")
	require.NoError(t, err)
	srcDir, err := sess.CreateDir(uint32(srcParent.Begin()), "dest")
	require.NoError(t, err)

	err = sess.Rename(srcDir, "dest", 0)
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, ErrNotEmpty, je.Code)
}

func TestMoveEntFileOverDirFails(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)

	_, err := sess.CreateDir(0, "target")
	require.NoError(t, err)
	file, err := sess.CreateFile(0, "source.txt")
	require.NoError(t, err)

	err = sess.Rename(file, "target", 0)
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, ErrIsADirectory, je.Code)
}

func TestSetTimesUpdatesOnlyMtime(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)
	ent, err := sess.CreateFile(0, "t.bin")
	require.NoError(t, err)

	before := ent.Mtime()
	sess.SetTimes(ent, time.Unix(int64(before+1000), 0))
	require.Equal(t, before+1000, ent.Mtime())
	require.EqualValues(t, 0, ent.Size())
	require.EqualValues(t, NotAllocated, ent.Begin())
}
