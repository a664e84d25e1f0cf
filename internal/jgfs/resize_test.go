package jgfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnlargeThenReduceToZero(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)
	ent, err := sess.CreateFile(0, "grow.bin")
	require.NoError(t, err)

	cl := sess.ClusterSize()
	require.NoError(t, sess.Enlarge(ent, cl*3))
	require.EqualValues(t, cl*3, ent.Size())
	require.NotEqual(t, uint16(NotAllocated), ent.Begin())

	chainLen := uint32(0)
	cur := uint32(ent.Begin())
	for {
		chainLen++
		next := sess.fat(cur)
		if next == FatEOF {
			break
		}
		cur = uint32(next)
	}
	require.EqualValues(t, 3, chainLen)

	require.NoError(t, sess.Reduce(ent, 0))
	require.EqualValues(t, 0, ent.Size())
	require.EqualValues(t, NotAllocated, ent.Begin())
}

func TestEnlargeZeroesNewlyExposedBytes(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)
	ent, err := sess.CreateFile(0, "z.bin")
	require.NoError(t, err)

	cl := sess.ClusterSize()
	require.NoError(t, sess.Enlarge(ent, cl))

	buf := make([]byte, cl)
	n, err := sess.ReadAt(ent, buf, 0)
	require.NoError(t, err)
	require.EqualValues(t, cl, n)
	for i, b := range buf {
		require.Zerof(t, b, "byte %d not zeroed", i)
	}
}

func TestEnlargeOverSeveralClustersThenPartialReduce(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)
	ent, err := sess.CreateFile(0, "a.bin")
	require.NoError(t, err)

	cl := sess.ClusterSize()
	require.NoError(t, sess.Enlarge(ent, cl*4))

	payload := make([]byte, cl*4)
	for i := range payload {
		payload[i] = byte(i)
	}
	n, err := sess.WriteAt(ent, payload, 0)
	require.NoError(t, err)
	require.EqualValues(t, len(payload), n)

	require.NoError(t, sess.Reduce(ent, cl*2))
	require.EqualValues(t, cl*2, ent.Size())

	readBack := make([]byte, cl*2)
	n, err = sess.ReadAt(ent, readBack, 0)
	require.NoError(t, err)
	require.EqualValues(t, cl*2, n)
	require.Equal(t, payload[:cl*2], readBack)
}

func TestEnlargeRunsOutOfSpaceCapsSizeAndReturnsErrNoSpace(t *testing.T) {
	// Small geometry: the data area holds only a few dozen clusters, easy
	// to exhaust by asking for far more than that.
	sess := newTestImage(t, 24, 2, 1)
	ent, err := sess.CreateFile(0, "big.bin")
	require.NoError(t, err)

	cl := sess.ClusterSize()
	hugeSize := cl * (sess.FsClusters() + 10)

	err = sess.Enlarge(ent, hugeSize)
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, ErrNoSpace, je.Code)

	// ent.Size() reflects whatever was actually grown, a multiple of cl,
	// capped by however many free clusters existed.
	require.Zero(t, ent.Size()%cl)
	require.Less(t, ent.Size(), hugeSize)
}

func TestWriteAtPastEndOfFileEnlargesChain(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)
	ent, err := sess.CreateFile(0, "w.bin")
	require.NoError(t, err)

	data := []byte("hello, jgfs")
	n, err := sess.WriteAt(ent, data, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.EqualValues(t, len(data), ent.Size())

	readBack := make([]byte, len(data))
	n, err = sess.ReadAt(ent, readBack, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, readBack)
}
