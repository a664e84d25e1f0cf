package jgfs

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinyfs/jgfs/internal/logger"
)

// testLog discards everything; individual tests that care about a warning
// being logged build their own *logger.Logger over a bytes.Buffer instead.
func testLog() *logger.Logger {
	return logger.New(io.Discard, logger.DebugLevel)
}

// newTestImage creates a zero-filled temp file of sTotal sectors and
// formats it with New, returning the open Session. The geometry mirrors
// the walkthrough in spec.md §8: small enough to exercise every code path
// (multiple clusters, a handful of FAT sectors) without a slow test.
func newTestImage(t *testing.T, sTotal uint32, sRsvd, sPerC uint16) *Session {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "jgfs-*.img")
	require.NoError(t, err)
	path := f.Name()
	require.NoError(t, f.Truncate(int64(sTotal)*SectorSize))
	require.NoError(t, f.Close())

	sess, err := New(path, Geometry{STotal: sTotal, SRsvd: sRsvd, SPerC: sPerC}, testLog())
	require.NoError(t, err)
	t.Cleanup(func() { sess.Done() })
	return sess
}

func TestNewFormatsValidHeader(t *testing.T) {
	sess := newTestImage(t, 2880, 8, 2)

	require.Equal(t, Magic, sess.hdr.magic())
	require.EqualValues(t, VerMajor, sess.hdr.verMajor())
	require.EqualValues(t, VerMinor, sess.hdr.verMinor())
	require.EqualValues(t, 2880, sess.hdr.sTotal())
	require.EqualValues(t, 8, sess.hdr.sRsvd())
	require.EqualValues(t, 2, sess.hdr.sPerC())
	require.Greater(t, sess.FsClusters(), uint32(0))
}

func TestNewRootDirectory(t *testing.T) {
	sess := newTestImage(t, 2880, 8, 2)

	root := sess.Root()
	require.True(t, root.IsDir())
	require.EqualValues(t, sess.ClusterSize(), root.Size())
	require.EqualValues(t, 0, root.Begin())
	require.Equal(t, 0, sess.dirCount(0))
}

func TestComputeSFatFixedPoint(t *testing.T) {
	// Hand-checked against spec.md's own walkthrough geometry.
	sFat := computeSFat(2880, 8, 2)
	require.EqualValues(t, 6, sFat)

	hdr := &header{b: make([]byte, hdrSize)}
	hdr.setSTotal(2880)
	hdr.setSRsvd(8)
	hdr.setSFat(sFat)
	hdr.setSPerC(2)
	require.EqualValues(t, (2880-8-uint32(sFat))/2, hdr.fsClusters())
}

func TestOpenRoundTrip(t *testing.T) {
	sess := newTestImage(t, 128, 2, 1)
	path := sess.path
	require.NoError(t, sess.Sync())

	reopened, err := Open(path, testLog())
	require.NoError(t, err)
	defer reopened.Done()

	require.Equal(t, sess.FsClusters(), reopened.FsClusters())
	require.Equal(t, sess.ClusterSize(), reopened.ClusterSize())
	require.True(t, reopened.Root().IsDir())
}
