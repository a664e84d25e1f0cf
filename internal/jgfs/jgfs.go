package jgfs

import (
	"fmt"
	"time"

	"github.com/tinyfs/jgfs/internal/logger"
	"github.com/tinyfs/jgfs/internal/mmap"
)

// Session is the single, explicitly-initialized owner of a memory-mapped
// jgfs image. Every operation in this package takes a *Session (directly or
// as a method receiver); there is no file-scope mutable state. Pointers
// derived from the mapping (DirEntry, FAT addresses) are valid only for the
// Session's lifetime and must not be retained past Done.
type Session struct {
	mm   *mmap.MmapFile
	log  *logger.Logger
	path string

	hdr        *header
	fsClusters uint32
	fatBase    int // byte offset of the FAT area within mm.Data
	dataBase   int // byte offset of the data area within mm.Data
}

// Geometry describes the parameters used to construct a new filesystem.
type Geometry struct {
	STotal uint32
	SRsvd  uint16
	SPerC  uint16
}

// Open maps an existing jgfs image at path and validates its header. A
// malformed header or undersized device is a fatal condition per the error
// handling design: there is no way to operate safely on an image whose
// geometry cannot be trusted.
func Open(path string, log *logger.Logger) (*Session, error) {
	mm, err := mmap.NewMmapFile(path)
	if err != nil {
		return nil, newErr("init", path, ErrInvalidArgument)
	}

	devSectors := uint32(mm.FileSize / SectorSize)
	if mm.FileSize%SectorSize != 0 {
		log.Warnf("device %q length %d is not a multiple of %d bytes", path, mm.FileSize, SectorSize)
	}
	if devSectors < 2 {
		mm.Close()
		return nil, newErr("init", path, ErrInvalidArgument)
	}

	s := &Session{mm: mm, log: log, path: path}

	sector := mm.Data[HeaderSector*SectorSize : (HeaderSector+1)*SectorSize]
	s.hdr = newHeaderView(sector)

	if err := s.hdr.validate(devSectors); err != nil {
		mm.Close()
		s.fatal("header validation failed for %q: %v", path, err)
		return nil, err // unreachable, fatal exits the process
	}

	s.fsClusters = s.hdr.fsClusters()
	s.fatBase = int(s.hdr.sRsvd()) * SectorSize
	s.dataBase = s.fatBase + int(s.hdr.sFat())*SectorSize

	return s, nil
}

// New constructs a fresh filesystem image at path with the given geometry,
// following the fixed-point FAT-size recurrence, then opens it.
func New(path string, g Geometry, log *logger.Logger) (*Session, error) {
	if g.SPerC == 0 {
		return nil, newErr("new", path, ErrInvalidArgument)
	}

	sFat := computeSFat(g.STotal, g.SRsvd, g.SPerC)

	mm, err := mmap.NewMmapFile(path)
	if err != nil {
		return nil, newErr("new", path, ErrInvalidArgument)
	}

	devSectors := uint32(mm.FileSize / SectorSize)
	if devSectors < g.STotal {
		mm.Close()
		return nil, fmt.Errorf("jgfs: image %q has %d sectors, need %d", path, devSectors, g.STotal)
	}

	sector := mm.Data[HeaderSector*SectorSize : (HeaderSector+1)*SectorSize]
	for i := range sector {
		sector[i] = 0
	}
	hdr := newHeaderView(sector)
	hdr.setMagic(Magic)
	hdr.setVerMajor(VerMajor)
	hdr.setVerMinor(VerMinor)
	hdr.setSTotal(g.STotal)
	hdr.setSRsvd(g.SRsvd)
	hdr.setSFat(sFat)
	hdr.setSPerC(g.SPerC)

	root := newDirEntryView(hdr.rootEntBytes())
	root.setType(EntDirectory)
	root.setSize(hdr.clusterSize())
	root.setBegin(0)
	root.setMtime(uint32(time.Now().Unix()))

	s := &Session{mm: mm, log: log, path: path, hdr: hdr}
	s.fsClusters = hdr.fsClusters()
	s.fatBase = int(g.SRsvd) * SectorSize
	s.dataBase = s.fatBase + int(sFat)*SectorSize

	// Mark every cluster beyond the data area as out-of-bounds, then zero
	// the root cluster and terminate its chain.
	for c := uint32(0); c < uint32(sFat)*FatEntriesPerSector; c++ {
		if c >= s.fsClusters {
			s.setFat(c, FatOOB)
		}
	}
	rootClust, err := s.getClust(0)
	if err != nil {
		mm.Close()
		return nil, err
	}
	for i := range rootClust {
		rootClust[i] = 0
	}
	s.setFat(0, FatEOF)

	return s, nil
}

// Sync flushes all dirty pages of the mapped image to the backing device.
func (s *Session) Sync() error {
	if err := s.mm.Sync(); err != nil {
		s.log.Warnf("sync failed: %v", err)
		return err
	}
	return nil
}

// Done syncs and releases the mapping. It is the terminal call in a
// Session's init -> operate -> done lifecycle; pointers derived from the
// Session must not be used afterward.
func (s *Session) Done() error {
	if err := s.mm.Close(); err != nil {
		s.log.Warnf("close failed: %v", err)
		return err
	}
	return nil
}

// ClusterSize returns s_per_c * SectorSize, the byte length of one cluster.
func (s *Session) ClusterSize() uint32 { return s.hdr.clusterSize() }

// FsClusters returns the number of addressable data clusters.
func (s *Session) FsClusters() uint32 { return s.fsClusters }

// Root returns a view over the root directory entry, stored in the header
// rather than inside a parent directory cluster.
func (s *Session) Root() *DirEntry {
	return newDirEntryView(s.hdr.rootEntBytes())
}

// getSect returns the byte region of sector n within the mapping, bounds
// checked against the device size. Violations are fatal: they indicate a
// bug or on-disk corruption, never a user-recoverable condition.
func (s *Session) getSect(n uint32) []byte {
	start := int(n) * SectorSize
	end := start + SectorSize
	if start < 0 || end > len(s.mm.Data) {
		s.fatal("sector %d out of bounds (mapping is %d bytes)", n, len(s.mm.Data))
	}
	return s.mm.Data[start:end]
}

// getClust validates c < fsClusters and returns the byte region of cluster
// c within the data area.
func (s *Session) getClust(c uint32) ([]byte, error) {
	if c >= s.fsClusters {
		s.fatal("cluster %d out of bounds (fs has %d clusters)", c, s.fsClusters)
	}
	sectNum := s.hdr.sRsvd32() + s.hdr.sFat32() + c*uint32(s.hdr.sPerC())
	return s.getSect(sectNum), nil
}

func (h *header) sRsvd32() uint32 { return uint32(h.sRsvd()) }
func (h *header) sFat32() uint32  { return uint32(h.sFat()) }
