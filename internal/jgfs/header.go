package jgfs

import (
	"encoding/binary"
	"fmt"
)

// Header field byte offsets within sector 1.
const (
	hdrOffMagic   = 0
	hdrOffVerMaj  = 4
	hdrOffVerMin  = 5
	hdrOffSTotal  = 6
	hdrOffSRsvd   = 10
	hdrOffSFat    = 12
	hdrOffSPerC   = 14
	hdrOffRootEnt = 16
	hdrSize       = SectorSize
)

// header is a thin accessor over the 512-byte header sector. It never
// copies: every Get/Set reads and writes directly into the slice handed to
// it, which aliases the session's memory-mapped image.
type header struct {
	b []byte
}

func newHeaderView(sector []byte) *header {
	return &header{b: sector[:hdrSize]}
}

func (h *header) magic() string        { return string(h.b[hdrOffMagic : hdrOffMagic+4]) }
func (h *header) verMajor() uint8      { return h.b[hdrOffVerMaj] }
func (h *header) verMinor() uint8      { return h.b[hdrOffVerMin] }
func (h *header) sTotal() uint32       { return binary.LittleEndian.Uint32(h.b[hdrOffSTotal:]) }
func (h *header) sRsvd() uint16        { return binary.LittleEndian.Uint16(h.b[hdrOffSRsvd:]) }
func (h *header) sFat() uint16         { return binary.LittleEndian.Uint16(h.b[hdrOffSFat:]) }
func (h *header) sPerC() uint16        { return binary.LittleEndian.Uint16(h.b[hdrOffSPerC:]) }
func (h *header) rootEntBytes() []byte { return h.b[hdrOffRootEnt : hdrOffRootEnt+DirEntrySize] }

func (h *header) setMagic(m string)     { copy(h.b[hdrOffMagic:hdrOffMagic+4], m) }
func (h *header) setVerMajor(v uint8)   { h.b[hdrOffVerMaj] = v }
func (h *header) setVerMinor(v uint8)   { h.b[hdrOffVerMin] = v }
func (h *header) setSTotal(v uint32)    { binary.LittleEndian.PutUint32(h.b[hdrOffSTotal:], v) }
func (h *header) setSRsvd(v uint16)     { binary.LittleEndian.PutUint16(h.b[hdrOffSRsvd:], v) }
func (h *header) setSFat(v uint16)      { binary.LittleEndian.PutUint16(h.b[hdrOffSFat:], v) }
func (h *header) setSPerC(v uint16)     { binary.LittleEndian.PutUint16(h.b[hdrOffSPerC:], v) }

// clusterSize returns s_per_c * SectorSize, the byte length of one cluster.
func (h *header) clusterSize() uint32 {
	return uint32(h.sPerC()) * SectorSize
}

// fsClusters derives the number of addressable data clusters from the
// geometry fields, per the construction/validation recurrence.
func (h *header) fsClusters() uint32 {
	rsvd := uint32(h.sRsvd())
	fat := uint32(h.sFat())
	perC := uint32(h.sPerC())
	if perC == 0 || h.sTotal() < rsvd+fat {
		return 0
	}
	return (h.sTotal() - rsvd - fat) / perC
}

// validate checks the header fields read from a mapped image against the
// invariants in the construction/validation algorithm. devSectors is the
// number of 512-byte sectors actually present in the backing device.
func (h *header) validate(devSectors uint32) error {
	if h.magic() != Magic {
		return fmt.Errorf("jgfs: bad magic %q", h.magic())
	}
	if h.verMajor() != VerMajor || h.verMinor() != VerMinor {
		return fmt.Errorf("jgfs: unsupported version %d.%d", h.verMajor(), h.verMinor())
	}
	if devSectors < h.sTotal() {
		return fmt.Errorf("jgfs: device has %d sectors, header declares %d", devSectors, h.sTotal())
	}
	clusters := h.fsClusters()
	needFat := ceilDiv(clusters, FatEntriesPerSector)
	if uint32(h.sFat()) < needFat {
		return fmt.Errorf("jgfs: s_fat=%d too small for %d clusters (need >= %d)", h.sFat(), clusters, needFat)
	}
	return nil
}

// computeSFat solves the fixed point s_fat = ceil((s_total - s_rsvd - s_fat)
// / (256 * s_per_c)) by iterating from an initial guess of 1 until the
// value stops changing.
func computeSFat(sTotal uint32, sRsvd, sPerC uint16) uint16 {
	sFat := uint32(1)
	denom := uint32(FatEntriesPerSector) * uint32(sPerC)
	for {
		numerator := sTotal - uint32(sRsvd) - sFat
		next := ceilDiv(numerator, denom)
		if next == sFat {
			break
		}
		sFat = next
	}
	return uint16(sFat)
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
