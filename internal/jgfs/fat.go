package jgfs

import "encoding/binary"

// fatCapacity returns the number of FAT entry slots physically present in
// the FAT area (s_fat sectors * entries per sector), which may be slightly
// larger than fsClusters; the extra slots are marked FatOOB at construction.
func (s *Session) fatCapacity() uint32 {
	return uint32(s.hdr.sFat()) * FatEntriesPerSector
}

// fatOffset returns the byte offset of FAT entry addr within the mapping.
func (s *Session) fatOffset(addr uint32) int {
	return s.fatBase + int(addr)*FatEntrySize
}

// fat reads the allocation-table entry at addr. Reads past the FAT area's
// capacity are fatal: the caller asked for a cluster address that could
// never have been handed out by this filesystem.
func (s *Session) fat(addr uint32) uint16 {
	if addr >= s.fatCapacity() {
		s.fatal("fat read at %d out of bounds (capacity %d)", addr, s.fatCapacity())
	}
	off := s.fatOffset(addr)
	return binary.LittleEndian.Uint16(s.mm.Data[off:])
}

// setFat writes the allocation-table entry at addr.
func (s *Session) setFat(addr uint32, value uint16) {
	if addr >= s.fatCapacity() {
		s.fatal("fat write at %d out of bounds (capacity %d)", addr, s.fatCapacity())
	}
	off := s.fatOffset(addr)
	binary.LittleEndian.PutUint16(s.mm.Data[off:], value)
}

// fatFind returns the lowest cluster index below fsClusters whose FAT entry
// equals target, or false if none is found. Free-cluster allocation calls
// this with target = FatFree.
func (s *Session) fatFind(target uint16) (uint32, bool) {
	for i := uint32(0); i < s.fsClusters; i++ {
		if s.fat(i) == target {
			return i, true
		}
	}
	return 0, false
}

// fatCount linearly counts the clusters below fsClusters whose FAT entry
// equals target. Used for statfs (free blocks) and the consistency checker.
func (s *Session) fatCount(target uint16) uint32 {
	var n uint32
	for i := uint32(0); i < s.fsClusters; i++ {
		if s.fat(i) == target {
			n++
		}
	}
	return n
}

// FatFreeCount reports the number of unallocated clusters, the value the
// external shim's statfs upcall reports as free blocks.
func (s *Session) FatFreeCount() uint32 {
	return s.fatCount(FatFree)
}
