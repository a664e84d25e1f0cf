package jgfs

// clusterCount returns the chain length a regular-file entry of the given
// byte size requires: ceil(size / clusterSize), or 0 for size == 0.
func (s *Session) clusterCount(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	return ceilDiv(size, s.ClusterSize())
}

// clusterAtPos walks pos steps from begin along the FAT chain and returns
// the cluster index reached.
func (s *Session) clusterAtPos(begin uint32, pos uint32) uint32 {
	cur := begin
	for i := uint32(0); i < pos; i++ {
		cur = uint32(s.fat(cur))
	}
	return cur
}

// zeroSpan zeroes the byte range [oldSize, newSize) of the chain starting at
// begin, skipping to the cluster containing oldSize first and continuing
// cluster by cluster across boundaries.
func (s *Session) zeroSpan(begin uint32, oldSize, newSize uint32) {
	cl := s.ClusterSize()
	pos := oldSize / cl
	offset := oldSize % cl
	remaining := newSize - oldSize
	cur := s.clusterAtPos(begin, pos)

	for remaining > 0 {
		clust, _ := s.getClust(cur)
		end := cl
		if offset+remaining < cl {
			end = offset + remaining
		}
		for i := offset; i < end; i++ {
			clust[i] = 0
		}
		remaining -= end - offset
		offset = 0
		if remaining > 0 {
			cur = uint32(s.fat(cur))
		}
	}
}

// Reduce shrinks ent to newSize, freeing any clusters no longer needed by
// the chain. Precondition: newSize < ent.Size().
func (s *Session) Reduce(ent *DirEntry, newSize uint32) error {
	if newSize >= ent.Size() {
		return newErr("reduce", ent.Name(), ErrInvalidArgument)
	}

	cb := s.clusterCount(ent.Size())
	ca := s.clusterCount(newSize)

	if cb != ca {
		cur := uint32(ent.Begin())
		for pos := uint32(0); pos < cb; pos++ {
			next := s.fat(cur)
			if ca > 0 && pos == ca-1 {
				s.setFat(cur, FatEOF)
			} else if pos >= ca {
				s.setFat(cur, FatFree)
			}
			if next == FatEOF {
				if pos != cb-1 {
					s.log.Warnf("reduce: premature FAT_EOF in chain at position %d (expected %d)", pos, cb-1)
				}
				break
			}
			cur = uint32(next)
		}
	}

	if ca == 0 {
		ent.setBegin(NotAllocated)
	}
	ent.setSize(newSize)
	return nil
}

// Enlarge grows ent to newSize, allocating new clusters as needed and
// zeroing the newly exposed byte range. Precondition: newSize > ent.Size().
// If the filesystem runs out of free clusters partway through, Enlarge caps
// ent's size at what it successfully grew and returns ErrNoSpace; there is
// no rollback of the clusters already linked.
func (s *Session) Enlarge(ent *DirEntry, newSize uint32) error {
	if newSize <= ent.Size() {
		return newErr("enlarge", ent.Name(), ErrInvalidArgument)
	}

	cl := s.ClusterSize()
	oldSize := ent.Size()
	cb := s.clusterCount(oldSize)
	ca := s.clusterCount(newSize)

	if oldSize == 0 {
		free, ok := s.fatFind(FatFree)
		if !ok {
			return newErr("enlarge", ent.Name(), ErrNoSpace)
		}
		s.setFat(free, FatEOF)
		ent.setBegin(uint16(free))
		cb = 1
	}

	cur := s.clusterAtPos(uint32(ent.Begin()), cb-1)

	actualNewSize := newSize
	var spaceErr error
	for i := cb; i < ca; i++ {
		free, ok := s.fatFind(FatFree)
		if !ok {
			actualNewSize = i * cl
			spaceErr = newErr("enlarge", ent.Name(), ErrNoSpace)
			break
		}
		s.setFat(cur, uint16(free))
		s.setFat(free, FatEOF)
		cur = free
	}

	if actualNewSize > oldSize {
		s.zeroSpan(uint32(ent.Begin()), oldSize, actualNewSize)
	}
	ent.setSize(actualNewSize)
	return spaceErr
}
