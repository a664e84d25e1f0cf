package jgfs

import "time"

// validateName checks the directory-entry name grammar, returning the
// specific recoverable error the spec calls for at each boundary.
func validateName(op, name string) error {
	if len(name) == 0 {
		return newErr(op, name, ErrInvalidArgument)
	}
	if len(name) > NameLimit {
		return newErr(op, name, ErrNameTooLong)
	}
	if !isValidName(name) {
		return newErr(op, name, ErrInvalidArgument)
	}
	return nil
}

// CreateFile creates a new, empty regular-file entry named name in the
// directory cluster parentClust.
func (s *Session) CreateFile(parentClust uint32, name string) (*DirEntry, error) {
	if err := validateName("create", name); err != nil {
		return nil, err
	}
	return s.createEnt(parentClust, name, func(e *DirEntry) {
		e.setType(EntRegular)
		e.setSize(0)
		e.setBegin(NotAllocated)
		e.touch()
	})
}

// CreateDir creates a new, empty subdirectory named name in parentClust. It
// verifies a free cluster is available before inserting the directory
// entry, so a two-step construction failure can never leave an entry
// pointing at the not-allocated sentinel.
func (s *Session) CreateDir(parentClust uint32, name string) (*DirEntry, error) {
	if err := validateName("create", name); err != nil {
		return nil, err
	}
	free, ok := s.fatFind(FatFree)
	if !ok {
		return nil, newErr("create", name, ErrNoSpace)
	}

	ent, err := s.createEnt(parentClust, name, func(e *DirEntry) {
		e.setType(EntDirectory)
		e.setSize(s.ClusterSize())
		e.setBegin(NotAllocated)
		e.touch()
	})
	if err != nil {
		return nil, err
	}

	ent.setBegin(uint16(free))
	s.dirInit(free)
	s.setFat(free, FatEOF)
	return ent, nil
}

// CreateSymlink creates a new symlink entry named name in parentClust,
// storing target NUL-padded in its single allocated cluster. target must
// fit in clusterSize-1 bytes, leaving room for the implicit terminator.
func (s *Session) CreateSymlink(parentClust uint32, name, target string) (*DirEntry, error) {
	if err := validateName("create", name); err != nil {
		return nil, err
	}
	cl := s.ClusterSize()
	if uint32(len(target)) > cl-1 {
		return nil, newErr("create", name, ErrInvalidArgument)
	}

	free, ok := s.fatFind(FatFree)
	if !ok {
		return nil, newErr("create", name, ErrNoSpace)
	}

	ent, err := s.createEnt(parentClust, name, func(e *DirEntry) {
		e.setType(EntSymlink)
		e.setSize(uint32(len(target)))
		e.setBegin(NotAllocated)
		e.touch()
	})
	if err != nil {
		return nil, err
	}

	ent.setBegin(uint16(free))
	clust, _ := s.getClust(free)
	for i := range clust {
		clust[i] = 0
	}
	copy(clust, target)
	s.setFat(free, FatEOF)
	return ent, nil
}

// ReadLink returns the stored target of a symlink entry.
func (s *Session) ReadLink(ent *DirEntry) (string, error) {
	if !ent.IsSymlink() {
		return "", newErr("readlink", ent.Name(), ErrInvalidArgument)
	}
	if ent.Begin() == NotAllocated {
		return "", nil
	}
	clust, _ := s.getClust(uint32(ent.Begin()))
	n := ent.Size()
	if n > uint32(len(clust)) {
		n = uint32(len(clust))
	}
	return string(clust[:n]), nil
}

// sameSlot reports whether a and b are views over the same underlying
// directory-entry slot.
func sameSlot(a, b *DirEntry) bool {
	if len(a.b) == 0 || len(b.b) == 0 {
		return false
	}
	return &a.b[0] == &b.b[0]
}

// freeChain releases every cluster referenced by ent: its single cluster
// for a directory, or its whole chain for a regular file or symlink.
func (s *Session) freeChain(ent *DirEntry) {
	if ent.Begin() == NotAllocated {
		return
	}
	if ent.IsDir() {
		s.setFat(uint32(ent.Begin()), FatFree)
		return
	}
	cur := uint32(ent.Begin())
	for {
		next := s.fat(cur)
		s.setFat(cur, FatFree)
		if next == FatEOF {
			break
		}
		cur = uint32(next)
	}
}

// MoveEnt transplants ent into the directory cluster newParentClust under
// ent's current name, resolving overwrite semantics against any entry
// already there with that name. Once the destination slot is settled, ent's
// fields are copied into it and ent itself is cleared. If newParentClust
// already contains ent under the same name (an in-place rename back to
// itself), MoveEnt is a no-op.
func (s *Session) MoveEnt(ent *DirEntry, newParentClust uint32) error {
	name := ent.Name()
	existing, found := s.lookupChild(newParentClust, name)
	if found && sameSlot(existing, ent) {
		return nil
	}

	var dest *DirEntry
	switch {
	case !found:
		var err error
		dest, err = s.createEnt(newParentClust, name, func(*DirEntry) {})
		if err != nil {
			return err
		}

	case ent.IsDir() && existing.IsDir():
		if s.dirCount(uint32(existing.Begin())) > 0 {
			return newErr("move", name, ErrNotEmpty)
		}
		s.freeChain(existing)
		existing.clear()
		var err error
		dest, err = s.createEnt(newParentClust, name, func(*DirEntry) {})
		if err != nil {
			return err
		}

	case ent.IsDir() && !existing.IsDir():
		return newErr("move", name, ErrExists)

	case !ent.IsDir() && existing.IsDir():
		return newErr("move", name, ErrIsADirectory)

	default: // !ent.IsDir() && !existing.IsDir(): overwrite in place
		s.freeChain(existing)
		dest = existing
	}

	dest.copyFrom(ent)
	ent.clear()
	return nil
}

// DeleteEnt removes ent from its directory. If dealloc is true, its backing
// clusters are released first: a directory must be empty (ErrNotEmpty
// otherwise), and any other type with size > 0 is reduced to zero.
func (s *Session) DeleteEnt(ent *DirEntry, dealloc bool) error {
	if dealloc {
		if ent.IsDir() {
			if ent.Begin() != NotAllocated && s.dirCount(uint32(ent.Begin())) > 0 {
				return newErr("delete", ent.Name(), ErrNotEmpty)
			}
			if ent.Begin() != NotAllocated {
				s.setFat(uint32(ent.Begin()), FatFree)
			}
		} else if ent.Size() > 0 {
			if err := s.Reduce(ent, 0); err != nil {
				return err
			}
		}
	}
	ent.clear()
	return nil
}

// Rename rewrites ent's name and then moves it into newParentClust, the
// translation the external shim's rename upcall uses whether or not the
// directory actually changes.
func (s *Session) Rename(ent *DirEntry, newName string, newParentClust uint32) error {
	if err := validateName("rename", newName); err != nil {
		return err
	}
	ent.setName(newName)
	return s.MoveEnt(ent, newParentClust)
}

// SetTimes updates ent's mtime without touching any other field.
func (s *Session) SetTimes(ent *DirEntry, mtime time.Time) {
	ent.setMtime(uint32(mtime.Unix()))
}

// ReadAt copies up to len(p) bytes of ent's data starting at byte offset
// off into p, stopping at ent.Size(). It never allocates.
func (s *Session) ReadAt(ent *DirEntry, p []byte, off int64) (int, error) {
	size := int64(ent.Size())
	if off >= size || len(p) == 0 {
		return 0, nil
	}

	cl := int64(s.ClusterSize())
	n := len(p)
	if int64(n) > size-off {
		n = int(size - off)
	}

	read := 0
	for read < n {
		pos := uint32((off + int64(read)) / cl)
		within := uint32((off + int64(read)) % cl)
		cur := s.clusterAtPos(uint32(ent.Begin()), pos)
		clust, _ := s.getClust(cur)
		chunk := int(uint32(cl) - within)
		if chunk > n-read {
			chunk = n - read
		}
		copy(p[read:read+chunk], clust[within:within+uint32(chunk)])
		read += chunk
	}
	return read, nil
}

// WriteAt writes p into ent's data starting at byte offset off, enlarging
// the chain first if the write extends past the current size. If the
// filesystem runs out of space mid-enlarge, the write is clamped to what
// was actually allocated and the underlying ErrNoSpace is returned.
func (s *Session) WriteAt(ent *DirEntry, p []byte, off int64) (int, error) {
	want := uint32(off) + uint32(len(p))
	var spaceErr error
	if want > ent.Size() {
		if err := s.Enlarge(ent, want); err != nil {
			spaceErr = err
		}
	}

	n := len(p)
	if uint32(off) >= ent.Size() {
		return 0, spaceErr
	}
	if uint32(off)+uint32(n) > ent.Size() {
		n = int(ent.Size() - uint32(off))
	}

	cl := int64(s.ClusterSize())
	written := 0
	for written < n {
		pos := uint32((off + int64(written)) / cl)
		within := uint32((off + int64(written)) % cl)
		cur := s.clusterAtPos(uint32(ent.Begin()), pos)
		clust, _ := s.getClust(cur)
		chunk := int(uint32(cl) - within)
		if chunk > n-written {
			chunk = n - written
		}
		copy(clust[within:within+uint32(chunk)], p[written:written+chunk])
		written += chunk
	}
	ent.touch()
	return written, spaceErr
}
