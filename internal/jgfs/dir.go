package jgfs

// entriesPerCluster returns how many 32-byte directory slots fit in one
// cluster.
func (s *Session) entriesPerCluster() int {
	return int(s.ClusterSize()) / DirEntrySize
}

// dirSlot returns the i'th directory entry slot of the cluster at clustIdx.
func (s *Session) dirSlot(clustIdx uint32, i int) *DirEntry {
	clust, _ := s.getClust(clustIdx)
	start := i * DirEntrySize
	return newDirEntryView(clust[start : start+DirEntrySize])
}

// dirInit zeroes an entire directory cluster, leaving every slot empty.
func (s *Session) dirInit(clustIdx uint32) {
	clust, _ := s.getClust(clustIdx)
	for i := range clust {
		clust[i] = 0
	}
}

// lookupChild performs a linear scan of the directory cluster at
// parentClust for an entry with the given name. Comparison is over the full
// 20-byte name field (including the implicit NUL terminator slot), so a
// stored 19-character name is never treated as a prefix match.
func (s *Session) lookupChild(parentClust uint32, name string) (*DirEntry, bool) {
	var want [NameSize]byte
	copy(want[:], name)

	n := s.entriesPerCluster()
	for i := 0; i < n; i++ {
		ent := s.dirSlot(parentClust, i)
		if ent.Empty() {
			continue
		}
		if ent.nameBytes() == want {
			return ent, true
		}
	}
	return nil, false
}

// dirCount counts the in-use slots in the directory cluster at parentClust.
func (s *Session) dirCount(parentClust uint32) int {
	n := s.entriesPerCluster()
	count := 0
	for i := 0; i < n; i++ {
		if !s.dirSlot(parentClust, i).Empty() {
			count++
		}
	}
	return count
}

// dirForEach invokes fn for each in-use slot in the directory cluster at
// parentClust, in slot order. If fn returns true, iteration stops early.
func (s *Session) dirForEach(parentClust uint32, fn func(*DirEntry) bool) {
	n := s.entriesPerCluster()
	for i := 0; i < n; i++ {
		ent := s.dirSlot(parentClust, i)
		if ent.Empty() {
			continue
		}
		if fn(ent) {
			return
		}
	}
}

// DirLookup is the exported form of lookupChild, for use by the external
// mount shim.
func (s *Session) DirLookup(parentClust uint32, name string) (*DirEntry, bool) {
	return s.lookupChild(parentClust, name)
}

// DirForEach is the exported form of dirForEach, for use by the external
// mount shim.
func (s *Session) DirForEach(parentClust uint32, fn func(*DirEntry) bool) {
	s.dirForEach(parentClust, fn)
}

// isValidName reports whether name satisfies the directory-entry name
// grammar: 1-19 characters from [A-Za-z0-9_.].
func isValidName(name string) bool {
	if len(name) == 0 || len(name) > NameLimit {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

// createEnt inserts a new entry named name into the directory cluster at
// parentClust, built by fill, in the first free slot. It fails with
// ErrExists if the name is already taken and ErrNoSpace if the cluster has
// no free slot. An empty name is fatal.
func (s *Session) createEnt(parentClust uint32, name string, fill func(*DirEntry)) (*DirEntry, error) {
	if name == "" {
		s.fatal("create: empty name in directory cluster %d", parentClust)
	}
	if _, found := s.lookupChild(parentClust, name); found {
		return nil, newErr("create", name, ErrExists)
	}

	n := s.entriesPerCluster()
	for i := 0; i < n; i++ {
		ent := s.dirSlot(parentClust, i)
		if !ent.Empty() {
			continue
		}
		ent.setName(name)
		fill(ent)
		return ent, nil
	}
	return nil, newErr("create", name, ErrNoSpace)
}
