package jgfs

import "strings"

// splitPath tokenizes a slash-delimited path into its non-empty components.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Lookup walks path from the root, returning the cluster index of the
// parent directory and, if wantChild is true, the terminal entry itself.
// When wantChild is false, resolution stops after the second-to-last
// component and child is nil.
//
// On failure the returned parent/child are always zero values; callers may
// rely on that to avoid partially-applied state.
func (s *Session) Lookup(path string, wantChild bool) (parentClust uint32, child *DirEntry, err error) {
	components := splitPath(path)
	if len(components) == 0 {
		if !wantChild {
			return 0, nil, nil
		}
		return 0, s.Root(), nil
	}

	clust := uint32(0)
	for i, comp := range components {
		isLast := i == len(components)-1
		if isLast && !wantChild {
			return clust, nil, nil
		}

		ent, ok := s.lookupChild(clust, comp)
		if !ok {
			return 0, nil, newErr("lookup", path, ErrNoEntry)
		}

		if isLast {
			return clust, ent, nil
		}

		if !ent.IsDir() {
			return 0, nil, newErr("lookup", path, ErrNotADirectory)
		}
		clust = uint32(ent.Begin())
	}
	return clust, child, nil
}
