package jgfs

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Violation describes one consistency-check failure, structured for CSV
// export by the fsck command.
type Violation struct {
	Path   string `csv:"path"`
	Rule   string `csv:"rule"`
	Detail string `csv:"detail"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s: %s", v.Path, v.Rule, v.Detail)
}

// checker accumulates violations and the set of clusters it has proven
// reachable while walking the directory tree.
type checker struct {
	s        *Session
	errs     *multierror.Error
	reachable map[uint32]bool
}

// Check walks every directory entry reachable from the root, verifying the
// universally quantified invariants from the consistency model: chain
// termination, size/chain agreement, name uniqueness, and free-cluster
// conservation. It never mutates the image.
func (s *Session) Check() *multierror.Error {
	c := &checker{s: s, errs: &multierror.Error{}, reachable: map[uint32]bool{0: true}}
	c.walkDir("/", 0)
	c.checkConservation()
	return c.errs
}

func (c *checker) addf(path, rule, format string, args ...any) {
	c.errs = multierror.Append(c.errs, Violation{Path: path, Rule: rule, Detail: fmt.Sprintf(format, args...)})
}

func (c *checker) walkDir(path string, clust uint32) {
	seenNames := make(map[string]bool)
	n := c.s.entriesPerCluster()
	for i := 0; i < n; i++ {
		ent := c.s.dirSlot(clust, i)
		if ent.Empty() {
			continue
		}

		name := ent.Name()
		childPath := path
		if childPath != "/" {
			childPath += "/"
		}
		childPath += name

		if seenNames[name] {
			c.addf(childPath, "name-uniqueness", "duplicate name in directory cluster %d", clust)
		}
		seenNames[name] = true

		switch {
		case ent.IsDir():
			c.checkDirEntry(childPath, ent)
		case ent.IsRegular(), ent.IsSymlink():
			c.checkChain(childPath, ent)
		default:
			c.addf(childPath, "entry-type", "unknown type byte %d", ent.Type())
		}
	}
}

func (c *checker) checkDirEntry(path string, ent *DirEntry) {
	if ent.Size() != c.s.ClusterSize() {
		c.addf(path, "size-chain-agreement", "directory size %d != cluster size %d", ent.Size(), c.s.ClusterSize())
	}
	if ent.Begin() == NotAllocated || uint32(ent.Begin()) >= c.s.fsClusters {
		c.addf(path, "bijection", "directory begin=%d is not a valid cluster", ent.Begin())
		return
	}
	clust := uint32(ent.Begin())
	if c.reachable[clust] {
		c.addf(path, "bijection", "cluster %d claimed by more than one entry", clust)
		return
	}
	c.reachable[clust] = true
	c.walkDir(path, clust)
}

func (c *checker) checkChain(path string, ent *DirEntry) {
	if ent.Size() == 0 {
		if ent.Begin() != NotAllocated {
			c.addf(path, "size-chain-agreement", "zero-size entry has begin=%d, want not-allocated", ent.Begin())
		}
		return
	}

	wantLen := c.s.clusterCount(ent.Size())
	if ent.IsSymlink() {
		wantLen = 1
	}

	visited := make(map[uint32]bool)
	cur := uint32(ent.Begin())
	steps := uint32(0)
	for {
		if cur >= c.s.fsClusters {
			c.addf(path, "chain-termination", "chain references out-of-range cluster %d", cur)
			return
		}
		if visited[cur] {
			c.addf(path, "chain-termination", "chain revisits cluster %d", cur)
			return
		}
		visited[cur] = true
		if c.reachable[cur] {
			c.addf(path, "bijection", "cluster %d claimed by more than one chain", cur)
		}
		c.reachable[cur] = true

		next := c.s.fat(cur)
		steps++
		if next == FatEOF {
			break
		}
		if steps > c.s.fsClusters {
			c.addf(path, "chain-termination", "chain did not terminate within %d steps", c.s.fsClusters)
			return
		}
		cur = uint32(next)
	}

	if steps != wantLen {
		c.addf(path, "size-chain-agreement", "chain length %d != expected %d for size %d", steps, wantLen, ent.Size())
	}
}

func (c *checker) checkConservation() {
	free := c.s.fatCount(FatFree)
	used := uint32(len(c.reachable))
	rsvdBad := c.s.fatCount(FatRsvd) + c.s.fatCount(FatBad)
	if free+used+rsvdBad != c.s.fsClusters {
		c.addf("/", "free-count-conservation", "free=%d + reachable=%d + rsvd/bad=%d != fsClusters=%d", free, used, rsvdBad, c.s.fsClusters)
	}
}
