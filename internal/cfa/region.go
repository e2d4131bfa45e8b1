package cfa

import (
	"fmt"
	"sort"
)

// Region is a single-entry single-exit subgraph. Regions nest into a
// tree whose root spans the whole function; the root's exit is the
// virtual past-the-end node, represented as a nil Exit.
type Region struct {
	Entry *Block
	Exit  *Block

	Parent   *Region
	Children []*Region

	nodes map[*Block]bool // nil for the root, which contains everything
}

// Contains reports whether the block belongs to the region.
func (r *Region) Contains(b *Block) bool {
	if r.nodes == nil {
		return true
	}
	return r.nodes[b]
}

// Adopt makes a block a member of the region. Reductions use it to
// hand the synthetic replacement of an inner region to the enclosing
// one, which treats it as an ordinary block from then on.
func (r *Region) Adopt(b *Block) {
	if r.nodes != nil {
		r.nodes[b] = true
	}
}

// Size returns the number of blocks in the region; 0 means unbounded
// (the root).
func (r *Region) Size() int {
	return len(r.nodes)
}

// RemoveSubRegion detaches a direct child from the region.
func (r *Region) RemoveSubRegion(child *Region) {
	for i, c := range r.Children {
		if c == child {
			r.Children = append(r.Children[:i], r.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// AnalyzeRegions computes the region tree of a normalized graph. Two
// kinds of regions are collected: acyclic regions, where a block and
// its immediate post-dominator bound a subgraph with no other way in
// or out, and cycle regions, one per normalized cycle, spanning the
// cycle members between their unique entry and unique external target.
// When two candidates share an entry block only the largest survives,
// so every region is located by a distinct entry during reduction.
func AnalyzeRegions(g *Graph) *Region {
	dom := NewDominatorTree(g)
	pdom := NewPostDominatorTree(g)

	root := &Region{Entry: g.Entry}

	var regions []*Region
	for _, entry := range dom.order {
		exit := pdom.ImmediateDominator(entry)
		if exit == nil || exit == entry {
			continue
		}
		if !dom.Dominates(entry, exit) {
			continue
		}
		nodes := collectRegionNodes(g, entry, exit, dom, pdom)
		if nodes == nil || len(nodes) < 2 {
			continue
		}
		regions = append(regions, &Region{Entry: entry, Exit: exit, nodes: nodes})
	}
	for _, r := range cycleRegions(g) {
		// Cycles outside the entry's reach never make it into the
		// block linearization, so they cannot be reduced.
		if dom.Reachable(r.Entry) {
			regions = append(regions, r)
		}
	}

	regions = dedupeByEntry(regions)
	buildRegionHierarchy(root, regions)
	return root
}

// collectRegionNodes gathers the blocks enclosed by (entry, exit) and
// verifies the single-entry single-exit property by edge inspection:
// enclosed blocks are dominated by entry and post-dominated by exit,
// only entry receives edges from outside, and every edge leaving the
// node set lands on exit. It returns nil when the candidate pair does
// not bound a region.
func collectRegionNodes(g *Graph, entry, exit *Block, dom, pdom *DominatorTree) map[*Block]bool {
	nodes := make(map[*Block]bool)
	for _, b := range g.Blocks {
		if b == exit {
			continue
		}
		if dom.Dominates(entry, b) && pdom.Dominates(exit, b) {
			nodes[b] = true
		}
	}
	if !nodes[entry] {
		return nil
	}
	for b := range nodes {
		if b != entry {
			for _, e := range b.Preds {
				if !nodes[e.From] {
					return nil // side entrance
				}
			}
		}
		for _, e := range b.Succs {
			if !nodes[e.To] && e.To != exit {
				return nil // side exit
			}
		}
	}
	return nodes
}

// cycleRegions builds one region per cycle of the normalized graph.
// Normalization guarantees a unique entry member and a unique external
// successor target; a cycle with no way out yields no region and is
// left to the enclosing fold.
func cycleRegions(g *Graph) []*Region {
	var regions []*Region
	for _, component := range g.StronglyConnectedComponents() {
		if !hasInternalEdge(component) {
			continue
		}
		members := make(map[*Block]bool, len(component))
		for _, b := range component {
			members[b] = true
		}

		var entry *Block
		for _, b := range component {
			entered := b == g.Entry
			for _, e := range b.Preds {
				if !members[e.From] {
					entered = true
				}
			}
			if entered {
				if entry != nil && entry != b {
					panic(fmt.Sprintf("cfa: cycle with entries %s and %s after normalization", entry, b))
				}
				entry = b
			}
		}
		if entry == nil {
			continue // unreachable cycle
		}

		var exit *Block
		for _, b := range component {
			for _, e := range b.Succs {
				if !members[e.To] {
					if exit != nil && exit != e.To {
						panic(fmt.Sprintf("cfa: cycle with exits %s and %s after normalization", exit, e.To))
					}
					exit = e.To
				}
			}
		}
		if exit == nil {
			continue // endless cycle, nothing past it to bound a region
		}

		regions = append(regions, &Region{Entry: entry, Exit: exit, nodes: members})
	}
	return regions
}

// dedupeByEntry keeps the largest region of every entry block.
func dedupeByEntry(regions []*Region) []*Region {
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Size() > regions[j].Size()
	})
	byEntry := make(map[*Block]bool)
	var kept []*Region
	for _, r := range regions {
		if byEntry[r.Entry] {
			continue
		}
		byEntry[r.Entry] = true
		kept = append(kept, r)
	}
	return kept
}

// buildRegionHierarchy nests regions by containment: each region gets
// the smallest region that strictly contains it as parent, or the root.
func buildRegionHierarchy(root *Region, regions []*Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Size() < regions[j].Size()
	})
	for i, r := range regions {
		parent := root
		for j := i + 1; j < len(regions); j++ {
			if regions[j].Size() > r.Size() && containsAll(regions[j], r) {
				parent = regions[j]
				break
			}
		}
		r.Parent = parent
		parent.Children = append(parent.Children, r)
	}
}

func containsAll(outer, inner *Region) bool {
	for b := range inner.nodes {
		if !outer.nodes[b] {
			return false
		}
	}
	return true
}
