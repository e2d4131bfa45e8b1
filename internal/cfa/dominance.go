package cfa

import (
	"github.com/bits-and-blooms/bitset"
)

// DominatorTree holds dominance information for the blocks reachable
// from its root. The same structure serves as a post-dominator tree
// when built over the reversed graph, rooted at a virtual sink that
// joins every exit block.
type DominatorTree struct {
	order   []*Block // reverse post-order from the root
	index   map[*Block]int
	preds   [][]int // per-node predecessor indices within order
	dom     []*bitset.BitSet
	idom    []int // index of immediate dominator, -1 for the root
	virtual *Block
}

// NewDominatorTree computes the dominator tree of the blocks reachable
// from the graph entry.
func NewDominatorTree(g *Graph) *DominatorTree {
	succs := func(b *Block) []*Block {
		out := make([]*Block, 0, len(b.Succs))
		for _, e := range b.Succs {
			out = append(out, e.To)
		}
		return out
	}
	preds := func(b *Block) []*Block {
		in := make([]*Block, 0, len(b.Preds))
		for _, e := range b.Preds {
			in = append(in, e.From)
		}
		return in
	}
	return buildDominatorTree(g.Entry, nil, succs, preds)
}

// NewPostDominatorTree computes the post-dominator tree of the graph,
// rooted at a virtual sink past every exit block (a block without
// successors).
func NewPostDominatorTree(g *Graph) *DominatorTree {
	virtual := &Block{ID: -1, Label: "virtual_exit"}
	exits := g.ExitBlocks()
	isExit := make(map[*Block]bool, len(exits))
	for _, x := range exits {
		isExit[x] = true
	}
	succs := func(b *Block) []*Block {
		if b == virtual {
			return exits
		}
		in := make([]*Block, 0, len(b.Preds))
		for _, e := range b.Preds {
			in = append(in, e.From)
		}
		return in
	}
	preds := func(b *Block) []*Block {
		if b == virtual {
			return nil
		}
		out := make([]*Block, 0, len(b.Succs)+1)
		for _, e := range b.Succs {
			out = append(out, e.To)
		}
		if isExit[b] {
			out = append(out, virtual)
		}
		return out
	}
	return buildDominatorTree(virtual, virtual, succs, preds)
}

// ExitBlocks returns the blocks without successors, in creation order.
func (g *Graph) ExitBlocks() []*Block {
	var exits []*Block
	for _, b := range g.Blocks {
		if len(b.Succs) == 0 {
			exits = append(exits, b)
		}
	}
	return exits
}

// buildDominatorTree runs the iterative bitvector dominance dataflow
// over the nodes reachable from root: Dom(n) = {n} ∪ ⋂ Dom(pred).
func buildDominatorTree(root, virtual *Block, succs, preds func(*Block) []*Block) *DominatorTree {
	t := &DominatorTree{
		index:   make(map[*Block]int),
		virtual: virtual,
	}

	// Reverse post-order from the root.
	visited := make(map[*Block]bool)
	var post []*Block
	var dfs func(b *Block)
	dfs = func(b *Block) {
		visited[b] = true
		for _, s := range succs(b) {
			if !visited[s] {
				dfs(s)
			}
		}
		post = append(post, b)
	}
	dfs(root)
	for i := len(post) - 1; i >= 0; i-- {
		t.index[post[i]] = len(t.order)
		t.order = append(t.order, post[i])
	}

	n := len(t.order)
	t.preds = make([][]int, n)
	for i, b := range t.order {
		for _, p := range preds(b) {
			if pi, ok := t.index[p]; ok {
				t.preds[i] = append(t.preds[i], pi)
			}
		}
	}

	full := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		full.Set(uint(i))
	}

	t.dom = make([]*bitset.BitSet, n)
	for i := range t.dom {
		t.dom[i] = full.Clone()
	}
	rootSet := bitset.New(uint(n))
	rootSet.Set(0)
	t.dom[0] = rootSet

	for changed := true; changed; {
		changed = false
		for i := 1; i < n; i++ {
			next := full.Clone()
			for _, pi := range t.preds[i] {
				next.InPlaceIntersection(t.dom[pi])
			}
			next.Set(uint(i))
			if !next.Equal(t.dom[i]) {
				t.dom[i] = next
				changed = true
			}
		}
	}

	t.idom = make([]int, n)
	t.idom[0] = -1
	for i := 1; i < n; i++ {
		t.idom[i] = -1
		want := t.dom[i].Count() - 1
		for d, ok := t.dom[i].NextSet(0); ok; d, ok = t.dom[i].NextSet(d + 1) {
			if int(d) != i && t.dom[d].Count() == want {
				t.idom[i] = int(d)
				break
			}
		}
	}

	return t
}

// Reachable reports whether the block participates in the tree.
func (t *DominatorTree) Reachable(b *Block) bool {
	_, ok := t.index[b]
	return ok
}

// Dominates reports whether a dominates b. The relation is reflexive.
// Blocks outside the tree dominate nothing and are dominated by
// nothing.
func (t *DominatorTree) Dominates(a, b *Block) bool {
	ai, ok := t.index[a]
	if !ok {
		return false
	}
	bi, ok := t.index[b]
	if !ok {
		return false
	}
	return t.dom[bi].Test(uint(ai))
}

// ImmediateDominator returns the immediate dominator of b, or nil for
// the root, the virtual sink, and blocks outside the tree.
func (t *DominatorTree) ImmediateDominator(b *Block) *Block {
	bi, ok := t.index[b]
	if !ok || t.idom[bi] < 0 {
		return nil
	}
	parent := t.order[t.idom[bi]]
	if parent == t.virtual {
		return nil
	}
	return parent
}

// DominanceFrontier computes the dominance frontier of every node in
// the tree: the set of nodes where a node's dominance stops.
func (t *DominatorTree) DominanceFrontier() map[*Block][]*Block {
	df := make(map[*Block][]*Block)
	seen := make(map[*Block]map[*Block]bool)
	add := func(b, frontier *Block) {
		if seen[b] == nil {
			seen[b] = make(map[*Block]bool)
		}
		if !seen[b][frontier] {
			seen[b][frontier] = true
			df[b] = append(df[b], frontier)
		}
	}
	for i, b := range t.order {
		if len(t.preds[i]) < 2 {
			continue
		}
		for _, pi := range t.preds[i] {
			runner := pi
			for runner >= 0 && runner != t.idom[i] {
				add(t.order[runner], b)
				runner = t.idom[runner]
			}
		}
	}
	return df
}
