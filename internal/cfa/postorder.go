package cfa

import (
	list "github.com/bahlo/generic-list-go"
)

// BlockList is the mutable linearization the structurizer reduces:
// a doubly-linked list so iterators stay valid across unrelated
// insertions and erasures.
type BlockList = list.List[*Block]

// BlockElem is a position within a BlockList.
type BlockElem = list.Element[*Block]

// LinearizeBlocks computes the block linearization of the graph: a
// depth-first post-order seeded at the entry, stored reversed so the
// entry sits at the head and every region's entry precedes its exit.
// Successors are visited in reverse insertion order, which keeps
// sibling branches in their syntactic order after the reversal.
func LinearizeBlocks(g *Graph) *BlockList {
	visited := make(map[*Block]bool)
	var post []*Block
	var dfs func(b *Block)
	dfs = func(b *Block) {
		visited[b] = true
		for i := len(b.Succs) - 1; i >= 0; i-- {
			if succ := b.Succs[i].To; !visited[succ] {
				dfs(succ)
			}
		}
		post = append(post, b)
	}
	dfs(g.Entry)

	order := list.New[*Block]()
	for i := len(post) - 1; i >= 0; i-- {
		order.PushBack(post[i])
	}
	return order
}
