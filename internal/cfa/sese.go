package cfa

import "fmt"

// NormalizeCycles rewrites the graph so that every cycle has a single
// entry block and a single exit block. Multi-entry cycles get an entry
// redirector; multi-exit cycles get an exit redirector. No blocks or
// edges are removed, and running the pass again changes nothing.
func (g *Graph) NormalizeCycles() {
	for _, component := range g.StronglyConnectedComponents() {
		if !hasInternalEdge(component) {
			continue
		}
		g.normalizeCycle(component)
	}
}

func (g *Graph) normalizeCycle(component []*Block) {
	members := make(map[*Block]bool, len(component))
	for _, b := range component {
		members[b] = true
	}

	var entering []*Edge
	var entrySet []*Block
	inEntrySet := make(map[*Block]bool)
	addEntry := func(b *Block) {
		if !inEntrySet[b] {
			inEntrySet[b] = true
			entrySet = append(entrySet, b)
		}
	}
	for _, b := range component {
		for _, e := range b.Preds {
			if !members[e.From] {
				entering = append(entering, e)
				addEntry(e.To)
			}
		}
	}

	var exiting []*Edge
	exitSet := make(map[*Block]bool)
	for _, b := range component {
		for _, e := range b.Succs {
			if !members[e.To] {
				exiting = append(exiting, e)
				exitSet[e.To] = true
			}
		}
	}

	// Rediscover back-edges by a traversal restricted to members. An
	// edge whose target is an ancestor on the active path is a
	// back-edge; it joins the entering set so the loop header ends up
	// as the single entry after redirection. The traversal starts from
	// an entered member so the discovered header matches the entry.
	start := component[0]
	if len(entrySet) > 0 {
		start = entrySet[0]
	} else if members[g.Entry] {
		start = g.Entry
	}
	visited := make(map[*Block]bool)
	onPath := make(map[*Block]bool)
	var dfs func(b *Block)
	dfs = func(b *Block) {
		visited[b] = true
		onPath[b] = true
		for _, e := range b.Succs {
			if !members[e.To] {
				continue
			}
			if !visited[e.To] {
				dfs(e.To)
			} else if onPath[e.To] {
				entering = append(entering, e)
				addEntry(e.To)
			}
		}
		onPath[b] = false
	}
	dfs(start)
	for _, b := range component {
		if !visited[b] {
			panic(fmt.Sprintf("cfa: cycle member %s unreachable from %s within its component", b, start))
		}
	}

	if len(entrySet) > 1 {
		if members[g.Entry] {
			// The function starts inside the cycle, so that start is
			// itself an entering edge: materialize it as a fresh
			// pre-entry block so it gets dispatched like the others.
			preEntry := g.CreateBlock("entry")
			entering = append(entering, g.CreateEdge(preEntry, g.Entry, g.ctx.True()))
			g.Entry = preEntry
		}
		g.CreateRedirectorBlock(entering)
	}
	if len(exitSet) > 1 {
		g.CreateRedirectorBlock(exiting)
	}
}
