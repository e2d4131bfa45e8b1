// Package cfa implements the control-flow analysis back-end of the
// decompiler: the pre-AST control-flow graph, cycle normalization,
// dominance-based region analysis, and the structurizer that turns a
// normalized graph into a statement tree.
package cfa

import (
	"fmt"

	"github.com/XVilka/fcd/internal/ast"
)

// Block represents a pre-AST basic block in the control flow graph.
type Block struct {
	// ID is the unique identifier for this block within its graph
	ID int

	// Label is an optional human-readable label
	Label string

	// Stmt is the partial statement body lifted so far; may be nil
	Stmt *ast.Stmt

	// Preds are the incoming edges, in insertion order
	Preds []*Edge

	// Succs are the outgoing edges, in insertion order
	Succs []*Edge
}

// String returns a string representation of the block.
func (b *Block) String() string {
	if b.Label != "" {
		return b.Label
	}
	return fmt.Sprintf("bb%d", b.ID)
}

// Edge represents a directed edge between two basic blocks. Cond is
// the edge condition: control takes the edge when it evaluates true.
type Edge struct {
	From *Block
	To   *Block
	Cond *ast.Expr
}

// Graph owns all blocks and edges of one function. Blocks and edges
// are never freed individually while the graph is alive.
type Graph struct {
	// Entry is the function entry block
	Entry *Block

	// Blocks holds every block in creation order
	Blocks []*Block

	ctx          *ast.Context
	edges        []*Edge
	nextBlockID  int
	nextSelector int
}

// NewGraph creates an empty graph whose AST nodes are owned by ctx.
func NewGraph(ctx *ast.Context) *Graph {
	return &Graph{ctx: ctx}
}

// Context returns the AST context the graph builds nodes in.
func (g *Graph) Context() *ast.Context {
	return g.ctx
}

// CreateBlock creates a new block and adds it to the graph. The first
// block created becomes the entry.
func (g *Graph) CreateBlock(label string) *Block {
	block := &Block{ID: g.nextBlockID, Label: label}
	g.nextBlockID++
	g.Blocks = append(g.Blocks, block)
	if g.Entry == nil {
		g.Entry = block
	}
	return block
}

// CreateEdge creates a directed edge with the given condition and
// registers it in both adjacency lists.
func (g *Graph) CreateEdge(from, to *Block, cond *ast.Expr) *Edge {
	if from == nil || to == nil {
		panic("cfa: CreateEdge with nil endpoint")
	}
	if cond == nil {
		panic("cfa: CreateEdge with nil condition")
	}
	edge := &Edge{From: from, To: to, Cond: cond}
	from.Succs = append(from.Succs, edge)
	to.Preds = append(to.Preds, edge)
	g.edges = append(g.edges, edge)
	return edge
}

// Retarget points an existing edge at a new destination, keeping both
// adjacency lists consistent.
func (g *Graph) Retarget(edge *Edge, to *Block) {
	removeEdge(&edge.To.Preds, edge)
	edge.To = to
	to.Preds = append(to.Preds, edge)
}

// RemoveEdge detaches an edge from both endpoints.
func (g *Graph) RemoveEdge(edge *Edge) {
	removeEdge(&edge.From.Succs, edge)
	removeEdge(&edge.To.Preds, edge)
}

func removeEdge(list *[]*Edge, edge *Edge) {
	for i, e := range *list {
		if e == edge {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
	panic("cfa: edge missing from adjacency list")
}

// EdgeCount returns the number of live edges: edges still present in
// their source block's successor list.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, b := range g.Blocks {
		n += len(b.Succs)
	}
	return n
}

// CreateRedirectorBlock reroutes the given edges through a fresh
// dispatch block. Each distinct target is assigned an integer selector
// value; every redirected edge's source block gets the matching
// selector assignment appended to its body, and the redirector emits
// one outgoing edge per target guarded by a selector comparison.
// Exactly one outgoing condition is true whenever the redirector runs.
func (g *Graph) CreateRedirectorBlock(edges []*Edge) *Block {
	if len(edges) == 0 {
		panic("cfa: CreateRedirectorBlock with no edges")
	}

	selector := fmt.Sprintf("sel%d", g.nextSelector)
	g.nextSelector++

	redirector := g.CreateBlock(selector + "_dispatch")

	// Assign selector values to distinct targets in first-seen order.
	values := make(map[*Block]int64)
	var targets []*Block
	edgesFrom := make(map[*Block]int)
	for _, e := range edges {
		if _, seen := values[e.To]; !seen {
			values[e.To] = int64(len(targets))
			targets = append(targets, e.To)
		}
		edgesFrom[e.From]++
	}

	for _, e := range edges {
		assign := g.ctx.Assign(selector, g.ctx.Int(values[e.To]))
		if edgesFrom[e.From] > 1 {
			// The source leaves through more than one redirected edge;
			// the selector must reflect the edge actually taken, so
			// the assignment is guarded by the edge condition.
			g.AppendToBlock(e.From, g.ctx.IfElse(e.Cond, assign, nil))
		} else {
			g.AppendToBlock(e.From, assign)
		}
		g.Retarget(e, redirector)
	}

	for _, target := range targets {
		cond := g.ctx.Equals(g.ctx.Var(selector), g.ctx.Int(values[target]))
		g.CreateEdge(redirector, target, cond)
	}

	return redirector
}

// AppendToBlock appends a statement to a block's body, normalizing the
// body to a sequence container first.
func (g *Graph) AppendToBlock(b *Block, stmt *ast.Stmt) {
	g.NormalizeBlockStmt(b)
	b.Stmt.Append(stmt)
}

// NormalizeBlockStmt makes sure the block body is a sequence that can
// be appended to later: a nil body becomes an empty sequence, any
// other statement is wrapped.
func (g *Graph) NormalizeBlockStmt(b *Block) {
	switch {
	case b.Stmt == nil:
		b.Stmt = g.ctx.Sequence()
	case b.Stmt.Kind != ast.StmtSequence:
		b.Stmt = g.ctx.Sequence(b.Stmt)
	}
}

// CheckEdgeConsistency verifies that every edge appears in exactly one
// successor list and exactly one predecessor list, and that those lists
// agree with the edge endpoints. It panics on violation.
func (g *Graph) CheckEdgeConsistency() {
	for _, b := range g.Blocks {
		for _, e := range b.Succs {
			if e.From != b {
				panic(fmt.Sprintf("cfa: edge %s->%s listed in succs of %s", e.From, e.To, b))
			}
			if countEdge(e.To.Preds, e) != 1 {
				panic(fmt.Sprintf("cfa: edge %s->%s not mirrored in preds of %s", e.From, e.To, e.To))
			}
		}
		for _, e := range b.Preds {
			if e.To != b {
				panic(fmt.Sprintf("cfa: edge %s->%s listed in preds of %s", e.From, e.To, b))
			}
			if countEdge(e.From.Succs, e) != 1 {
				panic(fmt.Sprintf("cfa: edge %s->%s not mirrored in succs of %s", e.From, e.To, e.From))
			}
		}
	}
}

func countEdge(list []*Edge, edge *Edge) int {
	n := 0
	for _, e := range list {
		if e == edge {
			n++
		}
	}
	return n
}
