package cfa

import (
	"fmt"

	"github.com/XVilka/fcd/internal/ast"
)

// Structurizer reduces a region tree bottom-up into one statement.
// It consumes the graph: once Reduce returns, the graph has been
// mutated beyond reuse.
type Structurizer struct {
	g     *Graph
	ctx   *ast.Context
	order *BlockList
}

// NewStructurizer prepares a structurizer over a normalized graph.
func NewStructurizer(g *Graph) *Structurizer {
	return &Structurizer{
		g:     g,
		ctx:   g.Context(),
		order: LinearizeBlocks(g),
	}
}

// Order exposes the current block linearization.
func (s *Structurizer) Order() *BlockList {
	return s.order
}

// Reduce structurizes the whole region tree and returns the function
// body statement.
func (s *Structurizer) Reduce(root *Region) *ast.Stmt {
	stmt, _ := s.reduceRegion(root, s.order.Front(), nil)
	return stmt
}

// reduceRegion collapses every child region of r into a synthetic
// block, then folds the remaining flat range. The range is
// [begin, end) within the linearization; a nil end means the tail of
// the list, which marks the final range of the whole function. The
// returned element is the current first position of the range, which
// moves when a child starting at begin is reduced.
func (s *Structurizer) reduceRegion(r *Region, begin, end *BlockElem) (*ast.Stmt, *BlockElem) {
	for len(r.Children) > 0 {
		child, subBegin := s.nextChild(r, begin, end)
		subEnd := findBlock(subBegin, end, child.Exit, true)
		if subEnd == nil {
			panic(fmt.Sprintf("cfa: exit %s of region %s..%s not locatable in block order", child.Exit, child.Entry, child.Exit))
		}

		childStartsRange := subBegin == begin

		synthetic := s.g.CreateBlock("r_" + child.Entry.String())
		synthetic.Stmt, subBegin = s.reduceRegion(child, subBegin, subEnd)

		elem := s.order.InsertBefore(synthetic, subEnd)
		if childStartsRange {
			begin = elem
		}
		for e := subBegin; e != elem; {
			next := e.Next()
			if !child.Contains(e.Value) {
				panic(fmt.Sprintf("cfa: block %s inside range of region %s..%s but not a member", e.Value, child.Entry, child.Exit))
			}
			s.order.Remove(e)
			e = next
		}

		// The synthetic block takes over every external edge into the
		// entry; back-edges from inside are already expressed by the
		// folded loop and disappear with their source blocks. The
		// surviving edges onto the exit collapse into a single
		// unconditional successor edge.
		for _, e := range append([]*Edge(nil), child.Entry.Preds...) {
			if child.Contains(e.From) {
				s.g.RemoveEdge(e)
			} else {
				s.g.Retarget(e, synthetic)
			}
		}
		for _, e := range append([]*Edge(nil), child.Exit.Preds...) {
			if child.Contains(e.From) {
				s.g.RemoveEdge(e)
			}
		}
		s.g.CreateEdge(synthetic, child.Exit, s.ctx.True())

		r.Adopt(synthetic)
		r.RemoveSubRegion(child)
	}
	return s.foldBasicBlocks(begin, end), begin
}

// nextChild returns the child region whose entry appears first in
// [begin, end), together with that entry's element. Reducing children
// in range order keeps a sibling's exit block alive until every region
// ending on it has been collapsed.
func (s *Structurizer) nextChild(r *Region, begin, end *BlockElem) (*Region, *BlockElem) {
	byEntry := make(map[*Block]*Region, len(r.Children))
	for _, child := range r.Children {
		byEntry[child.Entry] = child
	}
	for e := begin; e != end; e = e.Next() {
		if child, ok := byEntry[e.Value]; ok {
			return child, e
		}
	}
	panic(fmt.Sprintf("cfa: no child region of %s entered within its block range", r.Entry))
}

// foldBasicBlocks flattens a contiguous range of region-free blocks
// into one statement. Each block is guarded by its reaching condition;
// a back-edge within the range turns the result into a pre-tested
// loop whose exits become conditional breaks on the blocks that
// originally branched past the range.
func (s *Structurizer) foldBasicBlocks(begin, end *BlockElem) *ast.Stmt {
	out := s.ctx.Sequence()
	reach := make(map[*Block]*ast.Expr)
	members := make(map[*Block]bool)
	isLoop := false

	for e := begin; e != end; e = e.Next() {
		b := e.Value
		members[b] = true
		for _, se := range b.Succs {
			if members[se.To] {
				isLoop = true
			}
		}

		cond := s.reachingCondition(b, reach)
		if cond == nil {
			panic(fmt.Sprintf("cfa: nil reaching condition for block %s", b))
		}
		s.g.NormalizeBlockStmt(b)
		if cond.IsTrue() {
			out.Append(b.Stmt)
		} else {
			out.Append(s.ctx.IfElse(cond, b.Stmt, nil))
		}
		reach[b] = cond
	}

	if isLoop && end != nil {
		sentinel := end.Value
		for _, e := range sentinel.Preds {
			if members[e.From] {
				s.g.AppendToBlock(e.From, s.ctx.Break(e.Cond))
			}
		}
		return s.ctx.Loop(s.ctx.True(), ast.LoopPreTested, out)
	}
	return out
}

// reachingCondition disjoins, over the block's predecessors in
// insertion order, the predecessor's own reaching condition conjoined
// with the edge condition. A predecessor outside the range reaches the
// block unconditionally, which short-circuits the whole disjunction to
// true. The only simplification applied is the true-conjunct identity.
func (s *Structurizer) reachingCondition(b *Block, reach map[*Block]*ast.Expr) *ast.Expr {
	var cond *ast.Expr
	for _, e := range b.Preds {
		parent, inRange := reach[e.From]
		var contrib *ast.Expr
		switch {
		case !inRange:
			contrib = s.ctx.True()
		case parent.IsTrue():
			contrib = e.Cond
		case e.Cond.IsTrue():
			contrib = parent
		default:
			contrib = s.ctx.Nary(ast.OpAnd, parent, e.Cond)
		}
		if contrib.IsTrue() {
			return s.ctx.True()
		}
		if cond == nil {
			cond = contrib
		} else {
			cond = s.ctx.Nary(ast.OpOr, cond, contrib)
		}
	}
	if cond == nil {
		return s.ctx.True()
	}
	return cond
}

// findBlock scans [begin, end) for the element holding b; with
// inclusive set, the end element itself is also considered, which
// covers a child region sharing its exit with the enclosing range.
func findBlock(begin, end *BlockElem, b *Block, inclusive bool) *BlockElem {
	for e := begin; e != end; e = e.Next() {
		if e.Value == b {
			return e
		}
	}
	if inclusive && end != nil && end.Value == b {
		return end
	}
	return nil
}
