package ast

// Pass is a transformation applied to an emitted function node after
// structurization. Passes run in registration order.
type Pass struct {
	Name string
	Run  func(*Context, *Function)
}

// PassRegistry holds an ordered list of passes.
type PassRegistry struct {
	passes []Pass
}

// NewPassRegistry creates an empty pass registry.
func NewPassRegistry() *PassRegistry {
	return &PassRegistry{}
}

// Register appends a pass to the registry.
func (r *PassRegistry) Register(p Pass) {
	r.passes = append(r.passes, p)
}

// Passes returns the registered passes in registration order.
func (r *PassRegistry) Passes() []Pass {
	return r.passes
}

// RunAll applies every registered pass to the function, in order.
func (r *PassRegistry) RunAll(ctx *Context, fn *Function) {
	for _, p := range r.passes {
		p.Run(ctx, fn)
	}
}

// FlattenSequencesPass splices sequences nested directly inside other
// sequences into their parent, so the printed output reads as one flat
// statement list.
func FlattenSequencesPass() Pass {
	return Pass{
		Name: "flatten-sequences",
		Run: func(_ *Context, fn *Function) {
			fn.Body.Walk(func(s *Stmt) bool {
				if s.Kind == StmtSequence {
					s.Stmts = flattenInto(nil, s.Stmts)
				}
				return true
			})
		},
	}
}

func flattenInto(dst []*Stmt, src []*Stmt) []*Stmt {
	for _, child := range src {
		if child.Kind == StmtSequence {
			dst = flattenInto(dst, child.Stmts)
			continue
		}
		dst = append(dst, child)
	}
	return dst
}

// PruneEmptyPass removes empty sequences and conditionals whose body
// became empty, left behind by blocks that carried no statements.
func PruneEmptyPass() Pass {
	return Pass{
		Name: "prune-empty",
		Run: func(_ *Context, fn *Function) {
			fn.Body.Walk(func(s *Stmt) bool {
				if s.Kind != StmtSequence {
					return true
				}
				kept := s.Stmts[:0]
				for _, child := range s.Stmts {
					if isEmptyStmt(child) {
						continue
					}
					kept = append(kept, child)
				}
				s.Stmts = kept
				return true
			})
		},
	}
}

func isEmptyStmt(s *Stmt) bool {
	switch s.Kind {
	case StmtSequence:
		for _, child := range s.Stmts {
			if !isEmptyStmt(child) {
				return false
			}
		}
		return true
	case StmtIfElse:
		return (s.Then == nil || isEmptyStmt(s.Then)) && (s.Else == nil || isEmptyStmt(s.Else))
	default:
		return false
	}
}
