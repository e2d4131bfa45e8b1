package cfa

import (
	"strings"
	"testing"

	"github.com/XVilka/fcd/internal/ast"
)

// gspec describes a test graph. Conditions use a tiny grammar: "" or
// "true", a variable, or "!" followed by a variable. Each block body
// carries an opaque marker statement named after the block, so
// executions can be compared by the trace of visited blocks.
type gspec struct {
	blocks []string
	edges  []espec
}

type espec struct {
	from, to, cond string
}

func buildTestGraph(t *testing.T, ctx *ast.Context, spec gspec) (*Graph, map[string]*Block) {
	t.Helper()
	g := NewGraph(ctx)
	blocks := make(map[string]*Block, len(spec.blocks))
	for _, name := range spec.blocks {
		b := g.CreateBlock(name)
		b.Stmt = ctx.Sequence(ctx.ExprStmt(ctx.Raw(name)))
		blocks[name] = b
	}
	for _, e := range spec.edges {
		from, ok := blocks[e.from]
		if !ok {
			t.Fatalf("edge from unknown block %q", e.from)
		}
		to, ok := blocks[e.to]
		if !ok {
			t.Fatalf("edge to unknown block %q", e.to)
		}
		g.CreateEdge(from, to, condExpr(ctx, e.cond))
	}
	return g, blocks
}

func condExpr(ctx *ast.Context, s string) *ast.Expr {
	switch {
	case s == "" || s == "true":
		return ctx.True()
	case strings.HasPrefix(s, "!"):
		return ctx.Not(ctx.Var(s[1:]))
	default:
		return ctx.Var(s)
	}
}

// evalExpr evaluates a boolean or integer expression under the given
// environment. Unbound variables evaluate to zero.
func evalExpr(e *ast.Expr, env map[string]int64) int64 {
	switch e.Kind {
	case ast.ExprTrue:
		return 1
	case ast.ExprVar:
		return env[e.Name]
	case ast.ExprInt:
		return e.Value
	case ast.ExprNot:
		if evalExpr(e.Operand, env) != 0 {
			return 0
		}
		return 1
	case ast.ExprCompare:
		if evalExpr(e.Left, env) == evalExpr(e.Right, env) {
			return 1
		}
		return 0
	case ast.ExprNary:
		switch e.Op {
		case ast.OpAnd:
			for _, op := range e.Operands {
				if evalExpr(op, env) == 0 {
					return 0
				}
			}
			return 1
		default: // OpOr
			for _, op := range e.Operands {
				if evalExpr(op, env) != 0 {
					return 1
				}
			}
			return 0
		}
	default:
		return 0
	}
}

// runSpec executes the unstructured graph as a state machine: visit a
// block, take the first successor edge whose condition holds, halt
// when none does. The step budget bounds non-terminating executions.
func runSpec(spec gspec, env map[string]int64, maxSteps int) (trace []string, truncated bool) {
	ctx := ast.NewContext()
	outs := make(map[string][]*ast.Expr)
	targets := make(map[string][]string)
	for _, e := range spec.edges {
		outs[e.from] = append(outs[e.from], condExpr(ctx, e.cond))
		targets[e.from] = append(targets[e.from], e.to)
	}

	cur := spec.blocks[0]
	for step := 0; ; step++ {
		if step >= maxSteps {
			return trace, true
		}
		trace = append(trace, cur)
		next := ""
		for i, cond := range outs[cur] {
			if evalExpr(cond, env) != 0 {
				next = targets[cur][i]
				break
			}
		}
		if next == "" {
			return trace, false
		}
		cur = next
	}
}

// execState interprets a structured statement tree, recording the
// opaque marker statements it passes through.
type execState struct {
	env       map[string]int64
	trace     []string
	truncated bool
	loopCap   int
}

// exec runs a statement and reports whether a break fired.
func (st *execState) exec(s *ast.Stmt) bool {
	if s == nil {
		return false
	}
	switch s.Kind {
	case ast.StmtSequence:
		for _, child := range s.Stmts {
			if st.exec(child) {
				return true
			}
		}
	case ast.StmtExpr:
		if s.Value.Kind == ast.ExprRaw {
			st.trace = append(st.trace, s.Value.Text)
		}
	case ast.StmtAssign:
		st.env[s.Target] = evalExpr(s.Value, st.env)
	case ast.StmtIfElse:
		if evalExpr(s.Cond, st.env) != 0 {
			return st.exec(s.Then)
		}
		return st.exec(s.Else)
	case ast.StmtBreak:
		return evalExpr(s.Cond, st.env) != 0
	case ast.StmtLoop:
		for i := 0; i < st.loopCap; i++ {
			if st.exec(s.Body) {
				return false
			}
		}
		st.truncated = true
	}
	return false
}

// runStructured executes a structured statement tree under the
// environment, collecting the marker trace.
func runStructured(t *testing.T, body *ast.Stmt, env map[string]int64) ([]string, bool) {
	t.Helper()
	st := &execState{env: env, loopCap: 24}
	st.exec(body)
	return st.trace, st.truncated
}

// structurizeSpec builds and structurizes a test graph.
func structurizeSpec(t *testing.T, spec gspec) *ast.Stmt {
	t.Helper()
	ctx := ast.NewContext()
	g, _ := buildTestGraph(t, ctx, spec)
	return StructurizeFunction(g)
}

// checkRoundTrip verifies that the structured tree and the original
// graph visit the same blocks under every valuation of the variables.
// Executions cut short by a bound are compared on their common prefix.
func checkRoundTrip(t *testing.T, spec gspec, vars []string) {
	t.Helper()
	body := structurizeSpec(t, spec)

	for mask := 0; mask < 1<<len(vars); mask++ {
		env := make(map[string]int64, len(vars))
		for i, v := range vars {
			if mask&(1<<i) != 0 {
				env[v] = 1
			}
		}
		want, wantTruncated := runSpec(spec, copyEnv(env), 256)
		got, gotTruncated := runStructured(t, body, copyEnv(env))

		n := len(want)
		if len(got) < n {
			n = len(got)
		}
		for i := 0; i < n; i++ {
			if want[i] != got[i] {
				t.Fatalf("env %v: trace diverges at %d: graph %v vs structured %v", env, i, want, got)
			}
		}
		if !wantTruncated && !gotTruncated && len(want) != len(got) {
			t.Fatalf("env %v: trace length mismatch: graph %v vs structured %v", env, want, got)
		}
	}
}

func copyEnv(env map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
