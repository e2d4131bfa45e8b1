package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextExpressions(t *testing.T) {
	ctx := NewContext()

	t.Run("TrueIsShared", func(t *testing.T) {
		assert.Same(t, ctx.True(), ctx.True())
		assert.True(t, ctx.True().IsTrue())
		assert.False(t, ctx.Var("p").IsTrue())
	})

	t.Run("NaryFlattensSameOperator", func(t *testing.T) {
		p, q, r := ctx.Var("p"), ctx.Var("q"), ctx.Var("r")
		inner := ctx.Nary(OpOr, p, q)
		outer := ctx.Nary(OpOr, inner, r)
		require.Len(t, outer.Operands, 3)

		mixed := ctx.Nary(OpAnd, inner, r)
		require.Len(t, mixed.Operands, 2, "different operator must not splice")
	})

	t.Run("String", func(t *testing.T) {
		p, q := ctx.Var("p"), ctx.Var("q")
		assert.Equal(t, "true", ctx.True().String())
		assert.Equal(t, "!p", ctx.Not(p).String())
		assert.Equal(t, "p && q", ctx.Nary(OpAnd, p, q).String())
		assert.Equal(t, "sel0 == 1", ctx.Equals(ctx.Var("sel0"), ctx.Int(1)).String())
	})
}

func TestContextStatements(t *testing.T) {
	ctx := NewContext()

	t.Run("SequenceAppend", func(t *testing.T) {
		seq := ctx.Sequence()
		seq.Append(ctx.Assign("x", ctx.Int(1)))
		seq.Append(nil)
		require.Len(t, seq.Stmts, 1)
	})

	t.Run("AppendToNonSequencePanics", func(t *testing.T) {
		assert.Panics(t, func() {
			ctx.Break(ctx.True()).Append(ctx.Sequence())
		})
	})

	t.Run("NilConditionPanics", func(t *testing.T) {
		assert.Panics(t, func() { ctx.IfElse(nil, ctx.Sequence(), nil) })
		assert.Panics(t, func() { ctx.Break(nil) })
		assert.Panics(t, func() { ctx.Loop(nil, LoopPreTested, ctx.Sequence()) })
	})

	t.Run("Walk", func(t *testing.T) {
		body := ctx.Sequence(
			ctx.Loop(ctx.True(), LoopPreTested, ctx.Sequence(
				ctx.IfElse(ctx.Var("p"), ctx.Break(ctx.True()), nil),
			)),
		)
		var kinds []StmtKind
		body.Walk(func(s *Stmt) bool {
			kinds = append(kinds, s.Kind)
			return true
		})
		assert.Equal(t, []StmtKind{StmtSequence, StmtLoop, StmtSequence, StmtIfElse, StmtBreak}, kinds)
	})
}

func TestPrinter(t *testing.T) {
	ctx := NewContext()
	p := NewPrinter()

	t.Run("IfElse", func(t *testing.T) {
		s := ctx.IfElse(ctx.Var("p"), ctx.Sequence(ctx.Assign("x", ctx.Int(1))), nil)
		assert.Equal(t, "if p {\n    x = 1\n}\n", p.Print(s))
	})

	t.Run("LoopWithBreak", func(t *testing.T) {
		s := ctx.Loop(ctx.True(), LoopPreTested, ctx.Sequence(
			ctx.ExprStmt(ctx.Raw("step()")),
			ctx.Break(ctx.Not(ctx.Var("p"))),
		))
		want := "while true {\n    step()\n    if !p {\n        break\n    }\n}\n"
		assert.Equal(t, want, p.Print(s))
	})

	t.Run("UnconditionalBreak", func(t *testing.T) {
		assert.Equal(t, "break\n", p.Print(ctx.Break(ctx.True())))
	})

	t.Run("Function", func(t *testing.T) {
		fn := &Function{Name: "f", VirtualAddress: 0x401000, Body: ctx.Sequence()}
		out := p.PrintFunction(fn)
		assert.Contains(t, out, "// 0x401000")
		assert.Contains(t, out, "func f() {")
	})
}

func TestPasses(t *testing.T) {
	t.Run("FlattenSequences", func(t *testing.T) {
		ctx := NewContext()
		inner := ctx.Sequence(ctx.Assign("a", ctx.Int(1)), ctx.Assign("b", ctx.Int(2)))
		body := ctx.Sequence(inner, ctx.Assign("c", ctx.Int(3)))
		fn := &Function{Name: "f", Body: body}

		FlattenSequencesPass().Run(ctx, fn)
		require.Len(t, fn.Body.Stmts, 3)
		for _, s := range fn.Body.Stmts {
			assert.Equal(t, StmtAssign, s.Kind)
		}
	})

	t.Run("PruneEmpty", func(t *testing.T) {
		ctx := NewContext()
		body := ctx.Sequence(
			ctx.Sequence(),
			ctx.IfElse(ctx.Var("p"), ctx.Sequence(), nil),
			ctx.Assign("x", ctx.Int(1)),
		)
		fn := &Function{Name: "f", Body: body}

		PruneEmptyPass().Run(ctx, fn)
		require.Len(t, fn.Body.Stmts, 1)
		assert.Equal(t, StmtAssign, fn.Body.Stmts[0].Kind)
	})

	t.Run("RegistrationOrder", func(t *testing.T) {
		ctx := NewContext()
		reg := NewPassRegistry()
		var order []string
		for _, name := range []string{"first", "second", "third"} {
			name := name
			reg.Register(Pass{Name: name, Run: func(*Context, *Function) {
				order = append(order, name)
			}})
		}
		reg.RunAll(ctx, &Function{Name: "f", Body: ctx.Sequence()})
		assert.Equal(t, []string{"first", "second", "third"}, order)
	})
}
