package ast

import (
	"fmt"
	"strings"
)

// ExprKind represents the kind of an expression node
type ExprKind string

const (
	// ExprTrue is the boolean true literal
	ExprTrue ExprKind = "True"
	// ExprVar is a reference to a named value
	ExprVar ExprKind = "Var"
	// ExprInt is an integer literal
	ExprInt ExprKind = "Int"
	// ExprNary is an n-ary short-circuit boolean expression
	ExprNary ExprKind = "Nary"
	// ExprNot is a boolean negation
	ExprNot ExprKind = "Not"
	// ExprCompare is a value comparison
	ExprCompare ExprKind = "Compare"
	// ExprRaw is an opaque lifted operation carried through verbatim
	ExprRaw ExprKind = "Raw"
)

// BoolOp is the operator of an n-ary boolean expression
type BoolOp string

const (
	OpAnd BoolOp = "&&"
	OpOr  BoolOp = "||"
)

// CompareOp is the operator of a comparison expression
type CompareOp string

const (
	CmpEq CompareOp = "=="
)

// Expr represents an expression node. Expressions are immutable after
// construction and are owned by the Context that created them.
type Expr struct {
	Kind     ExprKind
	Op       BoolOp    // for ExprNary
	Cmp      CompareOp // for ExprCompare
	Operands []*Expr   // for ExprNary
	Operand  *Expr     // for ExprNot
	Left     *Expr     // for ExprCompare
	Right    *Expr     // for ExprCompare
	Name     string    // for ExprVar
	Value    int64     // for ExprInt
	Text     string    // for ExprRaw
}

// IsTrue reports whether the expression is the true literal.
func (e *Expr) IsTrue() bool {
	return e != nil && e.Kind == ExprTrue
}

// String returns a compact textual rendering of the expression.
func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ExprTrue:
		return "true"
	case ExprVar:
		return e.Name
	case ExprInt:
		return fmt.Sprintf("%d", e.Value)
	case ExprNot:
		return "!" + parenthesize(e.Operand)
	case ExprCompare:
		return fmt.Sprintf("%s %s %s", parenthesize(e.Left), e.Cmp, parenthesize(e.Right))
	case ExprNary:
		parts := make([]string, 0, len(e.Operands))
		for _, op := range e.Operands {
			parts = append(parts, parenthesize(op))
		}
		return strings.Join(parts, " "+string(e.Op)+" ")
	case ExprRaw:
		return e.Text
	default:
		return string(e.Kind)
	}
}

func parenthesize(e *Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ExprNary, ExprCompare:
		return "(" + e.String() + ")"
	default:
		return e.String()
	}
}

// StmtKind represents the kind of a statement node
type StmtKind string

const (
	// StmtSequence is an ordered list of statements
	StmtSequence StmtKind = "Sequence"
	// StmtIfElse is a conditional statement
	StmtIfElse StmtKind = "IfElse"
	// StmtLoop is a loop statement
	StmtLoop StmtKind = "Loop"
	// StmtBreak is a conditional break out of the innermost loop
	StmtBreak StmtKind = "Break"
	// StmtAssign is an assignment of a value to a named target
	StmtAssign StmtKind = "Assign"
	// StmtExpr is an expression evaluated for effect
	StmtExpr StmtKind = "Expr"
)

// LoopKind distinguishes where the loop condition is evaluated
type LoopKind string

const (
	LoopPreTested  LoopKind = "PreTested"
	LoopPostTested LoopKind = "PostTested"
	LoopEndless    LoopKind = "Endless"
)

// Stmt represents a statement node. Statements are owned by the Context
// that created them; sequences are mutable by append.
type Stmt struct {
	Kind   StmtKind
	Stmts  []*Stmt  // for StmtSequence
	Cond   *Expr    // for StmtIfElse, StmtLoop, StmtBreak
	Then   *Stmt    // for StmtIfElse
	Else   *Stmt    // for StmtIfElse
	Loop   LoopKind // for StmtLoop
	Body   *Stmt    // for StmtLoop
	Target string   // for StmtAssign
	Value  *Expr    // for StmtAssign and StmtExpr
}

// Append adds a statement to the end of a sequence.
func (s *Stmt) Append(child *Stmt) {
	if s.Kind != StmtSequence {
		panic("ast: Append on non-sequence statement")
	}
	if child != nil {
		s.Stmts = append(s.Stmts, child)
	}
}

// Walk traverses the statement tree in depth-first order. The visitor
// returns false to skip the children of the current statement.
func (s *Stmt) Walk(visitor func(*Stmt) bool) {
	if s == nil || !visitor(s) {
		return
	}
	for _, child := range s.Stmts {
		child.Walk(visitor)
	}
	if s.Then != nil {
		s.Then.Walk(visitor)
	}
	if s.Else != nil {
		s.Else.Walk(visitor)
	}
	if s.Body != nil {
		s.Body.Walk(visitor)
	}
}

// Context constructs and owns statement and expression nodes. All nodes
// produced by one structurization run share a single Context; nothing
// is ever freed individually.
type Context struct {
	stmts    []*Stmt
	exprs    []*Expr
	trueExpr *Expr
}

// NewContext creates a new AST context.
func NewContext() *Context {
	ctx := &Context{}
	ctx.trueExpr = ctx.newExpr(&Expr{Kind: ExprTrue})
	return ctx
}

func (c *Context) newExpr(e *Expr) *Expr {
	c.exprs = append(c.exprs, e)
	return e
}

func (c *Context) newStmt(s *Stmt) *Stmt {
	c.stmts = append(c.stmts, s)
	return s
}

// True returns the shared true literal.
func (c *Context) True() *Expr {
	return c.trueExpr
}

// Var creates a reference to a named value.
func (c *Context) Var(name string) *Expr {
	return c.newExpr(&Expr{Kind: ExprVar, Name: name})
}

// Int creates an integer literal.
func (c *Context) Int(value int64) *Expr {
	return c.newExpr(&Expr{Kind: ExprInt, Value: value})
}

// Raw creates an opaque expression that prints as the given text.
func (c *Context) Raw(text string) *Expr {
	return c.newExpr(&Expr{Kind: ExprRaw, Text: text})
}

// Not creates a boolean negation.
func (c *Context) Not(operand *Expr) *Expr {
	return c.newExpr(&Expr{Kind: ExprNot, Operand: operand})
}

// Nary creates a short-circuit boolean expression. Operands that are
// themselves n-ary nodes with the same operator are spliced in place so
// chained construction yields a flat operand list.
func (c *Context) Nary(op BoolOp, operands ...*Expr) *Expr {
	flat := make([]*Expr, 0, len(operands))
	for _, operand := range operands {
		if operand == nil {
			panic("ast: nil operand in Nary")
		}
		if operand.Kind == ExprNary && operand.Op == op {
			flat = append(flat, operand.Operands...)
			continue
		}
		flat = append(flat, operand)
	}
	return c.newExpr(&Expr{Kind: ExprNary, Op: op, Operands: flat})
}

// Equals creates an equality comparison.
func (c *Context) Equals(left, right *Expr) *Expr {
	return c.newExpr(&Expr{Kind: ExprCompare, Cmp: CmpEq, Left: left, Right: right})
}

// Sequence creates a sequence statement from the given children.
func (c *Context) Sequence(stmts ...*Stmt) *Stmt {
	seq := c.newStmt(&Stmt{Kind: StmtSequence})
	for _, s := range stmts {
		seq.Append(s)
	}
	return seq
}

// IfElse creates a conditional statement. elseStmt may be nil.
func (c *Context) IfElse(cond *Expr, then, elseStmt *Stmt) *Stmt {
	if cond == nil {
		panic("ast: nil condition in IfElse")
	}
	return c.newStmt(&Stmt{Kind: StmtIfElse, Cond: cond, Then: then, Else: elseStmt})
}

// Loop creates a loop statement.
func (c *Context) Loop(cond *Expr, kind LoopKind, body *Stmt) *Stmt {
	if cond == nil {
		panic("ast: nil condition in Loop")
	}
	return c.newStmt(&Stmt{Kind: StmtLoop, Cond: cond, Loop: kind, Body: body})
}

// Break creates a conditional break; a true condition makes it
// unconditional.
func (c *Context) Break(cond *Expr) *Stmt {
	if cond == nil {
		panic("ast: nil condition in Break")
	}
	return c.newStmt(&Stmt{Kind: StmtBreak, Cond: cond})
}

// Assign creates an assignment statement.
func (c *Context) Assign(target string, value *Expr) *Stmt {
	return c.newStmt(&Stmt{Kind: StmtAssign, Target: target, Value: value})
}

// ExprStmt creates an expression statement.
func (c *Context) ExprStmt(value *Expr) *Stmt {
	return c.newStmt(&Stmt{Kind: StmtExpr, Value: value})
}

// NodeCount returns the number of nodes owned by the context.
func (c *Context) NodeCount() int {
	return len(c.stmts) + len(c.exprs)
}

// Function is an emitted function node: a structured body together with
// the metadata the module driver sorts and prints by.
type Function struct {
	Name           string
	VirtualAddress uint64
	Body           *Stmt
}
