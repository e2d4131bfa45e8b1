package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/XVilka/fcd/domain"
	"github.com/XVilka/fcd/internal/ast"
	"github.com/XVilka/fcd/internal/cfa"
)

// GraphBuilder converts a function description into a pre-AST control
// flow graph whose nodes live in the given AST context.
type GraphBuilder struct {
	ctx *ast.Context
}

// NewGraphBuilder creates a builder over the context.
func NewGraphBuilder(ctx *ast.Context) *GraphBuilder {
	return &GraphBuilder{ctx: ctx}
}

// Build constructs the graph for a validated function description.
// The entry block is created first so it becomes the graph entry.
func (gb *GraphBuilder) Build(fd *FunctionDesc) (*cfa.Graph, error) {
	g := cfa.NewGraph(gb.ctx)

	entry := fd.Entry
	if entry == "" && len(fd.Blocks) > 0 {
		entry = fd.Blocks[0].Name
	}

	blocks := make(map[string]*cfa.Block, len(fd.Blocks))
	order := make([]BlockDesc, 0, len(fd.Blocks))
	for _, bd := range fd.Blocks {
		if bd.Name == entry {
			order = append([]BlockDesc{bd}, order...)
		} else {
			order = append(order, bd)
		}
	}
	for _, bd := range order {
		b := g.CreateBlock(bd.Name)
		blocks[bd.Name] = b
		for _, raw := range bd.Stmts {
			g.AppendToBlock(b, gb.parseStmt(raw))
		}
	}

	for _, ed := range fd.Edges {
		cond, err := gb.ParseCond(ed.Cond)
		if err != nil {
			return nil, domain.NewParseError(fmt.Sprintf("%s: edge %s->%s", fd.Name, ed.From, ed.To), err)
		}
		g.CreateEdge(blocks[ed.From], blocks[ed.To], cond)
	}

	return g, nil
}

// parseStmt turns a serialized statement into an AST node. Assignments
// use the "target := value" form; anything else is carried through as
// an opaque lifted operation.
func (gb *GraphBuilder) parseStmt(raw string) *ast.Stmt {
	if target, value, found := strings.Cut(raw, ":="); found {
		return gb.ctx.Assign(strings.TrimSpace(target), gb.parseOperand(strings.TrimSpace(value)))
	}
	return gb.ctx.ExprStmt(gb.ctx.Raw(strings.TrimSpace(raw)))
}

// ParseCond parses the edge condition grammar: "true" or empty, a
// variable, a negated variable, or an equality between operands.
func (gb *GraphBuilder) ParseCond(raw string) (*ast.Expr, error) {
	s := strings.TrimSpace(raw)
	switch {
	case s == "" || s == "true":
		return gb.ctx.True(), nil
	case strings.Contains(s, "=="):
		left, right, _ := strings.Cut(s, "==")
		left, right = strings.TrimSpace(left), strings.TrimSpace(right)
		if left == "" || right == "" {
			return nil, fmt.Errorf("malformed comparison %q", raw)
		}
		return gb.ctx.Equals(gb.parseOperand(left), gb.parseOperand(right)), nil
	case strings.HasPrefix(s, "!"):
		name := strings.TrimSpace(s[1:])
		if !isIdent(name) {
			return nil, fmt.Errorf("malformed negation %q", raw)
		}
		return gb.ctx.Not(gb.ctx.Var(name)), nil
	case isIdent(s):
		return gb.ctx.Var(s), nil
	default:
		return nil, fmt.Errorf("unsupported condition %q", raw)
	}
}

func (gb *GraphBuilder) parseOperand(s string) *ast.Expr {
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return gb.ctx.Int(v)
	}
	if isIdent(s) {
		return gb.ctx.Var(s)
	}
	return gb.ctx.Raw(s)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
