package cfa

import "github.com/XVilka/fcd/internal/ast"

// StructurizeFunction runs the whole back-end pipeline for one
// function graph: cycle normalization, region analysis, and bottom-up
// structurization. The returned statement is the function body; the
// graph is consumed in the process.
func StructurizeFunction(g *Graph) *ast.Stmt {
	g.NormalizeCycles()
	root := AnalyzeRegions(g)
	return NewStructurizer(g).Reduce(root)
}
