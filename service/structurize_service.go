package service

import (
	"context"
	"sort"

	"github.com/XVilka/fcd/domain"
	"github.com/XVilka/fcd/internal/ast"
	"github.com/XVilka/fcd/internal/cfa"
)

// StructurizeServiceImpl is the module driver: it loads module
// descriptions, structurizes every non-prototype function, sorts the
// emitted function nodes, and runs the registered AST passes over them
// in registration order.
type StructurizeServiceImpl struct {
	resolver domain.ModuleFileResolver
	loader   *ModuleLoader
	progress domain.ProgressReporter
	passes   *ast.PassRegistry
}

// NewStructurizeService creates the module driver.
func NewStructurizeService(resolver domain.ModuleFileResolver, progress domain.ProgressReporter, passes *ast.PassRegistry) *StructurizeServiceImpl {
	if passes == nil {
		passes = ast.NewPassRegistry()
	}
	return &StructurizeServiceImpl{
		resolver: resolver,
		loader:   NewModuleLoader(),
		progress: progress,
		passes:   passes,
	}
}

// emitted pairs a function node with its per-function metrics.
type emitted struct {
	fn     *ast.Function
	result domain.FunctionResult
}

// Structurize implements domain.StructurizeService.
func (s *StructurizeServiceImpl) Structurize(ctx context.Context, req *domain.StructurizeRequest) (*domain.StructurizeResponse, error) {
	files, err := s.resolver.CollectModuleFiles(req.Paths, req.IncludePatterns, req.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	type loaded struct {
		path string
		desc *ModuleDesc
	}
	var modules []loaded
	total := 0
	for _, path := range files {
		desc, err := s.loader.LoadModuleFile(path)
		if err != nil {
			return nil, err
		}
		for _, fd := range desc.Functions {
			if !fd.Prototype {
				total++
			}
		}
		modules = append(modules, loaded{path: path, desc: desc})
	}

	if s.progress != nil && req.ShowProgress {
		s.progress.Start(total)
		defer s.progress.Finish()
	}

	response := &domain.StructurizeResponse{}
	for _, m := range modules {
		moduleResult, err := s.structurizeModule(ctx, m.path, m.desc, req)
		if err != nil {
			return nil, err
		}
		response.Modules = append(response.Modules, *moduleResult)
		response.TotalFunctions += len(moduleResult.Functions)
		response.TotalSkipped += moduleResult.SkippedPrototypes
	}
	return response, nil
}

func (s *StructurizeServiceImpl) structurizeModule(ctx context.Context, path string, desc *ModuleDesc, req *domain.StructurizeRequest) (*domain.ModuleResult, error) {
	astCtx := ast.NewContext()
	builder := NewGraphBuilder(astCtx)
	printer := ast.NewPrinter()

	result := &domain.ModuleResult{Module: desc.Module, FilePath: path}

	var functions []emitted
	for i := range desc.Functions {
		fd := &desc.Functions[i]
		if fd.Prototype {
			result.SkippedPrototypes++
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, domain.NewStructurizeError("structurization cancelled", err)
		}

		g, err := builder.Build(fd)
		if err != nil {
			return nil, err
		}

		blockCount := len(g.Blocks)
		edgeCount := g.EdgeCount()

		g.NormalizeCycles()
		redirectors := len(g.Blocks) - blockCount

		root := cfa.AnalyzeRegions(g)
		body := cfa.NewStructurizer(g).Reduce(root)

		fn := &ast.Function{Name: fd.Name, VirtualAddress: fd.VA, Body: body}
		functions = append(functions, emitted{
			fn: fn,
			result: domain.FunctionResult{
				Name:            fd.Name,
				VirtualAddress:  fd.VA,
				BlockCount:      blockCount,
				EdgeCount:       edgeCount,
				RedirectorCount: redirectors,
			},
		})

		if s.progress != nil && req.ShowProgress {
			s.progress.Step(fd.Name)
		}
	}

	sortEmitted(functions, req.SortBy)

	for _, pass := range s.passes.Passes() {
		for _, e := range functions {
			pass.Run(astCtx, e.fn)
		}
	}

	for _, e := range functions {
		e.result.Pseudo = printer.PrintFunction(e.fn)
		e.result.LoopCount = countLoops(e.fn.Body)
		result.Functions = append(result.Functions, e.result)
	}
	return result, nil
}

// sortEmitted orders the function nodes before the passes run: by
// virtual address then name, or by name alone.
func sortEmitted(functions []emitted, criteria domain.SortCriteria) {
	switch criteria {
	case domain.SortByName:
		sort.SliceStable(functions, func(i, j int) bool {
			return functions[i].fn.Name < functions[j].fn.Name
		})
	default:
		sort.SliceStable(functions, func(i, j int) bool {
			a, b := functions[i].fn, functions[j].fn
			if a.VirtualAddress != b.VirtualAddress {
				return a.VirtualAddress < b.VirtualAddress
			}
			return a.Name < b.Name
		})
	}
}

func countLoops(body *ast.Stmt) int {
	n := 0
	body.Walk(func(s *ast.Stmt) bool {
		if s.Kind == ast.StmtLoop {
			n++
		}
		return true
	})
	return n
}
