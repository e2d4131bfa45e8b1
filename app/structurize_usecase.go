package app

import (
	"context"

	"github.com/XVilka/fcd/domain"
	"github.com/XVilka/fcd/internal/ast"
	"github.com/XVilka/fcd/service"
)

// StructurizeUseCase wires the module driver to its collaborators and
// renders the result.
type StructurizeUseCase struct {
	service domain.StructurizeService
	writer  domain.OutputWriter
}

// NewStructurizeUseCase builds the default use case: file resolution
// by glob, progress through the given reporter, and the standard clean-up passes over
// the emitted functions.
func NewStructurizeUseCase(progress domain.ProgressReporter) *StructurizeUseCase {
	passes := ast.NewPassRegistry()
	passes.Register(ast.FlattenSequencesPass())
	passes.Register(ast.PruneEmptyPass())

	return &StructurizeUseCase{
		service: service.NewStructurizeService(service.NewModuleFileResolver(), progress, passes),
		writer:  service.NewOutputWriter(),
	}
}

// NewStructurizeUseCaseWith allows injecting collaborators, mainly for
// tests.
func NewStructurizeUseCaseWith(svc domain.StructurizeService, writer domain.OutputWriter) *StructurizeUseCase {
	return &StructurizeUseCase{service: svc, writer: writer}
}

// Execute runs structurization and writes the rendered output.
func (uc *StructurizeUseCase) Execute(ctx context.Context, req *domain.StructurizeRequest) error {
	if len(req.Paths) == 0 {
		return domain.NewInvalidInputError("no input paths provided", nil)
	}
	response, err := uc.service.Structurize(ctx, req)
	if err != nil {
		return err
	}
	return uc.writer.Write(req.OutputWriter, response, req.OutputFormat)
}
