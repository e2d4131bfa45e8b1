package mcp

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/XVilka/fcd/app"
	"github.com/XVilka/fcd/domain"
	"github.com/XVilka/fcd/service"
)

// HandleStructurizeModule handles the structurize_module tool
func HandleStructurizeModule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}

	req := domain.DefaultStructurizeRequest()
	req.Paths = []string{path}
	req.ShowProgress = false
	if format, ok := args["format"].(string); ok && format != "" {
		req.OutputFormat = domain.OutputFormat(format)
	}
	if sortBy, ok := args["sort"].(string); ok && sortBy != "" {
		req.SortBy = domain.SortCriteria(sortBy)
	}

	var buf bytes.Buffer
	req.OutputWriter = &buf

	uc := app.NewStructurizeUseCase(service.NoopProgressReporter{})
	if err := uc.Execute(ctx, req); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("structurization failed: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// HandleListFunctions handles the list_functions tool
func HandleListFunctions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}

	desc, err := service.NewModuleLoader().LoadModuleFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load module: %v", err)), nil
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "module %s: %d function(s)\n", desc.Module, len(desc.Functions))
	for _, fn := range desc.Functions {
		kind := "function"
		if fn.Prototype {
			kind = "prototype"
		}
		fmt.Fprintf(&buf, "  %#x %s (%s, %d blocks, %d edges)\n",
			fn.VA, fn.Name, kind, len(fn.Blocks), len(fn.Edges))
	}
	return mcp.NewToolResultText(buf.String()), nil
}
