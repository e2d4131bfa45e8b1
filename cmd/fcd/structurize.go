package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/XVilka/fcd/app"
	"github.com/XVilka/fcd/domain"
	"github.com/XVilka/fcd/internal/config"
	"github.com/XVilka/fcd/service"
)

// StructurizeCommand holds the flags of the structurize subcommand
type StructurizeCommand struct {
	json       bool
	yaml       bool
	sortBy     string
	configFile string
	noProgress bool
}

// NewStructurizeCmd creates the structurize command
func NewStructurizeCmd() *cobra.Command {
	c := &StructurizeCommand{}

	cmd := &cobra.Command{
		Use:   "structurize [paths...]",
		Short: "Recover structured pseudo-code from lifted module files",
		Long: `Structurize reads module description files produced by the
lifting front-end and emits structured pseudo-code for every function:
cycles are normalized to single-entry single-exit form, regions are
reduced bottom-up, and control flow is expressed with sequences,
conditionals, loops and breaks only.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&c.json, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&c.yaml, "yaml", false, "Output as YAML")
	cmd.Flags().StringVar(&c.sortBy, "sort", "", "Sort functions by: address, name")
	cmd.Flags().StringVarP(&c.configFile, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVar(&c.noProgress, "no-progress", false, "Disable progress output")

	return cmd
}

func (c *StructurizeCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(c.configFile)
	if err != nil {
		return err
	}

	req := cfg.ToRequest()
	req.Paths = args
	req.OutputWriter = os.Stdout

	if c.json {
		req.OutputFormat = domain.OutputFormatJSON
	}
	if c.yaml {
		req.OutputFormat = domain.OutputFormatYAML
	}
	if c.sortBy != "" {
		req.SortBy = domain.SortCriteria(c.sortBy)
	}
	if c.noProgress {
		req.ShowProgress = false
	}

	var progress domain.ProgressReporter = service.NoopProgressReporter{}
	if req.ShowProgress {
		progress = service.NewProgressReporter()
	}

	uc := app.NewStructurizeUseCase(progress)
	return uc.Execute(cmd.Context(), req)
}
