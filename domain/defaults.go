package domain

// Default values shared by the configuration layer and the CLI. They
// are defined here so every layer agrees on a single source of truth.
const (
	// DefaultOutputFormat is used when no format flag is given
	DefaultOutputFormat = OutputFormatText

	// DefaultSortCriteria orders functions by (virtual address, name)
	DefaultSortCriteria = SortByAddress

	// DefaultModulePattern matches module description files
	DefaultModulePattern = "**/*.fcd.yaml"

	// DefaultShowProgress enables progress output on interactive runs
	DefaultShowProgress = true
)

// DefaultStructurizeRequest returns a request populated with defaults
func DefaultStructurizeRequest() *StructurizeRequest {
	return &StructurizeRequest{
		OutputFormat: DefaultOutputFormat,
		SortBy:       DefaultSortCriteria,
		ShowProgress: DefaultShowProgress,
	}
}
