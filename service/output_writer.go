package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/XVilka/fcd/domain"
)

// OutputWriterImpl renders structurization responses.
type OutputWriterImpl struct{}

// NewOutputWriter creates an output writer.
func NewOutputWriter() *OutputWriterImpl {
	return &OutputWriterImpl{}
}

// Write implements domain.OutputWriter.
func (w *OutputWriterImpl) Write(out io.Writer, response *domain.StructurizeResponse, format domain.OutputFormat) error {
	switch format {
	case domain.OutputFormatText, "":
		return w.writeText(out, response)
	case domain.OutputFormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response); err != nil {
			return domain.NewOutputError("failed to encode JSON output", err)
		}
		return nil
	case domain.OutputFormatYAML:
		data, err := yaml.Marshal(response)
		if err != nil {
			return domain.NewOutputError("failed to encode YAML output", err)
		}
		_, err = out.Write(data)
		return err
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (w *OutputWriterImpl) writeText(out io.Writer, response *domain.StructurizeResponse) error {
	for _, m := range response.Modules {
		fmt.Fprintf(out, "module %s (%s)\n", m.Module, m.FilePath)
		fmt.Fprintln(out, strings.Repeat("=", 60))
		for _, fn := range m.Functions {
			fmt.Fprintln(out, fn.Pseudo)
		}
		if m.SkippedPrototypes > 0 {
			fmt.Fprintf(out, "// %d prototype(s) skipped\n", m.SkippedPrototypes)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%d function(s) structurized, %d prototype(s) skipped\n",
		response.TotalFunctions, response.TotalSkipped)
	return nil
}
