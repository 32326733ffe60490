package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/course-creator/cmd/course-creator/ui"
	"github.com/spherical-ai/course-creator/internal/domain"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <file|->",
	Short: "Render a text or markdown file to PDF",
	Long: `Render existing course text to PDF with the same layout used for generated
courses. Reads standard input when the argument is "-". No credentials needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "PDF output path (defaults to <input>.pdf)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	input := args[0]
	var data []byte
	if input == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return domain.IOError(fmt.Sprintf("read %s", input), err)
	}

	output := exportOutput
	if output == "" {
		output = cfg.Export.Filename
		if input != "-" {
			output = strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf"
		}
	}

	if input != "-" && samePath(input, output) {
		return domain.ValidationError(fmt.Sprintf("output %s would overwrite the input file", output), nil)
	}

	pages, err := writeDocument(cfg, string(data), output)
	if err != nil {
		return err
	}

	ui.Success("Saved %s (%d pages)", output, pages)
	return nil
}

// samePath reports whether a and b name the same file.
func samePath(a, b string) bool {
	if ai, err := os.Stat(a); err == nil {
		if bi, err := os.Stat(b); err == nil {
			return os.SameFile(ai, bi)
		}
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
