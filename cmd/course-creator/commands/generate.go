package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/course-creator/cmd/course-creator/ui"
	"github.com/spherical-ai/course-creator/internal/domain"
	"github.com/spherical-ai/course-creator/internal/pipeline"
)

var (
	genTitle       string
	genDescription string
	genOutput      string
	genOutlineOut  string
	genEdit        bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a course non-interactively",
	Long: `Run the full pipeline in one go: generate the outline, optionally open it
in $EDITOR for revision, generate the full course and write the PDF.`,
	Example: `  course-creator generate --title "Intro to Go" --description "For backend developers"
  course-creator generate -t "Intro to Go" --edit --outline-out outline.md -o go.pdf`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genTitle, "title", "t", "", "course title (required)")
	generateCmd.Flags().StringVarP(&genDescription, "description", "d", "", "course description")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "PDF output path (defaults to the configured export filename)")
	generateCmd.Flags().StringVar(&genOutlineOut, "outline-out", "", "also write the final outline to this file")
	generateCmd.Flags().BoolVar(&genEdit, "edit", false, "revise the outline in $EDITOR before generating the course")
	_ = generateCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	// One tick per generation call; a failed expansion skips structuring.
	var bar *ui.ProgressBar
	controller, _, err := newController(cfg, logger, pipeline.WithStepHook(func(step domain.Step) {
		bar.Step(stepLabel(step))
	}))
	if err != nil {
		return err
	}
	bar = ui.NewProgressBar(3, "Starting")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	state, err := controller.Submit(ctx, controller.Reset(), domain.CourseRequest{
		Title:       genTitle,
		Description: genDescription,
	})
	if err != nil {
		return err
	}

	if genEdit {
		text, err := ui.EditText("Enter the revised outline", state.OutlineText())
		if err != nil {
			return fmt.Errorf("edit outline: %w", err)
		}
		if state, err = controller.Edit(state, text); err != nil {
			return err
		}
	}

	if genOutlineOut != "" {
		if err := os.WriteFile(genOutlineOut, []byte(state.OutlineText()), 0o644); err != nil {
			return domain.IOError(fmt.Sprintf("write %s", genOutlineOut), err)
		}
	}

	state, err = controller.Expand(ctx, state)
	if err != nil {
		return err
	}
	bar.Finish()

	if state.Outline.Failed {
		ui.Warning("Outline generation failed: %s", state.Outline.Failure.Reason)
	}
	if state.Course.Failed {
		ui.Warning("Course generation failed: %s", state.Course.Failure.Reason)
	}

	output := genOutput
	if output == "" {
		output = cfg.Export.Filename
	}
	pages, err := writeDocument(cfg, state.CourseText(), output)
	if err != nil {
		return err
	}

	ui.Success("Saved %s (%d pages)", output, pages)
	if genOutlineOut != "" {
		ui.Info("Outline written to %s", genOutlineOut)
	}
	return nil
}
