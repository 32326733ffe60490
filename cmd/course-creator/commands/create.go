package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/course-creator/cmd/course-creator/ui"
	"github.com/spherical-ai/course-creator/internal/config"
	"github.com/spherical-ai/course-creator/internal/domain"
	"github.com/spherical-ai/course-creator/internal/pipeline"
)

var createOutput string

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Interactively create a course",
	Long: `Start an interactive session: enter a title and description, review and
revise the generated outline, generate the full course and save it as PDF.`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createOutput, "output", "o", "", "PDF output path (defaults to the configured export filename)")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	spin := ui.NewSpinner("Working...")
	controller, client, err := newController(cfg, logger, pipeline.WithStepHook(func(step domain.Step) {
		spin.UpdateMessage(stepLabel(step) + "...")
	}))
	if err != nil {
		return err
	}

	output := createOutput
	if output == "" {
		output = cfg.Export.Filename
	}

	fmt.Println()
	ui.Section("Course Creator")
	ui.Info("Model: %s", client.Model())

	s := &createSession{
		cfg:        cfg,
		controller: controller,
		spin:       spin,
		output:     output,
		state:      controller.Reset(),
	}
	return s.loop(cmd.Context())
}

// createSession holds the interactive state for one CLI run.
type createSession struct {
	cfg        *config.Config
	controller *pipeline.Controller
	spin       *ui.Spinner
	output     string
	state      domain.SessionState
}

// menuEntry is one selectable line in the action menu.
type menuEntry struct {
	label  string
	action domain.Action
	quit   bool
}

func (s *createSession) loop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		entries := s.menu()
		labels := make([]string, len(entries))
		for i, e := range entries {
			labels[i] = e.label
		}

		idx, err := ui.Choose("What would you like to do?", labels)
		if err != nil {
			return fmt.Errorf("read choice: %w", err)
		}

		entry := entries[idx]
		if entry.quit {
			ui.Info("Goodbye!")
			return nil
		}

		if err := s.perform(ctx, entry.action); err != nil {
			if !recoverable(err) {
				return err
			}
			ui.Error("%v", err)
		}
	}
}

// menu lists the actions the current state permits, plus quit.
func (s *createSession) menu() []menuEntry {
	var entries []menuEntry
	for _, a := range s.state.Actions() {
		switch a {
		case domain.ActionSubmit:
			label := "Generate a course outline"
			if s.state.Stage() != domain.StageEmpty {
				label = "Start over with a new course"
			}
			entries = append(entries, menuEntry{label: label, action: a})
		case domain.ActionEdit:
			entries = append(entries, menuEntry{label: "Modify the outline", action: a})
		case domain.ActionExpand:
			entries = append(entries, menuEntry{label: "Generate the full course", action: a})
		case domain.ActionDownload:
			entries = append(entries, menuEntry{label: "Save course as PDF", action: a})
		}
	}
	return append(entries, menuEntry{label: "Quit", quit: true})
}

func (s *createSession) perform(ctx context.Context, action domain.Action) error {
	switch action {
	case domain.ActionSubmit:
		return s.submit(ctx)
	case domain.ActionEdit:
		return s.edit()
	case domain.ActionExpand:
		return s.expand(ctx)
	case domain.ActionDownload:
		return s.download()
	}
	return nil
}

func (s *createSession) submit(ctx context.Context) error {
	if s.state.Stage() != domain.StageEmpty {
		ok, err := ui.Confirm("Discard the current outline and course?", false)
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if !ok {
			return nil
		}
	}

	title, err := ui.Prompt("Course title")
	if err != nil {
		return fmt.Errorf("read title: %w", err)
	}
	description, err := ui.Prompt("Course description")
	if err != nil {
		return fmt.Errorf("read description: %w", err)
	}

	s.spin.Start()
	next, err := s.controller.Submit(ctx, s.state, domain.CourseRequest{Title: title, Description: description})
	s.spin.Stop()
	if err != nil {
		return err
	}

	s.state = next
	ui.Section("Course Outline")
	ui.Document(s.state.OutlineText(), s.state.Outline.Failed)
	return nil
}

func (s *createSession) edit() error {
	text, err := ui.EditText("Enter the revised outline", s.state.OutlineText())
	if err != nil {
		return fmt.Errorf("edit outline: %w", err)
	}

	next, err := s.controller.Edit(s.state, text)
	if err != nil {
		return err
	}

	s.state = next
	ui.Success("Outline updated")
	if ui.Verbose() {
		ui.Section("Course Outline")
		ui.Document(s.state.OutlineText(), false)
	}
	return nil
}

func (s *createSession) expand(ctx context.Context) error {
	s.spin.Start()
	next, err := s.controller.Expand(ctx, s.state)
	s.spin.Stop()
	if err != nil {
		return err
	}

	s.state = next
	ui.Section("Full Course")
	ui.Document(s.state.CourseText(), s.state.Course.Failed)
	if s.state.ExportProblem != "" {
		ui.Error("Failed to generate PDF: %s", s.state.ExportProblem)
	}
	return nil
}

func (s *createSession) download() error {
	if s.state.Course.Failed {
		ui.Warning("The course holds a generation error; the PDF will contain that message")
	}

	path, err := ui.PromptWithDefault("Save to", s.output)
	if err != nil {
		return fmt.Errorf("read output path: %w", err)
	}

	pages, err := writeDocument(s.cfg, s.state.CourseText(), path)
	if err != nil {
		return err
	}
	ui.Success("Saved %s (%d pages)", path, pages)
	return nil
}

// recoverable reports whether the loop can carry on after err.
func recoverable(err error) bool {
	for _, t := range []domain.ErrorType{
		domain.ErrorTypeValidation,
		domain.ErrorTypeState,
		domain.ErrorTypeExport,
		domain.ErrorTypeIO,
	} {
		if domain.IsType(err, t) {
			return true
		}
	}
	return false
}
