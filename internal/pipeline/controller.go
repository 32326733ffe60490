// Package pipeline drives the outline -> edit -> course generation sequence.
//
// Every transition takes the current SessionState by value and returns the
// next one; the controller itself holds no session data, so one controller
// serves any number of independent sessions.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spherical-ai/course-creator/internal/domain"
	"github.com/spherical-ai/course-creator/internal/observability"
)

// Controller enforces the three-stage generation order.
type Controller struct {
	gen    domain.Generator
	logger *observability.Logger
	now    func() time.Time
	onStep func(domain.Step)
	export domain.Exporter
}

// Option configures a Controller.
type Option func(*Controller)

// WithStepHook registers a callback invoked before each generation call.
func WithStepHook(fn func(domain.Step)) Option {
	return func(c *Controller) { c.onStep = fn }
}

// WithExportCheck validates each generated course against exp so that a course
// that cannot be rendered never offers the download action.
func WithExportCheck(exp domain.Exporter) Option {
	return func(c *Controller) { c.export = exp }
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller backed by the given Generation Service.
func NewController(gen domain.Generator, logger *observability.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = observability.Nop()
	}
	c := &Controller{
		gen:    gen,
		logger: logger.WithOperation("pipeline"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit restarts the pipeline with a new request. Any previous outline and
// course are discarded before generation starts. Generation failures do not
// return an error; they land in the outline as a failed Result.
func (c *Controller) Submit(ctx context.Context, state domain.SessionState, req domain.CourseRequest) (domain.SessionState, error) {
	if err := req.Validate(); err != nil {
		return state, err
	}

	next := domain.SessionState{Request: &req}

	c.logger.Info().
		Str("title", req.Title).
		Str("from_stage", string(state.Stage())).
		Msg("Generating outline")

	draft := c.run(ctx, domain.StepExpand, ExpandPrompt(req.Title, req.Description), emptyExpansion, failExpansion)
	if draft.Failed {
		// Nothing to structure, so the second call is skipped and the
		// expansion error becomes the outline verbatim.
		next.Outline = draft
	} else {
		next.Outline = c.run(ctx, domain.StepStructure, StructurePrompt(draft.Text), emptyOutline, failOutline)
	}

	next.UpdatedAt = c.now()
	return next, nil
}

// Edit replaces the outline verbatim. Last write wins; no history is kept.
func (c *Controller) Edit(state domain.SessionState, text string) (domain.SessionState, error) {
	if !state.Allows(domain.ActionEdit) {
		return state, domain.StateError("outline can only be edited before the course is generated", nil)
	}

	state.Outline = domain.Generated(text)
	state.Course = nil
	state.ExportProblem = ""
	state.OutlineEdits++
	state.UpdatedAt = c.now()

	c.logger.Info().Int("edits", state.OutlineEdits).Int("chars", len(text)).Msg("Outline updated")
	return state, nil
}

// Expand elaborates the current outline into full course content. A failed
// outline is expanded like any other text.
func (c *Controller) Expand(ctx context.Context, state domain.SessionState) (domain.SessionState, error) {
	if !state.Allows(domain.ActionExpand) {
		return state, domain.StateError("an outline is required before generating the course", nil)
	}

	c.logger.Info().
		Int("outline_chars", len(state.Outline.Text)).
		Bool("outline_failed", state.Outline.Failed).
		Msg("Generating course")
	if state.Outline.Failed {
		c.logger.Warn().Msg("Expanding an outline that holds a generation error")
	}

	state.Course = c.run(ctx, domain.StepElaborate, ElaboratePrompt(state.Outline.Text), emptyCourse, failCourse)
	state.ExportProblem = ""
	if c.export != nil {
		if err := c.export.Check(state.Course.Text); err != nil {
			c.logger.Warn().Err(err).Msg("Course cannot be exported")
			state.ExportProblem = exportMessage(err)
		}
	}
	state.UpdatedAt = c.now()
	return state, nil
}

// exportMessage is the user-facing text of an export failure.
func exportMessage(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// Reset returns the empty state.
func (c *Controller) Reset() domain.SessionState {
	return domain.SessionState{UpdatedAt: c.now()}
}

// run performs one generation call and folds its outcome into a Result.
func (c *Controller) run(ctx context.Context, step domain.Step, prompt, empty, failPrefix string) *domain.Result {
	if c.onStep != nil {
		c.onStep(step)
	}

	start := time.Now()
	text, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		c.logger.Error().Err(err).Str("step", string(step)).Dur("elapsed", time.Since(start)).Msg("Generation failed")
		return domain.FailedResult(step, failPrefix+err.Error(), err)
	}

	c.logger.Debug().Str("step", string(step)).Dur("elapsed", time.Since(start)).Msg("Generation step complete")

	if strings.TrimSpace(text) == "" {
		return domain.Generated(empty)
	}
	return domain.Generated(text)
}
