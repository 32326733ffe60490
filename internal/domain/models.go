package domain

import (
	"strings"
	"time"
)

// ExportFilename is the fixed name of the downloadable course document.
const ExportFilename = "Course_Content.pdf"

// CourseRequest is the user-supplied input that starts the pipeline.
type CourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate checks the request before any generation call is made.
// Description may be empty.
func (r CourseRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ValidationError("course title is required", nil)
	}
	return nil
}

// GenerationFailure describes why a generation step did not produce text.
type GenerationFailure struct {
	Step   Step   `json:"step"`
	Reason string `json:"reason"`
}

// Result is text produced by a generation step. When Failed is set, Text holds
// the displayable error message rather than generated content.
type Result struct {
	Text    string             `json:"text"`
	Failed  bool               `json:"failed"`
	Failure *GenerationFailure `json:"failure,omitempty"`
}

// Generated wraps model output as a successful result.
func Generated(text string) *Result {
	return &Result{Text: text}
}

// FailedResult builds a result that stands in for output the model could not produce.
func FailedResult(step Step, message string, err error) *Result {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return &Result{
		Text:    message,
		Failed:  true,
		Failure: &GenerationFailure{Step: step, Reason: reason},
	}
}

// Step names a single generation call.
type Step string

const (
	StepExpand    Step = "expand"
	StepStructure Step = "structure"
	StepElaborate Step = "elaborate"
)

// Stage is the pipeline position derived from the session state.
type Stage string

const (
	StageEmpty        Stage = "empty"
	StageOutlineReady Stage = "outline_ready"
	StageCourseReady  Stage = "course_ready"
)

// Action is a user action that may or may not be legal in a given stage.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionEdit     Action = "edit"
	ActionExpand   Action = "expand"
	ActionDownload Action = "download"
)

// SessionState is the whole per-session pipeline state. Course is only ever set
// while Outline is set and was expanded from it. ExportProblem is set when the
// course text cannot be rendered; it is cleared with the course.
type SessionState struct {
	Request       *CourseRequest `json:"request,omitempty"`
	Outline       *Result        `json:"outline,omitempty"`
	Course        *Result        `json:"course,omitempty"`
	ExportProblem string         `json:"export_problem,omitempty"`
	OutlineEdits  int            `json:"outline_edits"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Stage reports where the session sits in the pipeline.
func (s SessionState) Stage() Stage {
	switch {
	case s.Outline == nil:
		return StageEmpty
	case s.Course == nil:
		return StageOutlineReady
	default:
		return StageCourseReady
	}
}

// Consistent reports whether the course/outline invariant holds.
func (s SessionState) Consistent() bool {
	if s.Course == nil {
		return s.ExportProblem == ""
	}
	return s.Outline != nil
}

// Exportable reports whether a course exists and can be rendered.
func (s SessionState) Exportable() bool {
	return s.Course != nil && s.ExportProblem == ""
}

// Actions returns the actions that are legal for the current state, in the
// order a front end would present them.
func (s SessionState) Actions() []Action {
	switch s.Stage() {
	case StageOutlineReady:
		return []Action{ActionSubmit, ActionEdit, ActionExpand}
	case StageCourseReady:
		if !s.Exportable() {
			return []Action{ActionSubmit}
		}
		return []Action{ActionSubmit, ActionDownload}
	default:
		return []Action{ActionSubmit}
	}
}

// Allows reports whether a is legal for the current state.
func (s SessionState) Allows(a Action) bool {
	for _, legal := range s.Actions() {
		if legal == a {
			return true
		}
	}
	return false
}

// OutlineText returns the outline text or "" when absent.
func (s SessionState) OutlineText() string {
	if s.Outline == nil {
		return ""
	}
	return s.Outline.Text
}

// CourseText returns the course text or "" when absent.
func (s SessionState) CourseText() string {
	if s.Course == nil {
		return ""
	}
	return s.Course.Text
}
