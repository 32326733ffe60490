package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CourseRequest
		wantErr bool
	}{
		{"title and description", CourseRequest{Title: "Intro to Go", Description: "Basics"}, false},
		{"title only", CourseRequest{Title: "Intro to Go"}, false},
		{"empty title", CourseRequest{Description: "Basics"}, true},
		{"whitespace title", CourseRequest{Title: "   \t"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsType(err, ErrorTypeValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSessionState_Stage(t *testing.T) {
	tests := []struct {
		name  string
		state SessionState
		want  Stage
	}{
		{"empty", SessionState{}, StageEmpty},
		{"outline only", SessionState{Outline: Generated("o")}, StageOutlineReady},
		{"failed outline", SessionState{Outline: FailedResult(StepStructure, "Error generating course outline: x", nil)}, StageOutlineReady},
		{"outline and course", SessionState{Outline: Generated("o"), Course: Generated("c")}, StageCourseReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Stage())
			assert.True(t, tt.state.Consistent())
		})
	}
}

func TestSessionState_Consistent(t *testing.T) {
	assert.False(t, SessionState{Course: Generated("c")}.Consistent())
	assert.False(t, SessionState{Outline: Generated("o"), ExportProblem: "stale"}.Consistent())
	assert.True(t, SessionState{Outline: Generated("o"), Course: Generated("c"), ExportProblem: "x"}.Consistent())
}

func TestSessionState_Exportable(t *testing.T) {
	assert.False(t, SessionState{}.Exportable())
	assert.False(t, SessionState{Outline: Generated("o")}.Exportable())
	assert.True(t, SessionState{Outline: Generated("o"), Course: Generated("c")}.Exportable())

	blocked := SessionState{Outline: Generated("o"), Course: Generated("c"), ExportProblem: "x"}
	assert.False(t, blocked.Exportable())
	assert.Equal(t, StageCourseReady, blocked.Stage())
	assert.False(t, blocked.Allows(ActionDownload))
}

func TestSessionState_Actions(t *testing.T) {
	tests := []struct {
		name  string
		state SessionState
		want  []Action
	}{
		{"empty", SessionState{}, []Action{ActionSubmit}},
		{"outline ready", SessionState{Outline: Generated("o")}, []Action{ActionSubmit, ActionEdit, ActionExpand}},
		{"course ready", SessionState{Outline: Generated("o"), Course: Generated("c")}, []Action{ActionSubmit, ActionDownload}},
		{"course not exportable", SessionState{Outline: Generated("o"), Course: Generated("c"), ExportProblem: "line 1 cannot be encoded"}, []Action{ActionSubmit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Actions())
			for _, a := range tt.want {
				assert.True(t, tt.state.Allows(a), "expected %s to be allowed", a)
			}
		})
	}

	t.Run("download never offered before course", func(t *testing.T) {
		assert.False(t, SessionState{}.Allows(ActionDownload))
		assert.False(t, SessionState{Outline: Generated("o")}.Allows(ActionDownload))
	})

	t.Run("edit and expand need an outline", func(t *testing.T) {
		assert.False(t, SessionState{}.Allows(ActionEdit))
		assert.False(t, SessionState{}.Allows(ActionExpand))
	})
}

func TestSessionState_Text(t *testing.T) {
	empty := SessionState{}
	assert.Equal(t, "", empty.OutlineText())
	assert.Equal(t, "", empty.CourseText())

	full := SessionState{Outline: Generated("outline"), Course: Generated("course")}
	assert.Equal(t, "outline", full.OutlineText())
	assert.Equal(t, "course", full.CourseText())
}

func TestFailedResult(t *testing.T) {
	res := FailedResult(StepElaborate, "Error generating course: timeout", errors.New("timeout"))

	assert.True(t, res.Failed)
	assert.Equal(t, "Error generating course: timeout", res.Text)
	require.NotNil(t, res.Failure)
	assert.Equal(t, StepElaborate, res.Failure.Step)
	assert.Equal(t, "timeout", res.Failure.Reason)

	ok := Generated("text")
	assert.False(t, ok.Failed)
	assert.Nil(t, ok.Failure)
}
