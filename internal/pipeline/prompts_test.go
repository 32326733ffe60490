package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrompts(t *testing.T) {
	expand := ExpandPrompt("Intro to Go", "Concurrency focus")
	assert.Equal(t, "Generate a detailed course outline for:\nTitle: Intro to Go\nDescription: Concurrency focus\nInclude 5-7 modules with subtopics.", expand)

	structure := StructurePrompt("freeform draft")
	assert.Equal(t, "Convert the following into a structured JSON-style course outline:\n\nfreeform draft", structure)

	outline := "Module 1\n  - goroutines\n\nModule 2"
	elaborate := ElaboratePrompt(outline)
	assert.Contains(t, elaborate, "\n"+outline+"\n")
	assert.Contains(t, elaborate, "markdown")
}
