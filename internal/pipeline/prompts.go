package pipeline

import "fmt"

// Placeholders used when the model answers with no text at all.
const (
	emptyExpansion = "No content generated."
	emptyOutline   = "No outline generated."
	emptyCourse    = "No course generated."
)

// Prefixes of the displayable messages that stand in for failed output.
const (
	failExpansion = "Error generating prompt: "
	failOutline   = "Error generating course outline: "
	failCourse    = "Error generating course: "
)

// ExpandPrompt asks for a free-form outline draft from the user's request.
func ExpandPrompt(title, description string) string {
	return fmt.Sprintf(`Generate a detailed course outline for:
Title: %s
Description: %s
Include 5-7 modules with subtopics.`, title, description)
}

// StructurePrompt asks the model to restructure a free-form draft into an outline.
func StructurePrompt(freeform string) string {
	return "Convert the following into a structured JSON-style course outline:\n\n" + freeform
}

// ElaboratePrompt asks for full course content. The outline is embedded verbatim.
func ElaboratePrompt(outline string) string {
	return fmt.Sprintf(`Based on this outline, generate detailed, high-quality content for each module and subtopic.
%s
Format everything in markdown with clear headings and subheadings.`, outline)
}
