package extraction

import (
	_ "embed"
	"strings"
)

// PromptVersion identifies the embedded instruction template.
const PromptVersion = "questions_v1"

//go:embed prompts/questions_v1.txt
var questionsV1 string

const textPlaceholder = "{{TEXT}}"

// BuildPrompt substitutes chunk text into the instruction template. The text
// is inserted verbatim and never interpreted.
func BuildPrompt(chunkText string) string {
	return strings.Replace(questionsV1, textPlaceholder, chunkText, 1)
}
