package llm

import (
	_ "embed"

	"fixme-backend/internal/shared/util"
)

//go:embed prompts/diagnosis_system.txt
var diagnosisSystemPrompt string

// SystemPrompt returns the fixed diagnostic system prompt.
func SystemPrompt() string {
	return diagnosisSystemPrompt
}

// PromptHash returns a short stable fingerprint of a prompt for logs.
func PromptHash(prompt string) string {
	return util.Fingerprint(prompt, 12)
}
