package diagnosis

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the user-turn text sent alongside the images.
func BuildPrompt(userID, description string, imageCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this repair issue and provide a confidence score (0-100). User ID: %s", userID)

	hasDescription := strings.TrimSpace(description) != ""
	if hasDescription {
		b.WriteString("\n\nUser Description:\n")
		b.WriteString(description)
	}

	if imageCount > 0 {
		fmt.Fprintf(&b, "\n\nNumber of images provided: %d", imageCount)
	} else {
		b.WriteString("\n\nNo images provided - analysis based on text description only.")
	}

	if !hasDescription {
		b.WriteString("\n\nNo text description provided - analysis based on images only.")
	}
	return b.String()
}
