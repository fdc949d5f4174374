package assist

import (
	"fmt"
	"strings"
)

// Action names recorded in the interaction log.
const (
	ActionImprove = "improve"
	ActionExpand  = "expand"
	ActionImage   = "image"
)

const (
	improveTemplate = "Improve and refine this idea: %s. Make it more specific and actionable."
	expandTemplate  = "Expand on this idea: %s. Provide 3 related concepts or details."
	imageTemplate   = "Generate an image that represents the following idea: %s"
)

func improvePrompt(content string) string { return fmt.Sprintf(improveTemplate, content) }
func expandPrompt(content string) string  { return fmt.Sprintf(expandTemplate, content) }
func imagePrompt(content string) string   { return fmt.Sprintf(imageTemplate, content) }

// SplitSegments splits a completion into newline-delimited segments, dropping
// blank ones. Surrounding whitespace of each segment is trimmed.
func SplitSegments(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// SplitParagraphs splits imported text into paragraphs separated by one or
// more blank lines. Lines within a paragraph are joined with a space.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var (
		out  []string
		cur  []string
		emit = func() {
			if len(cur) > 0 {
				out = append(out, strings.Join(cur, " "))
				cur = cur[:0]
			}
		}
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			emit()
			continue
		}
		cur = append(cur, line)
	}
	emit()
	return out
}
