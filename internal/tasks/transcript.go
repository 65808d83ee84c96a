package tasks

import (
	"fmt"
	"strings"

	"github.com/PatrickTobler/agent-observation-tool/internal/models"
)

// BuildTranscript renders a task's events into the text block shown to the
// judge. Only UserInput and Result events are included: the judge sees intent
// and final output, not process (tool calls, reasoning and errors are
// excluded). Identical event sets always yield byte-identical transcripts,
// which the prompt hash depends on.
func BuildTranscript(events []models.InteractionEvent) string {
	var lines []string
	for _, e := range SortEvents(events) {
		if e.Kind != models.KindUserInput && e.Kind != models.KindResult {
			continue
		}
		message := ""
		if e.Message != nil {
			message = *e.Message
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", e.Kind, message))
	}
	return strings.Join(lines, "\n")
}
