// ABOUTME: Renders a ranked context into prompt-ready text
// ABOUTME: Pure formatting, no I/O
package retrieval

import (
	"fmt"
	"strings"

	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
)

// FormatContext renders the context for injection into a tutor prompt.
// Returns "" for an empty context so callers can drop the section entirely.
func FormatContext(c *models.RankedContext) string {
	if c == nil || c.Empty() {
		return ""
	}

	var sb strings.Builder

	if len(c.Facts) > 0 {
		sb.WriteString("What I know about this student:\n")
		for _, m := range c.Facts {
			fmt.Fprintf(&sb, "- %s\n", m.Record.Summary)
		}
	}

	if len(c.Strategies) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Teaching approaches that work:\n")
		for _, s := range c.Strategies {
			fmt.Fprintf(&sb, "- %s for %s (worked %d of %d times)\n",
				strings.ReplaceAll(s.StrategyUsed, "_", " "), s.Topic,
				successCount(s), s.TimesUsed)
		}
	}

	if len(c.Notes) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("My notes:\n")
		for _, m := range c.Notes {
			fmt.Fprintf(&sb, "- %s\n", m.Record.Summary)
		}
	}

	return sb.String()
}

// successCount approximates how many applications went well from the
// running average
func successCount(s models.TeachingStrategy) int {
	n := int(s.SuccessScore*float64(s.TimesUsed) + 0.5)
	if n > s.TimesUsed {
		n = s.TimesUsed
	}
	return n
}
