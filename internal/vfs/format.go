package vfs

import (
	"fmt"
	"strings"

	"github.com/pbaille/rolodex/internal/domain"
)

// File contents are rendered verbatim from stored fields; only empty fields
// get a placeholder.

func personFileContent(p *domain.Person, file string) string {
	switch file {
	case "info":
		return formatInfo(p)
	case "background":
		return orPlaceholder(p.Background, "(no background)")
	case "state":
		return orPlaceholder(p.StateOfPlay, "(no state of play)")
	case "delta":
		return orPlaceholder(p.LastDelta, "(no delta)")
	}
	return ""
}

func interactionFileContent(ix *domain.Interaction, file string) string {
	switch file {
	case "transcript":
		return FormatTranscript(ix.Transcript)
	case "takeaways":
		return formatTakeaways(ix.Takeaways)
	case "tags":
		return formatTags(ix.Tags)
	}
	return ""
}

func formatInfo(p *domain.Person) string {
	typ := string(p.Type)
	if typ == "" {
		typ = "untyped"
	}
	lines := []string{
		fmt.Sprintf("Name:         %s", p.Name),
		fmt.Sprintf("Company:      %s", p.CurrentCompany),
		fmt.Sprintf("Type:         %s", typ),
		fmt.Sprintf("Interactions: %d", len(p.InteractionIDs)),
	}
	return strings.Join(lines, "\n")
}

// FormatTranscript renders speaker-tagged lines, falling back to the raw
// text when no utterances exist.
func FormatTranscript(t domain.Transcript) string {
	if len(t.Utterances) > 0 {
		lines := make([]string, len(t.Utterances))
		for i, u := range t.Utterances {
			lines[i] = fmt.Sprintf("%s: %s", u.Speaker, u.Text)
		}
		return strings.Join(lines, "\n")
	}
	return orPlaceholder(t.Text, "(no transcript available)")
}

func formatTakeaways(takeaways []string) string {
	if len(takeaways) == 0 {
		return "(no takeaways)"
	}
	lines := make([]string, len(takeaways))
	for i, t := range takeaways {
		lines[i] = "- " + t
	}
	return strings.Join(lines, "\n")
}

func formatTags(tags []domain.Tag) string {
	if len(tags) == 0 {
		return "(no tags)"
	}
	lines := make([]string, len(tags))
	for i, t := range tags {
		lines[i] = string(t)
	}
	return strings.Join(lines, "\n")
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
