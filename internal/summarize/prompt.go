// Package summarize turns grouped mission rows into season summaries by
// prompting the model once per field, and writes the augmented output.
package summarize

import (
	"fmt"
	"strings"

	"github.com/fieldbrief/fieldbrief/internal/mission"
)

// systemPrompt sets the agronomist register for every request.
const systemPrompt = `You are an expert retail agronomist.
Write a season-oriented summary in 2-3 sentences. Be concrete and concise.
- Track EARLY vs LATE season dynamics.
- Cover when relevant: emergence, weeds, disease (incl. Tar Spot), nutrient deficiencies, insect damage.
- Mention %s or locations (NE/NW/SE/SW/north/east/etc.) if present.
- No fluff or generic megillah; use field specifics if provided. Max ~420 chars.`

// noNarratives is emitted when a field has no usable recommendation text
// so the request still carries a well-formed notes section.
const noNarratives = "- No flight narratives available."

// BuildUserPrompt renders the per-field request body: shared context
// once, then each pass's recommendation in file order.
func BuildUserPrompt(g *mission.Group) string {
	first := g.First()

	var b strings.Builder
	fmt.Fprintf(&b, "Field: %s (ID %s) - Client: %s\n", first.FieldName, g.FieldID, first.ClientName)
	fmt.Fprintf(&b, "Farm: %s | Crop: %s | Area: %s\n", first.FarmName, first.CropName, first.Area)
	b.WriteString("Flight notes:\n")
	b.WriteString(buildNotesBlob(g))
	b.WriteString("\n\nTask: Summarize the season (early vs late). Keep it tight (<=420 chars).")
	return b.String()
}

// buildNotesBlob lists one line per pass, deduplicated by pass number,
// preserving input order.
func buildNotesBlob(g *mission.Group) string {
	var lines []string
	for _, row := range g.Passes() {
		txt := row.RecommendationText()
		if txt == "" {
			continue
		}
		if row.OrderDate != "" {
			lines = append(lines, fmt.Sprintf("- Pass %s (%s): %s", row.PassNumber, row.OrderDate, txt))
		} else {
			lines = append(lines, fmt.Sprintf("- Pass %s: %s", row.PassNumber, txt))
		}
	}
	if len(lines) == 0 {
		return noNarratives
	}
	return strings.Join(lines, "\n")
}

// SystemPrompt returns the shared system message.
func SystemPrompt() string {
	return systemPrompt
}
