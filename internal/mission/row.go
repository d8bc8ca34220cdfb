// Package mission handles loading and grouping of per-field mission
// recommendation rows from scouting exports.
package mission

import "strings"

// Row is one (field, pass) observation from the input CSV.
// Rows are read once and never mutated.
type Row struct {
	// Index is the zero-based position of the row in the input file,
	// used to keep pass ordering stable within a field.
	Index int

	// Raw is the full record as read, including columns fieldbrief does
	// not interpret. The writer passes these through.
	Raw []string

	FieldID          string
	FieldName        string
	ClientName       string
	FarmName         string
	CropName         string
	Area             string
	PassNumber       string
	OrderDate        string
	OrgName          string
	OrgID            string
	OrderID          string
	SuggestionCreate string
	AgAssistant      string
	MissionRec       string
	CycleID          string
}

// RequiredColumns lists the header columns the loader insists on.
// Extra columns in the input are carried through untouched.
var RequiredColumns = []string{
	"field_id",
	"field_name",
	"client_name",
	"farm_name",
	"crop_name",
	"area",
	"pass_number",
	"order_date",
	"org_name",
	"org_id",
	"order_id",
	"suggestion_created",
	"ag_assistant",
	"mission_rec",
	"cycle_id",
}

// RecommendationText returns the text to feed the summarizer for this
// pass. Empty mission_rec falls back to the ag_assistant narrative.
func (r Row) RecommendationText() string {
	if txt := strings.TrimSpace(r.MissionRec); txt != "" {
		return txt
	}
	return strings.TrimSpace(r.AgAssistant)
}
