package summarize

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fieldbrief/fieldbrief/internal/mission"
)

// SummaryColumn is the name of the generated column in the output.
const SummaryColumn = "field_summary"

// perPassColumns vary per row within a field and are dropped when rows
// collapse to one output row per field.
var perPassColumns = map[string]bool{
	"pass_number":        true,
	"order_date":         true,
	"order_id":           true,
	"suggestion_created": true,
	"ag_assistant":       true,
	"mission_rec":        true,
}

// OutputPath derives the default output path from the input path by
// inserting -summarized before the extension.
func OutputPath(input string) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)
	return stem + "-summarized" + ext
}

// Write emits one row per group, in group order, to path. Shared
// descriptive columns come from each group's first row; per-pass
// columns are dropped and SummaryColumn is appended. results must be
// index-aligned with groups. An existing file at path is overwritten.
func Write(path string, table *mission.Table, groups []*mission.Group, results []Result) error {
	if len(groups) != len(results) {
		return fmt.Errorf("groups/results mismatch: %d vs %d", len(groups), len(results))
	}

	// Columns kept from the input, in input order.
	var keep []int
	var header []string
	for i, name := range table.Header {
		if perPassColumns[strings.TrimSpace(name)] {
			continue
		}
		keep = append(keep, i)
		header = append(header, name)
	}
	header = append(header, SummaryColumn)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, g := range groups {
		raw := g.First().Raw
		record := make([]string, 0, len(keep)+1)
		for _, col := range keep {
			if col < len(raw) {
				record = append(record, raw[col])
			} else {
				record = append(record, "")
			}
		}
		record = append(record, results[i].Summary)
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write field %s: %w", g.FieldID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
