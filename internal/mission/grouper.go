package mission

// Group is the ordered set of rows sharing one field_id, in file order.
// Descriptive columns (field name, farm, crop) ride along from the rows
// but are not part of the grouping key.
type Group struct {
	FieldID string
	Rows    []Row
}

// First returns the first row of the group. Groups are never empty.
func (g *Group) First() Row {
	return g.Rows[0]
}

// Passes returns the group's rows deduplicated by pass number, keeping
// the first occurrence of each pass in file order. Rows without a pass
// number are kept as-is.
func (g *Group) Passes() []Row {
	seen := make(map[string]bool, len(g.Rows))
	out := make([]Row, 0, len(g.Rows))
	for _, row := range g.Rows {
		if row.PassNumber != "" {
			if seen[row.PassNumber] {
				continue
			}
			seen[row.PassNumber] = true
		}
		out = append(out, row)
	}
	return out
}

// GroupResult is the outcome of grouping a table: groups in
// first-appearance order of their field_id, plus the count of rows
// skipped for having no field_id.
type GroupResult struct {
	Groups  []*Group
	Skipped []Row
}

// GroupByField partitions rows by field_id. Iteration order of the
// returned groups is the first-appearance order of each field_id in the
// input, so output ordering is deterministic. Rows with an empty
// field_id are collected in Skipped for the caller to warn about; they
// never abort the run.
func GroupByField(rows []Row) *GroupResult {
	res := &GroupResult{}
	byID := make(map[string]*Group)

	for _, row := range rows {
		if row.FieldID == "" {
			res.Skipped = append(res.Skipped, row)
			continue
		}
		g, ok := byID[row.FieldID]
		if !ok {
			g = &Group{FieldID: row.FieldID}
			byID[row.FieldID] = g
			res.Groups = append(res.Groups, g)
		}
		g.Rows = append(g.Rows, row)
	}

	return res
}
