package mission

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// InputError indicates the input file could not be used at all: missing,
// unreadable, or lacking required columns. It aborts the run.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Table holds the parsed input file: the original header plus one Row
// per data record, in file order.
type Table struct {
	Header []string
	Rows   []Row

	cols map[string]int
}

// Column returns the index of a header column, or -1 if absent.
func (t *Table) Column(name string) int {
	if i, ok := t.cols[name]; ok {
		return i
	}
	return -1
}

// Load reads the CSV at path into a Table. The header row is required
// and must contain every column in RequiredColumns; extra columns are
// preserved on each Row's Raw record.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows, validated per-record below

	header, err := r.Read()
	if err != nil {
		return nil, &InputError{Path: path, Err: fmt.Errorf("read header: %w", err)}
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &InputError{
			Path: path,
			Err:  fmt.Errorf("missing required columns: %s", strings.Join(missing, ", ")),
		}
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, &InputError{Path: path, Err: fmt.Errorf("read records: %w", err)}
	}

	t := &Table{Header: header, cols: cols}
	for i, rec := range records {
		t.Rows = append(t.Rows, rowFromRecord(i, rec, cols))
	}

	return t, nil
}

// rowFromRecord maps a CSV record onto a Row. Short records yield empty
// strings for the trailing columns rather than an error.
func rowFromRecord(index int, rec []string, cols map[string]int) Row {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	return Row{
		Index:            index,
		Raw:              rec,
		FieldID:          get("field_id"),
		FieldName:        get("field_name"),
		ClientName:       get("client_name"),
		FarmName:         get("farm_name"),
		CropName:         get("crop_name"),
		Area:             get("area"),
		PassNumber:       get("pass_number"),
		OrderDate:        get("order_date"),
		OrgName:          get("org_name"),
		OrgID:            get("org_id"),
		OrderID:          get("order_id"),
		SuggestionCreate: get("suggestion_created"),
		AgAssistant:      get("ag_assistant"),
		MissionRec:       get("mission_rec"),
		CycleID:          get("cycle_id"),
	}
}
