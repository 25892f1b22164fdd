package record

import "fmt"

// Table is an eagerly materialized result: a schema plus every row in memory.
// Used for bounded previews; streaming callers use the reader's iterator.
type Table struct {
	Schema Schema
	Rows   []Row
}

func NewTable(schema Schema) *Table {
	return &Table{Schema: schema}
}

// Append adds a row, enforcing that its cell count matches the schema.
func (t *Table) Append(row Row) error {
	if row.NumCells() != t.Schema.NumCols() {
		return fmt.Errorf("record: row %q has %d cells, schema has %d columns",
			row.Key, row.NumCells(), t.Schema.NumCols())
	}
	t.Rows = append(t.Rows, row)
	return nil
}

func (t *Table) NumRows() int { return len(t.Rows) }
