package record

import (
	"fmt"

	"github.com/relospace/tabread/internal/sqltype"
)

type Column struct {
	Name string
	Type sqltype.Semantic

	// SourceType is the original type code reported by the database. The
	// text conversion path consults it to tell large objects apart from
	// plain strings.
	SourceType sqltype.Code
}

type Schema struct {
	Cols []Column
}

func (s Schema) NumCols() int { return len(s.Cols) }

func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Cols))
	for i, c := range s.Cols {
		names[i] = c.Name
	}
	return names
}

// NewSchema builds a schema from columns in order, renaming duplicates with
// an _1, _2, ... suffix so names are unique within the schema.
func NewSchema(cols []Column) Schema {
	seen := make(map[string]bool, len(cols))
	out := make([]Column, len(cols))
	for i, c := range cols {
		name := c.Name
		for n := 1; seen[name]; n++ {
			name = fmt.Sprintf("%s_%d", c.Name, n)
		}
		seen[name] = true
		c.Name = name
		out[i] = c
	}
	return Schema{Cols: out}
}
