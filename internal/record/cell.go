package record

import (
	"strconv"

	"github.com/relospace/tabread/internal/sqltype"
)

// Cell is a single typed value within a row. The zero value is Missing,
// the designated absence-of-value marker distinct from any valid content.
type Cell struct {
	kind  cellKind
	i     int64
	f     float64
	s     string
}

type cellKind uint8

const (
	kindMissing cellKind = iota
	kindInteger
	kindFloat
	kindText
)

// Missing is the shared absence-of-value cell.
var Missing = Cell{}

func IntCell(v int64) Cell     { return Cell{kind: kindInteger, i: v} }
func FloatCell(v float64) Cell { return Cell{kind: kindFloat, f: v} }
func TextCell(v string) Cell   { return Cell{kind: kindText, s: v} }

func (c Cell) IsMissing() bool { return c.kind == kindMissing }

func (c Cell) Int() (int64, bool)     { return c.i, c.kind == kindInteger }
func (c Cell) Float() (float64, bool) { return c.f, c.kind == kindFloat }
func (c Cell) Text() (string, bool)   { return c.s, c.kind == kindText }

// Type reports the semantic type a non-missing cell carries. Missing cells
// report Text; callers should check IsMissing first.
func (c Cell) Type() sqltype.Semantic {
	switch c.kind {
	case kindInteger:
		return sqltype.SemanticInteger
	case kindFloat:
		return sqltype.SemanticFloat
	default:
		return sqltype.SemanticText
	}
}

// String renders the cell for display. Missing renders as "?".
func (c Cell) String() string {
	switch c.kind {
	case kindInteger:
		return strconv.FormatInt(c.i, 10)
	case kindFloat:
		return strconv.FormatFloat(c.f, 'g', -1, 64)
	case kindText:
		return c.s
	default:
		return "?"
	}
}
