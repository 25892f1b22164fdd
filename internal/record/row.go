package record

import (
	"fmt"
	"hash/fnv"
	"strconv"
)

// Row is an ordered sequence of cells plus a row key. Keys taken from the
// cursor position are unique per result; fallback keys derived from cell
// contents are best-effort hints only.
type Row struct {
	Key   string
	Cells []Cell
}

func (r Row) NumCells() int { return len(r.Cells) }

// KeyForPosition builds the row key for a cursor-reported row number.
func KeyForPosition(n int64) string {
	return "Row" + strconv.FormatInt(n, 10)
}

// FallbackKey derives a row key from the cell contents when the cursor
// cannot report its position. Not guaranteed unique.
func FallbackKey(cells []Cell) string {
	h := fnv.New32a()
	for _, c := range cells {
		h.Write([]byte(c.String()))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("Row%d", h.Sum32())
}
