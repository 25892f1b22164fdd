package reader

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/relospace/tabread/internal/record"
	"github.com/relospace/tabread/internal/sqltype"
)

// State is the row stream's lifecycle state. A stream that stops yields one
// of three distinct terminal states so callers can tell a drained cursor
// from a broken or cancelled one.
type State uint8

const (
	StateActive State = iota
	StateExhausted
	StateErrored
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "Active"
	case StateExhausted:
		return "Exhausted"
	case StateErrored:
		return "Errored"
	default:
		return "Cancelled"
	}
}

// RowIterator is a lazy, single-pass, non-restartable cursor over a query
// result. Usage:
//
//	for it.Next(ctx) {
//		row := it.Row()
//		...
//	}
//	if err := it.Err(); err != nil { ... }
//
// The underlying cursor and statement are closed when the iterator reaches
// any terminal state; Close is idempotent.
type RowIterator struct {
	cur    Cursor
	schema record.Schema
	log    *slog.Logger
	extra  []io.Closer

	state State
	err   error
	row   record.Row
	count int64
}

func newRowIterator(cur Cursor, schema record.Schema, log *slog.Logger, extra ...io.Closer) *RowIterator {
	return &RowIterator{cur: cur, schema: schema, log: log, extra: extra}
}

// Next advances to the next row. It returns false once the stream reaches a
// terminal state; State and Err report which one and why. ctx is polled
// before each fetch, so cancellation takes effect between rows.
func (it *RowIterator) Next(ctx context.Context) bool {
	if it.state != StateActive {
		return false
	}
	if err := ctx.Err(); err != nil {
		it.finish(StateCancelled, err)
		return false
	}

	ok, err := it.cur.Next()
	if err != nil {
		it.finish(StateErrored, err)
		return false
	}
	if !ok {
		it.finish(StateExhausted, nil)
		return false
	}

	it.row = it.convertRow()
	it.count++
	return true
}

// Row returns the row produced by the last successful Next.
func (it *RowIterator) Row() record.Row { return it.row }

func (it *RowIterator) State() State { return it.state }

// Err returns the terminal cause: nil after normal exhaustion, the cursor
// error after StateErrored, the context error after StateCancelled.
func (it *RowIterator) Err() error {
	if it.state == StateExhausted {
		return nil
	}
	return it.err
}

// Count reports how many rows have been yielded so far.
func (it *RowIterator) Count() int64 { return it.count }

// Close cancels an active stream and releases the cursor. Closing an
// already-terminal iterator is a no-op.
func (it *RowIterator) Close() error {
	if it.state == StateActive {
		it.finish(StateCancelled, nil)
	}
	return nil
}

func (it *RowIterator) finish(state State, err error) {
	it.state = state
	it.err = err
	closeQuietly(it.cur, it.log, "cursor")
	for _, c := range it.extra {
		closeQuietly(c, it.log, "statement")
	}
	it.extra = nil
}

// convertRow reads every column of the current cursor row. Conversion
// failures never abort the row: each failing column is logged and degrades
// to Missing.
func (it *RowIterator) convertRow() record.Row {
	cells := make([]record.Cell, it.schema.NumCols())
	for i, col := range it.schema.Cols {
		switch col.Type {
		case sqltype.SemanticInteger:
			v, null, err := it.cur.Int64(i)
			switch {
			case err != nil:
				it.log.Error("read integer column", "column", col.Name, "err", err)
				cells[i] = record.Missing
			case null:
				cells[i] = record.Missing
			default:
				cells[i] = record.IntCell(v)
			}
		case sqltype.SemanticFloat:
			v, null, err := it.cur.Float64(i)
			switch {
			case err != nil:
				it.log.Error("read float column", "column", col.Name, "err", err)
				cells[i] = record.Missing
			case null:
				cells[i] = record.Missing
			default:
				cells[i] = record.FloatCell(v)
			}
		default:
			cells[i] = it.textCell(i, col)
		}
	}

	key, err := it.rowKey()
	if err != nil {
		it.log.Error("read row number", "err", err)
		key = record.FallbackKey(cells)
	}
	return record.Row{Key: key, Cells: cells}
}

// textCell reads a text column. The original source type decides how: large
// character and binary objects are streamed line by line and joined with
// newlines, everything else is read as a plain string. Nulls and read
// failures yield Missing.
func (it *RowIterator) textCell(col int, c record.Column) record.Cell {
	switch c.SourceType {
	case sqltype.Clob:
		return it.streamCell(col, c.Name, it.cur.CharStream)
	case sqltype.Blob:
		return it.streamCell(col, c.Name, it.cur.BinaryStream)
	default:
		s, null, err := it.cur.String(col)
		if err != nil {
			it.log.Error("read text column", "column", c.Name, "err", err)
			return record.Missing
		}
		if null {
			return record.Missing
		}
		return record.TextCell(s)
	}
}

func (it *RowIterator) streamCell(col int, name string, open func(int) (io.ReadCloser, error)) record.Cell {
	rc, err := open(col)
	if err != nil {
		it.log.Error("open large object", "column", name, "err", err)
		return record.Missing
	}
	if rc == nil {
		return record.Missing
	}
	defer closeQuietly(rc, it.log, "large object stream")

	var (
		sb    strings.Builder
		lines int
	)
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if lines > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(sc.Text())
		lines++
	}
	if err := sc.Err(); err != nil {
		it.log.Error("stream large object", "column", name, "err", err)
		return record.Missing
	}
	if lines == 0 {
		return record.Missing
	}
	return record.TextCell(sb.String())
}

func (it *RowIterator) rowKey() (string, error) {
	n, err := it.cur.RowNumber()
	if err != nil {
		return "", err
	}
	return record.KeyForPosition(n), nil
}
