package reader

import (
	"context"
	"io"

	"github.com/relospace/tabread/internal/record"
	"github.com/relospace/tabread/internal/sqltype"
)

// Descriptor supplies the query text and live connections. It is owned by
// the caller and read-only from the reader's perspective.
type Descriptor interface {
	Query() string
	Connect(ctx context.Context) (Conn, error)
}

type Conn interface {
	Prepare(ctx context.Context, query string) (Stmt, error)
	Close() error
}

type Stmt interface {
	Query(ctx context.Context) (Cursor, error)

	// SetMaxRows caps the number of rows the cursor will yield. Unlike the
	// JDBC knob, 0 means zero rows; callers that want no cap simply never
	// call it.
	SetMaxRows(n int)

	Close() error
}

// Meta describes a result's columns as reported by the source.
type Meta interface {
	NumColumns() int
	ColumnName(i int) string
	ColumnType(i int) sqltype.Code
}

// Cursor is the live, server-side positioned handle over a query's result,
// advanced one row at a time. Column indexes are zero-based. The typed reads
// report (value, wasNull, error); streams report (nil, nil) for SQL NULL.
// Close must be idempotent.
type Cursor interface {
	Meta() (Meta, error)
	Next() (bool, error)

	Int64(col int) (int64, bool, error)
	Float64(col int) (float64, bool, error)
	String(col int) (string, bool, error)

	CharStream(col int) (io.ReadCloser, error)
	BinaryStream(col int) (io.ReadCloser, error)

	RowNumber() (int64, error)
	Close() error
}

// RowSink receives materialized rows, e.g. a *record.Table.
type RowSink interface {
	Append(row record.Row) error
}
