// Package sqlbridge adapts database/sql to the reader SPI so any registered
// driver can back the tabular query reader.
package sqlbridge

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/relospace/tabread/internal/reader"
	"github.com/relospace/tabread/internal/sqltype"
)

// Descriptor is a connection descriptor backed by a *sql.DB pool.
type Descriptor struct {
	DB  *sql.DB
	SQL string
}

func (d *Descriptor) Query() string { return d.SQL }

func (d *Descriptor) Connect(ctx context.Context) (reader.Conn, error) {
	c, err := d.DB.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &conn{c: c}, nil
}

type conn struct {
	c *sql.Conn
}

func (c *conn) Prepare(ctx context.Context, query string) (reader.Stmt, error) {
	s, err := c.c.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &stmt{s: s, maxRows: -1}, nil
}

func (c *conn) Close() error { return c.c.Close() }

type stmt struct {
	s       *sql.Stmt
	maxRows int
}

// SetMaxRows caps the cursor client-side; database/sql exposes no
// server-side max-rows knob.
func (s *stmt) SetMaxRows(n int) { s.maxRows = n }

func (s *stmt) Query(ctx context.Context) (reader.Cursor, error) {
	rows, err := s.s.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	return &cursor{rows: rows, remaining: s.maxRows}, nil
}

func (s *stmt) Close() error { return s.s.Close() }

type cursor struct {
	rows *sql.Rows
	meta *meta

	buf  []any
	ptrs []any

	pos       int64
	remaining int
}

func (c *cursor) Meta() (reader.Meta, error) {
	if c.meta != nil {
		return c.meta, nil
	}
	cols, err := c.rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	c.meta = &meta{cols: cols}
	return c.meta, nil
}

func (c *cursor) Next() (bool, error) {
	if c.remaining == 0 {
		return false, nil
	}
	if !c.rows.Next() {
		return false, c.rows.Err()
	}
	if c.buf == nil {
		cols, err := c.rows.Columns()
		if err != nil {
			return false, err
		}
		c.buf = make([]any, len(cols))
		c.ptrs = make([]any, len(cols))
	}
	for i := range c.buf {
		c.buf[i] = nil
		c.ptrs[i] = &c.buf[i]
	}
	if err := c.rows.Scan(c.ptrs...); err != nil {
		return false, err
	}
	c.pos++
	if c.remaining > 0 {
		c.remaining--
	}
	return true, nil
}

func (c *cursor) value(col int) (any, error) {
	if col < 0 || col >= len(c.buf) {
		return nil, fmt.Errorf("sqlbridge: column index %d out of range", col)
	}
	return c.buf[col], nil
}

func (c *cursor) Int64(col int) (int64, bool, error) {
	v, err := c.value(col)
	if err != nil || v == nil {
		return 0, v == nil, err
	}
	switch x := v.(type) {
	case int64:
		return x, false, nil
	case int32:
		return int64(x), false, nil
	case int:
		return int64(x), false, nil
	case uint64:
		return int64(x), false, nil
	case bool:
		if x {
			return 1, false, nil
		}
		return 0, false, nil
	case float64:
		return int64(x), false, nil
	case []byte:
		n, err := strconv.ParseInt(string(x), 10, 64)
		return n, false, err
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, false, err
	default:
		return 0, false, fmt.Errorf("sqlbridge: cannot read %T as integer", v)
	}
}

func (c *cursor) Float64(col int) (float64, bool, error) {
	v, err := c.value(col)
	if err != nil || v == nil {
		return 0, v == nil, err
	}
	switch x := v.(type) {
	case float64:
		return x, false, nil
	case float32:
		return float64(x), false, nil
	case int64:
		return float64(x), false, nil
	case []byte:
		f, err := strconv.ParseFloat(string(x), 64)
		return f, false, err
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, false, err
	default:
		return 0, false, fmt.Errorf("sqlbridge: cannot read %T as float", v)
	}
}

func (c *cursor) String(col int) (string, bool, error) {
	v, err := c.value(col)
	if err != nil || v == nil {
		return "", v == nil, err
	}
	switch x := v.(type) {
	case string:
		return x, false, nil
	case []byte:
		return string(x), false, nil
	case time.Time:
		return x.Format(time.RFC3339Nano), false, nil
	default:
		return fmt.Sprintf("%v", x), false, nil
	}
}

func (c *cursor) CharStream(col int) (io.ReadCloser, error) {
	return c.stream(col)
}

func (c *cursor) BinaryStream(col int) (io.ReadCloser, error) {
	return c.stream(col)
}

func (c *cursor) stream(col int) (io.ReadCloser, error) {
	v, err := c.value(col)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return io.NopCloser(strings.NewReader(x)), nil
	case []byte:
		return io.NopCloser(bytes.NewReader(x)), nil
	default:
		return nil, fmt.Errorf("sqlbridge: cannot stream %T", v)
	}
}

// RowNumber reports the adapter-maintained cursor position; database/sql
// does not expose the server-side row number.
func (c *cursor) RowNumber() (int64, error) {
	if c.pos == 0 {
		return 0, fmt.Errorf("sqlbridge: cursor not positioned on a row")
	}
	return c.pos, nil
}

func (c *cursor) Close() error { return c.rows.Close() }

type meta struct {
	cols []*sql.ColumnType
}

func (m *meta) NumColumns() int         { return len(m.cols) }
func (m *meta) ColumnName(i int) string { return m.cols[i].Name() }
func (m *meta) ColumnType(i int) sqltype.Code {
	return CodeForTypeName(m.cols[i].DatabaseTypeName())
}

// CodeForTypeName maps a driver-reported database type name to a source
// type code. Unknown names map to the explicit "other" code, which the
// semantic mapper resolves to Text.
func CodeForTypeName(name string) sqltype.Code {
	switch strings.ToUpper(name) {
	case "INT", "INTEGER", "INT4", "MEDIUMINT", "SERIAL":
		return sqltype.Integer
	case "BIGINT", "INT8", "BIGSERIAL":
		return sqltype.BigInt
	case "SMALLINT", "INT2":
		return sqltype.SmallInt
	case "TINYINT":
		return sqltype.TinyInt
	case "BIT":
		return sqltype.Bit
	case "BOOL", "BOOLEAN":
		return sqltype.Boolean
	case "BINARY":
		return sqltype.Binary
	case "VARBINARY":
		return sqltype.VarBinary
	case "FLOAT", "FLOAT8":
		return sqltype.Float
	case "DOUBLE", "DOUBLE PRECISION":
		return sqltype.Double
	case "REAL", "FLOAT4":
		return sqltype.Real
	case "NUMERIC":
		return sqltype.Numeric
	case "DECIMAL":
		return sqltype.Decimal
	case "CHAR", "BPCHAR", "NCHAR":
		return sqltype.Char
	case "VARCHAR", "NVARCHAR", "TEXT", "NAME":
		return sqltype.VarChar
	case "CLOB", "LONGTEXT", "MEDIUMTEXT":
		return sqltype.Clob
	case "BLOB", "LONGBLOB", "MEDIUMBLOB", "BYTEA":
		return sqltype.Blob
	default:
		return sqltype.Other
	}
}
