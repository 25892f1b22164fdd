package sqlbridge

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relospace/tabread/internal/sqltype"
)

// ---- fake database/sql driver ----

type fakeDriver struct{}

func (fakeDriver) Open(name string) (driver.Conn, error) { return &fakeDrvConn{}, nil }

type fakeDrvConn struct{}

func (*fakeDrvConn) Prepare(query string) (driver.Stmt, error) { return &fakeDrvStmt{}, nil }
func (*fakeDrvConn) Close() error                              { return nil }
func (*fakeDrvConn) Begin() (driver.Tx, error)                 { return nil, driver.ErrSkip }

type fakeDrvStmt struct{}

func (*fakeDrvStmt) Close() error  { return nil }
func (*fakeDrvStmt) NumInput() int { return 0 }

func (*fakeDrvStmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, driver.ErrSkip
}

func (*fakeDrvStmt) Query(args []driver.Value) (driver.Rows, error) {
	return &fakeDrvRows{
		cols:  []string{"id", "name", "score"},
		types: []string{"INTEGER", "VARCHAR", "DOUBLE"},
		rows: [][]driver.Value{
			{int64(1), nil, 3.5},
			{int64(2), "bob", nil},
			{int64(3), "eve", 1.25},
		},
	}, nil
}

type fakeDrvRows struct {
	cols  []string
	types []string
	rows  [][]driver.Value
	idx   int
}

func (r *fakeDrvRows) Columns() []string { return r.cols }
func (r *fakeDrvRows) Close() error      { return nil }

func (r *fakeDrvRows) ColumnTypeDatabaseTypeName(i int) string { return r.types[i] }

func (r *fakeDrvRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func init() {
	sql.Register("tabfake", fakeDriver{})
}

func openCursor(t *testing.T) (*cursor, func()) {
	t.Helper()
	db, err := sql.Open("tabfake", "")
	require.NoError(t, err)

	d := &Descriptor{DB: db, SQL: "SELECT id, name, score FROM t"}
	conn, err := d.Connect(context.Background())
	require.NoError(t, err)
	stmt, err := conn.Prepare(context.Background(), d.Query())
	require.NoError(t, err)
	cur, err := stmt.Query(context.Background())
	require.NoError(t, err)

	cleanup := func() {
		_ = cur.Close()
		_ = stmt.Close()
		_ = conn.Close()
		_ = db.Close()
	}
	return cur.(*cursor), cleanup
}

// ---- tests ----

func TestMeta_NamesAndCodes(t *testing.T) {
	cur, done := openCursor(t)
	defer done()

	meta, err := cur.Meta()
	require.NoError(t, err)
	require.Equal(t, 3, meta.NumColumns())
	require.Equal(t, "id", meta.ColumnName(0))
	require.Equal(t, sqltype.Integer, meta.ColumnType(0))
	require.Equal(t, sqltype.VarChar, meta.ColumnType(1))
	require.Equal(t, sqltype.Double, meta.ColumnType(2))
}

func TestCursor_ValuesAndNulls(t *testing.T) {
	cur, done := openCursor(t)
	defer done()

	ok, err := cur.Next()
	require.NoError(t, err)
	require.True(t, ok)

	n, null, err := cur.Int64(0)
	require.NoError(t, err)
	require.False(t, null)
	require.Equal(t, int64(1), n)

	_, null, err = cur.String(1)
	require.NoError(t, err)
	require.True(t, null)

	f, null, err := cur.Float64(2)
	require.NoError(t, err)
	require.False(t, null)
	require.Equal(t, 3.5, f)

	pos, err := cur.RowNumber()
	require.NoError(t, err)
	require.Equal(t, int64(1), pos)
}

func TestCursor_DrainsAndReportsPositions(t *testing.T) {
	cur, done := openCursor(t)
	defer done()

	count := 0
	for {
		ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
		pos, err := cur.RowNumber()
		require.NoError(t, err)
		require.Equal(t, int64(count), pos)
	}
	require.Equal(t, 3, count)
}

func TestCursor_RowNumberBeforeFirstRow(t *testing.T) {
	cur, done := openCursor(t)
	defer done()

	_, err := cur.RowNumber()
	require.Error(t, err)
}

func TestStmt_MaxRowsCapsClientSide(t *testing.T) {
	db, err := sql.Open("tabfake", "")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	d := &Descriptor{DB: db, SQL: "SELECT id, name, score FROM t"}
	conn, err := d.Connect(context.Background())
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	stmt, err := conn.Prepare(context.Background(), d.Query())
	require.NoError(t, err)
	stmt.SetMaxRows(1)

	cur, err := stmt.Query(context.Background())
	require.NoError(t, err)
	defer func() { _ = cur.Close() }()

	ok, err := cur.Next()
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = cur.Next()
	require.NoError(t, err)
	require.False(t, ok, "cap of 1 must stop the cursor")
}

func TestCursor_Streams(t *testing.T) {
	cur, done := openCursor(t)
	defer done()

	ok, err := cur.Next()
	require.NoError(t, err)
	require.True(t, ok)

	// null column streams as (nil, nil)
	rc, err := cur.CharStream(1)
	require.NoError(t, err)
	require.Nil(t, rc)

	ok, err = cur.Next()
	require.NoError(t, err)
	require.True(t, ok)

	rc, err = cur.CharStream(1)
	require.NoError(t, err)
	require.NotNil(t, rc)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "bob", string(data))
	require.NoError(t, rc.Close())
}

func TestCodeForTypeName(t *testing.T) {
	cases := map[string]sqltype.Code{
		"INTEGER":          sqltype.Integer,
		"int4":             sqltype.Integer,
		"BIGINT":           sqltype.BigInt,
		"INT8":             sqltype.BigInt,
		"SMALLINT":         sqltype.SmallInt,
		"TINYINT":          sqltype.TinyInt,
		"BIT":              sqltype.Bit,
		"BOOL":             sqltype.Boolean,
		"DOUBLE":           sqltype.Double,
		"DOUBLE PRECISION": sqltype.Double,
		"FLOAT4":           sqltype.Real,
		"NUMERIC":          sqltype.Numeric,
		"DECIMAL":          sqltype.Decimal,
		"VARCHAR":          sqltype.VarChar,
		"TEXT":             sqltype.VarChar,
		"LONGTEXT":         sqltype.Clob,
		"CLOB":             sqltype.Clob,
		"BYTEA":            sqltype.Blob,
		"BLOB":             sqltype.Blob,
		"GEOMETRY":         sqltype.Other,
		"":                 sqltype.Other,
	}
	for name, want := range cases {
		require.Equal(t, want, CodeForTypeName(name), "type name %q", name)
	}
}

func TestInt64Coercions(t *testing.T) {
	c := &cursor{buf: []any{int64(5), true, []byte("42"), 7.9, "13"}}
	c.pos = 1

	n, _, err := c.Int64(0)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	n, _, err = c.Int64(1)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, _, err = c.Int64(2)
	require.NoError(t, err)
	require.Equal(t, int64(42), n)

	n, _, err = c.Int64(3)
	require.NoError(t, err)
	require.Equal(t, int64(7), n)

	n, _, err = c.Int64(4)
	require.NoError(t, err)
	require.Equal(t, int64(13), n)

	_, _, err = c.Int64(9)
	require.Error(t, err)
}
