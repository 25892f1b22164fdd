// Package reader implements the tabular query reader: it probes a SQL query
// for its column schema and streams result rows as typed cells with explicit
// missing values.
//
// The caller-supplied query is trusted verbatim and substituted into wrapper
// templates without escaping; this component is not an injection boundary.
package reader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/relospace/tabread/internal/record"
	"github.com/relospace/tabread/internal/sqltype"
)

// aliasSeq makes wrapper-query aliases unique per process.
var aliasSeq atomic.Uint64

func nextAlias() string {
	return fmt.Sprintf("tabread_%d", aliasSeq.Add(1))
}

// Reader derives a schema from a query's result metadata and streams its
// rows. One statement/cursor is active at a time; a Reader is not safe for
// concurrent use without external synchronization.
type Reader struct {
	desc   Descriptor
	schema *record.Schema
	conn   Conn
	log    *slog.Logger
}

func New(desc Descriptor) *Reader {
	return &Reader{desc: desc, log: slog.Default()}
}

func NewWithLogger(desc Descriptor, log *slog.Logger) *Reader {
	return &Reader{desc: desc, log: log}
}

// SetDescriptor replaces the connection descriptor and invalidates the
// cached schema and any held connection.
func (r *Reader) SetDescriptor(desc Descriptor) {
	if r.conn != nil {
		closeQuietly(r.conn, r.log, "connection")
	}
	r.desc = desc
	r.schema = nil
	r.conn = nil
}

func (r *Reader) Descriptor() Descriptor { return r.desc }

// Schema returns the column schema for the configured query, probing the
// database on first use and caching the result until the descriptor changes.
// The probe wraps the query so the database returns metadata but no rows.
func (r *Reader) Schema(ctx context.Context) (record.Schema, error) {
	if r.schema != nil {
		return *r.schema, nil
	}

	probe := fmt.Sprintf("SELECT * FROM (%s) %s WHERE 1 = 0", r.desc.Query(), nextAlias())

	conn, err := r.connect(ctx)
	if err != nil {
		return record.Schema{}, err
	}

	stmt, err := conn.Prepare(ctx, probe)
	if err != nil {
		return record.Schema{}, fmt.Errorf("reader: prepare schema probe: %w", err)
	}
	defer closeQuietly(stmt, r.log, "probe statement")

	cur, err := stmt.Query(ctx)
	if err != nil {
		return record.Schema{}, fmt.Errorf("reader: execute schema probe: %w", err)
	}
	defer closeQuietly(cur, r.log, "probe cursor")

	meta, err := cur.Meta()
	if err != nil {
		return record.Schema{}, fmt.Errorf("reader: read result metadata: %w", err)
	}

	schema := schemaFromMeta(meta)
	r.schema = &schema
	return schema, nil
}

// StreamRows executes the configured query and returns a lazy, single-pass
// iterator over its rows. The iterator polls ctx between rows; cancelling it
// closes the cursor and parks the iterator in StateCancelled.
func (r *Reader) StreamRows(ctx context.Context) (*RowIterator, error) {
	schema, err := r.Schema(ctx)
	if err != nil {
		return nil, err
	}

	cur, stmt, err := r.execute(ctx, r.desc.Query(), -1)
	if err != nil {
		return nil, err
	}
	return newRowIterator(cur, schema, r.log, stmt), nil
}

// StreamInto pulls every row into sink. It returns ctx's error on
// cancellation, the cursor's error if the stream errored, and nil on normal
// exhaustion. The cursor is closed in every case.
func (r *Reader) StreamInto(ctx context.Context, sink RowSink) error {
	it, err := r.StreamRows(ctx)
	if err != nil {
		return err
	}
	defer closeQuietly(it, r.log, "row iterator")

	for it.Next(ctx) {
		if err := sink.Append(it.Row()); err != nil {
			return err
		}
	}
	return it.Err()
}

// SnapshotRows materializes the query result into an in-memory table for
// bounded previews. A negative limit reads the full result; otherwise the
// query is wrapped in a sub-select and capped at limit rows. SnapshotRows(0)
// yields an empty table without error.
func (r *Reader) SnapshotRows(ctx context.Context, limit int) (*record.Table, error) {
	schema, err := r.Schema(ctx)
	if err != nil {
		return nil, err
	}

	query := r.desc.Query()
	maxRows := -1
	if limit >= 0 {
		query = fmt.Sprintf("SELECT * FROM (%s) %s", r.desc.Query(), nextAlias())
		maxRows = limit
	}

	cur, stmt, err := r.execute(ctx, query, maxRows)
	if err != nil {
		return nil, err
	}

	it := newRowIterator(cur, schema, r.log, stmt)
	defer closeQuietly(it, r.log, "row iterator")

	table := record.NewTable(schema)
	for it.Next(ctx) {
		if err := table.Append(it.Row()); err != nil {
			return nil, err
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// connect returns the held connection or opens a new one.
func (r *Reader) connect(ctx context.Context) (Conn, error) {
	if r.conn != nil {
		return r.conn, nil
	}
	conn, err := r.desc.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("reader: connect: %w", err)
	}
	r.conn = conn
	return conn, nil
}

// execute prepares and runs query, returning the open cursor plus the
// statement the caller must close once the cursor is drained. A
// non-negative maxRows caps the cursor before execution.
func (r *Reader) execute(ctx context.Context, query string, maxRows int) (Cursor, Stmt, error) {
	conn, err := r.connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	stmt, err := conn.Prepare(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("reader: prepare: %w", err)
	}
	if maxRows >= 0 {
		stmt.SetMaxRows(maxRows)
	}
	cur, err := stmt.Query(ctx)
	if err != nil {
		closeQuietly(stmt, r.log, "statement")
		return nil, nil, fmt.Errorf("reader: execute: %w", err)
	}
	return cur, stmt, nil
}

// Close releases the held connection, if any.
func (r *Reader) Close() error {
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}

func schemaFromMeta(meta Meta) record.Schema {
	cols := make([]record.Column, meta.NumColumns())
	for i := range cols {
		code := meta.ColumnType(i)
		cols[i] = record.Column{
			Name:       meta.ColumnName(i),
			Type:       sqltype.Map(code),
			SourceType: code,
		}
	}
	return record.NewSchema(cols)
}

func closeQuietly(c io.Closer, log *slog.Logger, what string) {
	if err := c.Close(); err != nil {
		log.Error("close "+what, "err", err)
	}
}
