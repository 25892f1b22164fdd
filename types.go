// Package tabread is the top-level facade for the tabular query reader.
package tabread

import (
	"github.com/relospace/tabread/internal/reader"
	"github.com/relospace/tabread/internal/record"
	"github.com/relospace/tabread/internal/sqltype"
)

type (
	Reader      = reader.Reader
	RowIterator = reader.RowIterator
	State       = reader.State
	Descriptor  = reader.Descriptor

	Schema = record.Schema
	Column = record.Column
	Row    = record.Row
	Cell   = record.Cell
	Table  = record.Table

	Semantic = sqltype.Semantic
)

const (
	StateActive    = reader.StateActive
	StateExhausted = reader.StateExhausted
	StateErrored   = reader.StateErrored
	StateCancelled = reader.StateCancelled
)

func New(desc Descriptor) *Reader { return reader.New(desc) }
