// Package cursor implements the Cursor Layer (§4.5): a read-only cursor
// abstraction over a table that exposes columns by name, returns typed row
// ranges, and supports direct random-access reads of cells.
//
// The two-phase add-column-then-open-cursor contract mirrors a typical VDB
// cursor API; it exists so that a schema-aware caller (the Semantic
// Validator) can declare interest in a fixed column set before any I/O
// happens, matching §4.5's "reads are not permitted before this step".
package cursor

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
)

// ColID is the stable identifier returned by AddColumn.
type ColID int

// ErrNotPresent is returned by AddColumn when the named column doesn't
// exist on the table.
var ErrNotPresent = fmt.Errorf("column not present")

// ErrRowNotFound is returned by Cell when no blob covers the requested row.
type ErrRowNotFound struct {
	RowID int64
	ColID ColID
}

func (e ErrRowNotFound) Error() string {
	return fmt.Sprintf("row %d not found for column %d", e.RowID, e.ColID)
}

// Cursor is a read session on one table, bound to a subset of columns.
type Cursor struct {
	table archivereader.Node

	opened  bool
	names   []string
	ids     map[string]ColID
	columns []archivereader.ColumnNode
	metas   []archivereader.ColumnMeta
}

// Open returns a new, unopened Cursor over table. Call AddColumn for each
// column of interest, then OpenCursor before any reads.
func Open(table archivereader.Node) *Cursor {
	return &Cursor{table: table, ids: make(map[string]ColID)}
}

// AddColumn declares interest in the named column, returning a stable
// ColID. Must be called before OpenCursor.
func (c *Cursor) AddColumn(ctx context.Context, name string) (ColID, error) {
	if c.opened {
		return 0, fmt.Errorf("AddColumn called after OpenCursor")
	}
	if id, ok := c.ids[name]; ok {
		return id, nil
	}

	children, err := c.table.Children(ctx)
	if err != nil {
		return 0, err
	}

	for _, ch := range children {
		if ch.Type() != archivereader.ObjColumn || ch.Name() != name {
			continue
		}
		col := ch.(archivereader.ColumnNode)

		id := ColID(len(c.columns))
		c.names = append(c.names, name)
		c.columns = append(c.columns, col)
		c.ids[name] = id
		return id, nil
	}

	return 0, ErrNotPresent
}

// OpenCursor finalises the column set, reading each column's static blob
// metadata. Reads are not permitted before this returns successfully.
func (c *Cursor) OpenCursor(ctx context.Context) error {
	c.metas = make([]archivereader.ColumnMeta, len(c.columns))
	for i, col := range c.columns {
		meta, err := col.Meta(ctx)
		if err != nil {
			return fmt.Errorf("Meta(%s): %w", c.names[i], err)
		}
		c.metas[i] = meta
	}
	c.opened = true
	return nil
}

// ColumnName returns the name a ColID was registered under.
func (c *Cursor) ColumnName(id ColID) string {
	return c.names[id]
}

// RowRange returns the inclusive start id and count spanned by col's blobs.
func (c *Cursor) RowRange(id ColID) RowRange {
	meta := c.metas[id]
	if len(meta.Blobs) == 0 {
		return RowRange{}
	}
	first := meta.Blobs[0].FirstRow
	last := meta.Blobs[0].FirstRow + meta.Blobs[0].RowCount
	for _, b := range meta.Blobs[1:] {
		if b.FirstRow < first {
			first = b.FirstRow
		}
		if b.FirstRow+b.RowCount > last {
			last = b.FirstRow + b.RowCount
		}
	}
	return RowRange{First: first, Count: last - first}
}

// ElementBits returns col's declared element width.
func (c *Cursor) ElementBits(id ColID) int {
	return c.metas[id].ElementBits
}

// Sparse reports whether col is declared sparse (missing cells in its row
// range are not an error).
func (c *Cursor) Sparse(id ColID) bool {
	return c.metas[id].Sparse
}

// Cell is a direct borrowed view of one cell's element array (§4.5).
type Cell struct {
	ElementBits  int
	ElementCount int
	Data         []byte
}

// CellDataDirect returns the cell at rowID for col, satisfying the direct
// random-access-read requirement of §4.5. An unmapped row id returns
// ErrRowNotFound, distinguishable from a generic I/O error.
func (c *Cursor) CellDataDirect(ctx context.Context, id ColID, rowID int64) (Cell, error) {
	if !c.opened {
		return Cell{}, fmt.Errorf("CellDataDirect called before OpenCursor")
	}

	data, bits, count, err := c.columns[id].ReadCell(ctx, rowID)
	if err != nil {
		if archivereader.IsRowNotFound(err) {
			return Cell{}, ErrRowNotFound{RowID: rowID, ColID: id}
		}
		return Cell{}, err
	}

	if bits != c.metas[id].ElementBits {
		return Cell{}, fmt.Errorf(
			"element-bits mismatch for column %s: declared %d, cell %d",
			c.names[id], c.metas[id].ElementBits, bits)
	}

	return Cell{ElementBits: bits, ElementCount: count, Data: data}, nil
}

// ReadScalar asserts that the cell at rowID has exactly one element of
// width bits and returns it as an unsigned integer. Callers that want a
// signed or floating interpretation cast the result themselves.
func (c *Cursor) ReadScalar(ctx context.Context, id ColID, rowID int64, bits int) (uint64, error) {
	cell, err := c.CellDataDirect(ctx, id, rowID)
	if err != nil {
		return 0, err
	}
	if cell.ElementBits != bits || cell.ElementCount != 1 {
		return 0, fmt.Errorf(
			"ReadScalar: column %s row %d has %d elements of %d bits, expected 1 of %d",
			c.names[id], rowID, cell.ElementCount, cell.ElementBits, bits)
	}
	return decodeUint(cell.Data, bits), nil
}

// ReadArray asserts that the cell at rowID has elements of width bits and
// returns them decoded as unsigned integers.
func (c *Cursor) ReadArray(ctx context.Context, id ColID, rowID int64, bits int) ([]uint64, error) {
	cell, err := c.CellDataDirect(ctx, id, rowID)
	if err != nil {
		return nil, err
	}
	if cell.ElementBits != bits {
		return nil, fmt.Errorf(
			"ReadArray: column %s row %d has element-bits %d, expected %d",
			c.names[id], rowID, cell.ElementBits, bits)
	}

	width := (bits + 7) / 8
	out := make([]uint64, cell.ElementCount)
	for i := range out {
		out[i] = decodeUint(cell.Data[i*width:(i+1)*width], bits)
	}
	return out, nil
}

// PageIDRange returns the [first, last] row range of the blob page
// containing startRow, for a column backed by blob pages (§4.5).
func (c *Cursor) PageIDRange(id ColID, startRow int64) (first, last int64, err error) {
	for _, b := range c.metas[id].Blobs {
		if startRow >= b.FirstRow && startRow < b.FirstRow+b.RowCount {
			return b.FirstRow, b.FirstRow + b.RowCount - 1, nil
		}
	}
	return 0, 0, ErrRowNotFound{RowID: startRow, ColID: id}
}

// Prefetch hints that rows will be accessed soon. This in-process
// implementation has no I/O backend worth warming, so it is a documented
// O(1) no-op per id, satisfying the amortised-cost requirement trivially.
func (c *Cursor) Prefetch(ctx context.Context, id ColID, rowIDs []int64) {
	_ = ctx
	_ = id
	_ = rowIDs
}

func decodeUint(b []byte, bits int) uint64 {
	switch bits {
	case 8:
		return uint64(b[0])
	case 16:
		return uint64(binary.BigEndian.Uint16(b))
	case 32:
		return uint64(binary.BigEndian.Uint32(b))
	case 64:
		return binary.BigEndian.Uint64(b)
	default:
		var v uint64
		for _, c := range b {
			v = v<<8 | uint64(c)
		}
		return v
	}
}
