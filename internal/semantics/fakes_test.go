package semantics_test

import (
	"context"
	"encoding/binary"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
)

////////////////////////////////////////////////////////////////////////
// fakeColumn
////////////////////////////////////////////////////////////////////////

// fakeColumn is a minimal in-memory archivereader.ColumnNode. rows maps a
// row id to its decoded element list; a row absent from rows is reported
// as not found. All cells share the same element width (elementBits).
type fakeColumn struct {
	name        string
	elementBits int
	first       int64
	count       int64
	rows        map[int64][]uint64
}

func (c *fakeColumn) Type() archivereader.ObjType { return archivereader.ObjColumn }
func (c *fakeColumn) Name() string                { return c.name }

func (c *fakeColumn) Children(ctx context.Context) ([]archivereader.Node, error) { return nil, nil }
func (c *fakeColumn) MD5Entries(ctx context.Context) (map[string]string, error) { return nil, nil }
func (c *fakeColumn) OpenFile(ctx context.Context, name string) (archivereader.ReadCloserAt, error) {
	return nil, nil
}

func (c *fakeColumn) Meta(ctx context.Context) (archivereader.ColumnMeta, error) {
	return archivereader.ColumnMeta{
		Name:        c.name,
		ElementBits: c.elementBits,
		Blobs: []archivereader.BlobMeta{
			{FirstRow: c.first, RowCount: c.count, ElementBits: c.elementBits},
		},
	}, nil
}

func (c *fakeColumn) OpenBlob(ctx context.Context, b archivereader.BlobMeta) (archivereader.ReadCloserAt, error) {
	return nil, nil
}

func (c *fakeColumn) ReadCell(ctx context.Context, rowID int64) ([]byte, int, int, error) {
	vals, ok := c.rows[rowID]
	if !ok {
		return nil, 0, 0, fakeRowNotFound{rowID: rowID}
	}

	width := c.elementBits / 8
	buf := make([]byte, len(vals)*width)
	for i, v := range vals {
		switch c.elementBits {
		case 32:
			binary.BigEndian.PutUint32(buf[i*width:], uint32(v))
		case 64:
			binary.BigEndian.PutUint64(buf[i*width:], v)
		default:
			panic("fakeColumn: unsupported elementBits in test fixture")
		}
	}
	return buf, c.elementBits, len(vals), nil
}

// fakeRowNotFound is deliberately NOT recognised by archivereader.IsRowNotFound
// (that predicate matches only the archivereader package's own unexported
// sentinel) -- test fixtures therefore only reference rows present in the
// map, matching every literal scenario in this package's tests.
type fakeRowNotFound struct{ rowID int64 }

func (e fakeRowNotFound) Error() string { return "row not found (fake)" }

////////////////////////////////////////////////////////////////////////
// fakeTable / fakeDatabase
////////////////////////////////////////////////////////////////////////

// fakeTable is an archivereader.Node whose children are fakeColumns.
type fakeTable struct {
	name    string
	columns []*fakeColumn
}

func (t *fakeTable) Type() archivereader.ObjType { return archivereader.ObjTable }
func (t *fakeTable) Name() string                { return t.name }

func (t *fakeTable) Children(ctx context.Context) ([]archivereader.Node, error) {
	out := make([]archivereader.Node, len(t.columns))
	for i, c := range t.columns {
		out[i] = c
	}
	return out, nil
}

func (t *fakeTable) MD5Entries(ctx context.Context) (map[string]string, error) { return nil, nil }
func (t *fakeTable) OpenFile(ctx context.Context, name string) (archivereader.ReadCloserAt, error) {
	return nil, nil
}

// fakeDatabase is an archivereader.Node whose children are fakeTables, used
// by CheckStandardJoins's findTable lookup.
type fakeDatabase struct {
	name   string
	tables []*fakeTable
}

func (d *fakeDatabase) Type() archivereader.ObjType { return archivereader.ObjDatabase }
func (d *fakeDatabase) Name() string                { return d.name }

func (d *fakeDatabase) Children(ctx context.Context) ([]archivereader.Node, error) {
	out := make([]archivereader.Node, len(d.tables))
	for i, t := range d.tables {
		out[i] = t
	}
	return out, nil
}

func (d *fakeDatabase) MD5Entries(ctx context.Context) (map[string]string, error) { return nil, nil }
func (d *fakeDatabase) OpenFile(ctx context.Context, name string) (archivereader.ReadCloserAt, error) {
	return nil, nil
}
