// Package semantics implements the Semantic Validator (§4.6): schema-aware
// consistency checks built on the Cursor Layer.
//
// Grounded on the original tool's tools/sra-validate/cmn.c (shared helpers)
// and csra-validator.c/.h (the top-level per-table dispatch).
package semantics

import (
	"context"
	"fmt"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
	"github.com/jacobsa/vdbvalidate/internal/cursor"
	"github.com/jacobsa/vdbvalidate/internal/verrors"
)

// OpenRequired opens a cursor over table with the named columns, treating a
// missing column as fatal -- the caller already decided this column is
// required (the SRA/FASTQ and alignment checks both special-case READ,
// QUALITY, and the RI join columns differently; see sra.go and
// alignment.go).
func OpenRequired(ctx context.Context, table archivereader.Node, names ...string) (*cursor.Cursor, map[string]cursor.ColID, error) {
	c := cursor.Open(table)
	ids := make(map[string]cursor.ColID, len(names))

	for _, name := range names {
		id, err := c.AddColumn(ctx, name)
		if err != nil {
			return nil, nil, verrors.New(verrors.KindFatalStructure, "table", tableName(table), "add-column", name, err)
		}
		ids[name] = id
	}

	if err := c.OpenCursor(ctx); err != nil {
		return nil, nil, verrors.New(verrors.KindFatalStructure, "table", tableName(table), "open-cursor", "", err)
	}

	return c, ids, nil
}

// OpenOptionalColumn is like OpenRequired's AddColumn step, but a missing column
// is reported via present=false rather than an error.
func OpenOptionalColumn(ctx context.Context, c *cursor.Cursor, name string) (id cursor.ColID, present bool) {
	id, err := c.AddColumn(ctx, name)
	return id, err == nil
}

func tableName(n archivereader.Node) string {
	return n.Name()
}

// findTable looks up a direct child table of db by name, returning
// (nil, false) if absent. Used by the "required vs warn" table-presence
// split recorded in DESIGN.md.
func findTable(ctx context.Context, db archivereader.Node, name string) (archivereader.Node, bool, error) {
	children, err := db.Children(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, c := range children {
		if c.Type() == archivereader.ObjTable && c.Name() == name {
			return c, true, nil
		}
	}
	return nil, false, nil
}

func rangesEqual(a, b cursor.RowRange) bool {
	return a.First == b.First && a.Count == b.Count
}

func fmtRange(r cursor.RowRange) string {
	return fmt.Sprintf("[%d,%d)", r.First, r.End())
}
