package semantics

import (
	"context"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
	"github.com/jacobsa/vdbvalidate/internal/cursor"
	"github.com/jacobsa/vdbvalidate/internal/verrors"
)

// sraRequiredColumns are required per §4.6.1; QUALITY's absence is only a
// warning.
var sraRequiredColumns = []string{"READ", "SPOT_LEN", "READ_START", "READ_LEN", "READ_TYPE"}

// CheckSRAShape opens a cursor with READ, QUALITY (optional), SPOT_LEN,
// READ_START, READ_LEN, READ_TYPE, and checks the first row of every
// required column has a non-zero element width (§4.6.1).
func CheckSRAShape(ctx context.Context, table archivereader.Node) []error {
	var errs []error

	c := cursor.Open(table)
	ids := make(map[string]cursor.ColID, len(sraRequiredColumns)+1)

	for _, name := range sraRequiredColumns {
		id, err := c.AddColumn(ctx, name)
		if err != nil {
			errs = append(errs, verrors.New(verrors.KindFatalStructure, "table", table.Name(), "add-column", name, err))
			return errs
		}
		ids[name] = id
	}

	qualID, hasQuality := OpenOptionalColumn(ctx, c, "QUALITY")
	if !hasQuality {
		errs = append(errs, verrors.New(verrors.KindMissingChecksum, "table", table.Name(), "sra-shape", "QUALITY column absent", nil))
	} else {
		ids["QUALITY"] = qualID
	}

	if err := c.OpenCursor(ctx); err != nil {
		errs = append(errs, verrors.New(verrors.KindFatalStructure, "table", table.Name(), "open-cursor", "", err))
		return errs
	}

	for _, name := range sraRequiredColumns {
		id := ids[name]
		rng := c.RowRange(id)
		if rng.Count == 0 {
			errs = append(errs, verrors.New(verrors.KindFatalStructure, "column", name, "sra-shape", "empty row range", nil))
			continue
		}

		firstRow := rng.First
		cell, err := c.CellDataDirect(ctx, id, firstRow)
		if err != nil {
			errs = append(errs, verrors.New(verrors.KindFatalStructure, "column", name, "sra-shape", "first row unreadable", err))
			continue
		}
		if cell.ElementBits == 0 {
			errs = append(errs, verrors.New(verrors.KindFatalStructure, "column", name, "sra-shape", "element_bits == 0", nil))
		}
	}

	return errs
}
