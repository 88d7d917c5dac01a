package semantics

import (
	"context"
	"fmt"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
	"github.com/jacobsa/vdbvalidate/internal/semantics/chunkiter"
	"github.com/jacobsa/vdbvalidate/internal/verrors"
)

// CheckSumOfParts enforces Σ READ_LEN[r] == SPOT_LEN[r] for every row r in
// the shared range of READ_LEN and SPOT_LEN (§4.6.2). The two columns' row
// ranges must have equal first id and count; a mismatch there is a fatal
// consistency error, not a per-row one.
//
// In exhaustive mode every row is checked and every violation recorded;
// otherwise the scan stops at (and returns) the first violation.
func CheckSumOfParts(ctx context.Context, table archivereader.Node, exhaustive bool) []error {
	c, ids, err := OpenRequired(ctx, table, "READ_LEN", "SPOT_LEN")
	if err != nil {
		return []error{err}
	}

	readLenID := ids["READ_LEN"]
	spotLenID := ids["SPOT_LEN"]

	readLenRange := c.RowRange(readLenID)
	spotLenRange := c.RowRange(spotLenID)

	if readLenRange.First != spotLenRange.First || readLenRange.Count != spotLenRange.Count {
		return []error{verrors.New(
			verrors.KindDataConsistency,
			"table", table.Name(), "sum-of-parts",
			fmt.Sprintf("READ_LEN range %s != SPOT_LEN range %s", fmtRange(readLenRange), fmtRange(spotLenRange)),
			nil,
		)}
	}

	var errs []error

	err = chunkiter.Walk(ctx, readLenRange.First, readLenRange.Count, chunkiter.DefaultChunkSize, func(lo, hi int64) error {
		for r := lo; r <= hi; r++ {
			spotLen, err := c.ReadScalar(ctx, spotLenID, r, c.ElementBits(spotLenID))
			if err != nil {
				errs = append(errs, verrors.New(verrors.KindDataConsistency, "row", fmt.Sprintf("%d", r), "sum-of-parts", "reading SPOT_LEN", err))
				if !exhaustive {
					return errStop
				}
				continue
			}

			readLens, err := c.ReadArray(ctx, readLenID, r, c.ElementBits(readLenID))
			if err != nil {
				errs = append(errs, verrors.New(verrors.KindDataConsistency, "row", fmt.Sprintf("%d", r), "sum-of-parts", "reading READ_LEN", err))
				if !exhaustive {
					return errStop
				}
				continue
			}

			var sum uint64
			for _, v := range readLens {
				sum += v
			}

			if sum != spotLen {
				errs = append(errs, verrors.New(
					verrors.KindDataConsistency,
					"row", fmt.Sprintf("%d", r), "sum-of-parts",
					fmt.Sprintf("Sum(READ_LEN) != SPOT_LEN in row %d (%d != %d)", r, sum, spotLen),
					nil,
				))
				if !exhaustive {
					return errStop
				}
			}
		}
		return nil
	})

	if err != nil && err != errStop {
		errs = append(errs, err)
	}

	return errs
}

var errStop = fmt.Errorf("stop")
