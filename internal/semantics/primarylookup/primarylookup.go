// Package primarylookup is the PRIMARY-side half of the specialised
// SEQUENCE/PRIMARY cross-check, grounded on the original tool's
// tools/sra-validate/prim-iter.c and prim-lookup.c/h: a single producer
// streams every PRIMARY row's (READ_LEN, REF_ORIENTATION) pair into a
// shared lookup map, keyed by row id, for consumers on the SEQUENCE side
// to join against.
package primarylookup

import (
	"context"
	"fmt"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
	"github.com/jacobsa/vdbvalidate/internal/concurrency"
	"github.com/jacobsa/vdbvalidate/internal/cursor"
)

// Columns read from PRIMARY. REF_ORIENTATION is optional -- some archives
// carry no alignment orientation at all, in which case RefOrient is left
// false. The consumer cross-checks read length only; the orientation is
// carried in each entry but not compared.
const (
	ColReadLen   = "READ_LEN"
	ColRefOrient = "REF_ORIENTATION"
)

// Produce streams every row of primary into lm, keyed by the PRIMARY row
// id. It returns when the table is exhausted, ctx is cancelled, or a read
// fails structurally.
func Produce(ctx context.Context, primary archivereader.Node, lm *concurrency.LookupMap) error {
	c := cursor.Open(primary)

	readLenID, err := c.AddColumn(ctx, ColReadLen)
	if err != nil {
		return fmt.Errorf("PRIMARY.%s: %w", ColReadLen, err)
	}

	orientID, err := c.AddColumn(ctx, ColRefOrient)
	hasOrient := err == nil

	if err := c.OpenCursor(ctx); err != nil {
		return fmt.Errorf("PRIMARY open-cursor: %w", err)
	}

	rng := c.RowRange(readLenID)
	for row := rng.First; row < rng.End(); row++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		readLen, err := c.ReadScalar(ctx, readLenID, row, c.ElementBits(readLenID))
		if err != nil {
			if _, ok := err.(cursor.ErrRowNotFound); ok {
				continue
			}
			return fmt.Errorf("PRIMARY row %d: %w", row, err)
		}

		var orient bool
		if hasOrient {
			v, err := c.ReadScalar(ctx, orientID, row, c.ElementBits(orientID))
			if err == nil {
				orient = v != 0
			}
		}

		lm.Put(row, concurrency.PrimaryEntry{ReadLen: uint32(readLen), RefOrient: orient})
	}

	return nil
}
