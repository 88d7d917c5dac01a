package index

import (
	"context"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
	"github.com/jacobsa/vdbvalidate/internal/checksum"
	"github.com/jacobsa/vdbvalidate/internal/verrors"
)

// Check validates one index node: its backing files' MD5 digests, and the
// well-formedness of its persisted sorted-key data (§4.4).
func Check(ctx context.Context, idx archivereader.IndexNode) []error {
	var errs []error

	for _, e := range checksum.CheckManifest(ctx, idx.Name(), idx, true) {
		errs = append(errs, e)
	}

	keys, err := idx.SortedKeys(ctx)
	if err != nil {
		errs = append(errs, verrors.New(verrors.KindFatalStructure, "index", idx.Name(), "read-keys", "", err))
		return errs
	}

	if !IsSorted(keys) {
		errs = append(errs, verrors.New(
			verrors.KindDataConsistency,
			"index", idx.Name(), "sortedness",
			"keys are not monotonically non-decreasing",
			nil,
		))
	}

	return errs
}
