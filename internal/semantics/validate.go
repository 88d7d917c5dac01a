package semantics

import (
	"context"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
	"github.com/jacobsa/vdbvalidate/internal/semantics/seqprimaryjoin"
)

// Options configures which semantic checks Validate runs and how.
//
// Grounded on the original tool's tools/sra-validate/csra-validator.c/.h,
// which owns exactly this decision: given a database node, which of the
// SRA-shape, sum-of-parts, RI-join, and SDC checks apply, and whether the
// database even looks like a cSRA/FASTQ archive at all.
type Options struct {
	CheckSumOfParts           bool
	CheckReferentialIntegrity bool
	CheckSeqPrimaryJoin       bool
	CheckSDC                  bool
	Exhaustive                bool
	RIBudgetBytes             int64
	SDC                       SDCOptions
}

// DefaultOptions returns the option set the CLI uses when the user passes
// --consistency-check with no finer-grained flags: every applicable check,
// non-exhaustive (stop each subtree at its first violation).
func DefaultOptions() Options {
	return Options{
		CheckSumOfParts:           true,
		CheckReferentialIntegrity: true,
		CheckSeqPrimaryJoin:       true,
		CheckSDC:                  true,
		SDC:                       SDCOptions{RowBudget: DefaultSDCRowBudget, PLenThreshold: DefaultSDCPLenThreshold},
	}
}

// Validate runs the applicable semantic checks against db, a database node
// expected to hold (at least) a SEQUENCE table and, for a cSRA archive,
// PRIMARY, REFERENCE and optionally SECONDARY tables (§4.6).
//
// A plain SRA/FASTQ archive with no PRIMARY/REFERENCE is valid: Validate
// runs only the checks whose tables are present, matching the original
// tool's behaviour of silently skipping cSRA-only checks on such archives.
func Validate(ctx context.Context, db archivereader.Node, opts Options) []error {
	var errs []error

	sequence, hasSequence, err := findTable(ctx, db, "SEQUENCE")
	if err != nil {
		return []error{err}
	}
	if hasSequence && opts.CheckSumOfParts {
		errs = append(errs, CheckSRAShape(ctx, sequence)...)
		errs = append(errs, CheckSumOfParts(ctx, sequence, opts.Exhaustive)...)
	}

	primary, hasPrimary, err := findTable(ctx, db, "PRIMARY")
	if err != nil {
		return append(errs, err)
	}
	_, hasReference, err := findTable(ctx, db, "REFERENCE")
	if err != nil {
		return append(errs, err)
	}
	secondary, hasSecondary, err := findTable(ctx, db, "SECONDARY")
	if err != nil {
		return append(errs, err)
	}

	isCSRA := hasPrimary && hasReference

	if isCSRA && opts.CheckReferentialIntegrity {
		errs = append(errs, CheckStandardJoins(ctx, db, RIOptions{
			BudgetBytes: opts.RIBudgetBytes,
			Exhaustive:  opts.Exhaustive,
		})...)
	}

	if isCSRA && hasSequence && opts.CheckSeqPrimaryJoin {
		errs = append(errs, seqprimaryjoin.Check(ctx, sequence, primary, seqprimaryjoin.Options{
			Exhaustive: opts.Exhaustive,
		})...)
	}

	if isCSRA && hasSecondary && hasSequence && opts.CheckSDC {
		sdcOpts := opts.SDC
		sdcOpts.Exhaustive = opts.Exhaustive
		errs = append(errs, CheckSDC(ctx, secondary, sequence, primary, sdcOpts)...)
	}

	return errs
}
