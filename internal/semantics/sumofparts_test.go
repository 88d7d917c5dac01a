package semantics_test

import (
	"context"
	"testing"

	"github.com/jacobsa/vdbvalidate/internal/semantics"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

func TestSumOfParts(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Helpers
////////////////////////////////////////////////////////////////////////

type SumOfPartsTest struct {
}

func init() { RegisterTestSuite(&SumOfPartsTest{}) }

// s1Table builds the scenario S1 fixture: READ_LEN rows 1..3 =
// [[3,4],[5,0],[2,2]], SPOT_LEN rows 1..3 = [7,5,4].
func (t *SumOfPartsTest) s1Table(spotLen3 uint64) *fakeTable {
	return &fakeTable{
		name: "SEQUENCE",
		columns: []*fakeColumn{
			{
				name: "READ_LEN", elementBits: 32, first: 1, count: 3,
				rows: map[int64][]uint64{
					1: {3, 4},
					2: {5, 0},
					3: {2, 2},
				},
			},
			{
				name: "SPOT_LEN", elementBits: 32, first: 1, count: 3,
				rows: map[int64][]uint64{
					1: {7},
					2: {5},
					3: {spotLen3},
				},
			},
		},
	}
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

// S1: Sum(READ_LEN) == SPOT_LEN for every row. Expected: clean.
func (t *SumOfPartsTest) S1Clean() {
	table := t.s1Table(4)
	errs := semantics.CheckSumOfParts(context.Background(), table, false /* exhaustive */)
	ExpectEq(0, len(errs))
}

// S2: SPOT_LEN[3] is mutated to 6 (Sum(READ_LEN) for row 3 is 4).
// Expected: "Sum(READ_LEN) != SPOT_LEN in row 3"; non-zero.
func (t *SumOfPartsTest) S2Mutated() {
	table := t.s1Table(6)
	errs := semantics.CheckSumOfParts(context.Background(), table, false /* exhaustive */)
	AssertEq(1, len(errs))
	ExpectThat(errs[0].Error(), HasSubstr("row 3"))
	ExpectThat(errs[0].Error(), HasSubstr("Sum(READ_LEN) != SPOT_LEN"))
}

// Testable property 5: a synthetic mutation of one cell causes the
// validator to report at exactly that row, regardless of exhaustive mode.
func (t *SumOfPartsTest) MutationReportedInExhaustiveMode() {
	table := t.s1Table(6)
	errs := semantics.CheckSumOfParts(context.Background(), table, true /* exhaustive */)
	AssertEq(1, len(errs))
	ExpectThat(errs[0].Error(), HasSubstr("row 3"))
}

// Non-exhaustive mode stops at the first violation even when more rows
// remain to be checked.
func (t *SumOfPartsTest) NonExhaustiveStopsAtFirstViolation() {
	table := &fakeTable{
		name: "SEQUENCE",
		columns: []*fakeColumn{
			{
				name: "READ_LEN", elementBits: 32, first: 1, count: 3,
				rows: map[int64][]uint64{
					1: {1},
					2: {1},
					3: {1},
				},
			},
			{
				name: "SPOT_LEN", elementBits: 32, first: 1, count: 3,
				rows: map[int64][]uint64{
					// Both rows 1 and 2 are mutated; only the first should
					// be reported in non-exhaustive mode.
					1: {9},
					2: {9},
					3: {1},
				},
			},
		},
	}

	errs := semantics.CheckSumOfParts(context.Background(), table, false /* exhaustive */)
	AssertEq(1, len(errs))
	ExpectThat(errs[0].Error(), HasSubstr("row 1"))
}
