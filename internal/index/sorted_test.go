package index_test

import (
	"testing"

	"github.com/jacobsa/vdbvalidate/internal/index"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

func TestSorted(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Helpers
////////////////////////////////////////////////////////////////////////

type SortedTest struct {
}

func init() { RegisterTestSuite(&SortedTest{}) }

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *SortedTest) EmptySlice() {
	ExpectTrue(index.IsSorted(nil))
	ExpectTrue(index.IsSorted([]int64{}))
}

func (t *SortedTest) SingleElement() {
	ExpectTrue(index.IsSorted([]int64{42}))
}

func (t *SortedTest) StrictlyIncreasing() {
	ExpectTrue(index.IsSorted([]int64{1, 2, 3, 4, 5}))
}

func (t *SortedTest) NonDecreasingWithRepeats() {
	ExpectTrue(index.IsSorted([]int64{1, 1, 2, 2, 2, 3}))
}

func (t *SortedTest) AllEqual() {
	ExpectTrue(index.IsSorted([]int64{7, 7, 7, 7}))
}

func (t *SortedTest) SingleInversionAtStart() {
	ExpectFalse(index.IsSorted([]int64{2, 1, 3, 4}))
}

func (t *SortedTest) SingleInversionAtEnd() {
	ExpectFalse(index.IsSorted([]int64{1, 2, 3, 1}))
}

func (t *SortedTest) StrictlyDecreasing() {
	ExpectFalse(index.IsSorted([]int64{5, 4, 3, 2, 1}))
}

func (t *SortedTest) NegativeValues() {
	ExpectTrue(index.IsSorted([]int64{-10, -5, 0, 5, 10}))
	ExpectFalse(index.IsSorted([]int64{-5, -10}))
}
