package config_test

import (
	"testing"

	"github.com/jacobsa/vdbvalidate/config"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

func TestValidate(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Helpers
////////////////////////////////////////////////////////////////////////

type ValidateTest struct {
	opts config.ValidatorOptions
}

func init() { RegisterTestSuite(&ValidateTest{}) }

func (t *ValidateTest) SetUp(i *TestInfo) {
	t.opts = config.Defaults()
}

func (t *ValidateTest) validate() error {
	return config.Validate(&t.opts)
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *ValidateTest) DefaultsAreValid() {
	err := t.validate()
	ExpectEq(nil, err)
}

func (t *ValidateTest) SDCRowsAndPercentBothSet() {
	t.opts.SDCRows = 100
	t.opts.SDCRowsPercent = 5

	err := t.validate()

	ExpectThat(err, Error(HasSubstr("SDCRows")))
	ExpectThat(err, Error(HasSubstr("mutually exclusive")))
}

func (t *ValidateTest) SDCRowsPercentNegative() {
	t.opts.SDCRowsPercent = -1

	err := t.validate()

	ExpectThat(err, Error(HasSubstr("SDCRowsPercent")))
}

func (t *ValidateTest) SDCRowsPercentOver100() {
	t.opts.SDCRowsPercent = 101

	err := t.validate()

	ExpectThat(err, Error(HasSubstr("SDCRowsPercent")))
}

func (t *ValidateTest) SDCPLenThresholdAndCountBothSet() {
	t.opts.SDCPLenThreshold = 0.5
	t.opts.SDCPLenThresholdCount = 10

	err := t.validate()

	ExpectThat(err, Error(HasSubstr("SDCPLenThreshold")))
	ExpectThat(err, Error(HasSubstr("mutually exclusive")))
}

func (t *ValidateTest) SDCPLenThresholdNegative() {
	t.opts.SDCPLenThreshold = -0.1

	err := t.validate()

	ExpectThat(err, Error(HasSubstr("SDCPLenThreshold")))
}

func (t *ValidateTest) SDCPLenThresholdOver1() {
	t.opts.SDCPLenThreshold = 1.1

	err := t.validate()

	ExpectThat(err, Error(HasSubstr("SDCPLenThreshold")))
}

func (t *ValidateTest) SDCPLenThresholdCountNegative() {
	t.opts.SDCPLenThresholdCount = -1

	err := t.validate()

	ExpectThat(err, Error(HasSubstr("SDCPLenThresholdCount")))
}

func (t *ValidateTest) EverythingValid() {
	t.opts.SDCRows = 50000
	t.opts.SDCPLenThreshold = 0.02

	err := t.validate()
	ExpectEq(nil, err)
}
