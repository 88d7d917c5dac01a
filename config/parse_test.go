package config_test

import (
	"testing"

	"github.com/jacobsa/vdbvalidate/config"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

func TestParse(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Helpers
////////////////////////////////////////////////////////////////////////

type ParseTest struct {
	data string
	cfg  *config.Config
	err  error
}

func init() { RegisterTestSuite(&ParseTest{}) }

func (t *ParseTest) parse() {
	t.cfg, t.err = config.Parse([]byte(t.data))
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *ParseTest) TotalJunk() {
	t.data = "sdhjklfghdskjghdjkfgj"
	t.parse()

	ExpectThat(t.err, Error(HasSubstr("decoding JSON")))
}

func (t *ParseTest) Null() {
	t.data = `null`
	t.parse()

	AssertEq(nil, t.err)
	ExpectEq(config.Defaults(), t.cfg.Options)
}

func (t *ParseTest) Array() {
	t.data = `[17, 19]`
	t.parse()

	ExpectThat(t.err, Error(HasSubstr("decoding JSON")))
}

func (t *ParseTest) EmptyObject() {
	t.data = `{}`
	t.parse()

	AssertEq(nil, t.err)
	ExpectEq(config.Defaults(), t.cfg.Options)
}

func (t *ParseTest) OverridesBooleanDefaults() {
	t.data = `
	{
		"options": {
			"md5": false,
			"blob_crc": false,
			"index": true,
			"exhaustive": true,
			"referential_integrity": false,
			"consistency_check": true
		}
	}
	`
	t.parse()

	AssertEq(nil, t.err)
	ExpectFalse(t.cfg.Options.MD5)
	ExpectFalse(t.cfg.Options.BlobCRC)
	ExpectTrue(t.cfg.Options.Index)
	ExpectTrue(t.cfg.Options.Exhaustive)
	ExpectFalse(t.cfg.Options.ReferentialIntegrity)
	ExpectTrue(t.cfg.Options.ConsistencyCheck)
}

func (t *ParseTest) AbsentBooleansKeepDefaults() {
	t.data = `
	{
		"options": {
			"index": true
		}
	}
	`
	t.parse()

	AssertEq(nil, t.err)
	ExpectTrue(t.cfg.Options.MD5)
	ExpectTrue(t.cfg.Options.BlobCRC)
	ExpectTrue(t.cfg.Options.Index)
	ExpectTrue(t.cfg.Options.ReferentialIntegrity)
	ExpectFalse(t.cfg.Options.ConsistencyCheck)
}

func (t *ParseTest) NumericOptions() {
	t.data = `
	{
		"options": {
			"sdc_rows": 50000,
			"sdc_rows_percent": 2.5,
			"sdc_plen_thold": 0.03,
			"sdc_plen_thold_count": 7
		}
	}
	`
	t.parse()

	AssertEq(nil, t.err)
	ExpectEq(50000, t.cfg.Options.SDCRows)
	ExpectEq(2.5, t.cfg.Options.SDCRowsPercent)
	ExpectEq(0.03, t.cfg.Options.SDCPLenThreshold)
	ExpectEq(7, t.cfg.Options.SDCPLenThresholdCount)
}

func (t *ParseTest) MissingTrailingBrace() {
	t.data = `
	{
		"options": {}
	`
	t.parse()

	ExpectThat(t.err, Error(HasSubstr("decoding JSON")))
}
