// Package config holds the validator's option surface: the CLI flag table
// of the archive validation command re-expressed as an immutable value,
// loadable from an optional JSON defaults file.
package config

// ValidatorOptions is the full set of knobs the validate command exposes.
// A zero ValidatorOptions is not necessarily valid -- see Defaults for the
// documented default settings.
type ValidatorOptions struct {
	// MD5 enables the per-file manifest MD5 check.
	MD5 bool

	// BlobCRC enables the per-blob CRC32 check.
	BlobCRC bool

	// Index enables the index sortedness/manifest check.
	Index bool

	// Exhaustive continues past the first failure within an object,
	// recording every violation, instead of stopping the subtree.
	Exhaustive bool

	// ReferentialIntegrity enables the SEQ/PRIMARY/REFERENCE/SECONDARY
	// paired-key joins.
	ReferentialIntegrity bool

	// ConsistencyCheck enables the deeper table-shape and sum-of-parts
	// checks (SRA/FASTQ shape, Σ READ_LEN == SPOT_LEN, SDC).
	ConsistencyCheck bool

	// SDCRows is the SDC row budget; 0 means "use the built-in default".
	SDCRows int64

	// SDCRowsPercent is the SDC row budget expressed as a percentage of
	// the SECONDARY table's row count. Validate checks its range and its
	// exclusivity with SDCRows, but the validate command does not pass it
	// on: the SDC row budget comes from SDCRows alone.
	SDCRowsPercent float64

	// SDCPLenThreshold is the SDC longer-primary threshold, expressed as
	// a fraction (0 < x <= 1) of the rows actually swept; 0 means "use
	// the built-in default" (1%).
	SDCPLenThreshold float64

	// SDCPLenThresholdCount, if non-zero, expresses the threshold as a
	// flat row count instead of a fraction -- the "integer or %" mode
	// switch.
	SDCPLenThresholdCount int64
}

// Defaults returns the documented default option set: MD5 and blob CRC32
// on, index check and consistency check off, RI on, non-exhaustive.
func Defaults() ValidatorOptions {
	return ValidatorOptions{
		MD5:                  true,
		BlobCRC:              true,
		Index:                false,
		Exhaustive:           false,
		ReferentialIntegrity: true,
		ConsistencyCheck:     false,
	}
}

// Config is the top-level JSON document a -config flag may point at: a
// named set of default ValidatorOptions values.
type Config struct {
	Options ValidatorOptions
}
