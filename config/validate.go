package config

import "fmt"

// Validate returns an error if o's values are mutually inconsistent -- the
// "integer or %" mode switches must not both be set for the same
// threshold, and fractions must fall in [0, 1] (0 selecting the built-in
// default).
func Validate(o *ValidatorOptions) error {
	if o.SDCRows > 0 && o.SDCRowsPercent > 0 {
		return fmt.Errorf("SDCRows and SDCRowsPercent are mutually exclusive")
	}
	if o.SDCRowsPercent < 0 || o.SDCRowsPercent > 100 {
		return fmt.Errorf("SDCRowsPercent must be in [0, 100], got %v", o.SDCRowsPercent)
	}

	if o.SDCPLenThreshold > 0 && o.SDCPLenThresholdCount > 0 {
		return fmt.Errorf("SDCPLenThreshold and SDCPLenThresholdCount are mutually exclusive")
	}
	if o.SDCPLenThreshold < 0 || o.SDCPLenThreshold > 1 {
		return fmt.Errorf("SDCPLenThreshold must be in [0, 1], got %v", o.SDCPLenThreshold)
	}
	if o.SDCPLenThresholdCount < 0 {
		return fmt.Errorf("SDCPLenThresholdCount must be >= 0, got %v", o.SDCPLenThresholdCount)
	}

	return nil
}
