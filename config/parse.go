package config

import (
	"encoding/json"
	"fmt"
)

// jsonOptions mirrors ValidatorOptions with JSON tags, a private shadow
// struct that keeps the wire format's field names decoupled from the Go
// identifiers and lets pointer-typed bools distinguish "absent" from
// "explicitly false".
type jsonOptions struct {
	MD5                   *bool    `json:"md5"`
	BlobCRC               *bool    `json:"blob_crc"`
	Index                 *bool    `json:"index"`
	Exhaustive            *bool    `json:"exhaustive"`
	ReferentialIntegrity  *bool    `json:"referential_integrity"`
	ConsistencyCheck      *bool    `json:"consistency_check"`
	SDCRows               int64    `json:"sdc_rows"`
	SDCRowsPercent        float64  `json:"sdc_rows_percent"`
	SDCPLenThreshold      float64  `json:"sdc_plen_thold"`
	SDCPLenThresholdCount int64    `json:"sdc_plen_thold_count"`
}

type jsonConfig struct {
	Options jsonOptions `json:"options"`
}

// Parse decodes a JSON configuration document into a Config, starting from
// Defaults() and overriding only the fields the document sets explicitly
// (a present-but-false boolean is distinguished from an absent one via a
// pointer field).
func Parse(data []byte) (*Config, error) {
	var jCfg jsonConfig
	if err := json.Unmarshal(data, &jCfg); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	opts := Defaults()
	jo := jCfg.Options

	if jo.MD5 != nil {
		opts.MD5 = *jo.MD5
	}
	if jo.BlobCRC != nil {
		opts.BlobCRC = *jo.BlobCRC
	}
	if jo.Index != nil {
		opts.Index = *jo.Index
	}
	if jo.Exhaustive != nil {
		opts.Exhaustive = *jo.Exhaustive
	}
	if jo.ReferentialIntegrity != nil {
		opts.ReferentialIntegrity = *jo.ReferentialIntegrity
	}
	if jo.ConsistencyCheck != nil {
		opts.ConsistencyCheck = *jo.ConsistencyCheck
	}
	opts.SDCRows = jo.SDCRows
	opts.SDCRowsPercent = jo.SDCRowsPercent
	opts.SDCPLenThreshold = jo.SDCPLenThreshold
	opts.SDCPLenThresholdCount = jo.SDCPLenThresholdCount

	return &Config{Options: opts}, nil
}
