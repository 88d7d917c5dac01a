package main

import "flag"

// cmdValidate is the tool's only command: validate one or more archive
// paths in sequence. Flags default to config.Defaults() and are overlaid
// onto whatever -config supplied.
var cmdValidate = &Command{
	Name:  "validate",
	Flags: flag.NewFlagSet("validate", flag.ExitOnError),
}

var (
	fConfigPath = cmdValidate.Flags.String("config", "", "Optional path to a JSON defaults file.")
	fKey        = cmdValidate.Flags.String("key", "", "Passphrase for an encrypted archive wrapper, if any.")

	fMD5                   = cmdValidate.Flags.Bool("md5", true, "Enable the file MD5 manifest check.")
	fBlobCRC               = cmdValidate.Flags.Bool("blob-crc", true, "Enable the per-blob CRC32 check.")
	fIndex                 = cmdValidate.Flags.Bool("index", false, "Enable the index sortedness check.")
	fExhaustive            = cmdValidate.Flags.Bool("exhaustive", false, "Continue past the first failure within an object.")
	fReferentialIntegrity  = cmdValidate.Flags.Bool("referential-integrity", true, "Enable the SEQ/PRIMARY/REFERENCE/SECONDARY referential-integrity joins.")
	fConsistencyCheck      = cmdValidate.Flags.Bool("consistency-check", false, "Enable the deep table-shape, sum-of-parts, and SDC checks.")
	fSDCRows               = cmdValidate.Flags.Int64("sdc-rows", 0, "SDC row budget (0 uses the built-in default).")
	fSDCPLenThold          = cmdValidate.Flags.Float64("sdc-plen-thold", 0, "SDC longer-primary fraction threshold, in (0,1] (0 uses the built-in default).")

	fGCSBucket  = cmdValidate.Flags.String("gcs-bucket", "", "If set, treat archive-path arguments as object names within this GCS bucket instead of local paths.")
	fGCSKeyFile = cmdValidate.Flags.String("gcs-key-file", "", "Service-account JSON key file for -gcs-bucket.")

	fS3Bucket          = cmdValidate.Flags.String("s3-bucket", "", "If set, treat archive-path arguments as object keys within this S3 bucket instead of local paths.")
	fS3Region          = cmdValidate.Flags.String("s3-region", "", "S3 region for -s3-bucket.")
	fS3AccessKeyID     = cmdValidate.Flags.String("s3-access-key-id", "", "AWS access key ID for -s3-bucket.")
	fS3AccessKeySecret = cmdValidate.Flags.String("s3-access-key-secret", "", "AWS access key secret for -s3-bucket.")
)

func init() {
	cmdValidate.Run = runValidate
}
