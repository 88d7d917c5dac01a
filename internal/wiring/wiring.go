// Package wiring constructs the alternate archive backing stores
// (gcsbackend, s3backend) from CLI-supplied credentials. It is CLI-side
// glue, not part of the core validation path: every function here builds a
// gcs.Bucket or s3.Bucket and hands it to the matching backend constructor
// (OAuth2 JWT token source -> gcs.Conn -> gcs.Bucket for GCS, a plain
// access key straight into s3.OpenBucket for S3).
package wiring

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jacobsa/aws"
	"github.com/jacobsa/aws/s3"
	"github.com/jacobsa/gcloud/gcs"

	"github.com/jacobsa/vdbvalidate/internal/archivereader/gcsbackend"
	"github.com/jacobsa/vdbvalidate/internal/archivereader/s3backend"
)

// GCSOptions names the archive's location in Google Cloud Storage.
type GCSOptions struct {
	BucketName string
	Prefix     string
	KeyFile    string // path to a JSON service-account key
}

// S3Options names the archive's location in S3.
type S3Options struct {
	BucketName      string
	Region          s3.Region
	Prefix          string
	AccessKeyID     string
	AccessKeySecret string
}

func makeGCSTokenSource(ctx context.Context, keyFile string) (oauth2.TokenSource, error) {
	contents, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("reading key file %q: %w", keyFile, err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(contents, gcs.Scope_FullControl)
	if err != nil {
		return nil, fmt.Errorf("JWTConfigFromJSON: %w", err)
	}

	return jwtConfig.TokenSource(ctx), nil
}

// OpenGCSBackend authenticates to GCS with a service-account key and opens
// the named bucket, wrapping it in a gcsbackend.Backend the Archive Probe
// can open archive objects through.
func OpenGCSBackend(ctx context.Context, opts GCSOptions) (*gcsbackend.Backend, error) {
	tokenSrc, err := makeGCSTokenSource(ctx, opts.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("making token source: %w", err)
	}

	connCfg := &gcs.ConnConfig{
		TokenSource:     tokenSrc,
		MaxBackoffSleep: time.Minute,
	}

	conn, err := gcs.NewConn(connCfg)
	if err != nil {
		return nil, fmt.Errorf("NewConn: %w", err)
	}

	bucket, err := conn.OpenBucket(ctx, &gcs.OpenBucketOptions{Name: opts.BucketName})
	if err != nil {
		return nil, fmt.Errorf("OpenBucket(%s): %w", opts.BucketName, err)
	}

	return gcsbackend.New(bucket, opts.Prefix), nil
}

// OpenS3Backend opens an S3 bucket with a plain access key, mirroring the
// teacher's runVerifyBlobs (s3.OpenBucket(cfg.S3Bucket, cfg.S3Region,
// cfg.AccessKey)), and wraps it in an s3backend.Backend.
func OpenS3Backend(opts S3Options) (*s3backend.Backend, error) {
	key := aws.AccessKey{
		Id:     opts.AccessKeyID,
		Secret: opts.AccessKeySecret,
	}

	bucket, err := s3.OpenBucket(opts.BucketName, opts.Region, key)
	if err != nil {
		return nil, fmt.Errorf("OpenBucket(%s): %w", opts.BucketName, err)
	}

	return s3backend.New(bucket, opts.Prefix), nil
}
