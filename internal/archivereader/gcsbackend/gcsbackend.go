// Package gcsbackend lets the Archive Probe resolve an archive staged in a
// GCS bucket instead of on local disk, reusing github.com/jacobsa/gcloud/gcs
// rather than inventing a new GCS client wrapper.
package gcsbackend

import (
	"context"
	"fmt"
	"io"

	"github.com/jacobsa/gcloud/gcs"
)

// Backend resolves archive object names within one GCS bucket to
// random-access byte sources.
type Backend struct {
	Bucket gcs.Bucket
	Prefix string
}

// New returns a Backend rooted at prefix within bucket.
func New(bucket gcs.Bucket, prefix string) *Backend {
	return &Backend{Bucket: bucket, Prefix: prefix}
}

// Object is a GCS-object-backed random-access reader: the whole object is
// read into memory on open, matching the scale of the archives this
// validator targets (individual column/index files, not multi-GB blobs).
type Object struct {
	data []byte
}

func (o *Object) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(o.data)) {
		return 0, io.EOF
	}
	n := copy(p, o.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (o *Object) Size() int64  { return int64(len(o.data)) }
func (o *Object) Close() error { return nil }

// Open reads the named object (relative to Backend.Prefix) in full.
func (b *Backend) Open(ctx context.Context, name string) (*Object, error) {
	req := &gcs.ReadObjectRequest{Name: b.Prefix + name}

	rc, err := b.Bucket.NewReader(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("NewReader(%s): %w", req.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.Name, err)
	}

	return &Object{data: data}, nil
}
