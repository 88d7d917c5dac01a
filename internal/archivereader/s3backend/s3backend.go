// Package s3backend is the S3-bucket analogue of gcsbackend, reusing
// github.com/jacobsa/aws/s3 for bucket access.
package s3backend

import (
	"fmt"
	"io"

	"github.com/jacobsa/aws/s3"
)

// Backend resolves archive object keys within one S3 bucket.
type Backend struct {
	Bucket s3.Bucket
	Prefix string
}

// New returns a Backend rooted at prefix within bucket.
func New(bucket s3.Bucket, prefix string) *Backend {
	return &Backend{Bucket: bucket, Prefix: prefix}
}

// Object is an S3-object-backed random-access reader, read fully on open.
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

// Open fetches the named key (relative to Backend.Prefix) in full.
func (b *Backend) Open(name string) (*Object, error) {
	data, err := b.Bucket.GetObject(b.Prefix + name)
	if err != nil {
		return nil, fmt.Errorf("GetObject(%s): %w", b.Prefix+name, err)
	}
	return &Object{data: data}, nil
}
