// Package checksum implements the Checksum Checker (§4.3): MD5 verification
// for manifest files and CRC32 verification for blobs, each in a single
// streaming pass.
package checksum

import (
	"context"
	"hash/crc32"
	"io"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
	"github.com/jacobsa/vdbvalidate/internal/verrors"
)

const streamChunkSize = 64 * 1024

// ComputeCRC32 hashes r's full contents in a single streaming pass. The
// caller must not have consumed r already; this is the only read of the
// blob's bytes, satisfying §4.3's "MUST NOT read the blob twice".
func ComputeCRC32(r archivereader.ReadCloserAt) (uint32, error) {
	h := crc32.NewIEEE()
	buf := make([]byte, streamChunkSize)

	size := r.Size()
	var off int64
	for off < size {
		n, err := r.ReadAt(buf, off)
		if n > 0 {
			h.Write(buf[:n])
			off += int64(n)
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if n == 0 && err == nil {
			break
		}
	}

	return h.Sum32(), nil
}

// CheckBlob opens b from col, recomputes its CRC32, and compares it to the
// stored value, closing the blob reader on every exit path.
//
// A mismatch is non-recoverable for the owning object (§4.3): the caller
// receives a *verrors.ValidationError of kind KindChecksumMismatch.
func CheckBlob(ctx context.Context, objName string, col archivereader.ColumnNode, b archivereader.BlobMeta) error {
	rc, err := col.OpenBlob(ctx, b)
	if err != nil {
		return verrors.New(verrors.KindFatalStructure, "blob", objName, "open-blob", "", err)
	}
	defer rc.Close()

	computed, err := ComputeCRC32(rc)
	if err != nil {
		return verrors.New(verrors.KindFatalStructure, "blob", objName, "crc32", "read-error", err)
	}

	if computed != b.StoredCRC32 {
		return verrors.New(
			verrors.KindChecksumMismatch,
			"blob", objName, "crc32",
			crc32Detail(computed, b.StoredCRC32),
			nil,
		)
	}

	return nil
}

func crc32Detail(computed, expected uint32) string {
	return "computed=" + uitoa(uint64(computed)) + " expected=" + uitoa(uint64(expected))
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
