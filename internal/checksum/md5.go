package checksum

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
	"github.com/jacobsa/vdbvalidate/internal/verrors"
)

// ComputeMD5 hashes r's full contents in a single streaming pass.
func ComputeMD5(r archivereader.ReadCloserAt) (string, error) {
	h := md5.New()
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
			return "", err
		}
		if n == 0 && err == nil {
			break
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// CheckManifest verifies every entry of n's MD5 manifest (§4.3). required
// controls whether a missing manifest file is itself a fatal error (when
// the md5 check mode is required per §6) or merely a warning.
//
// It returns every per-file error encountered; the caller decides whether
// to stop the subtree based on exhaustive mode.
func CheckManifest(ctx context.Context, objName string, n archivereader.Node, required bool) []error {
	entries, err := n.MD5Entries(ctx)
	if err != nil {
		return []error{verrors.New(verrors.KindFatalStructure, "object", objName, "md5-manifest", "unreadable", err)}
	}

	if entries == nil {
		if required {
			return []error{verrors.New(verrors.KindMissingChecksum, "object", objName, "md5-manifest", "required", nil)}
		}
		return []error{verrors.New(verrors.KindMissingChecksum, "object", objName, "md5-manifest", "optional", nil)}
	}

	var errs []error
	for file, expected := range entries {
		rc, err := n.OpenFile(ctx, file)
		if err != nil {
			errs = append(errs, verrors.New(verrors.KindFatalStructure, "file", file, "md5", "unreadable", err))
			continue
		}

		computed, err := ComputeMD5(rc)
		rc.Close()
		if err != nil {
			errs = append(errs, verrors.New(verrors.KindFatalStructure, "file", file, "md5", "read-error", err))
			continue
		}

		if computed != expected {
			errs = append(errs, verrors.New(
				verrors.KindChecksumMismatch,
				"file", file, "md5",
				"computed="+computed+" expected="+expected,
				nil,
			))
		}
	}

	return errs
}
