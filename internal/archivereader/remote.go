package archivereader

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/jacobsa/vdbvalidate/internal/archivereader/envelope"
	"github.com/jacobsa/vdbvalidate/internal/archivereader/gcsbackend"
	"github.com/jacobsa/vdbvalidate/internal/archivereader/s3backend"
	"github.com/jacobsa/vdbvalidate/internal/verrors"
)

// remoteObject is the subset of gcsbackend.Object / s3backend.Object that
// probeRemoteObject needs: the same classify-by-header dance Probe runs
// against a local file, run instead against a fully-buffered remote object.
type remoteObject interface {
	io.ReaderAt
	Size() int64
	Close() error
}

// probeRemoteObject applies Probe's container/encrypted classification
// (§4.1) to an object already fetched from a remote bucket, rather than a
// local path. A bare directory tree has no remote analogue here: a bucket
// object is always probed as a container file or an encrypted wrapper.
func probeRemoteObject(obj remoteObject, name string, key envelope.Key) (rh RootHandle, err error) {
	header := make([]byte, probeHeaderSize)
	n, _ := obj.ReadAt(header, 0)
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, envelope.Magic):
		plain, derr := envelope.Open(obj, key)
		if derr != nil {
			obj.Close()
			err = verrors.New(verrors.KindFatalStructure, "archive", name, "probe", "bad-envelope", derr)
			return
		}

		root, terr := openTarStream(plain.Reader())
		if terr != nil {
			plain.Close()
			obj.Close()
			err = verrors.New(verrors.KindFatalStructure, "archive", name, "probe", "bad-envelope", terr)
			return
		}

		rh = RootHandle{
			Kind: KindEncrypted,
			Root: root,
			Closer: func() error {
				if sr, ok := root.(*scratchRootNode); ok {
					sr.Cleanup()
				}
				plain.Close()
				return obj.Close()
			},
		}
		return

	case bytes.HasPrefix(header, containerMagic):
		body := io.NewSectionReader(obj, int64(len(containerMagic)), obj.Size()-int64(len(containerMagic)))

		root, terr := openTarStream(body)
		if terr != nil {
			obj.Close()
			err = verrors.New(verrors.KindFatalStructure, "archive", name, "probe", "unsupported-kind", terr)
			return
		}

		rh = RootHandle{
			Kind: KindContainerFile,
			Root: root,
			Closer: func() error {
				if sr, ok := root.(*scratchRootNode); ok {
					sr.Cleanup()
				}
				return obj.Close()
			},
		}
		return

	default:
		obj.Close()
		err = verrors.New(verrors.KindFatalStructure, "archive", name, "probe", "unsupported-kind",
			fmt.Errorf("remote object has no recognised magic"))
		return
	}
}

// ProbeGCS fetches name from backend and classifies it the way Probe
// classifies a local file.
func ProbeGCS(ctx context.Context, backend *gcsbackend.Backend, name string, key envelope.Key) (RootHandle, error) {
	obj, err := backend.Open(ctx, name)
	if err != nil {
		return RootHandle{}, verrors.New(verrors.KindFatalStructure, "archive", name, "probe", "not-found", err)
	}
	return probeRemoteObject(obj, name, key)
}

// ProbeS3 fetches name from backend and classifies it the way Probe
// classifies a local file.
func ProbeS3(backend *s3backend.Backend, name string, key envelope.Key) (RootHandle, error) {
	obj, err := backend.Open(name)
	if err != nil {
		return RootHandle{}, verrors.New(verrors.KindFatalStructure, "archive", name, "probe", "not-found", err)
	}
	return probeRemoteObject(obj, name, key)
}
