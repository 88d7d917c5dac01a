package archivereader

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// openTarStream unpacks r (a tar stream of the directory layout documented
// in directory.go) into a scratch directory and opens it the same way a
// plain directory archive would be opened. Concatenated container files and
// decrypted envelope payloads both resolve to this same concrete layout;
// see SPEC_FULL.md §1 for why the wire format itself is out of scope.
func openTarStream(r io.Reader) (Node, error) {
	scratch, err := os.MkdirTemp("", "vdbvalidate-container-*")
	if err != nil {
		return nil, fmt.Errorf("MkdirTemp: %w", err)
	}

	if err := extractTar(r, scratch); err != nil {
		os.RemoveAll(scratch)
		return nil, err
	}

	root, err := openDirectory(scratch)
	if err != nil {
		os.RemoveAll(scratch)
		return nil, err
	}

	return &scratchRootNode{Node: root, scratch: scratch}, nil
}

// scratchRootNode wraps a directory-backed root so its backing scratch
// directory can be cleaned up when the caller releases the archive.
type scratchRootNode struct {
	Node
	scratch string
}

// Cleanup removes the scratch directory. Callers that know they hold a
// scratchRootNode (Probe does) should call this from their Closer.
func (n *scratchRootNode) Cleanup() error {
	return os.RemoveAll(n.scratch)
}

func extractTar(r io.Reader, destRoot string) error {
	tr := tar.NewReader(r)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tar.Next: %w", err)
		}

		target := filepath.Join(destRoot, filepath.Clean(hdr.Name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			f.Close()
		}
	}
}
