// Package archivereader is the validator's boundary onto the archive reader
// (byte-level container parsing, compression/encryption envelopes, schema
// parsing), treated as an external collaborator. The validator never parses
// archive bytes itself beyond what is needed to classify a path (Probe) and
// to walk a directory-backed archive's own concrete, self-describing layout
// -- defined here since the real wire format is out of scope, but a
// concrete implementation is required to make the rest of the module
// buildable and testable. See DESIGN.md.
package archivereader

import "context"

// ObjType mirrors report.ObjType; duplicated here (rather than imported) so
// this package has no dependency on the reporting layer -- it is a pure
// data-access boundary.
type ObjType string

const (
	ObjDatabase ObjType = "database"
	ObjTable    ObjType = "table"
	ObjColumn   ObjType = "column"
	ObjIndex    ObjType = "index"
	ObjMetadata ObjType = "metadata-node"
)

// BlobMeta describes one stored blob of a column: a compressed/encoded
// contiguous range of rows with its own stored CRC32 (data model §3).
type BlobMeta struct {
	Offset      int64
	ByteLength  int64
	ElementBits int
	FirstRow    int64
	RowCount    int64
	StoredCRC32 uint32
}

// ColumnMeta describes one column's static shape.
type ColumnMeta struct {
	Name        string
	ElementBits int
	Sparse      bool
	Blobs       []BlobMeta
}

// IndexMeta describes one persisted index.
type IndexMeta struct {
	Name string
	// BackingFiles are relative paths (within the index's own directory)
	// whose MD5 digests are checked by the Index Checker.
	BackingFiles []string
}

// Node is one node in the archive's internal tree: database, table, column,
// index, or metadata-node (data model §3, Object Node).
type Node interface {
	Type() ObjType
	Name() string

	// Children returns this node's direct children in stable order by name.
	// Leaf nodes (columns, indices) return nil.
	Children(ctx context.Context) ([]Node, error)

	// MD5Entries returns the manifest entries (filename -> expected digest)
	// that apply to files owned directly by this node; OpenFile reads each
	// named file's current bytes.
	MD5Entries(ctx context.Context) (map[string]string, error)
	OpenFile(ctx context.Context, name string) (ReadCloserAt, error)
}

// ColumnNode is the Node interface specialised for columns: it additionally
// exposes blob metadata and cell-level random access.
type ColumnNode interface {
	Node

	Meta(ctx context.Context) (ColumnMeta, error)

	// OpenBlob returns the raw (still encoded) bytes of one blob, for CRC32
	// verification. The caller reads it in a single streaming pass.
	OpenBlob(ctx context.Context, b BlobMeta) (ReadCloserAt, error)

	// ReadCell returns the decoded element array for a single row id. It is
	// the backing implementation behind cursor.Cell (§4.5).
	ReadCell(ctx context.Context, rowID int64) (elems []byte, elementBits int, elementCount int, err error)
}

// IndexNode is the Node interface specialised for indices.
type IndexNode interface {
	Node

	Meta(ctx context.Context) (IndexMeta, error)

	// SortedKeys returns the index's persisted keys in storage order, for
	// the Index Checker's sortedness check (§4.4).
	SortedKeys(ctx context.Context) ([]int64, error)
}

// ReadCloserAt is a random-access, closeable byte source: the minimal
// capability the Cursor Layer and Checksum Checker need from a blob or file,
// regardless of whether it is backed by a local file, an in-memory buffer,
// or a decrypted/unpacked container stream.
type ReadCloserAt interface {
	ReadAt(p []byte, off int64) (n int, err error)
	Size() int64
	Close() error
}
