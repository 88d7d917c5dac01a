package archivereader

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// This file implements the directory-backed concrete archive layout. The
// real wire format is out of scope as an external-collaborator concern;
// this is this module's own minimal, self-describing, JSON + flat-binary
// encoding, sufficient to exercise every checker in the core end to end.
// See DESIGN.md.
//
// Layout, recursively:
//
//	<node>/node.json           {"type": "...", "name": "..."}
//	<node>/manifest.md5        "<hex digest>  <filename>" per line
//	<node>/<child>/...         nested children, in any order on disk
//
// Column nodes additionally have:
//
//	<node>/column.json         ColumnMeta-ish descriptor (see columnFile)
//	<node>/blob_<i>.bin        raw packed element bytes for one blob
//
// Index nodes additionally have:
//
//	<node>/index.json          {"name": "...", "backing_files": [...]}
//	<node>/<backing file>      big-endian int64 sorted keys
const (
	nodeFileName     = "node.json"
	manifestFileName = "manifest.md5"
	columnFileName   = "column.json"
	indexFileName    = "index.json"
)

type nodeFile struct {
	Type ObjType `json:"type"`
	Name string  `json:"name"`
}

type blobFile struct {
	FirstRow    int64  `json:"first_row"`
	RowCount    int64  `json:"row_count"`
	CRC32       uint32 `json:"crc32"`
	File        string `json:"file"`
}

type columnFile struct {
	ElementBits    int        `json:"element_bits"`
	Sparse         bool       `json:"sparse"`
	ElementsPerRow int        `json:"elements_per_row"`
	// RowLengths, if non-empty, gives a variable element count per row
	// (index 0 == first blob's FirstRow), overriding ElementsPerRow.
	RowLengths []int      `json:"row_lengths,omitempty"`
	Blobs      []blobFile `json:"blobs"`
}

type indexFile struct {
	Name         string   `json:"name"`
	BackingFiles []string `json:"backing_files"`
}

type dirNode struct {
	path string
	typ  ObjType
	name string
}

func openDirectory(path string) (Node, error) {
	nf, err := readNodeFile(path)
	if err != nil {
		// A bare directory with no node.json is treated as the archive root
		// (objType "database" is assumed if the caller hasn't labelled it).
		nf = &nodeFile{Type: ObjDatabase, Name: filepath.Base(path)}
	}

	return wrapDirNode(path, *nf)
}

func readNodeFile(path string) (*nodeFile, error) {
	b, err := os.ReadFile(filepath.Join(path, nodeFileName))
	if err != nil {
		return nil, err
	}
	var nf nodeFile
	if err := json.Unmarshal(b, &nf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", nodeFileName, err)
	}
	return &nf, nil
}

func wrapDirNode(path string, nf nodeFile) (Node, error) {
	base := dirNode{path: path, typ: nf.Type, name: nf.Name}

	switch nf.Type {
	case ObjColumn:
		return &columnNode{dirNode: base}, nil
	case ObjIndex:
		return &indexNode{dirNode: base}, nil
	default:
		return &base, nil
	}
}

func (n *dirNode) Type() ObjType { return n.typ }
func (n *dirNode) Name() string  { return n.name }

func (n *dirNode) Children(ctx context.Context) ([]Node, error) {
	entries, err := os.ReadDir(n.path)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []Node
	for _, name := range names {
		childPath := filepath.Join(n.path, name)
		nf, err := readNodeFile(childPath)
		if err != nil {
			// Not a recognised node directory; skip silently -- the walker
			// treats genuinely unexpected entries as a warning at a higher
			// layer where schema context is available.
			continue
		}

		child, err := wrapDirNode(childPath, *nf)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}

	return out, nil
}

func (n *dirNode) MD5Entries(ctx context.Context) (map[string]string, error) {
	b, err := os.ReadFile(filepath.Join(n.path, manifestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make(map[string]string)
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed manifest line: %q", line)
		}
		out[fields[1]] = fields[0]
	}
	return out, nil
}

func (n *dirNode) OpenFile(ctx context.Context, name string) (ReadCloserAt, error) {
	return openLocalFile(filepath.Join(n.path, name))
}

////////////////////////////////////////////////////////////////////////
// columnNode
////////////////////////////////////////////////////////////////////////

type columnNode struct {
	dirNode
	meta *columnFile
}

func (n *columnNode) loadMeta() (*columnFile, error) {
	if n.meta != nil {
		return n.meta, nil
	}
	b, err := os.ReadFile(filepath.Join(n.path, columnFileName))
	if err != nil {
		return nil, err
	}
	var cf columnFile
	if err := json.Unmarshal(b, &cf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", columnFileName, err)
	}
	n.meta = &cf
	return n.meta, nil
}

func (n *columnNode) Meta(ctx context.Context) (ColumnMeta, error) {
	cf, err := n.loadMeta()
	if err != nil {
		return ColumnMeta{}, err
	}

	cm := ColumnMeta{Name: n.name, ElementBits: cf.ElementBits, Sparse: cf.Sparse}
	for _, b := range cf.Blobs {
		cm.Blobs = append(cm.Blobs, BlobMeta{
			ElementBits: cf.ElementBits,
			FirstRow:    b.FirstRow,
			RowCount:    b.RowCount,
			StoredCRC32: b.CRC32,
		})
	}
	return cm, nil
}

func (n *columnNode) blobFileFor(b BlobMeta) (string, *columnFile, error) {
	cf, err := n.loadMeta()
	if err != nil {
		return "", nil, err
	}
	for _, bf := range cf.Blobs {
		if bf.FirstRow == b.FirstRow && bf.RowCount == b.RowCount {
			return bf.File, cf, nil
		}
	}
	return "", nil, fmt.Errorf("no such blob: first=%d count=%d", b.FirstRow, b.RowCount)
}

func (n *columnNode) OpenBlob(ctx context.Context, b BlobMeta) (ReadCloserAt, error) {
	file, _, err := n.blobFileFor(b)
	if err != nil {
		return nil, err
	}
	return openLocalFile(filepath.Join(n.path, file))
}

// elementBytes returns the byte width of one element.
func elementBytes(bits int) int {
	return (bits + 7) / 8
}

// rowOffset returns the (byteOffset, elementCount) for rowID within the blob
// whose first row is firstRow, honoring RowLengths when present.
func rowOffset(cf *columnFile, firstRow int64, rowID int64) (off int64, count int, err error) {
	width := elementBytes(cf.ElementBits)

	if len(cf.RowLengths) > 0 {
		base := cf.Blobs[0].FirstRow
		idx := int(rowID - base)
		if idx < 0 || idx >= len(cf.RowLengths) {
			return 0, 0, fmt.Errorf("row %d out of range", rowID)
		}
		var elemsBefore int64
		for i := int(firstRow - base); i < idx; i++ {
			elemsBefore += int64(cf.RowLengths[i])
		}
		return elemsBefore * int64(width), cf.RowLengths[idx], nil
	}

	per := cf.ElementsPerRow
	if per == 0 {
		per = 1
	}
	return (rowID - firstRow) * int64(per) * int64(width), per, nil
}

func (n *columnNode) ReadCell(ctx context.Context, rowID int64) (elems []byte, elementBits int, elementCount int, err error) {
	cf, err := n.loadMeta()
	if err != nil {
		return
	}

	for _, bf := range cf.Blobs {
		if rowID < bf.FirstRow || rowID >= bf.FirstRow+bf.RowCount {
			continue
		}

		rc, oerr := openLocalFile(filepath.Join(n.path, bf.File))
		if oerr != nil {
			err = oerr
			return
		}
		defer rc.Close()

		off, count, roErr := rowOffset(cf, bf.FirstRow, rowID)
		if roErr != nil {
			err = roErr
			return
		}

		width := elementBytes(cf.ElementBits)
		buf := make([]byte, count*width)
		if _, err = rc.ReadAt(buf, off); err != nil {
			return
		}

		return buf, cf.ElementBits, count, nil
	}

	err = errRowNotFound{rowID: rowID}
	return
}

// errRowNotFound is the distinguishable "row not found" error §4.5 requires
// cell reads at an unmapped row id to return.
type errRowNotFound struct{ rowID int64 }

func (e errRowNotFound) Error() string { return fmt.Sprintf("row %d not found", e.rowID) }

// IsRowNotFound reports whether err is the distinguished row-not-found
// error produced by ReadCell.
func IsRowNotFound(err error) bool {
	_, ok := err.(errRowNotFound)
	return ok
}

////////////////////////////////////////////////////////////////////////
// indexNode
////////////////////////////////////////////////////////////////////////

type indexNode struct {
	dirNode
}

func (n *indexNode) Meta(ctx context.Context) (IndexMeta, error) {
	b, err := os.ReadFile(filepath.Join(n.path, indexFileName))
	if err != nil {
		return IndexMeta{}, err
	}
	var idf indexFile
	if err := json.Unmarshal(b, &idf); err != nil {
		return IndexMeta{}, fmt.Errorf("parsing %s: %w", indexFileName, err)
	}
	return IndexMeta{Name: idf.Name, BackingFiles: idf.BackingFiles}, nil
}

func (n *indexNode) SortedKeys(ctx context.Context) ([]int64, error) {
	meta, err := n.Meta(ctx)
	if err != nil {
		return nil, err
	}

	var keys []int64
	for _, bf := range meta.BackingFiles {
		b, err := os.ReadFile(filepath.Join(n.path, bf))
		if err != nil {
			return nil, err
		}
		if len(b)%8 != 0 {
			return nil, fmt.Errorf("backing file %s has non-multiple-of-8 length", bf)
		}
		for i := 0; i+8 <= len(b); i += 8 {
			keys = append(keys, int64(binary.BigEndian.Uint64(b[i:i+8])))
		}
	}
	return keys, nil
}

////////////////////////////////////////////////////////////////////////
// local file handle
////////////////////////////////////////////////////////////////////////

type localFile struct {
	f    *os.File
	size int64
}

func openLocalFile(path string) (*localFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &localFile{f: f, size: fi.Size()}, nil
}

func (l *localFile) ReadAt(p []byte, off int64) (int, error) { return l.f.ReadAt(p, off) }
func (l *localFile) Size() int64                             { return l.size }
func (l *localFile) Close() error                            { return l.f.Close() }
