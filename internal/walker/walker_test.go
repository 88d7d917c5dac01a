package walker_test

import (
	"context"
	"hash/crc32"
	"testing"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
	"github.com/jacobsa/vdbvalidate/internal/report"
	"github.com/jacobsa/vdbvalidate/internal/walker"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

func TestWalker(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Fakes
////////////////////////////////////////////////////////////////////////

// fakeBytes is a ReadCloserAt backed by an in-memory byte slice.
type fakeBytes struct {
	data []byte
}

func (f *fakeBytes) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.data)) {
		return 0, nil
	}
	n := copy(p, f.data[off:])
	return n, nil
}

func (f *fakeBytes) Size() int64  { return int64(len(f.data)) }
func (f *fakeBytes) Close() error { return nil }

// fakeNode is a minimal in-memory archivereader.Node/ColumnNode used to
// exercise the walker's traversal without a real archive backing it.
type fakeNode struct {
	typ      archivereader.ObjType
	name     string
	children []*fakeNode

	// column-only fields
	blobData [][]byte

	// openOverride, when non-nil at index i, is what OpenBlob returns for
	// blob i instead of blobData[i] -- used to simulate a stored CRC32 that
	// no longer matches the bytes on disk.
	openOverride [][]byte
}

func (n *fakeNode) Type() archivereader.ObjType { return n.typ }
func (n *fakeNode) Name() string                { return n.name }

func (n *fakeNode) Children(ctx context.Context) ([]archivereader.Node, error) {
	out := make([]archivereader.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}

func (n *fakeNode) MD5Entries(ctx context.Context) (map[string]string, error) {
	return nil, nil
}

func (n *fakeNode) OpenFile(ctx context.Context, name string) (archivereader.ReadCloserAt, error) {
	return &fakeBytes{}, nil
}

func (n *fakeNode) Meta(ctx context.Context) (archivereader.ColumnMeta, error) {
	meta := archivereader.ColumnMeta{Name: n.name, ElementBits: 8}
	var off int64
	for i, data := range n.blobData {
		meta.Blobs = append(meta.Blobs, archivereader.BlobMeta{
			Offset:      off,
			ByteLength:  int64(len(data)),
			ElementBits: 8,
			FirstRow:    int64(i) * 10,
			RowCount:    10,
			StoredCRC32: crc32.ChecksumIEEE(data),
		})
		off += int64(len(data))
	}
	return meta, nil
}

func (n *fakeNode) OpenBlob(ctx context.Context, b archivereader.BlobMeta) (archivereader.ReadCloserAt, error) {
	idx := int(b.FirstRow / 10)
	if idx < len(n.openOverride) && n.openOverride[idx] != nil {
		return &fakeBytes{data: n.openOverride[idx]}, nil
	}
	return &fakeBytes{data: n.blobData[idx]}, nil
}

func (n *fakeNode) ReadCell(ctx context.Context, rowID int64) ([]byte, int, int, error) {
	return nil, 0, 0, nil
}

////////////////////////////////////////////////////////////////////////
// Helpers
////////////////////////////////////////////////////////////////////////

type WalkerTest struct {
}

func init() { RegisterTestSuite(&WalkerTest{}) }

func (t *WalkerTest) buildTree() *fakeNode {
	colA := &fakeNode{typ: archivereader.ObjColumn, name: "A", blobData: [][]byte{[]byte("hello"), []byte("world!")}}
	colB := &fakeNode{typ: archivereader.ObjColumn, name: "B", blobData: [][]byte{[]byte("xyz")}}
	table := &fakeNode{typ: archivereader.ObjTable, name: "SEQUENCE", children: []*fakeNode{colA, colB}}
	db := &fakeNode{typ: archivereader.ObjDatabase, name: "root", children: []*fakeNode{table}}
	return db
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

// Testable property 2: for any object X, its Visit event precedes any event
// of its descendants, and its Done event follows all descendant Done
// events.
func (t *WalkerTest) TraversalCover() {
	root := t.buildTree()
	sink := &report.SliceSink{}

	err := walker.Walk(context.Background(), root, walker.Options{CheckBlobCRC: true}, sink)
	AssertEq(nil, err)

	visited := map[string]bool{}
	done := map[string]bool{}
	var blobCount int

	visitIdx := map[string]int{}
	doneIdx := map[string]int{}

	for i, e := range sink.Events {
		switch e.Kind {
		case report.KindVisit:
			visited[e.ObjName] = true
			visitIdx[e.ObjName] = i
		case report.KindDone:
			done[e.ObjName] = true
			doneIdx[e.ObjName] = i
		case report.KindBlob:
			blobCount++
		}
	}

	for _, name := range []string{"root", "SEQUENCE", "A", "B"} {
		ExpectTrue(visited[name])
		ExpectTrue(done[name])
		ExpectTrue(visitIdx[name] < doneIdx[name])
	}

	// Every column's Visit/Done pair must nest inside its table's.
	ExpectTrue(visitIdx["SEQUENCE"] < visitIdx["A"])
	ExpectTrue(doneIdx["A"] < doneIdx["SEQUENCE"])
	ExpectTrue(visitIdx["SEQUENCE"] < visitIdx["B"])
	ExpectTrue(doneIdx["B"] < doneIdx["SEQUENCE"])

	// Three blobs total across the two columns.
	ExpectEq(3, blobCount)
}

func (t *WalkerTest) CancelledBeforeStartStopsImmediately() {
	root := t.buildTree()
	sink := &report.SliceSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := walker.Walk(ctx, root, walker.Options{CheckBlobCRC: true}, sink)
	AssertNe(nil, err)
	ExpectThat(err.Error(), HasSubstr("walk"))

	// Nothing beyond the root's own cancellation check should have run.
	ExpectEq(0, len(sink.Events))
}

func (t *WalkerTest) BlobCRCMismatchIsReported() {
	root := t.buildTree()
	// Column A's stored CRC32 (computed by Meta from blobData) no longer
	// matches what OpenBlob actually returns.
	colA := root.children[0].children[0]
	colA.openOverride = [][]byte{[]byte("corrupted-bytes")}

	sink := &report.SliceSink{}
	err := walker.Walk(context.Background(), root, walker.Options{CheckBlobCRC: true}, sink)

	// A checksum mismatch is a KindChecksumMismatch error, which stops the
	// subtree when exhaustive mode is off; the walk must surface it in the
	// event stream (column A's Done with a non-zero RC) or as the returned
	// error.
	sawMismatch := err != nil
	for _, e := range sink.Events {
		if e.Kind == report.KindDone && e.ObjName == "A" && e.RC != 0 {
			sawMismatch = true
		}
	}
	ExpectTrue(sawMismatch)
}
