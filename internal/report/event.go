// Package report defines the structured event stream emitted by the Object
// Tree Walker, the Sink that consumes it, and the aggregator that turns the
// checkers' errors into a pass/fail verdict.
//
// Events are small value types pushed synchronously to a Sink, one
// Accept call per event.
package report

import "fmt"

// Kind enumerates the event kinds of the object tree walker.
type Kind int

const (
	KindVisit Kind = iota
	KindBlob
	KindMD5
	KindIndex
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindVisit:
		return "Visit"
	case KindBlob:
		return "Blob"
	case KindMD5:
		return "MD5"
	case KindIndex:
		return "Index"
	case KindDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// ObjType enumerates the node types of the archive's tree.
type ObjType string

const (
	ObjArchive  ObjType = "archive"
	ObjDatabase ObjType = "database"
	ObjTable    ObjType = "table"
	ObjColumn   ObjType = "column"
	ObjBlob     ObjType = "blob"
	ObjIndex    ObjType = "index"
	ObjMetadata ObjType = "metadata-node"
)

// Event is one atomic finding, owned by the emitter until the consumer
// accepts it (data model §3, Report Event).
type Event struct {
	ObjType ObjType
	ObjName string
	Kind    Kind
	Depth   int

	// Visit
	// (no extra payload beyond ObjType/ObjName/Depth)

	// Blob
	FirstRow int64
	RowCount int64
	SizeBits int

	// MD5
	File     string
	Computed string
	Expected string

	// Index
	// (no extra payload beyond ObjType/ObjName)

	// Done
	Mesg string
	RC   int
}

func (e Event) String() string {
	switch e.Kind {
	case KindVisit:
		return fmt.Sprintf("Visit{%s %q depth=%d}", e.ObjType, e.ObjName, e.Depth)
	case KindBlob:
		return fmt.Sprintf("Blob{%s %q first=%d count=%d bits=%d}", e.ObjType, e.ObjName, e.FirstRow, e.RowCount, e.SizeBits)
	case KindMD5:
		return fmt.Sprintf("MD5{%s %q file=%s computed=%s expected=%s}", e.ObjType, e.ObjName, e.File, e.Computed, e.Expected)
	case KindIndex:
		return fmt.Sprintf("Index{%s %q}", e.ObjType, e.ObjName)
	case KindDone:
		return fmt.Sprintf("Done{%s %q mesg=%q rc=%d}", e.ObjType, e.ObjName, e.Mesg, e.RC)
	default:
		return fmt.Sprintf("Event{kind=%d obj=%q}", e.Kind, e.ObjName)
	}
}
