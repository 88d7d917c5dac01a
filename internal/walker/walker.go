// Package walker implements the Object Tree Walker (§4.2): a single
// depth-first traversal of the archive's internal tree, running the
// checksum and index checkers on each node and emitting a typed event
// stream to a report.Sink as it goes.
//
// Grounded on a generators-via-callback visit/traverse pattern: here the
// traversal is a rooted tree rather than an arbitrary DAG, so a plain
// recursive push-stream suffices and no dependency-resolution phase is
// needed; each event is handed to the sink's Accept method as it occurs.
package walker

import (
	"context"
	"sort"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
	"github.com/jacobsa/vdbvalidate/internal/checksum"
	"github.com/jacobsa/vdbvalidate/internal/concurrency"
	"github.com/jacobsa/vdbvalidate/internal/index"
	"github.com/jacobsa/vdbvalidate/internal/report"
	"github.com/jacobsa/vdbvalidate/internal/verrors"
)

// Options configures which checks the walker performs per node, mirroring
// the CLI option table of §6.
type Options struct {
	CheckMD5      bool
	CheckBlobCRC  bool
	CheckIndex    bool
	MD5Required   bool
	Exhaustive    bool
}

// Walk drives a depth-first traversal of root, emitting events to sink and
// returning the first subtree-stopping or fatal error encountered (unless
// Exhaustive is set, in which case it keeps going and returns the first
// error only after the whole traversal completes).
//
// Ordering guarantee (§4.2): for any object X, its Visit event precedes any
// event of its descendants, and its Done event follows all descendant Done
// events; siblings appear in stable order by name.
func Walk(ctx context.Context, root archivereader.Node, opts Options, sink report.Sink) error {
	var firstErr error
	recordErr := func(err error) (stop bool) {
		if err == nil {
			return false
		}
		if firstErr == nil {
			firstErr = err
		}
		if opts.Exhaustive {
			return false
		}
		return verrors.IsFatal(err) || verrors.StopsSubtree(err)
	}

	var visit func(n archivereader.Node, depth int) error
	visit = func(n archivereader.Node, depth int) error {
		select {
		case <-ctx.Done():
			return verrors.New(verrors.KindCancelled, string(toReportType(n.Type())), n.Name(), "walk", "", ctx.Err())
		default:
		}

		sink.Accept(report.Event{ObjType: toReportType(n.Type()), ObjName: n.Name(), Kind: report.KindVisit, Depth: depth})

		rc := 0
		mesg := ""

		if opts.CheckMD5 {
			for _, e := range checksum.CheckManifest(ctx, n.Name(), n, opts.MD5Required) {
				emitMD5Event(sink, n, e)
				if recordErr(e) {
					rc = 1
					mesg = e.Error()
					sink.Accept(report.Event{ObjType: toReportType(n.Type()), ObjName: n.Name(), Kind: report.KindDone, Depth: depth, Mesg: mesg, RC: rc})
					return e
				}
			}
		}

		switch n.Type() {
		case archivereader.ObjColumn:
			col := n.(archivereader.ColumnNode)
			if err := walkColumn(ctx, col, opts, sink, recordErr); err != nil {
				rc = 1
				mesg = err.Error()
				sink.Accept(report.Event{ObjType: report.ObjColumn, ObjName: n.Name(), Kind: report.KindDone, Depth: depth, Mesg: mesg, RC: rc})
				return err
			}

		case archivereader.ObjIndex:
			if opts.CheckIndex {
				idx := n.(archivereader.IndexNode)
				sink.Accept(report.Event{ObjType: report.ObjIndex, ObjName: n.Name(), Kind: report.KindIndex, Depth: depth})
				for _, e := range index.Check(ctx, idx) {
					if recordErr(e) {
						rc = 1
						mesg = e.Error()
						sink.Accept(report.Event{ObjType: report.ObjIndex, ObjName: n.Name(), Kind: report.KindDone, Depth: depth, Mesg: mesg, RC: rc})
						return e
					}
				}
			}

		default:
			children, err := n.Children(ctx)
			if err != nil {
				e := verrors.New(verrors.KindFatalStructure, string(toReportType(n.Type())), n.Name(), "list-children", "", err)
				recordErr(e)
				rc = 1
				mesg = e.Error()
				sink.Accept(report.Event{ObjType: toReportType(n.Type()), ObjName: n.Name(), Kind: report.KindDone, Depth: depth, Mesg: mesg, RC: rc})
				return e
			}

			sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })

			for _, c := range children {
				if err := visit(c, depth+1); err != nil {
					rc = 1
					mesg = err.Error()
					sink.Accept(report.Event{ObjType: toReportType(n.Type()), ObjName: n.Name(), Kind: report.KindDone, Depth: depth, Mesg: mesg, RC: rc})
					return err
				}
			}
		}

		sink.Accept(report.Event{ObjType: toReportType(n.Type()), ObjName: n.Name(), Kind: report.KindDone, Depth: depth, Mesg: mesg, RC: rc})
		return nil
	}

	err := visit(root, 0)
	if err != nil && opts.Exhaustive {
		return firstErr
	}
	return err
}

func walkColumn(ctx context.Context, col archivereader.ColumnNode, opts Options, sink report.Sink, recordErr func(error) bool) error {
	meta, err := col.Meta(ctx)
	if err != nil {
		return verrors.New(verrors.KindFatalStructure, "column", col.Name(), "meta", "", err)
	}

	for _, b := range meta.Blobs {
		if concurrency.IsQuitting(ctx) {
			return verrors.New(verrors.KindCancelled, "column", col.Name(), "walk-column", "", ctx.Err())
		}

		sink.Accept(report.Event{
			ObjType:  report.ObjColumn,
			ObjName:  col.Name(),
			Kind:     report.KindBlob,
			FirstRow: b.FirstRow,
			RowCount: b.RowCount,
			SizeBits: b.ElementBits,
		})

		if opts.CheckBlobCRC {
			if err := checksum.CheckBlob(ctx, col.Name(), col, b); err != nil {
				if recordErr(err) {
					return err
				}
			}
		}
	}

	return nil
}

func emitMD5Event(sink report.Sink, n archivereader.Node, err error) {
	ve, ok := err.(*verrors.ValidationError)
	if !ok {
		return
	}
	sink.Accept(report.Event{
		ObjType:  toReportType(n.Type()),
		ObjName:  n.Name(),
		Kind:     report.KindMD5,
		File:     ve.ObjName,
		Computed: ve.Detail,
	})
}

func toReportType(t archivereader.ObjType) report.ObjType {
	return report.ObjType(t)
}
