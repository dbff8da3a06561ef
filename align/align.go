// Package align contains code for reading and writing FASTA-formatted
// multiple-sequence alignments as ordered record streams.  Briefly, FASTA
// files consist of a number of named sequences that may be interrupted by
// newlines.  For example:
//
// >sample1
// ACGTAC
// GAGGAC
// GCG
// >sample2
// ACGT
//
// Note: Record names are defined to be the stretch of characters excluding
// spaces immediately after '>'.  Any text appearing after a space is ignored.
// For example, '>s1 assembled 2024-03' becomes 's1'.
//
// Unlike a reference-genome store, alignment consumers care about record
// order and need to sweep the full file more than once (site scanning, then
// column extraction), so the central abstraction here is a Source that can be
// opened once per pass rather than a random-access getter.
package align

import (
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/pkg/errors"
)

// Record is one named sequence of an alignment.
type Record struct {
	// Name is the record identifier, without the leading '>' and without any
	// trailing description.
	Name string
	// Seq holds the sequence bases, newlines removed.
	Seq []byte
}

// RecordReader yields the records of one pass over an alignment, in file
// order.  Read returns io.EOF after the last record.
type RecordReader interface {
	Read() (Record, error)
	Close() error
}

// Source is a re-openable alignment.  Open may be called once per pass; each
// call yields the same records in the same order unless the underlying data
// changed between passes (which downstream consumers treat as fatal).
type Source interface {
	Open(ctx context.Context) (RecordReader, error)
}

// PathSource reads an alignment from a local or S3 path, transparently
// decompressing gzip/bzip2/zstd inputs.
type PathSource struct {
	Path string
}

type pathRecordReader struct {
	*Reader
	ctx  context.Context
	in   file.File
	body io.ReadCloser
}

// Open implements Source.
func (s PathSource) Open(ctx context.Context) (RecordReader, error) {
	in, err := file.Open(ctx, s.Path)
	if err != nil {
		return nil, err
	}
	body, _ := compress.NewReader(in.Reader(ctx))
	return &pathRecordReader{
		Reader: NewReader(body),
		ctx:    ctx,
		in:     in,
		body:   body,
	}, nil
}

func (r *pathRecordReader) Close() (err error) {
	if e := r.body.Close(); e != nil {
		err = e
	}
	if e := r.in.Close(r.ctx); e != nil && err == nil {
		err = e
	}
	return err
}

// SliceSource serves an in-memory alignment.  Mainly for tests and library
// callers that already hold the records.
type SliceSource struct {
	Records []Record
}

type sliceRecordReader struct {
	recs []Record
	next int
}

// Open implements Source.
func (s SliceSource) Open(ctx context.Context) (RecordReader, error) {
	return &sliceRecordReader{recs: s.Records}, nil
}

func (r *sliceRecordReader) Read() (Record, error) {
	if r.next >= len(r.recs) {
		return Record{}, io.EOF
	}
	rec := r.recs[r.next]
	r.next++
	return rec, nil
}

func (r *sliceRecordReader) Close() error { return nil }

// ReadAll drains one full pass over src.
func ReadAll(ctx context.Context, src Source) (recs []Record, err error) {
	rr, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := rr.Close(); e != nil && err == nil {
			err = e
		}
	}()
	for {
		rec, e := rr.Read()
		if e == io.EOF {
			return recs, nil
		}
		if e != nil {
			return nil, errors.Wrapf(e, "record %d", len(recs))
		}
		recs = append(recs, rec)
	}
}
