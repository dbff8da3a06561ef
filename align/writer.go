package align

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/bgzf"
)

// Writer emits FASTA records, one header line and one sequence line per
// record.
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, readerBufSize)}
}

// Append writes one record.
func (w *Writer) Append(rec Record) error {
	if err := w.w.WriteByte('>'); err != nil {
		return err
	}
	if _, err := w.w.WriteString(rec.Name); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := w.w.Write(rec.Seq); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush flushes buffered records to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// PathWriter is a Writer bound to a local or S3 path.  Paths ending in .gz
// are block-gzipped.
type PathWriter struct {
	*Writer
	ctx  context.Context
	f    file.File
	bgzw *bgzf.Writer
}

// CreatePathWriter creates path and returns a PathWriter on it.  parallelism
// bounds the bgzf compressor's worker count when the path calls for
// compression.
func CreatePathWriter(ctx context.Context, path string, parallelism int) (*PathWriter, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	pw := &PathWriter{ctx: ctx, f: f}
	if strings.HasSuffix(path, ".gz") {
		pw.bgzw = bgzf.NewWriter(f.Writer(ctx), parallelism)
		pw.Writer = NewWriter(pw.bgzw)
	} else {
		pw.Writer = NewWriter(f.Writer(ctx))
	}
	return pw, nil
}

// Close flushes and closes the file, reporting the first error encountered.
func (pw *PathWriter) Close() (err error) {
	err = pw.Flush()
	if pw.bgzw != nil {
		if e := pw.bgzw.Close(); e != nil && err == nil {
			err = e
		}
	}
	if e := pw.f.Close(pw.ctx); e != nil && err == nil {
		err = e
	}
	return err
}
