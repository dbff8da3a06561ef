package align

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const readerBufSize = 16 * 1024 * 1024

// Reader parses FASTA records from a stream.  Sequence bodies may span
// multiple lines; blank lines and trailing '\r' are tolerated.
type Reader struct {
	r *bufio.Reader
	// pendingName holds the header of the next record, already consumed from
	// the stream while finishing the previous one.
	pendingName string
	started     bool
	nRead       int
	err         error
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, readerBufSize)}
}

// Read returns the next record, or io.EOF after the last one.  Any parse
// error is sticky and aborts the pass.
func (r *Reader) Read() (Record, error) {
	if r.err != nil {
		return Record{}, r.err
	}
	rec, err := r.read()
	if err != nil && err != io.EOF {
		err = errors.Wrapf(err, "fasta: record %d", r.nRead)
	}
	r.err = err
	if err == nil {
		r.nRead++
	}
	return rec, err
}

func (r *Reader) read() (Record, error) {
	var (
		rec Record
		seq []byte
		eof bool
	)
	if r.started {
		if r.pendingName == "" { // previous read hit EOF
			return Record{}, io.EOF
		}
		rec.Name = r.pendingName
		r.pendingName = ""
	}
	for !eof {
		fullLine, e := r.r.ReadBytes('\n')
		if e == io.EOF { // Process fullLine, then exit the loop
			eof = true
		} else if e != nil {
			return Record{}, e
		}
		line := bytes.TrimRight(fullLine, "\r\n")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' { // Start a new sequence.
			name := strings.Split(string(line[1:]), " ")[0]
			if name == "" {
				return Record{}, errors.New("empty record name")
			}
			if !r.started {
				r.started = true
				rec.Name = name
				continue
			}
			r.pendingName = name
			return Record{Name: rec.Name, Seq: seq}, nil
		}
		if !r.started {
			return Record{}, errors.New("sequence data before first header")
		}
		seq = append(seq, line...)
	}
	if !r.started {
		// Nothing but blank lines (or truly empty input).
		return Record{}, io.EOF
	}
	return Record{Name: rec.Name, Seq: seq}, nil
}
