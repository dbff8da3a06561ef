package snp

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/snpick/align"
)

const extractLogInterval = 100000

// Extract performs the second pass: it re-reads the alignment from src and
// writes one record per input record to w, in input order, containing only
// the bytes at the variable positions found by Scan.
//
// Records are projected in batches.  Each batch is scattered across
// parallelism jobs that fill pre-sized output slots, then flushed
// sequentially in arrival order, so the writer never needs a lock and output
// order is independent of job completion order.
//
// Any record read error, any record whose length differs from the scan
// pass, and any record-count drift between the passes aborts the run: the
// source changed underneath us and the reduced alignment would no longer
// line up with the variant report.
func Extract(ctx context.Context, src align.Source, res *Result, w *align.Writer, opts *Opts) (nWritten int, err error) {
	positions := res.Positions()
	parallelism := opts.parallelism()
	batchSize := opts.batchSize()

	rr, err := src.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if e := rr.Close(); e != nil && err == nil {
			err = e
		}
	}()

	batch := make([]align.Record, 0, batchSize)
	slots := make([][]byte, batchSize)

	flush := func() error {
		n := len(batch)
		if n == 0 {
			return nil
		}
		jobs := parallelism
		if jobs > n {
			jobs = n
		}
		if e := traverse.Each(jobs, func(jobIdx int) error {
			for i := (jobIdx * n) / jobs; i < ((jobIdx+1)*n)/jobs; i++ {
				rec := batch[i]
				if len(rec.Seq) != res.SeqLen {
					return fmt.Errorf("extract: record %s has %d bases, expected %d (source changed between passes?)",
						rec.Name, len(rec.Seq), res.SeqLen)
				}
				slot := slots[i][:0]
				for _, pos := range positions {
					slot = append(slot, rec.Seq[pos])
				}
				slots[i] = slot
			}
			return nil
		}); e != nil {
			return e
		}
		for i := 0; i < n; i++ {
			if e := w.Append(align.Record{Name: batch[i].Name, Seq: slots[i]}); e != nil {
				return e
			}
			nWritten++
			if nWritten%extractLogInterval == 0 {
				log.Printf("snp.Extract: written %d sequences", nWritten)
				opts.memCheck("extract progress")
			}
		}
		batch = batch[:0]
		return nil
	}

	for i := range slots {
		slots[i] = make([]byte, 0, len(positions))
	}
	for {
		rec, e := rr.Read()
		if e == io.EOF {
			break
		}
		if e != nil {
			return nWritten, e
		}
		batch = append(batch, rec)
		if len(batch) == batchSize {
			if e := flush(); e != nil {
				return nWritten, e
			}
		}
	}
	if e := flush(); e != nil {
		return nWritten, e
	}
	if nWritten != res.NumSeqs {
		return nWritten, fmt.Errorf("extract: saw %d records, scan pass saw %d (source changed between passes?)",
			nWritten, res.NumSeqs)
	}
	return nWritten, nil
}
