package snp

import (
	"context"
	"fmt"

	"github.com/grailbio/base/log"
	"github.com/grailbio/snpick/align"
)

// Run executes the full pipeline: scan src for variable sites, write the
// reduced alignment to outPath, and, when vcfPath is nonempty, write the
// variant report there.
//
// Finding zero variable sites is a successful run: Run logs a diagnostic,
// writes no files, and returns nil.  An empty alignment or a record-length
// mismatch is an error, and any stage failure aborts the whole run; there is
// no partial-success mode.
func Run(ctx context.Context, src align.Source, outPath, vcfPath string, opts *Opts) (err error) {
	if outPath == "" {
		return fmt.Errorf("snp.Run: output path required")
	}

	log.Printf("snp.Run: identifying variable positions")
	res, err := Scan(ctx, src, opts)
	if err != nil {
		return err
	}
	log.Printf("snp.Run: found %d variable positions", len(res.Sites))
	if len(res.Sites) == 0 {
		log.Printf("snp.Run: no variable positions found in the alignment; nothing to write")
		return nil
	}

	log.Printf("snp.Run: extracting variable positions to %s", outPath)
	w, err := align.CreatePathWriter(ctx, outPath, opts.parallelism())
	if err != nil {
		return err
	}
	nWritten, err := Extract(ctx, src, res, w.Writer, opts)
	if e := w.Close(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return err
	}
	opts.memCheck("extract complete")

	if vcfPath != "" {
		log.Printf("snp.Run: writing variant report to %s", vcfPath)
		if err = WriteVCFPath(ctx, vcfPath, res, opts.parallelism()); err != nil {
			return err
		}
		opts.memCheck("report complete")
	}
	log.Printf("snp.Run: done: %d sequences, %d variable sites", nWritten, len(res.Sites))
	return nil
}
