package snp_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/grailbio/snpick/align"
	"github.com/grailbio/snpick/snp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractToString(t *testing.T, src align.Source, res *snp.Result, opts snp.Opts) string {
	t.Helper()
	var buf bytes.Buffer
	w := align.NewWriter(&buf)
	n, err := snp.Extract(context.Background(), src, res, w, &opts)
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	assert.Equal(t, res.NumSeqs, n)
	return buf.String()
}

func TestExtractSingleSite(t *testing.T) {
	src := source("ACGT", "ACGA", "ACGT")
	res := scan(t, src, snp.DefaultOpts)
	got := extractToString(t, src, res, snp.DefaultOpts)
	assert.Equal(t, ">s1\nT\n>s2\nA\n>s3\nT\n", got)
}

func TestExtractPreservesOrderAcrossBatches(t *testing.T) {
	// Many records, tiny batches, high parallelism: output order must still
	// match input order exactly.
	var recs []align.Record
	for i := 0; i < 100; i++ {
		seq := "AAAA"
		if i%3 == 0 {
			seq = "AATA"
		}
		recs = append(recs, align.Record{Name: fmt.Sprintf("rec%03d", i), Seq: []byte(seq)})
	}
	src := align.SliceSource{Records: recs}

	opts := snp.DefaultOpts
	opts.Parallelism = 8
	opts.BatchSize = 7
	res := scan(t, src, opts)
	require.Len(t, res.Sites, 1)

	got := extractToString(t, src, res, opts)
	var want strings.Builder
	for i, rec := range recs {
		base := "A"
		if i%3 == 0 {
			base = "T"
		}
		fmt.Fprintf(&want, ">%s\n%s\n", rec.Name, base)
	}
	assert.Equal(t, want.String(), got)
}

func TestExtractParallelEquivalence(t *testing.T) {
	var recs []align.Record
	for i := 0; i < 50; i++ {
		recs = append(recs, align.Record{
			Name: fmt.Sprintf("r%d", i),
			Seq:  []byte(strings.Repeat("ACGT", 5) + string("ACGT"[i%4])),
		})
	}
	src := align.SliceSource{Records: recs}
	res := scan(t, src, snp.DefaultOpts)

	opts := snp.DefaultOpts
	opts.Parallelism = 1
	want := extractToString(t, src, res, opts)
	for _, parallelism := range []int{2, 8} {
		opts.Parallelism = parallelism
		assert.Equal(t, want, extractToString(t, src, res, opts), "parallelism %d", parallelism)
	}
}

// shiftySource yields different records on every pass, simulating a source
// mutated between the scan and extract passes.
type shiftySource struct {
	passes []align.SliceSource
	n      int
}

func (s *shiftySource) Open(ctx context.Context) (align.RecordReader, error) {
	pass := s.passes[s.n]
	if s.n < len(s.passes)-1 {
		s.n++
	}
	return pass.Open(ctx)
}

func TestExtractLengthDrift(t *testing.T) {
	src := &shiftySource{passes: []align.SliceSource{
		source("ACGT", "ACGA"),
		source("ACGT", "ACGAA"),
	}}
	res, err := snp.Scan(context.Background(), src, &snp.DefaultOpts)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := align.NewWriter(&buf)
	_, err = snp.Extract(context.Background(), src, res, w, &snp.DefaultOpts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source changed between passes")
}

func TestExtractRecordCountDrift(t *testing.T) {
	src := &shiftySource{passes: []align.SliceSource{
		source("ACGT", "ACGA"),
		source("ACGT", "ACGA", "ACGT"),
	}}
	res, err := snp.Scan(context.Background(), src, &snp.DefaultOpts)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := align.NewWriter(&buf)
	_, err = snp.Extract(context.Background(), src, res, w, &snp.DefaultOpts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source changed between passes")
}
