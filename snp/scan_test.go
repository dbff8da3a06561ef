package snp_test

import (
	"context"
	"strings"
	"testing"

	"github.com/grailbio/snpick/align"
	"github.com/grailbio/snpick/snp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source(seqs ...string) align.SliceSource {
	var recs []align.Record
	for i, s := range seqs {
		recs = append(recs, align.Record{
			Name: "s" + string(rune('1'+i)),
			Seq:  []byte(s),
		})
	}
	return align.SliceSource{Records: recs}
}

func scan(t *testing.T, src align.Source, opts snp.Opts) *snp.Result {
	t.Helper()
	res, err := snp.Scan(context.Background(), src, &opts)
	require.NoError(t, err)
	return res
}

func TestScanSingleVariableSite(t *testing.T) {
	// The s2 mismatch at the last column is the only variable site.
	res := scan(t, source("ACGT", "ACGA", "ACGT"), snp.DefaultOpts)
	require.Len(t, res.Sites, 1)
	site := res.Sites[0]
	assert.Equal(t, 3, site.Pos)
	assert.Equal(t, byte('T'), site.Ref) // 2 of 3
	assert.Equal(t, []byte("A"), site.Alts)
	assert.Equal(t, []byte("TAT"), site.Genotypes)
	assert.Equal(t, []string{"s1", "s2", "s3"}, res.SampleNames)
	assert.Equal(t, 3, res.NumSeqs)
	assert.Equal(t, 4, res.SeqLen)
}

func TestScanNoVariableSites(t *testing.T) {
	res := scan(t, source("ACGT", "ACGT", "ACGT"), snp.DefaultOpts)
	assert.Empty(t, res.Sites)
}

func TestScanEmptyAlignment(t *testing.T) {
	_, err := snp.Scan(context.Background(), align.SliceSource{}, &snp.DefaultOpts)
	require.Error(t, err)
	assert.Equal(t, snp.ErrEmptyAlignment, err)
}

func TestScanLengthMismatch(t *testing.T) {
	_, err := snp.Scan(context.Background(), source("ACGT", "ACG"), &snp.DefaultOpts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length mismatch")
}

func TestScanRefAltPartition(t *testing.T) {
	res := scan(t, source("AAGT", "CAGA", "GAGC", "TAGC"), snp.DefaultOpts)
	require.Len(t, res.Sites, 2)

	// Column 0 holds all four bases; ties resolve to A.
	site := res.Sites[0]
	assert.Equal(t, 0, site.Pos)
	assert.Equal(t, byte('A'), site.Ref)
	assert.Equal(t, []byte("CGT"), site.Alts)
	assert.NotContains(t, string(site.Alts), string(site.Ref))

	// Column 3: C wins 2:1:1 over A and T.
	site = res.Sites[1]
	assert.Equal(t, 3, site.Pos)
	assert.Equal(t, byte('C'), site.Ref)
	assert.Equal(t, []byte("AT"), site.Alts)
}

func TestScanTieBreak(t *testing.T) {
	// Equal counts: alphabetical precedence picks the reference.
	res := scan(t, source("T", "A"), snp.DefaultOpts)
	require.Len(t, res.Sites, 1)
	assert.Equal(t, byte('A'), res.Sites[0].Ref)
	assert.Equal(t, []byte("T"), res.Sites[0].Alts)

	res = scan(t, source("G", "C"), snp.DefaultOpts)
	require.Len(t, res.Sites, 1)
	assert.Equal(t, byte('C'), res.Sites[0].Ref)
}

func TestScanGaps(t *testing.T) {
	src := source("A-GT", "AAGT", "A-GT")

	// Gaps excluded: column 1 has only one counted symbol.
	res := scan(t, src, snp.DefaultOpts)
	assert.Empty(t, res.Sites)

	// Gaps included: column 1 becomes variable, '-' wins 2:1.
	opts := snp.DefaultOpts
	opts.IncludeGaps = true
	res = scan(t, src, opts)
	require.Len(t, res.Sites, 1)
	site := res.Sites[0]
	assert.Equal(t, 1, site.Pos)
	assert.Equal(t, byte('-'), site.Ref)
	assert.Equal(t, []byte("A"), site.Alts)
	assert.Equal(t, []byte("-A-"), site.Genotypes)
}

func TestScanAmbiguityPolicies(t *testing.T) {
	// R may be A or G.  Exact mode ignores it; mask mode lets it vote.
	src := source("AR", "AA")

	res := scan(t, src, snp.DefaultOpts)
	assert.Empty(t, res.Sites)

	opts := snp.DefaultOpts
	opts.Policy = snp.PolicyMask
	res = scan(t, src, opts)
	require.Len(t, res.Sites, 1)
	site := res.Sites[0]
	assert.Equal(t, 1, site.Pos)
	// The ambiguity code is excluded from frequency voting but reported
	// verbatim in the genotypes.
	assert.Equal(t, byte('A'), site.Ref)
	assert.Empty(t, site.Alts)
	assert.Equal(t, []byte("RA"), site.Genotypes)
}

func TestScanMaskOnlyAmbiguity(t *testing.T) {
	// No exact symbol at all: mask mode still flags the column, with the
	// reference falling back to 'N'.
	src := source("R", "Y")
	opts := snp.DefaultOpts
	opts.Policy = snp.PolicyMask
	res := scan(t, src, opts)
	require.Len(t, res.Sites, 1)
	assert.Equal(t, byte('N'), res.Sites[0].Ref)
	assert.Empty(t, res.Sites[0].Alts)
}

func TestScanGenotypeRoundTrip(t *testing.T) {
	seqs := []string{"ACRT-G", "AC-TAG", "GCGTNG", "ACATTG"}
	src := source(seqs...)
	opts := snp.DefaultOpts
	opts.IncludeGaps = true
	res := scan(t, src, opts)
	require.NotEmpty(t, res.Sites)
	for _, site := range res.Sites {
		for i, g := range site.Genotypes {
			assert.Equal(t, seqs[i][site.Pos], g, "sample %d pos %d", i, site.Pos)
		}
	}
}

func TestScanParallelEquivalence(t *testing.T) {
	seqs := []string{
		strings.Repeat("ACGTACGTAC", 10),
		strings.Repeat("ACGAACGTAC", 10),
		strings.Repeat("ACGTAAGTNC", 10),
		strings.Repeat("ACGTACGT-C", 10),
	}
	for _, policy := range []snp.Policy{snp.PolicyExact, snp.PolicyMask} {
		opts := snp.DefaultOpts
		opts.Policy = policy
		opts.IncludeGaps = true
		opts.Parallelism = 1
		want := scan(t, source(seqs...), opts)
		for _, parallelism := range []int{2, 8, 64} {
			opts.Parallelism = parallelism
			got := scan(t, source(seqs...), opts)
			assert.Equal(t, want, got, "parallelism %d", parallelism)
		}
	}
}

func TestScanPositionsAscending(t *testing.T) {
	res := scan(t, source(
		strings.Repeat("AT", 50),
		strings.Repeat("TA", 50),
	), snp.Opts{Parallelism: 7})
	require.Len(t, res.Sites, 100)
	positions := res.Positions()
	for i := 1; i < len(positions); i++ {
		assert.Less(t, positions[i-1], positions[i])
	}
}
