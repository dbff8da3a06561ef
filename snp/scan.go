package snp

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/snpick/align"
)

// ErrEmptyAlignment is returned by Scan when the source yields no records.
var ErrEmptyAlignment = errors.E("empty alignment")

// VariantSite describes one variable alignment column.  Values are fixed at
// scan time and never mutated afterwards.
type VariantSite struct {
	// Pos is the 0-based column index.
	Pos int
	// Ref is the most frequent counted symbol at the column, with frequency
	// ties broken by A < C < G < T < '-' precedence, or 'N' if no symbol was
	// counted at all (possible under PolicyMask when a column holds only
	// ambiguity codes).
	Ref byte
	// Alts holds the remaining distinct counted symbols, in A,C,G,T,'-'
	// order.
	Alts []byte
	// Genotypes holds the literal input byte at this column for every
	// record, in record order.  Ambiguity codes and gaps appear verbatim
	// even when they did not vote.
	Genotypes []byte
}

// Result is the outcome of one scan pass over an alignment.
type Result struct {
	// Sites lists the variable columns in ascending position order.
	Sites []VariantSite
	// SampleNames lists the record identifiers in record order; Genotypes
	// slices index into it.
	SampleNames []string
	// NumSeqs is the number of alignment records.
	NumSeqs int
	// SeqLen is the uniform record length.
	SeqLen int
}

// Positions returns the variable column indices in ascending order.
func (r *Result) Positions() []int {
	pos := make([]int, len(r.Sites))
	for i := range r.Sites {
		pos[i] = r.Sites[i].Pos
	}
	return pos
}

// Scan performs the analysis pass: it loads the alignment from src, verifies
// that it is non-empty and of uniform length, and classifies every column
// under the configured policy.  Any record-level read error aborts the whole
// scan; a partial scan would silently change variability calls.
func Scan(ctx context.Context, src align.Source, opts *Opts) (*Result, error) {
	recs, err := align.ReadAll(ctx, src)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrEmptyAlignment
	}
	seqLen := len(recs[0].Seq)
	for i := range recs {
		if len(recs[i].Seq) != seqLen {
			return nil, fmt.Errorf("length mismatch: record %s has %d bases, expected %d",
				recs[i].Name, len(recs[i].Seq), seqLen)
		}
	}
	opts.memCheck("alignment loaded")
	log.Printf("snp.Scan: processing %d sequences of length %d", len(recs), seqLen)

	res := &Result{
		SampleNames: make([]string, len(recs)),
		NumSeqs:     len(recs),
		SeqLen:      seqLen,
	}
	for i := range recs {
		res.SampleNames[i] = recs[i].Name
	}

	// Each job owns a contiguous position shard and an exclusive partial
	// site list, so the loop below shares nothing mutable.  Concatenating
	// the shard results in job order restores ascending position order.
	parallelism := opts.parallelism()
	if parallelism > seqLen {
		parallelism = seqLen
	}
	if parallelism < 1 {
		parallelism = 1
	}
	jobSites := make([][]VariantSite, parallelism)
	err = traverse.Each(parallelism, func(jobIdx int) error {
		startPos := (jobIdx * seqLen) / parallelism
		limitPos := ((jobIdx + 1) * seqLen) / parallelism
		var sites []VariantSite
		for pos := startPos; pos < limitPos; pos++ {
			if site, variable := classifyColumn(recs, pos, opts); variable {
				sites = append(sites, site)
			}
		}
		jobSites[jobIdx] = sites
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, sites := range jobSites {
		res.Sites = append(res.Sites, sites...)
	}
	opts.memCheck("scan complete")
	return res, nil
}

// classifyColumn decides whether column pos is variable and, if so, builds
// its VariantSite.  Frequency counts are accumulated under both policies so
// REF/ALT stay available to the report even in mask mode; only the
// variability predicate differs.
func classifyColumn(recs []align.Record, pos int, opts *Opts) (VariantSite, bool) {
	var (
		counts [NBaseEnum]int32
		mask   byte
	)
	for i := range recs {
		b := recs[i].Seq[pos]
		if enum := BaseEnum(b, opts.IncludeGaps); enum != BaseNone {
			counts[enum]++
		}
		if opts.Policy == PolicyMask {
			mask |= BaseMask(b, opts.IncludeGaps)
		}
	}

	variable := false
	nTypes := 0
	for _, c := range counts {
		if c > 0 {
			nTypes++
		}
	}
	switch opts.Policy {
	case PolicyExact:
		variable = nTypes > 1
	case PolicyMask:
		variable = maskIsVariable(mask)
	}
	if !variable {
		return VariantSite{}, false
	}

	// Reference base = argmax of the frequency table.  Iterating in enum
	// order with a strict '>' makes ties resolve to A < C < G < T < '-'.
	var (
		refEnum  = byte(BaseNone)
		maxCount int32
	)
	for enum := byte(0); enum < NBaseEnum; enum++ {
		if counts[enum] > maxCount {
			maxCount = counts[enum]
			refEnum = enum
		}
	}
	site := VariantSite{Pos: pos, Ref: 'N'}
	if refEnum != BaseNone {
		site.Ref = EnumToASCIITable[refEnum]
	}
	for enum := byte(0); enum < NBaseEnum; enum++ {
		if counts[enum] > 0 && enum != refEnum {
			site.Alts = append(site.Alts, EnumToASCIITable[enum])
		}
	}
	site.Genotypes = make([]byte, len(recs))
	for i := range recs {
		site.Genotypes[i] = recs[i].Seq[pos]
	}
	return site, true
}
