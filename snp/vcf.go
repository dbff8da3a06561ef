package snp

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
)

// VCF serialization of scan results.  The report carries the literal base
// observed in every sample (ambiguity codes and gaps included) in a custom
// BASE format field; no quality is computed, so QUAL is always '.' and
// FILTER always PASS.

const vcfContigID = "1"

// writeVCFSiteFixed appends the CHROM/POS/ID/REF columns of one site.
// It converts pos from 0-based to 1-based, since for better or worse, our
// domain has settled on "0-based coordinates in binary files, 1-based in
// text" as a standard.
func writeVCFSiteFixed(tsvw *tsv.Writer, site *VariantSite) {
	tsvw.WriteString(vcfContigID)          // CHROM
	tsvw.WriteUint32(uint32(site.Pos + 1)) // POS (1-based in VCF text)
	tsvw.WriteString(".")                  // ID
	tsvw.WriteByte(site.Ref)               // REF
}

// altString renders the alternate set: lexicographically sorted,
// comma-separated, with gap reported as the no-call marker '.' rather than
// the literal '-'.
func altString(alts []byte) string {
	if len(alts) == 0 {
		return "."
	}
	sorted := make([]byte, len(alts))
	copy(sorted, alts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, b := range sorted {
		if b == '-' {
			parts[i] = "."
		} else {
			parts[i] = string(b)
		}
	}
	return strings.Join(parts, ",")
}

// WriteVCF emits the variant report for res to w.
func WriteVCF(w io.Writer, res *Result) error {
	tsvw := tsv.NewWriter(w)
	for _, line := range []string{
		"##fileformat=VCFv4.2",
		"##source=snpick",
		"##reference=.",
		"##contig=<ID=" + vcfContigID + ",length=" + strconv.Itoa(len(res.Sites)) + ">",
		`##INFO=<ID=NS,Number=1,Type=Integer,Description="Number of Samples With Data">`,
		`##FORMAT=<ID=BASE,Number=1,Type=String,Description="Observed base at this position">`,
	} {
		tsvw.WriteString(line)
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	tsvw.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT")
	for _, name := range res.SampleNames {
		tsvw.WriteString(name)
	}
	if err := tsvw.EndLine(); err != nil {
		return err
	}

	info := "NS=" + strconv.Itoa(res.NumSeqs)
	for i := range res.Sites {
		site := &res.Sites[i]
		writeVCFSiteFixed(tsvw, site)
		tsvw.WriteString(altString(site.Alts)) // ALT
		tsvw.WriteString(".")                  // QUAL
		tsvw.WriteString("PASS")               // FILTER
		tsvw.WriteString(info)                 // INFO
		tsvw.WriteString("BASE")               // FORMAT
		for _, g := range site.Genotypes {
			tsvw.WriteByte(g)
		}
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

// WriteVCFPath writes the variant report to a local or S3 path,
// block-gzipping when the path ends in .gz.
func WriteVCFPath(ctx context.Context, path string, res *Result, parallelism int) (err error) {
	dst, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, dst, &err)
	if strings.HasSuffix(path, ".gz") {
		bgzw := bgzf.NewWriter(dst.Writer(ctx), parallelism)
		defer func() {
			if e := bgzw.Close(); e != nil && err == nil {
				err = e
			}
		}()
		return WriteVCF(bgzw, res)
	}
	return WriteVCF(dst.Writer(ctx), res)
}
