package main

/*
snpick extracts the variable sites of a FASTA multiple-sequence alignment
into a reduced alignment, optionally emitting a VCF that reports the literal
base observed in every sample at every variable site.
*/

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/snpick/align"
	"github.com/grailbio/snpick/snp"
)

var (
	fastaPath   = flag.String("fasta", "", "Input FASTA alignment path (.gz accepted); required")
	outPath     = flag.String("out", "", "Output FASTA path for the variable-site alignment (.gz for compressed output); required")
	threads     = flag.Int("threads", snp.DefaultOpts.Parallelism, "Maximum number of simultaneous scan/extract jobs; 0 = runtime.NumCPU()")
	includeGaps = flag.Bool("include-gaps", snp.DefaultOpts.IncludeGaps, "Consider the '-' (gap) symbol in variable-site detection")
	mode        = flag.String("mode", "exact", "Site-detection mode; 'exact' counts only A/C/G/T symbols, 'mask' treats IUPAC ambiguity codes as every base they may represent")
	vcf         = flag.Bool("vcf", false, "Also generate a VCF with the observed bases at each variable site")
	vcfPath     = flag.String("vcf-out", "output.vcf", "Output VCF path; only written with -vcf")
	memReport   = flag.Bool("mem-report", false, "Log memory usage at stage checkpoints")
)

func snpickUsage() {
	fmt.Printf("Usage: %s -fasta aligned.fa -out variable.fa [OPTIONS]\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func logMemUsage(stage string) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	log.Printf("%s: %d MB in use / %d MB from system", stage, ms.Alloc>>20, ms.Sys>>20)
}

func main() {
	flag.Usage = snpickUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 0 {
		log.Fatalf("unexpected positional arguments; please check flag syntax: %v", flag.Args())
	}
	if *fastaPath == "" || *outPath == "" {
		log.Fatalf("both -fasta and -out are required")
	}
	policy, err := snp.ParsePolicy(*mode)
	if err != nil {
		log.Fatalf("%v", err)
	}
	opts := snp.Opts{
		Policy:      policy,
		IncludeGaps: *includeGaps,
		Parallelism: *threads,
		BatchSize:   snp.DefaultOpts.BatchSize,
	}
	if *memReport {
		opts.MemObserver = logMemUsage
	}
	reportPath := ""
	if *vcf {
		reportPath = *vcfPath
	}

	ctx := vcontext.Background()
	src := align.PathSource{Path: *fastaPath}
	if err := snp.Run(ctx, src, *outPath, reportPath, &opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
