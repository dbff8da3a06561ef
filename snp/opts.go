package snp

import (
	"fmt"
	"runtime"
)

// Policy selects how symbols vote during variability detection.
type Policy int

const (
	// PolicyExact tallies only exact A/C/G/T symbols (and gap when enabled)
	// into per-position frequency counts; ambiguity codes are excluded from
	// voting but still reported verbatim in genotypes.
	PolicyExact Policy = iota
	// PolicyMask ORs together the IUPAC presence masks of every symbol, so a
	// single ambiguity code can make a position look variable.
	PolicyMask
)

// ParsePolicy parses a -mode command-line value.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "exact":
		return PolicyExact, nil
	case "mask":
		return PolicyMask, nil
	}
	return 0, fmt.Errorf("unknown site-detection mode %q ('exact' and 'mask' supported)", s)
}

// Opts are the scan/extract options.
type Opts struct {
	// Policy selects the variability-voting rule.
	Policy Policy
	// IncludeGaps makes '-' participate in variability detection as a fifth
	// symbol.
	IncludeGaps bool
	// Parallelism bounds the number of simultaneous scan/extract jobs;
	// 0 means runtime.NumCPU().
	Parallelism int
	// BatchSize is the number of records projected per extraction batch.
	BatchSize int
	// MemObserver, if set, is invoked at stage checkpoints so callers can
	// sample memory usage.  It must be safe to call from the driver
	// goroutine only.
	MemObserver func(stage string)
}

// DefaultOpts are the default scan/extract options.
var DefaultOpts = Opts{
	Policy:      PolicyExact,
	IncludeGaps: false,
	Parallelism: 0,
	BatchSize:   4096,
}

func (o *Opts) parallelism() int {
	if o.Parallelism > 0 {
		return o.Parallelism
	}
	return runtime.NumCPU()
}

func (o *Opts) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultOpts.BatchSize
}

func (o *Opts) memCheck(stage string) {
	if o.MemObserver != nil {
		o.MemObserver(stage)
	}
}
