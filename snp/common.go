// Package snp implements variable-site extraction from FASTA
// multiple-sequence alignments: a parallel scan classifying every alignment
// column as invariant or variable, projection of the variable columns into a
// reduced alignment, and optional VCF-style reporting of the observed bases.
package snp

import "math/bits"

// Common symbol-classification components.
//
// Every alignment byte is mapped through one of two fixed tables built at
// startup:
// 1. A presence bitmask over the canonical bases the symbol is compatible
//    with, honoring IUPAC ambiguity codes ('R' -> A|G, 'N' -> A|C|G|T, ...).
// 2. An exact A/C/G/T/gap enum, with everything else (ambiguity codes
//    included) mapped to a not-counted sentinel.

const (
	// MaskA is the presence bit for an A base.
	MaskA byte = 1 << iota
	// MaskC is the presence bit for a C base.
	MaskC
	// MaskG is the presence bit for a G base.
	MaskG
	// MaskT is the presence bit for a T base.
	MaskT
	// MaskGap is the presence bit for an alignment gap.
	MaskGap
)

// MaskACGT is the union of the four canonical-base bits.
const MaskACGT = MaskA | MaskC | MaskG | MaskT

const (
	// BaseA represents an A base.
	BaseA byte = iota
	// BaseC represents a C base.
	BaseC
	// BaseG represents a G base.
	BaseG
	// BaseT represents a T base.
	BaseT
	// BaseGap represents an alignment gap.
	BaseGap
	// BaseNone is the catch-all for symbols excluded from exact counting.
	BaseNone
)

const (
	// NBase is the number of canonical base types.
	NBase = 4
	// NBaseEnum counts BaseGap as well as the canonical base types.
	NBaseEnum = 5
)

// EnumToASCIITable is the BaseA..BaseGap -> ASCII mapping.
var EnumToASCIITable = [...]byte{'A', 'C', 'G', 'T', '-'}

// iupacMasks maps each nucleotide code (upper case) to the union of canonical
// bases it may represent.  'U' is treated as 'T'.
var iupacMasks = map[byte]byte{
	'A': MaskA,
	'C': MaskC,
	'G': MaskG,
	'T': MaskT,
	'U': MaskT,
	'R': MaskA | MaskG,
	'Y': MaskC | MaskT,
	'S': MaskC | MaskG,
	'W': MaskA | MaskT,
	'K': MaskG | MaskT,
	'M': MaskA | MaskC,
	'B': MaskC | MaskG | MaskT,
	'D': MaskA | MaskG | MaskT,
	'H': MaskA | MaskC | MaskT,
	'V': MaskA | MaskC | MaskG,
	'N': MaskACGT,
	'X': MaskACGT,
}

var (
	baseMaskTable [256]byte
	baseEnumTable [256]byte
)

func init() {
	for i := range baseEnumTable {
		baseEnumTable[i] = BaseNone
	}
	for code, mask := range iupacMasks {
		baseMaskTable[code] = mask
		baseMaskTable[code|0x20] = mask // lower case
	}
	baseMaskTable['-'] = MaskGap
	for enum, ascii := range EnumToASCIITable {
		baseEnumTable[ascii] = byte(enum)
		baseEnumTable[ascii|0x20] = byte(enum)
	}
}

// BaseMask returns the presence bitmask for symbol b.  Gap contributes
// MaskGap only when includeGaps is set; unrecognized symbols contribute no
// bits.
func BaseMask(b byte, includeGaps bool) byte {
	mask := baseMaskTable[b]
	if !includeGaps {
		mask &= MaskACGT
	}
	return mask
}

// BaseEnum returns the exact-base enum for symbol b, or BaseNone for any
// symbol excluded from exact counting (ambiguity codes always; gap unless
// includeGaps is set).
func BaseEnum(b byte, includeGaps bool) byte {
	enum := baseEnumTable[b]
	if enum == BaseGap && !includeGaps {
		return BaseNone
	}
	return enum
}

// maskIsVariable reports whether a combined per-position presence mask
// witnesses more than one compatible state.
func maskIsVariable(mask byte) bool {
	return bits.OnesCount8(mask) > 1
}
