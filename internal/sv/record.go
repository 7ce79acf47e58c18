// Package sv provides the canonical structural-variant record model.
package sv

import (
	"fmt"
	"strings"
)

// MinLength is the smallest size a non-breakend SV may have to enter a callset.
const MinLength = 50

// Type is a canonical SV type.
type Type string

const (
	TypeINS   Type = "INS"
	TypeDEL   Type = "DEL"
	TypeINV   Type = "INV"
	TypeTRA   Type = "TRA"
	TypeBND   Type = "BND"
	TypeINDEL Type = "INDEL"
	TypeOther Type = "OTHER"
)

// IsBreakend reports whether records of this type are described by two
// breakpoints instead of a length.
func (t Type) IsBreakend() bool {
	switch t {
	case TypeINV, TypeTRA, TypeBND:
		return true
	}
	return false
}

// Zygosity is the genotype state derived from the GT subfield.
type Zygosity string

const (
	Het     Zygosity = "het"
	Hom     Zygosity = "hom"
	Unknown Zygosity = "unknown"
)

// ParseZygosity maps the first ':'-delimited subfield of a sample column to a Zygosity.
func ParseZygosity(sample string) Zygosity {
	gt, _, _ := strings.Cut(sample, ":")
	switch gt {
	case "0/1", "1/0":
		return Het
	case "1/1":
		return Hom
	}
	return Unknown
}

// Genotypes is a set of accepted zygosities. A nil set accepts everything.
type Genotypes []Zygosity

// Contains reports whether z is in the set.
func (g Genotypes) Contains(z Zygosity) bool {
	if g == nil {
		return true
	}
	for _, x := range g {
		if x == z {
			return true
		}
	}
	return false
}

var (
	HomOnly   = Genotypes{Hom}
	HomAndHet = Genotypes{Hom, Het}
)

// Record is one normalized SV call.
type Record struct {
	Chrom        string
	Pos          int64 // 1-based
	End          int64 // 0 when absent
	Length       int64 // absolute size, unused for breakend types
	Type         Type
	PartnerChrom string // second breakpoint chromosome for breakends
	Zygosity     Zygosity

	// Matched is set the first time a record of the other callset satisfies
	// the match predicate for this record.
	Matched bool
}

// String formats the record as chrom:pos-end.
func (r *Record) String() string {
	if r.PartnerChrom != "" && r.PartnerChrom != r.Chrom {
		return fmt.Sprintf("%s:%d-%s:%d %s", r.Chrom, r.Pos, r.PartnerChrom, r.End, r.Type)
	}
	return fmt.Sprintf("%s:%d-%d %s", r.Chrom, r.Pos, r.End, r.Type)
}
