// Package genomics defines the canonical attribute vocabulary and the request
// parameter objects shared by the coordinator, its backends and callers.
package genomics

import (
	"fmt"
	"sort"
	"strings"
)

// Vocabulary is a canonical attribute identifier. Backends label every output
// column with a Vocabulary item so results can be reconciled without knowing
// any backend's internal naming.
type Vocabulary int

// Kind groups vocabulary items by the role they play in a request or result.
type Kind int

const (
	KindSentinel Kind = iota
	KindMetadata
	KindRegionPredicate
	KindMeasure
	KindIdentifier
)

const (
	Unknown Vocabulary = iota

	// metadata dimensions
	Gender
	HealthStatus
	DNASource
	Assembly
	Population
	SuperPopulation
	Ethnicity
	Disease

	// region predicates
	WithVariant
	WithVariantSameCCopy
	WithVariantDiffCCopy
	WithVariantInGenomicInterval
	WithVariantsInGermlineCells
	WithVariantsInSomaticCells
	WithoutVariant

	// measures
	Frequency
	Count
	Occurrence
	PopulationSize
	PositiveDonors
	Donors

	// identifiers
	DonorID
	Chrom
	Start
	Stop
	Strand
	Ref
	Alt
	Length
	VarType
	ID
	Quality
	Filter
	GeneName
	GeneType
	GeneID
	DownloadURL

	vocabularyEnd
)

// UnknownValue is the cell value used for attributes a backend cannot supply.
const UnknownValue = "unknown"

var vocabularyNames = [...]string{
	Unknown:                      "UNKNOWN",
	Gender:                       "GENDER",
	HealthStatus:                 "HEALTH_STATUS",
	DNASource:                    "DNA_SOURCE",
	Assembly:                     "ASSEMBLY",
	Population:                   "POPULATION",
	SuperPopulation:              "SUPER_POPULATION",
	Ethnicity:                    "ETHNICITY",
	Disease:                      "DISEASE",
	WithVariant:                  "WITH_VARIANT",
	WithVariantSameCCopy:         "WITH_VARIANT_SAME_C_COPY",
	WithVariantDiffCCopy:         "WITH_VARIANT_DIFF_C_COPY",
	WithVariantInGenomicInterval: "WITH_VARIANT_IN_GENOMIC_INTERVAL",
	WithVariantsInGermlineCells:  "WITH_VARIANTS_IN_GERMLINE_CELLS",
	WithVariantsInSomaticCells:   "WITH_VARIANTS_IN_SOMATIC_CELLS",
	WithoutVariant:               "WITHOUT_VARIANT",
	Frequency:                    "FREQUENCY",
	Count:                        "COUNT",
	Occurrence:                   "OCCURRENCE",
	PopulationSize:               "POPULATION_SIZE",
	PositiveDonors:               "POSITIVE_DONORS",
	Donors:                       "DONORS",
	DonorID:                      "DONOR_ID",
	Chrom:                        "CHROM",
	Start:                        "START",
	Stop:                         "STOP",
	Strand:                       "STRAND",
	Ref:                          "REF",
	Alt:                          "ALT",
	Length:                       "LENGTH",
	VarType:                      "VAR_TYPE",
	ID:                           "ID",
	Quality:                      "QUALITY",
	Filter:                       "FILTER",
	GeneName:                     "GENE_NAME",
	GeneType:                     "GENE_TYPE",
	GeneID:                       "GENE_ID",
	DownloadURL:                  "DOWNLOAD_URL",
}

var vocabularyByName = func() map[string]Vocabulary {
	m := make(map[string]Vocabulary, len(vocabularyNames))
	for i, name := range vocabularyNames {
		m[name] = Vocabulary(i)
	}
	return m
}()

// String returns the canonical column label.
func (v Vocabulary) String() string {
	if v < 0 || v >= vocabularyEnd {
		return fmt.Sprintf("Vocabulary(%d)", int(v))
	}
	return vocabularyNames[v]
}

// Kind reports the group the item belongs to.
func (v Vocabulary) Kind() Kind {
	switch {
	case v >= Gender && v <= Disease:
		return KindMetadata
	case v >= WithVariant && v <= WithoutVariant:
		return KindRegionPredicate
	case v >= Frequency && v <= Donors:
		return KindMeasure
	case v >= DonorID && v < vocabularyEnd:
		return KindIdentifier
	default:
		return KindSentinel
	}
}

// Valid reports whether v is a member of the closed vocabulary.
func (v Vocabulary) Valid() bool { return v >= Unknown && v < vocabularyEnd }

// MarshalText encodes the item by its canonical name.
func (v Vocabulary) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("genomics: invalid vocabulary item %d", int(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText decodes a canonical name.
func (v *Vocabulary) UnmarshalText(b []byte) error {
	parsed, ok := ParseVocabulary(string(b))
	if !ok {
		return fmt.Errorf("genomics: unknown vocabulary item %q", string(b))
	}
	*v = parsed
	return nil
}

// ParseVocabulary resolves a case-insensitive canonical name.
func ParseVocabulary(name string) (Vocabulary, bool) {
	v, ok := vocabularyByName[strings.ToUpper(strings.TrimSpace(name))]
	return v, ok
}

// MetadataDimensions lists every donor-level filter dimension in declaration order.
func MetadataDimensions() []Vocabulary {
	return []Vocabulary{Gender, HealthStatus, DNASource, Assembly, Population, SuperPopulation, Ethnicity, Disease}
}

// Set is an unordered collection of vocabulary items.
type Set map[Vocabulary]struct{}

// NewSet builds a set from the given items.
func NewSet(items ...Vocabulary) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(v Vocabulary) bool {
	_, ok := s[v]
	return ok
}

// Add inserts v.
func (s Set) Add(v Vocabulary) { s[v] = struct{}{} }

// Contains reports whether every item of other is in s.
func (s Set) Contains(other Set) bool {
	for v := range other {
		if !s.Has(v) {
			return false
		}
	}
	return true
}

// Sorted returns the members ordered by canonical name.
func (s Set) Sorted() []Vocabulary {
	out := make([]Vocabulary, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	SortByName(out)
	return out
}

// SortByName orders items by their canonical label.
func SortByName(items []Vocabulary) {
	sort.Slice(items, func(i, j int) bool { return items[i].String() < items[j].String() })
}
