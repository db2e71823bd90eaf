package sourceapi

import (
	"context"
	"popstudy/pkg/genomics"
)

// DonorsRequest asks for the donors matching Meta and Region, one row per donor
// with the requested attributes (DONOR_ID is always among them).
type DonorsRequest struct {
	Attributes []genomics.Vocabulary
	Meta       genomics.MetadataAttrs
	Region     genomics.RegionAttrs
}

// OccurrenceRequest asks, for every matching donor, how many copies of Variant
// the donor carries. Rows hold Attributes followed by OCCURRENCE.
type OccurrenceRequest struct {
	Attributes []genomics.Vocabulary
	Meta       genomics.MetadataAttrs
	Region     genomics.RegionAttrs
	Variant    genomics.Mutation
}

// RankRequest asks for the variants of a population ordered by frequency.
// Rows hold CHROM START REF ALT POPULATION_SIZE POSITIVE_DONORS OCCURRENCE FREQUENCY.
type RankRequest struct {
	Meta         genomics.MetadataAttrs
	Region       genomics.RegionAttrs
	Ascending    bool
	MinFrequency *float64
	MaxFrequency *float64
	Limit        int
	// Assembly selects the pseudo-autosomal regions used for sex chromosome
	// frequencies. Empty falls back to the assembly filter in Meta.
	Assembly string
}

// RegionRequest asks for the variants inside Interval owned by the population
// described by Meta and Region.
type RegionRequest struct {
	Interval   genomics.GenomicInterval
	Attributes []genomics.Vocabulary
	Meta       genomics.MetadataAttrs
	Region     genomics.RegionAttrs
}

// RankColumns is the fixed column layout of ranking answers.
var RankColumns = []genomics.Vocabulary{
	genomics.Chrom, genomics.Start, genomics.Ref, genomics.Alt,
	genomics.PopulationSize, genomics.PositiveDonors, genomics.Occurrence, genomics.Frequency,
}

// Source is implemented by every variant backend. Answer-producing methods
// label their columns with canonical names; a backend with nothing to
// contribute returns an empty Table or a *Notice.
type Source interface {
	Name() string
	Capabilities() Capabilities
	Donors(ctx context.Context, req DonorsRequest) (Table, error)
	VariantOccurrence(ctx context.Context, req OccurrenceRequest) (Table, error)
	RankVariantsByFrequency(ctx context.Context, req RankRequest) (Table, error)
	VariantsInRegion(ctx context.Context, req RegionRequest) (Table, error)
	VariantDetails(ctx context.Context, variant genomics.Mutation, attrs []genomics.Vocabulary) (Table, error)
	ValuesOfAttribute(ctx context.Context, attr genomics.Vocabulary) ([]string, error)
}

// AnnotationSource is implemented by every annotation backend.
type AnnotationSource interface {
	Name() string
	Capabilities() Capabilities
	Annotate(ctx context.Context, interval genomics.GenomicInterval, attrs []genomics.Vocabulary, assembly string) (Table, error)
	FindGeneRegion(ctx context.Context, gene genomics.Gene, attrs []genomics.Vocabulary, assembly string) (Table, error)
	ValuesOfAttribute(ctx context.Context, attr genomics.Vocabulary) ([]string, error)
}
