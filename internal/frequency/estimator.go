// Package frequency computes population-adjusted allele frequencies. The
// arithmetic is pluggable: the coordinator and the SQL backends depend only on
// the Estimator interface.
package frequency

import (
	"context"
	"popstudy/pkg/genomics"
	"strings"
)

// Input carries the counts for one population group. Callers apply the sex
// exclusion policy before estimating: on sex chromosomes UnknownSex is zero.
type Input struct {
	Occurrence int
	Males      int
	Females    int
	UnknownSex int
	Chrom      int
	Position   int
	Assembly   string
}

// Estimator turns occurrence counts into a frequency.
type Estimator interface {
	Estimate(ctx context.Context, in Input) (float64, error)
}

// EstimatorFunc adapts a plain function to Estimator.
type EstimatorFunc func(ctx context.Context, in Input) (float64, error)

// Estimate calls f.
func (f EstimatorFunc) Estimate(ctx context.Context, in Input) (float64, error) { return f(ctx, in) }

// Sex classifies a donor's recorded gender.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

// ParseSex maps recorded gender values; anything but male/female is unknown.
func ParseSex(v any) Sex {
	s, ok := v.(string)
	if !ok {
		return SexUnknown
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return SexMale
	case "female", "f":
		return SexFemale
	}
	return SexUnknown
}

// CountsSex reports whether a donor of sex s enters the counts for chrom.
func CountsSex(chrom int, s Sex) bool {
	return !genomics.IsSexChromosome(chrom) || s != SexUnknown
}
