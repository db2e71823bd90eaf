package frequency

import (
	"context"
	"popstudy/pkg/genomics"
	"strings"
)

type span struct{ from, to int }

// Pseudo-autosomal regions, 1-based inclusive, per assembly and chromosome.
var pseudoAutosomal = map[string]map[int][]span{
	"hg19": {
		genomics.ChromX: {{60001, 2699520}, {154931044, 155260560}},
		genomics.ChromY: {{10001, 2649520}, {59034050, 59363566}},
	},
	"grch38": {
		genomics.ChromX: {{10001, 2781479}, {155701383, 156030895}},
		genomics.ChromY: {{10001, 2781479}, {56887903, 57217415}},
	},
}

// AlleleCount estimates frequency as occurrence over the number of chromosome
// copies carried by the counted donors: two per donor on autosomes and in
// pseudo-autosomal regions, two per female and one per male on X, one per male
// on Y.
type AlleleCount struct{}

var _ Estimator = AlleleCount{}

// Estimate implements Estimator. A population with no copies has frequency 0.
func (AlleleCount) Estimate(_ context.Context, in Input) (float64, error) {
	copies := AlleleCopies(in)
	if copies == 0 {
		return 0, nil
	}
	return float64(in.Occurrence) / float64(copies), nil
}

// AlleleCopies returns the denominator used by AlleleCount.
func AlleleCopies(in Input) int {
	if !genomics.IsSexChromosome(in.Chrom) || inPseudoAutosomal(in.Assembly, in.Chrom, in.Position) {
		return 2 * (in.Males + in.Females + in.UnknownSex)
	}
	if in.Chrom == genomics.ChromX {
		return 2*in.Females + in.Males
	}
	return in.Males
}

func inPseudoAutosomal(assembly string, chrom, pos int) bool {
	regions := pseudoAutosomal[strings.ToLower(assembly)][chrom]
	// positions are 0-based
	p := pos + 1
	for _, r := range regions {
		if p >= r.from && p <= r.to {
			return true
		}
	}
	return false
}
