package frequency

import (
	"context"
	"popstudy/pkg/genomics"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlleleCopies(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want int
	}{
		{"autosome", Input{Chrom: 1, Males: 3, Females: 4, UnknownSex: 1}, 16},
		{"x outside par", Input{Chrom: genomics.ChromX, Males: 3, Females: 4, Position: 5_000_000, Assembly: "GRCh38"}, 11},
		{"y outside par", Input{Chrom: genomics.ChromY, Males: 3, Females: 4, Position: 5_000_000, Assembly: "GRCh38"}, 3},
		{"x in hg19 par1", Input{Chrom: genomics.ChromX, Males: 3, Females: 4, Position: 60000, Assembly: "hg19"}, 14},
		{"x just before hg19 par1", Input{Chrom: genomics.ChromX, Males: 3, Females: 4, Position: 59999, Assembly: "hg19"}, 11},
		{"y in grch38 par2", Input{Chrom: genomics.ChromY, Males: 2, Females: 1, Position: 56887902, Assembly: "grch38"}, 6},
		{"unknown assembly", Input{Chrom: genomics.ChromX, Males: 1, Females: 1, Position: 60000, Assembly: "hg18"}, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, AlleleCopies(c.in))
		})
	}
}

func TestAlleleCountEstimate(t *testing.T) {
	f, err := AlleleCount{}.Estimate(context.Background(), Input{Chrom: 2, Occurrence: 5, Males: 5, Females: 5})
	require.NoError(t, err)
	require.InDelta(t, 0.25, f, 1e-9)

	f, err = AlleleCount{}.Estimate(context.Background(), Input{Chrom: genomics.ChromY, Occurrence: 5, Females: 5})
	require.NoError(t, err)
	require.Zero(t, f)
}

func TestParseSexAndCountsSex(t *testing.T) {
	require.Equal(t, SexMale, ParseSex(" Male "))
	require.Equal(t, SexFemale, ParseSex("f"))
	require.Equal(t, SexUnknown, ParseSex("not reported"))
	require.Equal(t, SexUnknown, ParseSex(nil))
	require.True(t, CountsSex(1, SexUnknown))
	require.False(t, CountsSex(genomics.ChromX, SexUnknown))
	require.True(t, CountsSex(genomics.ChromY, SexMale))
}

func TestEstimatorFunc(t *testing.T) {
	var e Estimator = EstimatorFunc(func(_ context.Context, in Input) (float64, error) {
		return float64(in.Occurrence), nil
	})
	f, err := e.Estimate(context.Background(), Input{Occurrence: 2})
	require.NoError(t, err)
	require.Equal(t, 2.0, f)
}
