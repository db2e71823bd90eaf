package genomics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataAncestryIsExclusiveInEveryOrder(t *testing.T) {
	pop := WithPopulation("GBR")
	sup := WithSuperPopulation("EUR")
	eth := WithEthnicity("white")
	orders := [][]MetadataOption{
		{pop, sup, eth},
		{pop, eth, sup},
		{sup, pop, eth},
		{sup, eth, pop},
		{eth, pop, sup},
		{eth, sup, pop},
	}
	for _, order := range orders {
		m := NewMetadataAttrs(order...)
		set := 0
		for _, values := range [][]string{m.Population(), m.SuperPopulation(), m.Ethnicity()} {
			if len(values) > 0 {
				set++
			}
		}
		require.Equal(t, 1, set)
	}
	last := NewMetadataAttrs(eth, pop, sup)
	require.Equal(t, []string{"EUR"}, last.SuperPopulation())
}

func TestMetadataEmptyAncestryOptionKeepsPrevious(t *testing.T) {
	m := NewMetadataAttrs(WithPopulation("GBR"), WithSuperPopulation())
	require.Equal(t, []string{"GBR"}, m.Population())
	require.Nil(t, m.SuperPopulation())
}

func TestMetadataDimensionsPartition(t *testing.T) {
	m := NewMetadataAttrs(
		WithGender(" female "),
		WithAssembly("hg19"),
		WithDNASource("blood", " ", "lcl"),
		nil,
	)
	require.Equal(t, "female", m.Gender())
	require.Equal(t, []string{"blood", "lcl"}, m.DNASource())
	require.Equal(t, []Vocabulary{Gender, DNASource, Assembly}, m.ConstrainedDimensions())

	seen := map[Vocabulary]int{}
	for _, v := range append(m.ConstrainedDimensions(), m.FreeDimensions()...) {
		seen[v]++
	}
	require.Len(t, seen, len(MetadataDimensions()))
	for _, n := range seen {
		require.Equal(t, 1, n)
	}
}

func TestMetadataAccessorsReturnCopies(t *testing.T) {
	m := NewMetadataAttrs(WithPopulation("GBR", "FIN"))
	got := m.Population()
	got[0] = "XXX"
	require.Equal(t, []string{"GBR", "FIN"}, m.Population())
	require.Nil(t, m.Values(Frequency))
	require.Equal(t, []string{"GBR", "FIN"}, m.Values(Population))
}
