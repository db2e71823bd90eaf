package core

import (
	"context"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotateIntervalPadsMissingAttributes(t *testing.T) {
	ann := geneAnnotations()
	ann.annotate = sourceapi.Table{
		Columns: []genomics.Vocabulary{genomics.GeneName, genomics.Start},
		Rows:    [][]any{{"WRAP53", 7686071}, {"TP53", 7661778}},
	}
	c := newTestCoordinator(t, nil, []sourceapi.AnnotationSource{ann})
	iv, _ := genomics.NewGenomicInterval(17, 7661000, 7690000, 0)
	res, err := c.AnnotateInterval(context.Background(), iv, []genomics.Vocabulary{genomics.GeneName, genomics.Start, genomics.Strand}, "hg19")
	require.NoError(t, err)
	require.Equal(t, [][]any{
		{"TP53", int64(7661778), genomics.UnknownValue},
		{"WRAP53", int64(7686071), genomics.UnknownValue},
	}, res.Rows)
	require.Equal(t, "hg19", ann.assembly)

	_, err = c.AnnotateInterval(context.Background(), iv, []genomics.Vocabulary{genomics.Quality}, "")
	require.ErrorIs(t, err, ErrNoEligibleSource)
}

func TestAnnotateIntervalCarriesNotices(t *testing.T) {
	ann := geneAnnotations()
	ann.err = sourceapi.NewNotice("genes", "Assembly hg18 is not available.")
	c := newTestCoordinator(t, nil, []sourceapi.AnnotationSource{ann})
	iv, _ := genomics.NewGenomicInterval(1, 1, 2, 0)
	_, err := c.AnnotateInterval(context.Background(), iv, []genomics.Vocabulary{genomics.GeneName}, "hg18")
	var nd *NoDataError
	require.ErrorAs(t, err, &nd)
	require.Equal(t, []string{"genes: Assembly hg18 is not available."}, nd.Notices)
}

func TestAnnotateVariantUsesLocatedSpan(t *testing.T) {
	src := genomesSource()
	src.details = sourceapi.Table{
		Columns: []genomics.Vocabulary{genomics.Chrom, genomics.Start, genomics.Stop},
		Rows:    [][]any{{17, 7670000, 7670001}},
	}
	ann := geneAnnotations()
	ann.annotate = sourceapi.Table{Columns: []genomics.Vocabulary{genomics.GeneName}, Rows: [][]any{{"TP53"}}}
	c := newTestCoordinator(t, []sourceapi.Source{src}, []sourceapi.AnnotationSource{ann})
	res, err := c.AnnotateVariant(context.Background(), mustMutation(t, "rs28934578"), []genomics.Vocabulary{genomics.GeneName}, "")
	require.NoError(t, err)
	require.Equal(t, [][]any{{"TP53"}}, res.Rows)
	require.Equal(t, genomics.GenomicInterval{Chrom: 17, Start: 7670000, Stop: 7670001}, ann.annotated)
}

func TestAnnotateVariantDerivesStopFromReference(t *testing.T) {
	src := tumoursSource()
	src.details = sourceapi.Table{
		Columns: []genomics.Vocabulary{genomics.Chrom, genomics.Start},
		Rows:    [][]any{{17, 7670000}},
	}
	ann := geneAnnotations()
	ann.annotate = sourceapi.Table{Columns: []genomics.Vocabulary{genomics.GeneName}, Rows: [][]any{{"TP53"}}}
	c := newTestCoordinator(t, []sourceapi.Source{src}, []sourceapi.AnnotationSource{ann})
	_, err := c.AnnotateVariant(context.Background(), mustMutation(t, "17:7670000:GAT:G"), []genomics.Vocabulary{genomics.GeneName}, "")
	require.NoError(t, err)
	require.Equal(t, 7670002, ann.annotated.Stop)
}
