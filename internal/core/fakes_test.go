package core

import (
	"context"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
)

// fakeSource answers every call from canned tables. When err is set every
// answer-producing call fails with it; panics makes them panic instead.
type fakeSource struct {
	name       string
	caps       sourceapi.Capabilities
	donors     sourceapi.Table
	occurrence sourceapi.Table
	rank       sourceapi.Table
	region     sourceapi.Table
	details    sourceapi.Table
	values     []string
	err        error
	panics     bool

	lastRank sourceapi.RankRequest
}

func (f *fakeSource) Name() string                         { return f.name }
func (f *fakeSource) Capabilities() sourceapi.Capabilities { return f.caps }

func (f *fakeSource) answer(t sourceapi.Table) (sourceapi.Table, error) {
	if f.panics {
		panic("fake source exploded")
	}
	if f.err != nil {
		return sourceapi.Table{}, f.err
	}
	return t, nil
}

func (f *fakeSource) Donors(context.Context, sourceapi.DonorsRequest) (sourceapi.Table, error) {
	return f.answer(f.donors)
}

func (f *fakeSource) VariantOccurrence(context.Context, sourceapi.OccurrenceRequest) (sourceapi.Table, error) {
	return f.answer(f.occurrence)
}

func (f *fakeSource) RankVariantsByFrequency(_ context.Context, req sourceapi.RankRequest) (sourceapi.Table, error) {
	f.lastRank = req
	return f.answer(f.rank)
}

func (f *fakeSource) VariantsInRegion(context.Context, sourceapi.RegionRequest) (sourceapi.Table, error) {
	return f.answer(f.region)
}

func (f *fakeSource) VariantDetails(context.Context, genomics.Mutation, []genomics.Vocabulary) (sourceapi.Table, error) {
	return f.answer(f.details)
}

func (f *fakeSource) ValuesOfAttribute(context.Context, genomics.Vocabulary) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.values, nil
}

type fakeAnnotations struct {
	name      string
	caps      sourceapi.Capabilities
	annotate  sourceapi.Table
	genes     sourceapi.Table
	values    []string
	err       error
	assembly  string
	annotated genomics.GenomicInterval
}

func (f *fakeAnnotations) Name() string                         { return f.name }
func (f *fakeAnnotations) Capabilities() sourceapi.Capabilities { return f.caps }

func (f *fakeAnnotations) Annotate(_ context.Context, iv genomics.GenomicInterval, _ []genomics.Vocabulary, assembly string) (sourceapi.Table, error) {
	f.annotated, f.assembly = iv, assembly
	if f.err != nil {
		return sourceapi.Table{}, f.err
	}
	return f.annotate, nil
}

func (f *fakeAnnotations) FindGeneRegion(_ context.Context, _ genomics.Gene, _ []genomics.Vocabulary, assembly string) (sourceapi.Table, error) {
	f.assembly = assembly
	if f.err != nil {
		return sourceapi.Table{}, f.err
	}
	return f.genes, nil
}

func (f *fakeAnnotations) ValuesOfAttribute(context.Context, genomics.Vocabulary) ([]string, error) {
	return f.values, f.err
}

func capsOf(predicates []genomics.Vocabulary, attrs ...genomics.Vocabulary) sourceapi.Capabilities {
	m := make(map[genomics.Vocabulary]string, len(attrs))
	for _, a := range attrs {
		m[a] = a.String()
	}
	return sourceapi.NewCapabilities(m, predicates...)
}

var allPredicates = []genomics.Vocabulary{
	genomics.WithVariant, genomics.WithVariantInGenomicInterval, genomics.WithoutVariant,
}

// genomesSource mimics a germline catalog with ancestry metadata.
func genomesSource() *fakeSource {
	return &fakeSource{
		name: "genomes",
		caps: capsOf(allPredicates,
			genomics.DonorID, genomics.Gender, genomics.Population, genomics.Assembly, genomics.Chrom, genomics.Start, genomics.Stop, genomics.Ref, genomics.Alt),
		donors: sourceapi.Table{
			Columns: []genomics.Vocabulary{genomics.Gender, genomics.Population, genomics.DonorID},
			Rows: [][]any{
				{"female", "GBR", "d1"},
				{"male", "GBR", "d2"},
				{"female", "FIN", "d3"},
			},
		},
		values: []string{"female", "male"},
	}
}

// tumoursSource mimics a somatic catalog without ancestry metadata.
func tumoursSource() *fakeSource {
	return &fakeSource{
		name: "tumours",
		caps: capsOf(allPredicates, genomics.DonorID, genomics.Gender, genomics.Disease, genomics.Chrom, genomics.Start),
		donors: sourceapi.Table{
			Columns: []genomics.Vocabulary{genomics.Gender, genomics.DonorID},
			Rows: [][]any{
				{"female", "t1"},
				{"female", "t2"},
			},
		},
		values: []string{"female", "not reported"},
	}
}

func geneAnnotations() *fakeAnnotations {
	return &fakeAnnotations{
		name: "genes",
		caps: capsOf([]genomics.Vocabulary{genomics.WithVariantInGenomicInterval},
			genomics.GeneName, genomics.GeneType, genomics.GeneID, genomics.Chrom, genomics.Start, genomics.Stop),
		genes: sourceapi.Table{
			Columns: []genomics.Vocabulary{genomics.GeneType, genomics.Chrom, genomics.Start, genomics.Stop, genomics.GeneID},
			Rows:    [][]any{{"protein_coding", 17, 7661778, 7687538, "ENSG00000141510"}},
		},
	}
}
