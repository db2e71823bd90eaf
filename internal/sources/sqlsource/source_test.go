package sqlsource

import (
	"context"
	"popstudy/internal/frequency"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsIncompleteConfig(t *testing.T) {
	_, err := New(nil, Config{})
	require.ErrorIs(t, err, sourceapi.ErrConfiguration)

	cfg := catalogConfig()
	cfg.Capabilities = sourceapi.Capabilities{}
	_, err = New(nil, cfg)
	require.ErrorIs(t, err, sourceapi.ErrConfiguration)

	src, err := New(nil, catalogConfig())
	require.NoError(t, err)
	require.Equal(t, frequency.AlleleCount{}, src.cfg.Estimator)
	require.Equal(t, "catalog", src.Name())
}

func TestMissingColumnIsConfigurationError(t *testing.T) {
	db := openFixture(t,
		`CREATE TABLE thin_donors (item_id INTEGER, donor_source_id TEXT, gender TEXT)`,
		`CREATE TABLE thin_calls (item_id INTEGER, chrom INTEGER, start INTEGER, stop INTEGER, ref TEXT, alt TEXT, id TEXT, al1 INTEGER, al2 INTEGER)`,
	)
	cfg := catalogConfig()
	cfg.MetadataTable = "thin_donors"
	cfg.Variants.Table = "thin_calls"
	src, err := New(db, cfg)
	require.NoError(t, err)

	_, err = src.Donors(context.Background(), sourceapi.DonorsRequest{Attributes: []genomics.Vocabulary{genomics.Gender}})
	require.ErrorIs(t, err, sourceapi.ErrConfiguration)
	require.ErrorContains(t, err, "population")
}

func TestDonors(t *testing.T) {
	src := openCatalog(t)
	ctx := context.Background()

	all, err := src.Donors(ctx, sourceapi.DonorsRequest{
		Attributes: []genomics.Vocabulary{genomics.DonorID, genomics.Gender, genomics.Chrom},
	})
	require.NoError(t, err)
	require.Equal(t, []genomics.Vocabulary{genomics.DonorID, genomics.Gender}, all.Columns)
	require.ElementsMatch(t, [][]any{
		{"HG1", "female"}, {"HG2", "male"}, {"HG3", "female"},
		{"HG4", "male"}, {"HG5", "female"}, {"HG6", "not reported"},
	}, all.Rows)

	bare, err := src.Donors(ctx, sourceapi.DonorsRequest{})
	require.NoError(t, err)
	require.Equal(t, []genomics.Vocabulary{genomics.DonorID}, bare.Columns)
	require.Len(t, bare.Rows, 6)

	gbr, err := src.Donors(ctx, sourceapi.DonorsRequest{
		Attributes: []genomics.Vocabulary{genomics.DonorID},
		Meta:       genomics.NewMetadataAttrs(genomics.WithPopulation("GBR")),
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"HG1", "HG2"}, column(gbr.Rows, 0))

	unreported, err := src.Donors(ctx, sourceapi.DonorsRequest{
		Attributes: []genomics.Vocabulary{genomics.DonorID, genomics.Gender},
		Meta:       genomics.NewMetadataAttrs(genomics.WithGender("not reported")),
	})
	require.NoError(t, err)
	require.Equal(t, [][]any{{"HG6", "not reported"}}, unreported.Rows)
}

func TestDonorsRegionFilters(t *testing.T) {
	src := openCatalog(t)
	ctx := context.Background()
	rs1, rs2, rs3 := mutation(t, "rs1"), mutation(t, "rs2"), mutation(t, "rs3")
	window, err := genomics.ParseInterval("1:150-250")
	require.NoError(t, err)

	cases := []struct {
		name   string
		region genomics.RegionAttrs
		meta   genomics.MetadataAttrs
		want   []string
	}{
		{"with one variant", region(t, genomics.WithVariants(rs1)), genomics.MetadataAttrs{}, []string{"HG1", "HG2", "HG4"}},
		{"with every variant", region(t, genomics.WithVariants(rs1, rs2)), genomics.MetadataAttrs{}, []string{"HG1"}},
		{"positional match", region(t, genomics.WithVariants(mutation(t, "1:100:A:T"))), genomics.MetadataAttrs{}, []string{"HG1", "HG2", "HG4"}},
		{"same copy", region(t, genomics.WithVariantsOnSameCopy(rs1, rs2)), genomics.MetadataAttrs{}, []string{"HG1"}},
		{"different copies", region(t, genomics.WithVariantsOnDifferentCopies(rs2, rs3)), genomics.MetadataAttrs{}, []string{"HG5"}},
		{"without", region(t, genomics.Without(rs1)), genomics.MetadataAttrs{}, []string{"HG3", "HG5", "HG6"}},
		{"interval", region(t, genomics.InInterval(window)), genomics.MetadataAttrs{}, []string{"HG1", "HG3", "HG5"}},
		{"meta and region", region(t, genomics.Without(rs1)), genomics.NewMetadataAttrs(genomics.WithSuperPopulation("EUR")), []string{"HG3", "HG6"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := src.Donors(ctx, sourceapi.DonorsRequest{
				Attributes: []genomics.Vocabulary{genomics.DonorID},
				Meta:       tc.meta,
				Region:     tc.region,
			})
			require.NoError(t, err)
			require.ElementsMatch(t, tc.want, column(got.Rows, 0))
		})
	}
}

func TestVariantOccurrence(t *testing.T) {
	src := openCatalog(t)
	ctx := context.Background()

	got, err := src.VariantOccurrence(ctx, sourceapi.OccurrenceRequest{
		Attributes: []genomics.Vocabulary{genomics.DonorID, genomics.Ref},
		Variant:    mutation(t, "rs1"),
	})
	require.NoError(t, err)
	require.Equal(t, []genomics.Vocabulary{genomics.DonorID, genomics.Occurrence}, got.Columns)
	require.ElementsMatch(t, [][]any{
		{"HG1", int64(2)}, {"HG2", int64(1)}, {"HG3", int64(0)},
		{"HG4", int64(1)}, {"HG5", int64(0)}, {"HG6", int64(0)},
	}, got.Rows)

	afr, err := src.VariantOccurrence(ctx, sourceapi.OccurrenceRequest{
		Attributes: []genomics.Vocabulary{genomics.Gender, genomics.DonorID},
		Meta:       genomics.NewMetadataAttrs(genomics.WithSuperPopulation("AFR")),
		Variant:    mutation(t, "1:200:C:G"),
	})
	require.NoError(t, err)
	require.ElementsMatch(t, [][]any{{"male", "HG4", int64(0)}, {"female", "HG5", int64(1)}}, afr.Rows)
}

func TestVariantsInRegion(t *testing.T) {
	src := openCatalog(t)
	ctx := context.Background()
	iv, err := genomics.ParseInterval("1:50-250")
	require.NoError(t, err)
	attrs := []genomics.Vocabulary{genomics.Chrom, genomics.Start, genomics.Ref, genomics.Alt, genomics.Gender}

	got, err := src.VariantsInRegion(ctx, sourceapi.RegionRequest{Interval: iv, Attributes: attrs})
	require.NoError(t, err)
	require.Equal(t, attrs[:4], got.Columns)
	require.ElementsMatch(t, [][]any{
		{int64(1), int64(100), "A", "T"},
		{int64(1), int64(200), "C", "G"},
	}, got.Rows)

	narrowed, err := src.VariantsInRegion(ctx, sourceapi.RegionRequest{
		Interval:   iv,
		Attributes: attrs,
		Meta:       genomics.NewMetadataAttrs(genomics.WithSuperPopulation("EUR")),
		Region:     region(t, genomics.Without(mutation(t, "rs2"))),
	})
	require.NoError(t, err)
	require.Equal(t, [][]any{{int64(1), int64(100), "A", "T"}}, narrowed.Rows)

	none, err := src.VariantsInRegion(ctx, sourceapi.RegionRequest{Interval: iv, Attributes: []genomics.Vocabulary{genomics.Gender}})
	require.NoError(t, err)
	require.Empty(t, none.Columns)
}

func TestVariantDetails(t *testing.T) {
	src := openCatalog(t)
	ctx := context.Background()
	attrs := []genomics.Vocabulary{genomics.Chrom, genomics.Start, genomics.Stop}

	got, err := src.VariantDetails(ctx, mutation(t, "rs4"), attrs)
	require.NoError(t, err)
	require.Equal(t, attrs, got.Columns)
	require.Equal(t, [][]any{{int64(23), int64(5000000), int64(5000001)}}, got.Rows)

	missing, err := src.VariantDetails(ctx, mutation(t, "rs999"), attrs)
	require.NoError(t, err)
	require.Empty(t, missing.Rows)
}

func TestValuesOfAttribute(t *testing.T) {
	src := openCatalog(t)
	ctx := context.Background()

	fixed, err := src.ValuesOfAttribute(ctx, genomics.SuperPopulation)
	require.NoError(t, err)
	require.Equal(t, []string{"AFR", "AMR", "EUR"}, fixed)
	fixed[0] = "changed"
	again, err := src.ValuesOfAttribute(ctx, genomics.SuperPopulation)
	require.NoError(t, err)
	require.Equal(t, "AFR", again[0])

	genders, err := src.ValuesOfAttribute(ctx, genomics.Gender)
	require.NoError(t, err)
	require.Equal(t, []string{"female", "male", "not reported"}, genders)

	refs, err := src.ValuesOfAttribute(ctx, genomics.Ref)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "C", "G", "T"}, refs)

	unmapped, err := src.ValuesOfAttribute(ctx, genomics.Disease)
	require.NoError(t, err)
	require.Nil(t, unmapped)
}

func TestCountDonors(t *testing.T) {
	src := openCatalog(t)
	ctx := context.Background()

	n, err := src.CountDonors(ctx, genomics.NewMetadataAttrs(genomics.WithSuperPopulation("EUR")), genomics.RegionAttrs{})
	require.NoError(t, err)
	require.Equal(t, 4, n)

	n, err = src.CountDonors(ctx, genomics.MetadataAttrs{}, region(t, genomics.WithVariants(mutation(t, "rs3"))))
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
