package sourceapi

import (
	"testing"

	"popstudy/pkg/genomics"
	"popstudy/testutil"

	"github.com/stretchr/testify/require"
)

func TestSourceAPIHasNoInternalOrDriverImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "backends implement sourceapi from outside internal/")
	testutil.AssertNoDirectImports(t, ".", testutil.AnyOf(testutil.DriverImportForbidden, testutil.FrontEndImportForbidden),
		"the backend contract is storage agnostic")
}

func testCapabilities() Capabilities {
	return NewCapabilities(map[genomics.Vocabulary]string{
		genomics.Gender:     "gender",
		genomics.Population: "population",
		genomics.Chrom:      "chrom",
	}, genomics.WithVariant, genomics.WithVariantInGenomicInterval)
}

func TestNewCapabilitiesCopiesAttributes(t *testing.T) {
	attrs := map[genomics.Vocabulary]string{genomics.Gender: "gender"}
	c := NewCapabilities(attrs, genomics.WithVariant)
	attrs[genomics.Disease] = "disease"
	require.False(t, c.Covers(genomics.Disease))
	col, ok := c.Column(genomics.Gender)
	require.True(t, ok)
	require.Equal(t, "gender", col)
}

func TestCanExpressConstraint(t *testing.T) {
	c := testCapabilities()
	rs, _ := genomics.MutationByID("rs1")

	region, err := genomics.NewRegionAttrs(genomics.WithVariants(rs))
	require.NoError(t, err)
	ok, err := c.CanExpressConstraint(genomics.NewMetadataAttrs(genomics.WithGender("female")), region)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.CanExpressConstraint(genomics.NewMetadataAttrs(genomics.WithDisease("Breast Invasive Carcinoma")), region)
	require.NoError(t, err)
	require.False(t, ok)

	without, err := genomics.NewRegionAttrs(genomics.Without(rs))
	require.NoError(t, err)
	ok, err = c.CanExpressConstraint(genomics.NewMetadataAttrs(), without)
	require.NoError(t, err)
	require.False(t, ok)

	gene, _ := genomics.NewGene("TP53", "", "")
	byGene, err := genomics.NewRegionAttrs(genomics.InGene(gene))
	require.NoError(t, err)
	ok, err = c.CanExpressConstraint(genomics.NewMetadataAttrs(), byGene)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEmptyDeclarationIsConfigurationError(t *testing.T) {
	_, err := Capabilities{}.AvailableAttributes()
	require.ErrorIs(t, err, ErrConfiguration)

	onlyAttrs := NewCapabilities(map[genomics.Vocabulary]string{genomics.Gender: "g"})
	_, err = onlyAttrs.CanExpressConstraint(genomics.NewMetadataAttrs(), genomics.RegionAttrs{})
	require.ErrorIs(t, err, ErrConfiguration)

	avail, err := testCapabilities().AvailableAttributes()
	require.NoError(t, err)
	require.Equal(t, genomics.NewSet(genomics.Gender, genomics.Population, genomics.Chrom), avail)
}

func TestCoversAndOverlaps(t *testing.T) {
	c := testCapabilities()
	require.True(t, c.Covers(genomics.Gender, genomics.Chrom))
	require.False(t, c.Covers(genomics.Gender, genomics.Ethnicity))
	require.True(t, c.Overlaps(genomics.Ethnicity, genomics.Chrom))
	require.False(t, c.Overlaps(genomics.Ethnicity, genomics.Disease))
}

func TestTableHelpers(t *testing.T) {
	tbl := Table{
		Columns: []genomics.Vocabulary{genomics.DonorID, genomics.Gender},
		Rows:    [][]any{{"d1", "female"}, {"d2", "male"}, {"d1", "female"}, {nil, "male"}},
	}
	require.False(t, tbl.Empty())
	require.True(t, Table{}.Empty())
	require.Equal(t, 1, tbl.Index(genomics.Gender))
	require.Equal(t, -1, tbl.Index(genomics.Disease))
	n, err := tbl.Distinct(genomics.DonorID)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	_, err = tbl.Column(genomics.Disease)
	require.Error(t, err)
}

func TestNotice(t *testing.T) {
	var err error = NewNotice("GENCODE", "Assembly %s is not available.", "hg18")
	n, ok := AsNotice(err)
	require.True(t, ok)
	require.Equal(t, "GENCODE: Assembly hg18 is not available.", n.Error())
	require.Equal(t, "plain", (&Notice{Message: "plain"}).Error())
	_, ok = AsNotice(ErrConfiguration)
	require.False(t, ok)
}
