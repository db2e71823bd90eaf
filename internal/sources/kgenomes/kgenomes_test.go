package kgenomes

import (
	"context"
	"database/sql"
	"popstudy/internal/database"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"testing"

	"github.com/stretchr/testify/require"
)

func openCatalog(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Driver:       database.DriverSQLite,
		DSN:          "file:" + t.Name() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = database.RunWithConnection(ctx, db, func(ctx context.Context, conn *sql.Conn) (struct{}, error) {
		for _, stmt := range []string{
			`CREATE TABLE genomes_metadata (item_id INTEGER, dna_source TEXT, gender TEXT, population TEXT,
				super_population TEXT, health_status TEXT, assembly TEXT, donor_source_id TEXT)`,
			`CREATE TABLE genomes_variants (item_id INTEGER, chrom INTEGER, start INTEGER, stop INTEGER, strand INTEGER,
				ref TEXT, alt TEXT, length INTEGER, mut_type TEXT, id TEXT, quality REAL, "filter" TEXT, al1 INTEGER, al2 INTEGER)`,
			`INSERT INTO genomes_metadata VALUES
				(1, 'blood', 'female', 'GBR', 'EUR', 'true', 'GRCh38', 'HG00096'),
				(2, 'lcl', 'male', 'FIN', 'EUR', 'true', 'GRCh38', 'HG00171')`,
			`INSERT INTO genomes_variants VALUES
				(1, 17, 7674219, 7674220, 1, 'C', 'T', 1, 'SNP', 'rs1042522', 100, 'PASS', 1, 1),
				(2, 17, 7674219, 7674220, 1, 'C', 'T', 1, 'SNP', 'rs1042522', 100, 'PASS', 1, 0)`,
		} {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	require.NoError(t, err)
	return db
}

func TestCapabilities(t *testing.T) {
	caps := Capabilities()
	require.True(t, caps.RegionPredicates.Has(genomics.WithVariantSameCCopy))
	require.True(t, caps.RegionPredicates.Has(genomics.WithVariantsInGermlineCells))
	require.False(t, caps.RegionPredicates.Has(genomics.WithVariantsInSomaticCells))
	col, ok := caps.Column(genomics.DonorID)
	require.True(t, ok)
	require.Equal(t, "donor_source_id", col)
	_, ok = caps.Column(genomics.Disease)
	require.False(t, ok)
}

func TestCatalogAgainstDefaultTables(t *testing.T) {
	src, err := New(openCatalog(t), Tables{}, nil)
	require.NoError(t, err)
	require.Equal(t, Name, src.Name())
	ctx := context.Background()

	pops, err := src.ValuesOfAttribute(ctx, genomics.SuperPopulation)
	require.NoError(t, err)
	require.Equal(t, []string{"AFR", "AMR", "EAS", "EUR", "SAS"}, pops)

	alts, err := src.ValuesOfAttribute(ctx, genomics.Alt)
	require.NoError(t, err)
	require.Equal(t, []string{"T"}, alts)

	occ, err := src.VariantOccurrence(ctx, sourceapi.OccurrenceRequest{
		Attributes: []genomics.Vocabulary{genomics.DonorID},
		Variant:    mustMutation(t, "rs1042522"),
	})
	require.NoError(t, err)
	require.ElementsMatch(t, [][]any{{"HG00096", int64(2)}, {"HG00171", int64(1)}}, occ.Rows)

	details, err := src.VariantDetails(ctx, mustMutation(t, "17:7674219:C:T"),
		[]genomics.Vocabulary{genomics.VarType, genomics.Filter, genomics.Quality})
	require.NoError(t, err)
	require.Equal(t, [][]any{{"SNP", "PASS", 100.0}}, details.Rows)
}

func TestCustomTablesAreChecked(t *testing.T) {
	src, err := New(openCatalog(t), Tables{Metadata: "genomes_metadata", Variants: "missing_variants"}, nil)
	require.NoError(t, err)
	_, err = src.CountDonors(context.Background(), genomics.MetadataAttrs{}, genomics.RegionAttrs{})
	require.Error(t, err)
}

func mustMutation(t *testing.T, s string) genomics.Mutation {
	t.Helper()
	m, err := genomics.ParseMutation(s)
	require.NoError(t, err)
	return m
}
