package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"popstudy/internal/database"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

var fixtureSeq atomic.Int64

// openFixture opens a private in-memory catalog and runs stmts on it.
func openFixture(t *testing.T, stmts ...string) *database.DB {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:sqlsourcetest%d?mode=memory&cache=shared", fixtureSeq.Add(1))
	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, DSN: dsn, MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = database.RunWithConnection(ctx, db, func(ctx context.Context, conn *sql.Conn) (struct{}, error) {
		for _, s := range stmts {
			if _, err := conn.ExecContext(ctx, s); err != nil {
				return struct{}{}, fmt.Errorf("%s: %w", s, err)
			}
		}
		return struct{}{}, nil
	})
	require.NoError(t, err)
	return db
}

// Six donors; HG6 has no recorded gender. rs4 sits on X outside the
// pseudo-autosomal regions and HG2 carries it haploid.
var catalogSchema = []string{
	`CREATE TABLE donors (item_id INTEGER PRIMARY KEY, donor_source_id TEXT, gender TEXT, population TEXT, super_population TEXT)`,
	`CREATE TABLE calls (item_id INTEGER, "chrom" INTEGER, "start" INTEGER, "stop" INTEGER, ref TEXT, alt TEXT, id TEXT, al1 INTEGER, al2 INTEGER)`,
	`INSERT INTO donors VALUES
		(1, 'HG1', 'female', 'GBR', 'EUR'),
		(2, 'HG2', 'male', 'GBR', 'EUR'),
		(3, 'HG3', 'female', 'FIN', 'EUR'),
		(4, 'HG4', 'male', 'YRI', 'AFR'),
		(5, 'HG5', 'female', 'YRI', 'AFR'),
		(6, 'HG6', NULL, 'FIN', 'EUR')`,
	`INSERT INTO calls VALUES
		(1, 1, 100, 101, 'A', 'T', 'rs1', 1, 1),
		(2, 1, 100, 101, 'A', 'T', 'rs1', 1, 0),
		(4, 1, 100, 101, 'A', 'T', 'rs1', 0, 1),
		(1, 1, 200, 201, 'C', 'G', 'rs2', 1, 0),
		(3, 1, 200, 201, 'C', 'G', 'rs2', 1, 0),
		(5, 1, 200, 201, 'C', 'G', 'rs2', 1, 0),
		(2, 2, 50, 51, 'G', 'A', 'rs3', 1, 0),
		(5, 2, 50, 51, 'G', 'A', 'rs3', 0, 1),
		(1, 23, 5000000, 5000001, 'T', 'C', 'rs4', 1, 0),
		(2, 23, 5000000, 5000001, 'T', 'C', 'rs4', 1, NULL),
		(6, 23, 5000000, 5000001, 'T', 'C', 'rs4', 1, 0)`,
}

func catalogConfig() Config {
	return Config{
		Name:          "catalog",
		MetadataTable: "donors",
		ItemColumn:    "item_id",
		Variants: VariantTable{
			Table: "calls", Chrom: "chrom", Start: "start", Ref: "ref", Alt: "alt",
			ID: "id", Allele1: "al1", Allele2: "al2",
		},
		Capabilities: sourceapi.NewCapabilities(map[genomics.Vocabulary]string{
			genomics.DonorID:         "donor_source_id",
			genomics.Gender:          "gender",
			genomics.Population:      "population",
			genomics.SuperPopulation: "super_population",
			genomics.Chrom:           "chrom",
			genomics.Start:           "start",
			genomics.Stop:            "stop",
			genomics.Ref:             "ref",
			genomics.Alt:             "alt",
			genomics.ID:              "id",
		},
			genomics.WithVariant,
			genomics.WithVariantSameCCopy,
			genomics.WithVariantDiffCCopy,
			genomics.WithVariantInGenomicInterval,
			genomics.WithoutVariant,
		),
		NullAs: map[genomics.Vocabulary]string{genomics.Gender: "not reported"},
		Values: map[genomics.Vocabulary][]string{genomics.SuperPopulation: {"AFR", "AMR", "EUR"}},
	}
}

func openCatalog(t *testing.T) *Source {
	t.Helper()
	src, err := New(openFixture(t, catalogSchema...), catalogConfig())
	require.NoError(t, err)
	return src
}

func mutation(t *testing.T, s string) genomics.Mutation {
	t.Helper()
	m, err := genomics.ParseMutation(s)
	require.NoError(t, err)
	return m
}

func region(t *testing.T, opts ...genomics.RegionOption) genomics.RegionAttrs {
	t.Helper()
	r, err := genomics.NewRegionAttrs(opts...)
	require.NoError(t, err)
	return r
}

// column returns the values of column i as strings.
func column(rows [][]any, i int) []string {
	out := make([]string, len(rows))
	for n, r := range rows {
		out[n] = fmt.Sprint(r[i])
	}
	return out
}
