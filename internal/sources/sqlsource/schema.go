package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"popstudy/internal/database"
	"popstudy/pkg/sourceapi"
	"strings"
)

// tableColumns caches the reflected column names of every catalog table,
// keyed by pool and table name.
var tableColumns database.Handles[map[string]struct{}]

func columnsOf(ctx context.Context, db *database.DB, table string) (map[string]struct{}, error) {
	key := fmt.Sprintf("%p/%s", db, table)
	return tableColumns.Get(key, func() (map[string]struct{}, error) {
		return database.RunWithConnection(ctx, db, func(ctx context.Context, conn *sql.Conn) (map[string]struct{}, error) {
			rows, err := conn.QueryContext(ctx, "SELECT * FROM "+quote(table)+" WHERE 1 = 0")
			if err != nil {
				return nil, err
			}
			defer rows.Close()
			names, err := rows.Columns()
			if err != nil {
				return nil, err
			}
			set := make(map[string]struct{}, len(names))
			for _, n := range names {
				set[strings.ToLower(n)] = struct{}{}
			}
			return set, nil
		})
	})
}

// checkColumns verifies that table carries every non-empty name in want.
func checkColumns(ctx context.Context, db *database.DB, source, table string, want ...string) error {
	have, err := columnsOf(ctx, db, table)
	if err != nil {
		return fmt.Errorf("%s: reflect %s: %w", source, table, err)
	}
	var missing []string
	for _, w := range want {
		if w == "" {
			continue
		}
		if _, ok := have[strings.ToLower(w)]; !ok {
			missing = append(missing, w)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: %w: table %s lacks columns %s", source, sourceapi.ErrConfiguration, table, strings.Join(missing, ", "))
	}
	return nil
}

// ready checks the configured mapping against the live schema.
func (s *Source) ready(ctx context.Context) error {
	metaCols := []string{s.cfg.ItemColumn}
	variantCols := []string{
		s.cfg.ItemColumn, s.cfg.Variants.Chrom, s.cfg.Variants.Start, s.cfg.Variants.Ref,
		s.cfg.Variants.Alt, s.cfg.Variants.ID, s.cfg.Variants.Allele1, s.cfg.Variants.Allele2,
	}
	for attr, name := range s.cfg.Capabilities.Attributes {
		if onVariants(attr) {
			variantCols = append(variantCols, name)
		} else {
			metaCols = append(metaCols, name)
		}
	}
	if err := checkColumns(ctx, s.db, s.cfg.Name, s.cfg.MetadataTable, metaCols...); err != nil {
		return err
	}
	return checkColumns(ctx, s.db, s.cfg.Name, s.cfg.Variants.Table, variantCols...)
}
