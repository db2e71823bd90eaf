package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"popstudy/internal/database"
	"popstudy/pkg/genomics"
	"strings"
)

// query accumulates SQL text and its bound arguments.
type query struct {
	db   *database.DB
	args []any
}

func (q *query) bind(v any) string {
	q.args = append(q.args, v)
	return q.db.Placeholder(len(q.args))
}

func (q *query) bindAll(values []string) string {
	marks := make([]string, len(values))
	for i, v := range values {
		marks[i] = q.bind(v)
	}
	return strings.Join(marks, ", ")
}

// quote renders a possibly schema-qualified identifier.
func quote(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

func col(alias, name string) string { return alias + "." + quote(name) }

// matchAny builds a predicate on alias matching any of the mutations.
func (s *Source) matchAny(q *query, alias string, ms []genomics.Mutation) string {
	v := s.cfg.Variants
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		if m.ID() != "" && v.ID != "" {
			parts = append(parts, fmt.Sprintf("%s = %s", col(alias, v.ID), q.bind(m.ID())))
			continue
		}
		parts = append(parts, fmt.Sprintf("(%s = %s AND %s = %s AND %s = %s AND %s = %s)",
			col(alias, v.Chrom), q.bind(m.Chrom()),
			col(alias, v.Start), q.bind(m.Start()),
			col(alias, v.Ref), q.bind(m.Ref()),
			col(alias, v.Alt), q.bind(m.Alt())))
	}
	if len(parts) == 0 {
		return "1 = 0"
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// metaExpr returns the metadata column for attr, with the configured NULL
// substitute applied.
func (s *Source) metaExpr(q *query, alias string, attr genomics.Vocabulary) (string, bool) {
	name, ok := s.cfg.Capabilities.Column(attr)
	if !ok {
		return "", false
	}
	expr := col(alias, name)
	if fallback, ok := s.cfg.NullAs[attr]; ok {
		expr = fmt.Sprintf("COALESCE(%s, %s)", expr, q.bind(fallback))
	}
	return expr, true
}

// donorFilter returns the WHERE conditions on metadata alias m selecting the
// donors described by meta and region.
func (s *Source) donorFilter(q *query, meta genomics.MetadataAttrs, region genomics.RegionAttrs) []string {
	var conds []string
	for _, dim := range meta.ConstrainedDimensions() {
		expr, ok := s.metaExpr(q, "m", dim)
		if !ok {
			continue
		}
		conds = append(conds, fmt.Sprintf("%s IN (%s)", expr, q.bindAll(meta.Values(dim))))
	}
	item := col("m", s.cfg.ItemColumn)
	vItem := col("v", s.cfg.ItemColumn)
	variants := quote(s.cfg.Variants.Table)
	a1, a2 := col("v", s.cfg.Variants.Allele1), col("v", s.cfg.Variants.Allele2)
	if ms := region.WithVariants(); len(ms) > 0 {
		conds = append(conds, fmt.Sprintf("%s IN (SELECT %s FROM %s v WHERE %s GROUP BY %s HAVING COUNT(*) = %s)",
			item, vItem, variants, s.matchAny(q, "v", ms), vItem, q.bind(len(ms))))
	}
	if ms := region.SameCCopy(); len(ms) > 0 {
		n := len(ms)
		conds = append(conds, fmt.Sprintf("%s IN (SELECT %s FROM %s v WHERE %s GROUP BY %s HAVING SUM(%s) = %s OR SUM(COALESCE(%s, 0)) = %s)",
			item, vItem, variants, s.matchAny(q, "v", ms), vItem, a1, q.bind(n), a2, q.bind(n)))
	}
	if ms := region.DiffCCopy(); len(ms) > 0 {
		conds = append(conds, fmt.Sprintf("%s IN (SELECT %s FROM %s v WHERE %s GROUP BY %s HAVING COUNT(*) = 2 AND SUM(%s) = 1 AND SUM(COALESCE(%s, 0)) = 1)",
			item, vItem, variants, s.matchAny(q, "v", ms), vItem, a1, a2))
	}
	if iv, ok := region.Interval(); ok {
		conds = append(conds, fmt.Sprintf("%s IN (SELECT %s FROM %s v WHERE %s)",
			item, vItem, variants, s.inInterval(q, "v", iv)))
	}
	if ms := region.WithoutVariants(); len(ms) > 0 {
		conds = append(conds, fmt.Sprintf("%s NOT IN (SELECT %s FROM %s v WHERE %s)",
			item, vItem, variants, s.matchAny(q, "v", ms)))
	}
	return conds
}

// inInterval matches variants starting inside iv.
func (s *Source) inInterval(q *query, alias string, iv genomics.GenomicInterval) string {
	v := s.cfg.Variants
	return fmt.Sprintf("%s = %s AND %s >= %s AND %s <= %s",
		col(alias, v.Chrom), q.bind(iv.Chrom),
		col(alias, v.Start), q.bind(iv.Start),
		col(alias, v.Start), q.bind(iv.Stop))
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// queryRows runs stmt on a pooled connection and returns every row.
func queryRows(ctx context.Context, db *database.DB, stmt string, args []any) ([][]any, error) {
	return database.RunWithConnection(ctx, db, func(ctx context.Context, conn *sql.Conn) ([][]any, error) {
		rows, err := conn.QueryContext(ctx, stmt, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		var out [][]any
		for rows.Next() {
			cells := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range cells {
				ptrs[i] = &cells[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return nil, err
			}
			for i, c := range cells {
				if b, ok := c.([]byte); ok {
					cells[i] = string(b)
				}
			}
			out = append(out, cells)
		}
		return out, rows.Err()
	})
}
