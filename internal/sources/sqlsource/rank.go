package sqlsource

import (
	"context"
	"fmt"
	"popstudy/internal/frequency"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"sort"
)

type sexCounts struct{ males, females, unknown int }

func (c *sexCounts) add(s frequency.Sex, n int) {
	switch s {
	case frequency.SexMale:
		c.males += n
	case frequency.SexFemale:
		c.females += n
	default:
		c.unknown += n
	}
}

// forChrom drops donors of unknown sex on X and Y.
func (c sexCounts) forChrom(chrom int) sexCounts {
	if genomics.IsSexChromosome(chrom) {
		c.unknown = 0
	}
	return c
}

func (c sexCounts) total() int { return c.males + c.females + c.unknown }

type rankedVariant struct {
	chrom, start int
	ref, alt     string
	positive     int
	occurrence   int
	population   int
	frequency    float64
}

// RankVariantsByFrequency implements sourceapi.Source.
func (s *Source) RankVariantsByFrequency(ctx context.Context, req sourceapi.RankRequest) (sourceapi.Table, error) {
	if err := s.ready(ctx); err != nil {
		return sourceapi.Table{}, err
	}
	population, err := s.populationBySex(ctx, req.Meta, req.Region)
	if err != nil {
		return sourceapi.Table{}, err
	}
	if population.total() == 0 {
		return sourceapi.Table{Columns: sourceapi.RankColumns}, nil
	}

	q := &query{db: s.db}
	v := s.cfg.Variants
	gender := s.genderExpr(q)
	stmt := fmt.Sprintf("SELECT %s, %s, %s, %s, %s, COUNT(DISTINCT %s), SUM(%s + COALESCE(%s, 0)) "+
		"FROM %s v JOIN %s m ON m.%s = v.%s%s GROUP BY 1, 2, 3, 4, 5",
		col("v", v.Chrom), col("v", v.Start), col("v", v.Ref), col("v", v.Alt), gender,
		col("v", s.cfg.ItemColumn), col("v", v.Allele1), col("v", v.Allele2),
		quote(v.Table), quote(s.cfg.MetadataTable), quote(s.cfg.ItemColumn), quote(s.cfg.ItemColumn),
		where(s.donorFilter(q, req.Meta, req.Region)))
	rows, err := queryRows(ctx, s.db, stmt, q.args)
	if err != nil {
		return sourceapi.Table{}, fmt.Errorf("%s rank variants: %w", s.cfg.Name, err)
	}

	type key struct {
		chrom, start int
		ref, alt     string
	}
	byVariant := make(map[key]*rankedVariant)
	var order []key
	for _, row := range rows {
		chrom, _ := asInt64(row[0])
		start, _ := asInt64(row[1])
		sex := frequency.ParseSex(row[4])
		if !frequency.CountsSex(int(chrom), sex) {
			continue
		}
		k := key{int(chrom), int(start), fmt.Sprint(row[2]), fmt.Sprint(row[3])}
		rv, ok := byVariant[k]
		if !ok {
			rv = &rankedVariant{chrom: k.chrom, start: k.start, ref: k.ref, alt: k.alt}
			byVariant[k] = rv
			order = append(order, k)
		}
		positive, _ := asInt64(row[5])
		occ, _ := asInt64(row[6])
		rv.positive += int(positive)
		rv.occurrence += int(occ)
	}

	assembly := req.Assembly
	if assembly == "" {
		assembly = assemblyOf(req.Meta)
	}
	ranked := make([]*rankedVariant, 0, len(order))
	for _, k := range order {
		rv := byVariant[k]
		counts := population.forChrom(rv.chrom)
		rv.population = counts.total()
		f, err := s.cfg.Estimator.Estimate(ctx, frequency.Input{
			Occurrence: rv.occurrence,
			Males:      counts.males,
			Females:    counts.females,
			UnknownSex: counts.unknown,
			Chrom:      rv.chrom,
			Position:   rv.start,
			Assembly:   assembly,
		})
		if err != nil {
			return sourceapi.Table{}, fmt.Errorf("%s frequency of %d:%d: %w", s.cfg.Name, rv.chrom, rv.start, err)
		}
		rv.frequency = f
		if req.MinFrequency != nil && f < *req.MinFrequency {
			continue
		}
		if req.MaxFrequency != nil && f > *req.MaxFrequency {
			continue
		}
		ranked = append(ranked, rv)
	}
	sortRanked(ranked, req.Ascending)
	if req.Limit > 0 && len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	t := sourceapi.Table{Columns: sourceapi.RankColumns, Rows: make([][]any, len(ranked))}
	for i, rv := range ranked {
		t.Rows[i] = []any{rv.chrom, rv.start, rv.ref, rv.alt, rv.population, rv.positive, rv.occurrence, rv.frequency}
	}
	return t, nil
}

func sortRanked(rs []*rankedVariant, ascending bool) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.frequency != b.frequency {
			return (a.frequency < b.frequency) == ascending
		}
		if a.occurrence != b.occurrence {
			return (a.occurrence < b.occurrence) == ascending
		}
		if a.chrom != b.chrom {
			return a.chrom < b.chrom
		}
		return a.start < b.start
	})
}

func assemblyOf(meta genomics.MetadataAttrs) string {
	if vs := meta.Values(genomics.Assembly); len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// genderExpr returns the gender column of alias m, or NULL when the catalog
// does not record gender.
func (s *Source) genderExpr(q *query) string {
	if expr, ok := s.metaExpr(q, "m", genomics.Gender); ok {
		return expr
	}
	return "NULL"
}

// populationBySex counts the donors selected by meta and region per sex.
func (s *Source) populationBySex(ctx context.Context, meta genomics.MetadataAttrs, region genomics.RegionAttrs) (sexCounts, error) {
	q := &query{db: s.db}
	stmt := fmt.Sprintf("SELECT %s, COUNT(DISTINCT %s) FROM %s m%s GROUP BY 1",
		s.genderExpr(q), col("m", s.cfg.ItemColumn), quote(s.cfg.MetadataTable),
		where(s.donorFilter(q, meta, region)))
	rows, err := queryRows(ctx, s.db, stmt, q.args)
	if err != nil {
		return sexCounts{}, fmt.Errorf("%s population by sex: %w", s.cfg.Name, err)
	}
	var c sexCounts
	for _, row := range rows {
		n, _ := asInt64(row[1])
		c.add(frequency.ParseSex(row[0]), int(n))
	}
	return c, nil
}
