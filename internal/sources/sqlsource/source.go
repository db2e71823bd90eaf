// Package sqlsource answers the backend contract from a relational donor
// catalog: a metadata table with one row per donor and a variants table with
// one row per donor and variant call.
package sqlsource

import (
	"context"
	"fmt"
	"popstudy/internal/database"
	"popstudy/internal/frequency"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"slices"
	"sort"
	"strings"
)

// VariantTable names the columns of the variant calls table.
type VariantTable struct {
	Table   string
	Chrom   string
	Start   string
	Ref     string
	Alt     string
	ID      string // optional
	Allele1 string // 1 when the call is on the first chromosome copy
	Allele2 string // 1 when on the second copy, NULL when haploid
}

// Config describes one catalog. Capabilities maps metadata attributes to
// columns of MetadataTable and variant attributes to columns of Variants.
type Config struct {
	Name          string
	MetadataTable string
	ItemColumn    string // donor key present in both tables
	Variants      VariantTable
	Capabilities  sourceapi.Capabilities
	// NullAs substitutes a value for NULL metadata cells.
	NullAs map[genomics.Vocabulary]string
	// Values fixes the value list of an attribute instead of reading it.
	Values    map[genomics.Vocabulary][]string
	Estimator frequency.Estimator
}

// Source implements sourceapi.Source and privacy.Backend over a database.
type Source struct {
	cfg Config
	db  *database.DB
}

// New validates cfg and binds it to db.
func New(db *database.DB, cfg Config) (*Source, error) {
	if cfg.Name == "" || cfg.MetadataTable == "" || cfg.ItemColumn == "" || cfg.Variants.Table == "" {
		return nil, fmt.Errorf("sqlsource: %w: name, tables and item column are required", sourceapi.ErrConfiguration)
	}
	if len(cfg.Capabilities.Attributes) == 0 || len(cfg.Capabilities.RegionPredicates) == 0 {
		return nil, fmt.Errorf("sqlsource %s: %w", cfg.Name, sourceapi.ErrConfiguration)
	}
	if cfg.Estimator == nil {
		cfg.Estimator = frequency.AlleleCount{}
	}
	return &Source{cfg: cfg, db: db}, nil
}

func (s *Source) Name() string { return s.cfg.Name }

func (s *Source) Capabilities() sourceapi.Capabilities { return s.cfg.Capabilities }

// onVariants reports whether attr lives on the variants table.
func onVariants(attr genomics.Vocabulary) bool {
	return attr.Kind() == genomics.KindIdentifier && attr != genomics.DonorID && attr != genomics.DownloadURL
}

// selectList renders attrs as columns of alias m (metadata) or v (variants).
func (s *Source) selectList(q *query, attrs []genomics.Vocabulary) ([]string, []genomics.Vocabulary) {
	var exprs []string
	var labels []genomics.Vocabulary
	for _, a := range attrs {
		name, ok := s.cfg.Capabilities.Column(a)
		if !ok {
			continue
		}
		if onVariants(a) {
			exprs = append(exprs, col("v", name))
		} else {
			expr, _ := s.metaExpr(q, "m", a)
			exprs = append(exprs, expr)
		}
		labels = append(labels, a)
	}
	return exprs, labels
}

// Donors implements sourceapi.Source.
func (s *Source) Donors(ctx context.Context, req sourceapi.DonorsRequest) (sourceapi.Table, error) {
	if err := s.ready(ctx); err != nil {
		return sourceapi.Table{}, err
	}
	q := &query{db: s.db}
	exprs, labels := s.selectList(q, metadataOnly(req.Attributes))
	if len(exprs) == 0 {
		exprs = []string{col("m", s.cfg.ItemColumn)}
		labels = []genomics.Vocabulary{genomics.DonorID}
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s m%s", strings.Join(exprs, ", "),
		quote(s.cfg.MetadataTable), where(s.donorFilter(q, req.Meta, req.Region)))
	rows, err := queryRows(ctx, s.db, stmt, q.args)
	if err != nil {
		return sourceapi.Table{}, fmt.Errorf("%s donors: %w", s.cfg.Name, err)
	}
	return sourceapi.Table{Columns: labels, Rows: rows}, nil
}

func metadataOnly(attrs []genomics.Vocabulary) []genomics.Vocabulary {
	var out []genomics.Vocabulary
	for _, a := range attrs {
		if !onVariants(a) {
			out = append(out, a)
		}
	}
	return out
}

// VariantOccurrence implements sourceapi.Source.
func (s *Source) VariantOccurrence(ctx context.Context, req sourceapi.OccurrenceRequest) (sourceapi.Table, error) {
	if err := s.ready(ctx); err != nil {
		return sourceapi.Table{}, err
	}
	q := &query{db: s.db}
	exprs, labels := s.selectList(q, metadataOnly(req.Attributes))
	vItem := col("v", s.cfg.ItemColumn)
	occ := fmt.Sprintf("SUM(%s + COALESCE(%s, 0))", col("v", s.cfg.Variants.Allele1), col("v", s.cfg.Variants.Allele2))
	sub := fmt.Sprintf("SELECT %s AS item, %s AS occ FROM %s v WHERE %s GROUP BY %s",
		vItem, occ, quote(s.cfg.Variants.Table), s.matchAny(q, "v", []genomics.Mutation{req.Variant}), vItem)
	exprs = append(exprs, "COALESCE(o.occ, 0)")
	labels = append(labels, genomics.Occurrence)
	stmt := fmt.Sprintf("SELECT %s FROM %s m LEFT JOIN (%s) o ON o.item = %s%s",
		strings.Join(exprs, ", "), quote(s.cfg.MetadataTable), sub, col("m", s.cfg.ItemColumn),
		where(s.donorFilter(q, req.Meta, req.Region)))
	rows, err := queryRows(ctx, s.db, stmt, q.args)
	if err != nil {
		return sourceapi.Table{}, fmt.Errorf("%s variant occurrence: %w", s.cfg.Name, err)
	}
	return sourceapi.Table{Columns: labels, Rows: rows}, nil
}

// VariantsInRegion implements sourceapi.Source.
func (s *Source) VariantsInRegion(ctx context.Context, req sourceapi.RegionRequest) (sourceapi.Table, error) {
	if err := s.ready(ctx); err != nil {
		return sourceapi.Table{}, err
	}
	q := &query{db: s.db}
	var exprs []string
	var labels []genomics.Vocabulary
	for _, a := range req.Attributes {
		if name, ok := s.cfg.Capabilities.Column(a); ok && onVariants(a) {
			exprs = append(exprs, col("v", name))
			labels = append(labels, a)
		}
	}
	if len(exprs) == 0 {
		return sourceapi.Table{}, nil
	}
	conds := []string{s.inInterval(q, "v", req.Interval)}
	if filter := s.donorFilter(q, req.Meta, req.Region); len(filter) > 0 {
		conds = append(conds, fmt.Sprintf("%s IN (SELECT %s FROM %s m%s)",
			col("v", s.cfg.ItemColumn), col("m", s.cfg.ItemColumn), quote(s.cfg.MetadataTable), where(filter)))
	}
	stmt := fmt.Sprintf("SELECT DISTINCT %s FROM %s v%s", strings.Join(exprs, ", "),
		quote(s.cfg.Variants.Table), where(conds))
	rows, err := queryRows(ctx, s.db, stmt, q.args)
	if err != nil {
		return sourceapi.Table{}, fmt.Errorf("%s variants in region: %w", s.cfg.Name, err)
	}
	return sourceapi.Table{Columns: labels, Rows: rows}, nil
}

// VariantDetails implements sourceapi.Source.
func (s *Source) VariantDetails(ctx context.Context, variant genomics.Mutation, attrs []genomics.Vocabulary) (sourceapi.Table, error) {
	if err := s.ready(ctx); err != nil {
		return sourceapi.Table{}, err
	}
	q := &query{db: s.db}
	var exprs []string
	var labels []genomics.Vocabulary
	for _, a := range attrs {
		if name, ok := s.cfg.Capabilities.Column(a); ok && onVariants(a) {
			exprs = append(exprs, col("v", name))
			labels = append(labels, a)
		}
	}
	if len(exprs) == 0 {
		return sourceapi.Table{}, nil
	}
	stmt := fmt.Sprintf("SELECT DISTINCT %s FROM %s v WHERE %s LIMIT 1", strings.Join(exprs, ", "),
		quote(s.cfg.Variants.Table), s.matchAny(q, "v", []genomics.Mutation{variant}))
	rows, err := queryRows(ctx, s.db, stmt, q.args)
	if err != nil {
		return sourceapi.Table{}, fmt.Errorf("%s variant details: %w", s.cfg.Name, err)
	}
	return sourceapi.Table{Columns: labels, Rows: rows}, nil
}

// ValuesOfAttribute implements sourceapi.Source.
func (s *Source) ValuesOfAttribute(ctx context.Context, attr genomics.Vocabulary) ([]string, error) {
	if fixed, ok := s.cfg.Values[attr]; ok {
		return slices.Clone(fixed), nil
	}
	name, ok := s.cfg.Capabilities.Column(attr)
	if !ok {
		return nil, nil
	}
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	q := &query{db: s.db}
	var stmt string
	if onVariants(attr) {
		stmt = fmt.Sprintf("SELECT DISTINCT %s FROM %s v WHERE %s IS NOT NULL",
			col("v", name), quote(s.cfg.Variants.Table), col("v", name))
	} else {
		expr, _ := s.metaExpr(q, "m", attr)
		stmt = fmt.Sprintf("SELECT DISTINCT %s FROM %s m", expr, quote(s.cfg.MetadataTable))
	}
	rows, err := queryRows(ctx, s.db, stmt, q.args)
	if err != nil {
		return nil, fmt.Errorf("%s values of %s: %w", s.cfg.Name, attr, err)
	}
	var out []string
	for _, r := range rows {
		if r[0] != nil {
			out = append(out, fmt.Sprint(r[0]))
		}
	}
	sort.Strings(out)
	return out, nil
}

// CountDonors implements privacy.Backend.
func (s *Source) CountDonors(ctx context.Context, meta genomics.MetadataAttrs, region genomics.RegionAttrs) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	q := &query{db: s.db}
	stmt := fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s m%s", col("m", s.cfg.ItemColumn),
		quote(s.cfg.MetadataTable), where(s.donorFilter(q, meta, region)))
	rows, err := queryRows(ctx, s.db, stmt, q.args)
	if err != nil {
		return 0, fmt.Errorf("%s count donors: %w", s.cfg.Name, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, _ := asInt64(rows[0][0])
	return int(n), nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
