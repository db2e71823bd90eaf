package sqlsource

import (
	"context"
	"fmt"
	"popstudy/internal/database"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"slices"
	"sort"
	"strings"
)

// AnnotationConfig describes a genome annotation catalog with one table per
// reference assembly. Capabilities maps attributes to columns shared by all
// of them.
type AnnotationConfig struct {
	Name string
	// Tables maps lower-case assembly names to table names.
	Tables       map[string]string
	Capabilities sourceapi.Capabilities
	Values       map[genomics.Vocabulary][]string
}

// Annotations implements sourceapi.AnnotationSource over a database.
type Annotations struct {
	cfg AnnotationConfig
	db  *database.DB
}

var _ sourceapi.AnnotationSource = (*Annotations)(nil)

// NewAnnotations validates cfg and binds it to db.
func NewAnnotations(db *database.DB, cfg AnnotationConfig) (*Annotations, error) {
	if cfg.Name == "" || len(cfg.Tables) == 0 {
		return nil, fmt.Errorf("sqlsource: %w: annotation name and tables are required", sourceapi.ErrConfiguration)
	}
	for _, a := range []genomics.Vocabulary{genomics.Chrom, genomics.Start, genomics.Stop} {
		if _, ok := cfg.Capabilities.Column(a); !ok {
			return nil, fmt.Errorf("sqlsource %s: %w: %s is not mapped", cfg.Name, sourceapi.ErrConfiguration, a)
		}
	}
	tables := make(map[string]string, len(cfg.Tables))
	for k, v := range cfg.Tables {
		tables[strings.ToLower(k)] = v
	}
	cfg.Tables = tables
	return &Annotations{cfg: cfg, db: db}, nil
}

func (a *Annotations) Name() string { return a.cfg.Name }

func (a *Annotations) Capabilities() sourceapi.Capabilities { return a.cfg.Capabilities }

// table resolves the table for assembly, or a Notice when it is not loaded.
func (a *Annotations) table(ctx context.Context, assembly string) (string, error) {
	t, ok := a.cfg.Tables[strings.ToLower(assembly)]
	if !ok {
		return "", sourceapi.NewNotice(a.cfg.Name, "Assembly %s is not available.", assembly)
	}
	want := make([]string, 0, len(a.cfg.Capabilities.Attributes))
	for _, name := range a.cfg.Capabilities.Attributes {
		want = append(want, name)
	}
	if err := checkColumns(ctx, a.db, a.cfg.Name, t, want...); err != nil {
		return "", err
	}
	return t, nil
}

func (a *Annotations) selectList(attrs []genomics.Vocabulary) ([]string, []genomics.Vocabulary) {
	var exprs []string
	var labels []genomics.Vocabulary
	for _, attr := range attrs {
		if name, ok := a.cfg.Capabilities.Column(attr); ok {
			exprs = append(exprs, col("g", name))
			labels = append(labels, attr)
		}
	}
	return exprs, labels
}

// Annotate implements sourceapi.AnnotationSource. An annotation qualifies when
// it overlaps interval.
func (a *Annotations) Annotate(ctx context.Context, interval genomics.GenomicInterval, attrs []genomics.Vocabulary, assembly string) (sourceapi.Table, error) {
	t, err := a.table(ctx, assembly)
	if err != nil {
		return sourceapi.Table{}, err
	}
	exprs, labels := a.selectList(attrs)
	if len(exprs) == 0 {
		return sourceapi.Table{}, nil
	}
	chrom, _ := a.cfg.Capabilities.Column(genomics.Chrom)
	start, _ := a.cfg.Capabilities.Column(genomics.Start)
	stop, _ := a.cfg.Capabilities.Column(genomics.Stop)
	q := &query{db: a.db}
	stmt := fmt.Sprintf("SELECT DISTINCT %s FROM %s g WHERE %s = %s AND %s <= %s AND %s >= %s",
		strings.Join(exprs, ", "), quote(t),
		col("g", chrom), q.bind(interval.Chrom),
		col("g", start), q.bind(interval.Stop),
		col("g", stop), q.bind(interval.Start))
	rows, err := queryRows(ctx, a.db, stmt, q.args)
	if err != nil {
		return sourceapi.Table{}, fmt.Errorf("%s annotate: %w", a.cfg.Name, err)
	}
	return sourceapi.Table{Columns: labels, Rows: rows}, nil
}

// FindGeneRegion implements sourceapi.AnnotationSource. Type and ID narrow the
// match when set.
func (a *Annotations) FindGeneRegion(ctx context.Context, gene genomics.Gene, attrs []genomics.Vocabulary, assembly string) (sourceapi.Table, error) {
	t, err := a.table(ctx, assembly)
	if err != nil {
		return sourceapi.Table{}, err
	}
	nameCol, ok := a.cfg.Capabilities.Column(genomics.GeneName)
	if !ok {
		return sourceapi.Table{}, nil
	}
	exprs, labels := a.selectList(attrs)
	if len(exprs) == 0 {
		return sourceapi.Table{}, nil
	}
	q := &query{db: a.db}
	conds := []string{fmt.Sprintf("%s = %s", col("g", nameCol), q.bind(gene.Name))}
	if c, ok := a.cfg.Capabilities.Column(genomics.GeneType); ok && gene.Type != "" {
		conds = append(conds, fmt.Sprintf("%s = %s", col("g", c), q.bind(gene.Type)))
	}
	if c, ok := a.cfg.Capabilities.Column(genomics.GeneID); ok && gene.ID != "" {
		conds = append(conds, fmt.Sprintf("%s = %s", col("g", c), q.bind(gene.ID)))
	}
	stmt := fmt.Sprintf("SELECT DISTINCT %s FROM %s g%s", strings.Join(exprs, ", "), quote(t), where(conds))
	rows, err := queryRows(ctx, a.db, stmt, q.args)
	if err != nil {
		return sourceapi.Table{}, fmt.Errorf("%s find gene: %w", a.cfg.Name, err)
	}
	return sourceapi.Table{Columns: labels, Rows: rows}, nil
}

// ValuesOfAttribute implements sourceapi.AnnotationSource. Values are read
// from every assembly table.
func (a *Annotations) ValuesOfAttribute(ctx context.Context, attr genomics.Vocabulary) ([]string, error) {
	if fixed, ok := a.cfg.Values[attr]; ok {
		return slices.Clone(fixed), nil
	}
	name, ok := a.cfg.Capabilities.Column(attr)
	if !ok {
		return nil, nil
	}
	assemblies := make([]string, 0, len(a.cfg.Tables))
	for k := range a.cfg.Tables {
		assemblies = append(assemblies, k)
	}
	sort.Strings(assemblies)
	seen := make(map[string]struct{})
	var out []string
	for _, asm := range assemblies {
		t, err := a.table(ctx, asm)
		if err != nil {
			return nil, err
		}
		stmt := fmt.Sprintf("SELECT DISTINCT %s FROM %s g WHERE %s IS NOT NULL", col("g", name), quote(t), col("g", name))
		rows, err := queryRows(ctx, a.db, stmt, nil)
		if err != nil {
			return nil, fmt.Errorf("%s values of %s: %w", a.cfg.Name, attr, err)
		}
		for _, r := range rows {
			v := fmt.Sprint(r[0])
			if _, dup := seen[v]; !dup {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
