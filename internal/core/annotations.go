package core

import (
	"context"
	"errors"
	"fmt"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"slices"
	"sort"
)

// geneRegionColumns are the attributes an annotation source must supply to
// take part in gene resolution.
var geneRegionColumns = []genomics.Vocabulary{
	genomics.GeneType, genomics.Chrom, genomics.Start, genomics.Stop, genomics.GeneID,
}

// ResolveGene maps a gene reference onto the single interval it annotates.
// No match is a NotFoundError; several distinct matches are an
// AmbiguousReferenceError listing the candidates.
func (c *Coordinator) ResolveGene(ctx context.Context, gene genomics.Gene, assembly string) (genomics.GenomicInterval, error) {
	r := c.begin("resolve_gene")
	iv, err := c.resolveGene(ctx, r, gene, assembly)
	_, err = r.finish(ctx, Result{}, err)
	return iv, err
}

func (c *Coordinator) resolveGene(ctx context.Context, r *run, gene genomics.Gene, assembly string) (genomics.GenomicInterval, error) {
	if assembly == "" {
		assembly = c.assembly
	}
	var targets []sourceapi.AnnotationSource
	for _, a := range c.annotations {
		if a.Capabilities().Covers(geneRegionColumns...) {
			targets = append(targets, a)
		}
	}
	if len(targets) == 0 {
		return genomics.GenomicInterval{}, ErrNoEligibleSource
	}
	// Empty answers count; only failures leave tables empty.
	tables, err := fanOut(ctx, r, targets, annotationName, func(ctx context.Context, a sourceapi.AnnotationSource) (sourceapi.Table, error) {
		return a.FindGeneRegion(ctx, gene, geneRegionColumns, assembly)
	}, keepEmpty)
	if err != nil {
		return genomics.GenomicInterval{}, err
	}
	if err := requireData(r, tables); err != nil {
		return genomics.GenomicInterval{}, err
	}
	rows := union(tables, geneRegionColumns)
	switch len(rows) {
	case 0:
		return genomics.GenomicInterval{}, &NotFoundError{Kind: "gene", Ref: gene.Name}
	case 1:
	default:
		sortRows(rows, 1, 2, 4)
		return genomics.GenomicInterval{}, &AmbiguousReferenceError{
			Ref:        gene.Name,
			Candidates: Result{Columns: slices.Clone(geneRegionColumns), Rows: rows},
		}
	}
	row := rows[0]
	chrom, okc := toChrom(row[1])
	start, oks := toInt(row[2])
	stop, okp := toInt(row[3])
	if !okc || !oks || !okp {
		return genomics.GenomicInterval{}, fmt.Errorf("core: gene %s has malformed coordinates %v", gene.Name, row)
	}
	iv, err := genomics.NewGenomicInterval(chrom, int(start), int(stop), 0)
	if err != nil {
		return genomics.GenomicInterval{}, fmt.Errorf("core: gene %s: %w", gene.Name, err)
	}
	r.log.Debug("gene resolved", "gene", gene.Name, "interval", iv.String())
	return iv, nil
}

// resolveRegion replaces a gene reference with its interval.
func (c *Coordinator) resolveRegion(ctx context.Context, r *run, region genomics.RegionAttrs, assembly string) (genomics.RegionAttrs, error) {
	gene, ok := region.Gene()
	if !ok {
		return region, nil
	}
	iv, err := c.resolveGene(ctx, r, gene, assembly)
	if err != nil {
		return genomics.RegionAttrs{}, err
	}
	return region.WithResolvedInterval(iv), nil
}

// AnnotateInterval returns the annotations overlapping interval. Attributes an
// annotation source lacks are reported as unknown.
func (c *Coordinator) AnnotateInterval(ctx context.Context, interval genomics.GenomicInterval, attrs []genomics.Vocabulary, assembly string) (Result, error) {
	r := c.begin("annotate_interval")
	res, err := c.annotateInterval(ctx, r, interval, attrs, assembly)
	return r.finish(ctx, res, err)
}

func (c *Coordinator) annotateInterval(ctx context.Context, r *run, interval genomics.GenomicInterval, attrs []genomics.Vocabulary, assembly string) (Result, error) {
	if assembly == "" {
		assembly = c.assembly
	}
	var targets []sourceapi.AnnotationSource
	for _, a := range c.annotations {
		if a.Capabilities().Overlaps(attrs...) {
			targets = append(targets, a)
		}
	}
	if len(targets) == 0 {
		return Result{}, ErrNoEligibleSource
	}
	tables, err := fanOut(ctx, r, targets, annotationName, func(ctx context.Context, a sourceapi.AnnotationSource) (sourceapi.Table, error) {
		return a.Annotate(ctx, interval, native(a.Capabilities(), attrs), assembly)
	}, emptyTable)
	if err != nil {
		return Result{}, err
	}
	if err := requireData(r, tables); err != nil {
		return Result{}, err
	}
	rows := union(tables, attrs)
	if start := slices.Index(attrs, genomics.Start); start >= 0 {
		sortRows(rows, start)
	} else if len(attrs) > 0 {
		sortRows(rows, 0)
	}
	return Result{Columns: slices.Clone(attrs), Rows: rows}, nil
}

// AnnotateVariant locates the variant and annotates the interval it spans.
func (c *Coordinator) AnnotateVariant(ctx context.Context, m genomics.Mutation, attrs []genomics.Vocabulary, assembly string) (Result, error) {
	r := c.begin("annotate_variant")
	res, err := c.annotateVariant(ctx, r, m, attrs, assembly)
	return r.finish(ctx, res, err)
}

func (c *Coordinator) annotateVariant(ctx context.Context, r *run, m genomics.Mutation, attrs []genomics.Vocabulary, assembly string) (Result, error) {
	coords := []genomics.Vocabulary{genomics.Chrom, genomics.Start, genomics.Stop}
	t, err := c.firstAvailable(ctx, r, c.sources, m, coords)
	if err != nil {
		return Result{}, err
	}
	chrom, okc := toChrom(t.Rows[0][0])
	start, oks := toInt(t.Rows[0][1])
	stop, okp := toInt(t.Rows[0][2])
	if !okp && oks && m.HasPosition() {
		stop, okp = start+int64(max(len(m.Ref()), 1))-1, true
	}
	if !okc || !oks || !okp {
		return Result{}, &NotFoundError{Kind: "variant", Ref: m.String()}
	}
	iv, err := genomics.NewGenomicInterval(chrom, int(start), int(stop), 0)
	if err != nil {
		return Result{}, fmt.Errorf("core: variant %s: %w", m, err)
	}
	return c.annotateInterval(ctx, r, iv, attrs, assembly)
}

// errUndisclosed guards attributes whose values identify individuals.
var errUndisclosed = errors.New("core: attribute values are not disclosed")

// ValuesOfAttribute lists the distinct values every backend knows for attr.
func (c *Coordinator) ValuesOfAttribute(ctx context.Context, attr genomics.Vocabulary) (Result, error) {
	r := c.begin("values_of_attribute")
	res, err := c.valuesOf(ctx, r, attr)
	return r.finish(ctx, res, err)
}

func (c *Coordinator) valuesOf(ctx context.Context, r *run, attr genomics.Vocabulary) (Result, error) {
	if attr == genomics.DonorID {
		return Result{}, fmt.Errorf("%w: %s", errUndisclosed, attr)
	}
	type lister struct {
		name string
		fn   func(context.Context, genomics.Vocabulary) ([]string, error)
	}
	var targets []lister
	for _, s := range c.sources {
		if s.Capabilities().Covers(attr) {
			targets = append(targets, lister{s.Name(), s.ValuesOfAttribute})
		}
	}
	for _, a := range c.annotations {
		if a.Capabilities().Covers(attr) {
			targets = append(targets, lister{a.Name(), a.ValuesOfAttribute})
		}
	}
	if len(targets) == 0 {
		return Result{}, ErrNoEligibleSource
	}
	lists, err := fanOut(ctx, r, targets, func(l lister) string { return l.name },
		func(ctx context.Context, l lister) ([]string, error) { return l.fn(ctx, attr) },
		func(v []string) bool { return len(v) == 0 })
	if err != nil {
		return Result{}, err
	}
	if len(lists) == 0 {
		return Result{}, &NoDataError{Notices: r.collected()}
	}
	seen := make(map[string]struct{})
	var values []string
	for _, l := range lists {
		for _, v := range l {
			if _, dup := seen[v]; !dup {
				seen[v] = struct{}{}
				values = append(values, v)
			}
		}
	}
	sort.Strings(values)
	rows := make([][]any, len(values))
	for i, v := range values {
		rows[i] = []any{v}
	}
	return Result{Columns: []genomics.Vocabulary{attr}, Rows: rows}, nil
}
