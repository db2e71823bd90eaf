package core

import (
	"context"
	"errors"
	"fmt"
	"popstudy/internal/frequency"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"
)

// VariantDistributionRequest measures one variant across donor groups.
type VariantDistributionRequest struct {
	ByAttributes []genomics.Vocabulary
	Meta         genomics.MetadataAttrs
	Region       genomics.RegionAttrs
	Variant      genomics.Mutation
	Sources      []string
}

// VariantDistribution returns, for every group-by subset, the population
// size, the donors carrying the variant, its occurrence and its frequency.
func (c *Coordinator) VariantDistribution(ctx context.Context, req VariantDistributionRequest) (Result, error) {
	r := c.begin("variant_distribution")
	res, err := c.variantDistribution(ctx, r, req)
	return r.finish(ctx, res, err)
}

func (c *Coordinator) variantDistribution(ctx context.Context, r *run, req VariantDistributionRequest) (Result, error) {
	assembly := c.assemblyFor(req.Meta)
	region, err := c.resolveRegion(ctx, r, req.Region, assembly)
	if err != nil {
		return Result{}, err
	}
	targets, err := c.eligible(req.Meta, region, req.Sources)
	if err != nil {
		return Result{}, err
	}
	groupBy := groupAttributes(req.ByAttributes)
	attrs := genomics.NewSet(groupBy...)
	attrs.Add(genomics.DonorID)
	attrs.Add(genomics.Gender)
	fetched := attrs.Sorted()
	cols := append(slices.Clone(fetched), genomics.Occurrence)

	// The auxiliary worker locates the variant while the sources are queried.
	var pos position
	var aux errgroup.Group
	aux.Go(func() error {
		var err error
		pos, err = c.locate(ctx, r, req.Variant)
		return err
	})
	tables, fanErr := fanOut(ctx, r, targets, sourceName, func(ctx context.Context, s sourceapi.Source) (sourceapi.Table, error) {
		return s.VariantOccurrence(ctx, sourceapi.OccurrenceRequest{
			Attributes: native(s.Capabilities(), fetched),
			Meta:       req.Meta,
			Region:     region,
			Variant:    req.Variant,
		})
	}, emptyTable)
	auxErr := aux.Wait()
	if fanErr != nil {
		return Result{}, fanErr
	}
	if auxErr != nil {
		return Result{}, auxErr
	}
	if err := requireData(r, tables); err != nil {
		return Result{}, err
	}
	rows := union(tables, cols)

	donorCol := slices.Index(fetched, genomics.DonorID)
	genderCol := slices.Index(fetched, genomics.Gender)
	occCol := len(fetched)
	if genomics.IsSexChromosome(pos.chrom) {
		kept := rows[:0:0]
		for _, row := range rows {
			if frequency.ParseSex(row[genderCol]) != frequency.SexUnknown {
				kept = append(kept, row)
			}
		}
		if excluded := len(rows) - len(kept); excluded > 0 {
			r.notice(fmt.Sprintf("%d individuals of unknown sex were excluded from the population because the variant lies on a sex chromosome.", excluded))
		}
		rows = kept
	}

	group := make([]int, len(groupBy))
	for i, a := range groupBy {
		group[i] = slices.Index(fetched, a)
	}
	stats := func(rows [][]any) donorStats { return summarize(rows, donorCol, genderCol, occCol) }
	out, err := cube(rows, group,
		func(rows [][]any) (any, error) { return int64(stats(rows).donors), nil },
		func(rows [][]any) (any, error) { return int64(stats(rows).positive), nil },
		func(rows [][]any) (any, error) { return int64(stats(rows).occurrence), nil },
		func(rows [][]any) (any, error) {
			s := stats(rows)
			return c.estimator.Estimate(ctx, frequency.Input{
				Occurrence: s.occurrence,
				Males:      s.males,
				Females:    s.females,
				UnknownSex: s.unknown,
				Chrom:      pos.chrom,
				Position:   pos.start,
				Assembly:   assembly,
			})
		},
	)
	if err != nil {
		return Result{}, fmt.Errorf("compute frequency: %w", err)
	}
	var dropped int
	if out, dropped = dropSmallGroups(out, len(groupBy), c.minGroupSize); dropped > 0 {
		r.notice(smallGroupNotice(dropped, c.minGroupSize))
	}
	resCols := append(slices.Clone(groupBy),
		genomics.PopulationSize, genomics.PositiveDonors, genomics.Occurrence, genomics.Frequency)
	return Result{Columns: resCols, Rows: out}, nil
}

type donorStats struct {
	donors, positive, occurrence int
	males, females, unknown      int
}

// summarize counts each donor once; rows of the same donor from different
// sources contribute their largest occurrence.
func summarize(rows [][]any, donorCol, genderCol, occCol int) donorStats {
	type donor struct {
		sex frequency.Sex
		occ int64
	}
	donors := make(map[string]donor, len(rows))
	for _, row := range rows {
		id := rowKey(row[donorCol : donorCol+1])
		occ, _ := toInt(row[occCol])
		d, seen := donors[id]
		if !seen {
			d.sex = frequency.ParseSex(row[genderCol])
		}
		d.occ = max(d.occ, occ)
		donors[id] = d
	}
	var s donorStats
	for _, d := range donors {
		s.donors++
		s.occurrence += int(d.occ)
		if d.occ > 0 {
			s.positive++
		}
		switch d.sex {
		case frequency.SexMale:
			s.males++
		case frequency.SexFemale:
			s.females++
		default:
			s.unknown++
		}
	}
	return s
}

type position struct{ chrom, start int }

// locate returns the variant's coordinates, asking the sources when the
// mutation is only known by id.
func (c *Coordinator) locate(ctx context.Context, r *run, m genomics.Mutation) (position, error) {
	if m.HasPosition() {
		return position{chrom: m.Chrom(), start: m.Start()}, nil
	}
	t, err := c.firstAvailable(ctx, r, c.sources, m, []genomics.Vocabulary{genomics.Chrom, genomics.Start})
	if err != nil {
		return position{}, err
	}
	chrom, okc := toChrom(t.Rows[0][0])
	start, oks := toInt(t.Rows[0][1])
	if !okc || !oks {
		return position{}, &NotFoundError{Kind: "variant", Ref: m.String()}
	}
	return position{chrom: chrom, start: int(start)}, nil
}

// firstAvailable queries the sources concurrently and returns the answer of
// the first one, in registration order, that knows the variant.
func (c *Coordinator) firstAvailable(ctx context.Context, r *run, targets []sourceapi.Source, m genomics.Mutation, attrs []genomics.Vocabulary) (sourceapi.Table, error) {
	type answer struct {
		order int
		table sourceapi.Table
	}
	order := make(map[string]int, len(targets))
	for i, s := range targets {
		order[s.Name()] = i
	}
	answers, err := fanOut(ctx, r, targets, sourceName, func(ctx context.Context, s sourceapi.Source) (answer, error) {
		t, err := s.VariantDetails(ctx, m, native(s.Capabilities(), attrs))
		return answer{order: order[s.Name()], table: t}, err
	}, func(a answer) bool { return a.table.Empty() })
	if err != nil {
		return sourceapi.Table{}, err
	}
	if len(answers) == 0 {
		return sourceapi.Table{}, &NotFoundError{Kind: "variant", Ref: m.String()}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].order < answers[j].order })
	first := answers[0].table
	return sourceapi.Table{Columns: attrs, Rows: reconcile(first, attrs)[:1]}, nil
}

// VariantDetails returns the requested attributes of a variant from the first
// source that knows it.
func (c *Coordinator) VariantDetails(ctx context.Context, m genomics.Mutation, attrs []genomics.Vocabulary) (Result, error) {
	r := c.begin("variant_details")
	t, err := c.firstAvailable(ctx, r, c.sources, m, attrs)
	return r.finish(ctx, Result{Columns: t.Columns, Rows: t.Rows}, err)
}

// RankRequest orders the variants of a population by frequency.
type RankRequest struct {
	Meta         genomics.MetadataAttrs
	Region       genomics.RegionAttrs
	Ascending    bool
	MinFrequency *float64
	MaxFrequency *float64
	Limit        int
	Sources      []string
}

// MostCommonVariants ranks by descending frequency.
func (c *Coordinator) MostCommonVariants(ctx context.Context, req RankRequest) (Result, error) {
	req.Ascending = false
	return c.RankVariantsByFrequency(ctx, req)
}

// RarestVariants ranks by ascending frequency.
func (c *Coordinator) RarestVariants(ctx context.Context, req RankRequest) (Result, error) {
	req.Ascending = true
	return c.RankVariantsByFrequency(ctx, req)
}

// RankVariantsByFrequency merges the per-source rankings and orders the merged
// set by frequency, then occurrence.
func (c *Coordinator) RankVariantsByFrequency(ctx context.Context, req RankRequest) (Result, error) {
	r := c.begin("rank_variants_by_frequency")
	res, err := c.rank(ctx, r, req)
	return r.finish(ctx, res, err)
}

func (c *Coordinator) rank(ctx context.Context, r *run, req RankRequest) (Result, error) {
	region, err := c.resolveRegion(ctx, r, req.Region, c.assemblyFor(req.Meta))
	if err != nil {
		return Result{}, err
	}
	targets, err := c.eligible(req.Meta, region, req.Sources)
	if err != nil {
		return Result{}, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = c.rankLimit
	}
	tables, err := fanOut(ctx, r, targets, sourceName, func(ctx context.Context, s sourceapi.Source) (sourceapi.Table, error) {
		return s.RankVariantsByFrequency(ctx, sourceapi.RankRequest{
			Meta:         req.Meta,
			Region:       region,
			Ascending:    req.Ascending,
			MinFrequency: req.MinFrequency,
			MaxFrequency: req.MaxFrequency,
			Limit:        limit,
			Assembly:     c.assemblyFor(req.Meta),
		})
	}, emptyTable)
	if err != nil {
		return Result{}, err
	}
	if err := requireData(r, tables); err != nil {
		return Result{}, err
	}
	cols := sourceapi.RankColumns
	rows := union(tables, cols)
	var dropped int
	if rows, dropped = dropSmallGroups(rows, slices.Index(cols, genomics.PopulationSize), c.minGroupSize); dropped > 0 {
		r.notice(smallGroupNotice(dropped, c.minGroupSize))
	}
	sortRanked(rows, cols, req.Ascending)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return Result{Columns: slices.Clone(cols), Rows: rows}, nil
}

// sortRanked orders by frequency then occurrence in the requested direction.
// Ties fall back to ascending position.
func sortRanked(rows [][]any, cols []genomics.Vocabulary, ascending bool) {
	keys := []int{slices.Index(cols, genomics.Frequency), slices.Index(cols, genomics.Occurrence)}
	ties := []int{slices.Index(cols, genomics.Chrom), slices.Index(cols, genomics.Start)}
	dir := -1
	if ascending {
		dir = 1
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, idx := range keys {
			if c := compareValues(rows[i][idx], rows[j][idx]); c != 0 {
				return c*dir < 0
			}
		}
		for _, idx := range ties {
			if c := compareValues(rows[i][idx], rows[j][idx]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// VariantsInGenomicInterval lists the variants inside interval owned by the
// population described by meta and region.
func (c *Coordinator) VariantsInGenomicInterval(ctx context.Context, interval genomics.GenomicInterval, meta genomics.MetadataAttrs, region genomics.RegionAttrs) (Result, error) {
	r := c.begin("variants_in_genomic_interval")
	res, err := c.variantsIn(ctx, r, interval, meta, region)
	return r.finish(ctx, res, err)
}

// VariantsInGene resolves gene into an interval and lists the variants in it.
func (c *Coordinator) VariantsInGene(ctx context.Context, gene genomics.Gene, meta genomics.MetadataAttrs, region genomics.RegionAttrs) (Result, error) {
	r := c.begin("variants_in_gene")
	interval, err := c.resolveGene(ctx, r, gene, c.assemblyFor(meta))
	if err != nil {
		return r.finish(ctx, Result{}, err)
	}
	res, err := c.variantsIn(ctx, r, interval, meta, region)
	return r.finish(ctx, res, err)
}

var variantColumns = []genomics.Vocabulary{genomics.Chrom, genomics.Start, genomics.Ref, genomics.Alt}

func (c *Coordinator) variantsIn(ctx context.Context, r *run, interval genomics.GenomicInterval, meta genomics.MetadataAttrs, region genomics.RegionAttrs) (Result, error) {
	region, err := c.resolveRegion(ctx, r, region, c.assemblyFor(meta))
	if err != nil {
		return Result{}, err
	}
	targets, err := c.eligible(meta, region.WithResolvedInterval(interval), nil)
	if err != nil {
		return Result{}, err
	}
	tables, err := fanOut(ctx, r, targets, sourceName, func(ctx context.Context, s sourceapi.Source) (sourceapi.Table, error) {
		return s.VariantsInRegion(ctx, sourceapi.RegionRequest{
			Interval:   interval,
			Attributes: variantColumns,
			Meta:       meta,
			Region:     region,
		})
	}, emptyTable)
	if err != nil {
		return Result{}, err
	}
	if err := requireData(r, tables); err != nil {
		return Result{}, err
	}
	rows := union(tables, variantColumns)
	sortRows(rows, 1, 2, 3)
	return Result{Columns: slices.Clone(variantColumns), Rows: rows}, nil
}

// IsNoData reports whether err means the backends simply had nothing to say.
func IsNoData(err error) bool {
	var nd *NoDataError
	return errors.As(err, &nd)
}
