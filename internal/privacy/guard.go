// Package privacy suppresses backend answers that describe populations smaller
// than a configured threshold.
package privacy

import (
	"context"
	"fmt"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
)

// Backend is a variant source that can also size a population without
// returning it.
type Backend interface {
	sourceapi.Source
	CountDonors(ctx context.Context, meta genomics.MetadataAttrs, region genomics.RegionAttrs) (int, error)
}

// Guard wraps a Backend. Single donor-set disclosures below the threshold
// become a Notice; rankings lose only their under-threshold rows.
type Guard struct {
	inner     Backend
	threshold int
}

var _ sourceapi.Source = (*Guard)(nil)

// NewGuard wraps inner. A threshold below 1 disables suppression.
func NewGuard(inner Backend, threshold int) *Guard {
	return &Guard{inner: inner, threshold: threshold}
}

// Threshold returns the minimum population size that may be disclosed.
func (g *Guard) Threshold() int { return g.threshold }

func (g *Guard) Name() string                         { return g.inner.Name() }
func (g *Guard) Capabilities() sourceapi.Capabilities { return g.inner.Capabilities() }

func (g *Guard) notice() *sourceapi.Notice {
	return sourceapi.NewNotice(g.inner.Name(),
		"The selected query does not comply with the privacy constraints imposed by the source and the result "+
			"was removed from the output. Please relax some filters to reach a population of at least %d individuals.",
		g.threshold)
}

func (g *Guard) enabled() bool { return g.threshold > 0 }

// block returns a Notice when size is below threshold. An empty population is
// blocked too.
func (g *Guard) block(size int) error {
	if g.enabled() && size < g.threshold {
		return g.notice()
	}
	return nil
}

// populationOf counts the distinct donors of t, falling back to the side query
// when the answer does not identify donors.
func (g *Guard) populationOf(ctx context.Context, t sourceapi.Table, meta genomics.MetadataAttrs, region genomics.RegionAttrs) (int, error) {
	if t.Index(genomics.DonorID) >= 0 {
		return t.Distinct(genomics.DonorID)
	}
	return g.inner.CountDonors(ctx, meta, region)
}

// Donors implements sourceapi.Source.
func (g *Guard) Donors(ctx context.Context, req sourceapi.DonorsRequest) (sourceapi.Table, error) {
	t, err := g.inner.Donors(ctx, req)
	if err != nil || !g.enabled() {
		return t, err
	}
	size, err := g.populationOf(ctx, t, req.Meta, req.Region)
	if err != nil {
		return sourceapi.Table{}, fmt.Errorf("privacy: size population: %w", err)
	}
	if err := g.block(size); err != nil {
		return sourceapi.Table{}, err
	}
	return t, nil
}

// VariantOccurrence implements sourceapi.Source.
func (g *Guard) VariantOccurrence(ctx context.Context, req sourceapi.OccurrenceRequest) (sourceapi.Table, error) {
	t, err := g.inner.VariantOccurrence(ctx, req)
	if err != nil || !g.enabled() {
		return t, err
	}
	size, err := g.populationOf(ctx, t, req.Meta, req.Region)
	if err != nil {
		return sourceapi.Table{}, fmt.Errorf("privacy: size population: %w", err)
	}
	if err := g.block(size); err != nil {
		return sourceapi.Table{}, err
	}
	return t, nil
}

// VariantsInRegion implements sourceapi.Source. The variants do not identify
// donors, so the population owning them is sized with the side query.
func (g *Guard) VariantsInRegion(ctx context.Context, req sourceapi.RegionRequest) (sourceapi.Table, error) {
	t, err := g.inner.VariantsInRegion(ctx, req)
	if err != nil || !g.enabled() {
		return t, err
	}
	size, err := g.inner.CountDonors(ctx, req.Meta, req.Region.WithResolvedInterval(req.Interval))
	if err != nil {
		return sourceapi.Table{}, fmt.Errorf("privacy: size population: %w", err)
	}
	if err := g.block(size); err != nil {
		return sourceapi.Table{}, err
	}
	return t, nil
}

// RankVariantsByFrequency implements sourceapi.Source. Rows whose
// POPULATION_SIZE is below the threshold are dropped and a warning is attached.
func (g *Guard) RankVariantsByFrequency(ctx context.Context, req sourceapi.RankRequest) (sourceapi.Table, error) {
	t, err := g.inner.RankVariantsByFrequency(ctx, req)
	if err != nil || !g.enabled() {
		return t, err
	}
	idx := t.Index(genomics.PopulationSize)
	if idx < 0 {
		return sourceapi.Table{}, fmt.Errorf("privacy: %s ranking lacks %s", g.inner.Name(), genomics.PopulationSize)
	}
	kept := t.Rows[:0:0]
	for _, row := range t.Rows {
		if n, ok := asInt(row[idx]); ok && n >= g.threshold {
			kept = append(kept, row)
		}
	}
	if len(kept) < len(t.Rows) {
		t.Notices = append(t.Notices, g.notice().Error())
	}
	t.Rows = kept
	return t, nil
}

// VariantDetails implements sourceapi.Source.
func (g *Guard) VariantDetails(ctx context.Context, variant genomics.Mutation, attrs []genomics.Vocabulary) (sourceapi.Table, error) {
	return g.inner.VariantDetails(ctx, variant, attrs)
}

// ValuesOfAttribute implements sourceapi.Source.
func (g *Guard) ValuesOfAttribute(ctx context.Context, attr genomics.Vocabulary) ([]string, error) {
	return g.inner.ValuesOfAttribute(ctx, attr)
}

// CountDonors passes the side query through so guards can be stacked.
func (g *Guard) CountDonors(ctx context.Context, meta genomics.MetadataAttrs, region genomics.RegionAttrs) (int, error) {
	return g.inner.CountDonors(ctx, meta, region)
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
