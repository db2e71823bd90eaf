package genomics

import (
	"errors"
	"fmt"
)

// CellType narrows variants to germline or somatic calls.
type CellType int

const (
	AnyCell CellType = iota
	Germline
	Somatic
)

// ErrContradictingRegion reports a mutation both required and excluded, or a
// mutation list with an impossible cardinality.
var ErrContradictingRegion = errors.New("genomics: contradicting region attributes")

// RegionAttrs is a composable set of variant and region predicates. A gene
// reference and an interval are never both set.
type RegionAttrs struct {
	withVariants []Mutation
	sameCCopy    []Mutation
	diffCCopy    []Mutation
	without      []Mutation
	interval     *GenomicInterval
	gene         *Gene
	cellType     CellType
}

// RegionOption configures a RegionAttrs under construction.
type RegionOption func(*RegionAttrs)

// NewRegionAttrs applies the options in order and validates the result.
func NewRegionAttrs(opts ...RegionOption) (RegionAttrs, error) {
	var r RegionAttrs
	for _, opt := range opts {
		if opt != nil {
			opt(&r)
		}
	}
	if err := r.validate(); err != nil {
		return RegionAttrs{}, err
	}
	return r, nil
}

// WithVariants requires donors to own all the given mutations.
func WithVariants(ms ...Mutation) RegionOption {
	return func(r *RegionAttrs) { r.withVariants = append([]Mutation(nil), ms...) }
}

// WithVariantsOnSameCopy requires all mutations on the same chromosome copy.
func WithVariantsOnSameCopy(ms ...Mutation) RegionOption {
	return func(r *RegionAttrs) { r.sameCCopy = append([]Mutation(nil), ms...) }
}

// WithVariantsOnDifferentCopies requires the two mutations on different copies.
func WithVariantsOnDifferentCopies(ms ...Mutation) RegionOption {
	return func(r *RegionAttrs) { r.diffCCopy = append([]Mutation(nil), ms...) }
}

// Without excludes donors owning any of the given mutations.
func Without(ms ...Mutation) RegionOption {
	return func(r *RegionAttrs) { r.without = append([]Mutation(nil), ms...) }
}

// InInterval restricts variants to an interval and clears any gene reference.
func InInterval(iv GenomicInterval) RegionOption {
	return func(r *RegionAttrs) {
		r.interval = &iv
		r.gene = nil
	}
}

// InGene restricts variants to a gene and clears any interval.
func InGene(g Gene) RegionOption {
	return func(r *RegionAttrs) {
		r.gene = &g
		r.interval = nil
	}
}

// InCellType restricts variants to germline or somatic cells.
func InCellType(c CellType) RegionOption {
	return func(r *RegionAttrs) { r.cellType = c }
}

func (r RegionAttrs) validate() error {
	if len(r.sameCCopy) == 1 {
		return fmt.Errorf("%w: same chromosome copy needs at least two variants", ErrContradictingRegion)
	}
	if n := len(r.diffCCopy); n != 0 && n != 2 {
		return fmt.Errorf("%w: different chromosome copies need exactly two variants", ErrContradictingRegion)
	}
	excluded := make(map[string]struct{}, len(r.without))
	for _, m := range r.without {
		excluded[m.Key()] = struct{}{}
	}
	for _, list := range [][]Mutation{r.withVariants, r.sameCCopy, r.diffCCopy} {
		for _, m := range list {
			if _, ok := excluded[m.Key()]; ok {
				return fmt.Errorf("%w: %s is both required and excluded", ErrContradictingRegion, m)
			}
		}
	}
	return nil
}

func (r RegionAttrs) WithVariants() []Mutation    { return append([]Mutation(nil), r.withVariants...) }
func (r RegionAttrs) SameCCopy() []Mutation       { return append([]Mutation(nil), r.sameCCopy...) }
func (r RegionAttrs) DiffCCopy() []Mutation       { return append([]Mutation(nil), r.diffCCopy...) }
func (r RegionAttrs) WithoutVariants() []Mutation { return append([]Mutation(nil), r.without...) }
func (r RegionAttrs) CellType() CellType          { return r.cellType }

// Interval returns the interval predicate, if any.
func (r RegionAttrs) Interval() (GenomicInterval, bool) {
	if r.interval == nil {
		return GenomicInterval{}, false
	}
	return *r.interval, true
}

// Gene returns the unresolved gene reference, if any.
func (r RegionAttrs) Gene() (Gene, bool) {
	if r.gene == nil {
		return Gene{}, false
	}
	return *r.gene, true
}

// WithResolvedInterval returns a copy where iv replaces the gene reference.
func (r RegionAttrs) WithResolvedInterval(iv GenomicInterval) RegionAttrs {
	out := r
	out.interval = &iv
	out.gene = nil
	return out
}

// Requires is the set of region predicates active in r. A gene reference
// counts as an interval predicate since it is resolved into one.
func (r RegionAttrs) Requires() Set {
	req := NewSet()
	if len(r.withVariants) > 0 {
		req.Add(WithVariant)
	}
	if len(r.sameCCopy) > 0 {
		req.Add(WithVariantSameCCopy)
	}
	if len(r.diffCCopy) > 0 {
		req.Add(WithVariantDiffCCopy)
	}
	if r.interval != nil || r.gene != nil {
		req.Add(WithVariantInGenomicInterval)
	}
	if len(r.without) > 0 {
		req.Add(WithoutVariant)
	}
	switch r.cellType {
	case Germline:
		req.Add(WithVariantsInGermlineCells)
	case Somatic:
		req.Add(WithVariantsInSomaticCells)
	}
	return req
}

// IsEmpty reports whether no predicate is active.
func (r RegionAttrs) IsEmpty() bool { return len(r.Requires()) == 0 }
