// Package sourceapi is the contract between the coordinator and the variant
// and annotation backends it federates.
package sourceapi

import (
	"fmt"
	"popstudy/pkg/genomics"
)

// Capabilities is a backend's static declaration: the canonical attributes it
// can supply mapped to its internal column names, and the region predicates it
// can enforce. Declarations are built once per backend type and never mutated.
type Capabilities struct {
	Attributes       map[genomics.Vocabulary]string
	RegionPredicates genomics.Set
}

// NewCapabilities copies the supplied maps so the declaration cannot be
// altered through the caller's references.
func NewCapabilities(attrs map[genomics.Vocabulary]string, predicates ...genomics.Vocabulary) Capabilities {
	cp := make(map[genomics.Vocabulary]string, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	return Capabilities{Attributes: cp, RegionPredicates: genomics.NewSet(predicates...)}
}

// Column returns the internal column backing attr.
func (c Capabilities) Column(attr genomics.Vocabulary) (string, bool) {
	col, ok := c.Attributes[attr]
	return col, ok
}

// AvailableAttributes returns the attributes the backend supplies natively.
// An empty declaration is a configuration fault.
func (c Capabilities) AvailableAttributes() (genomics.Set, error) {
	if len(c.Attributes) == 0 {
		return nil, fmt.Errorf("%w: empty attribute map", ErrConfiguration)
	}
	out := make(genomics.Set, len(c.Attributes))
	for k := range c.Attributes {
		out.Add(k)
	}
	return out, nil
}

// CanExpressConstraint reports whether every constrained metadata dimension is
// mapped and every active region predicate is supported. It performs no I/O.
func (c Capabilities) CanExpressConstraint(meta genomics.MetadataAttrs, region genomics.RegionAttrs) (bool, error) {
	if len(c.Attributes) == 0 || len(c.RegionPredicates) == 0 {
		return false, fmt.Errorf("%w: empty capability declaration", ErrConfiguration)
	}
	for _, dim := range meta.ConstrainedDimensions() {
		if _, ok := c.Attributes[dim]; !ok {
			return false, nil
		}
	}
	return c.RegionPredicates.Contains(region.Requires()), nil
}

// Covers reports whether every attr is supplied natively.
func (c Capabilities) Covers(attrs ...genomics.Vocabulary) bool {
	for _, a := range attrs {
		if _, ok := c.Attributes[a]; !ok {
			return false
		}
	}
	return true
}

// Overlaps reports whether at least one attr is supplied natively.
func (c Capabilities) Overlaps(attrs ...genomics.Vocabulary) bool {
	for _, a := range attrs {
		if _, ok := c.Attributes[a]; ok {
			return true
		}
	}
	return false
}
