package genomics

import "strings"

// MetadataAttrs holds donor-level filters. It is immutable once built: the
// accessors return copies and no method mutates the receiver.
type MetadataAttrs struct {
	gender          string
	healthStatus    string
	dnaSource       []string
	assembly        string
	population      []string
	superPopulation []string
	ethnicity       []string
	disease         string
}

// MetadataOption configures a MetadataAttrs under construction.
type MetadataOption func(*MetadataAttrs)

// NewMetadataAttrs applies the options in order. Population, super population
// and ethnicity are mutually exclusive: the last one applied wins.
func NewMetadataAttrs(opts ...MetadataOption) MetadataAttrs {
	var m MetadataAttrs
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

func WithGender(g string) MetadataOption {
	return func(m *MetadataAttrs) { m.gender = strings.TrimSpace(g) }
}

func WithHealthStatus(s string) MetadataOption {
	return func(m *MetadataAttrs) { m.healthStatus = strings.TrimSpace(s) }
}

func WithDNASource(values ...string) MetadataOption {
	return func(m *MetadataAttrs) { m.dnaSource = cleanValues(values) }
}

func WithAssembly(a string) MetadataOption {
	return func(m *MetadataAttrs) { m.assembly = strings.TrimSpace(a) }
}

func WithDisease(d string) MetadataOption {
	return func(m *MetadataAttrs) { m.disease = strings.TrimSpace(d) }
}

// WithPopulation clears super population and ethnicity.
func WithPopulation(values ...string) MetadataOption {
	return func(m *MetadataAttrs) {
		m.population = cleanValues(values)
		if m.population != nil {
			m.superPopulation, m.ethnicity = nil, nil
		}
	}
}

// WithSuperPopulation clears population and ethnicity.
func WithSuperPopulation(values ...string) MetadataOption {
	return func(m *MetadataAttrs) {
		m.superPopulation = cleanValues(values)
		if m.superPopulation != nil {
			m.population, m.ethnicity = nil, nil
		}
	}
}

// WithEthnicity clears population and super population.
func WithEthnicity(values ...string) MetadataOption {
	return func(m *MetadataAttrs) {
		m.ethnicity = cleanValues(values)
		if m.ethnicity != nil {
			m.population, m.superPopulation = nil, nil
		}
	}
}

func cleanValues(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (m MetadataAttrs) Gender() string       { return m.gender }
func (m MetadataAttrs) HealthStatus() string { return m.healthStatus }
func (m MetadataAttrs) DNASource() []string  { return append([]string(nil), m.dnaSource...) }
func (m MetadataAttrs) Assembly() string     { return m.assembly }
func (m MetadataAttrs) Population() []string { return append([]string(nil), m.population...) }
func (m MetadataAttrs) SuperPopulation() []string {
	return append([]string(nil), m.superPopulation...)
}
func (m MetadataAttrs) Ethnicity() []string { return append([]string(nil), m.ethnicity...) }
func (m MetadataAttrs) Disease() string     { return m.disease }

// Values returns the filter values set for dim, nil when dim is free.
func (m MetadataAttrs) Values(dim Vocabulary) []string {
	single := func(s string) []string {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	switch dim {
	case Gender:
		return single(m.gender)
	case HealthStatus:
		return single(m.healthStatus)
	case DNASource:
		return m.DNASource()
	case Assembly:
		return single(m.assembly)
	case Population:
		return m.Population()
	case SuperPopulation:
		return m.SuperPopulation()
	case Ethnicity:
		return m.Ethnicity()
	case Disease:
		return single(m.disease)
	}
	return nil
}

// ConstrainedDimensions lists the dimensions carrying a filter value.
func (m MetadataAttrs) ConstrainedDimensions() []Vocabulary {
	var out []Vocabulary
	for _, dim := range MetadataDimensions() {
		if len(m.Values(dim)) > 0 {
			out = append(out, dim)
		}
	}
	return out
}

// FreeDimensions lists the dimensions without a filter value. Together with
// ConstrainedDimensions it covers MetadataDimensions exactly once.
func (m MetadataAttrs) FreeDimensions() []Vocabulary {
	var out []Vocabulary
	for _, dim := range MetadataDimensions() {
		if len(m.Values(dim)) == 0 {
			out = append(out, dim)
		}
	}
	return out
}
