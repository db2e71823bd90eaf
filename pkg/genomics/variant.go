package genomics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sex chromosomes are stored numerically.
const (
	ChromX = 23
	ChromY = 24
)

var (
	// ErrVariantUndefined reports a mutation with neither an id nor a full positional tuple.
	ErrVariantUndefined = errors.New("genomics: variant requires an id or chrom, start, ref and alt")
	// ErrIntervalUndefined reports an interval violating start <= stop or the strand domain.
	ErrIntervalUndefined = errors.New("genomics: invalid genomic interval")
	// ErrGeneUndefined reports a gene reference without a name.
	ErrGeneUndefined = errors.New("genomics: gene name required")
	// ErrInvalidChromosome reports an unparseable chromosome label.
	ErrInvalidChromosome = errors.New("genomics: invalid chromosome")
)

// ParseChromosome accepts "1".."24", "X", "Y" and their "chr" prefixed forms.
func ParseChromosome(s string) (int, error) {
	label := strings.ToUpper(strings.TrimSpace(s))
	label = strings.TrimPrefix(label, "CHR")
	switch label {
	case "X":
		return ChromX, nil
	case "Y":
		return ChromY, nil
	}
	n, err := strconv.Atoi(label)
	if err != nil || n < 1 || n > ChromY {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChromosome, s)
	}
	return n, nil
}

// IsSexChromosome reports whether chrom is X or Y.
func IsSexChromosome(chrom int) bool { return chrom == ChromX || chrom == ChromY }

// Mutation identifies a variant either by an external id or by its position.
type Mutation struct {
	id    string
	chrom int
	start int
	ref   string
	alt   string
	// positional is true when chrom, start, ref and alt are all set.
	positional bool
}

// MutationByID builds a mutation known only by its external id.
func MutationByID(id string) (Mutation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Mutation{}, ErrVariantUndefined
	}
	return Mutation{id: id}, nil
}

// MutationAt builds a mutation from its positional tuple.
func MutationAt(chrom, start int, ref, alt string) (Mutation, error) {
	if chrom < 1 || chrom > ChromY || start < 0 || ref == "" || alt == "" {
		return Mutation{}, ErrVariantUndefined
	}
	return Mutation{chrom: chrom, start: start, ref: ref, alt: alt, positional: true}, nil
}

// ParseMutation reads "chrom:start:ref:alt" as a positional mutation and any
// other text as an external id.
func ParseMutation(s string) (Mutation, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 4 {
		return MutationByID(s)
	}
	chrom, err := ParseChromosome(parts[0])
	if err != nil {
		return Mutation{}, fmt.Errorf("%w: %w", ErrVariantUndefined, err)
	}
	start, err := strconv.Atoi(parts[1])
	if err != nil {
		return Mutation{}, fmt.Errorf("%w: start %q", ErrVariantUndefined, parts[1])
	}
	return MutationAt(chrom, start, parts[2], parts[3])
}

// ID returns the external id, empty when identified positionally.
func (m Mutation) ID() string { return m.id }

// HasPosition reports whether the positional tuple is populated.
func (m Mutation) HasPosition() bool { return m.positional }

// Chrom returns the chromosome, zero when unknown.
func (m Mutation) Chrom() int { return m.chrom }

// Start returns the 0-based start position.
func (m Mutation) Start() int { return m.start }

// Ref returns the reference allele.
func (m Mutation) Ref() string { return m.ref }

// Alt returns the alternate allele.
func (m Mutation) Alt() string { return m.alt }

// Key is the lookup identity: the id when present, else the positional tuple.
func (m Mutation) Key() string {
	if m.id != "" {
		return "id:" + m.id
	}
	return fmt.Sprintf("pos:%d:%d:%s:%s", m.chrom, m.start, m.ref, m.alt)
}

// Equal compares lookup identities.
func (m Mutation) Equal(o Mutation) bool { return m.Key() == o.Key() }

func (m Mutation) String() string {
	if m.id != "" {
		return m.id
	}
	return fmt.Sprintf("%d:%d:%s>%s", m.chrom, m.start, m.ref, m.alt)
}

// GenomicInterval is a chromosome range with an optional strand (+1 or -1, 0 when unset).
type GenomicInterval struct {
	Chrom  int
	Start  int
	Stop   int
	Strand int
}

// NewGenomicInterval validates and returns an interval.
func NewGenomicInterval(chrom, start, stop, strand int) (GenomicInterval, error) {
	if chrom < 1 || chrom > ChromY {
		return GenomicInterval{}, fmt.Errorf("%w: chromosome %d", ErrIntervalUndefined, chrom)
	}
	if start < 0 || start > stop {
		return GenomicInterval{}, fmt.Errorf("%w: start %d stop %d", ErrIntervalUndefined, start, stop)
	}
	if strand != 0 && strand != 1 && strand != -1 {
		return GenomicInterval{}, fmt.Errorf("%w: strand %d", ErrIntervalUndefined, strand)
	}
	return GenomicInterval{Chrom: chrom, Start: start, Stop: stop, Strand: strand}, nil
}

// ParseInterval reads "chrom:start-stop".
func ParseInterval(s string) (GenomicInterval, error) {
	chromPart, span, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return GenomicInterval{}, fmt.Errorf("%w: %q", ErrIntervalUndefined, s)
	}
	chrom, err := ParseChromosome(chromPart)
	if err != nil {
		return GenomicInterval{}, fmt.Errorf("%w: %w", ErrIntervalUndefined, err)
	}
	from, to, ok := strings.Cut(span, "-")
	if !ok {
		return GenomicInterval{}, fmt.Errorf("%w: %q", ErrIntervalUndefined, s)
	}
	start, err1 := strconv.Atoi(from)
	stop, err2 := strconv.Atoi(to)
	if err1 != nil || err2 != nil {
		return GenomicInterval{}, fmt.Errorf("%w: %q", ErrIntervalUndefined, s)
	}
	return NewGenomicInterval(chrom, start, stop, 0)
}

func (g GenomicInterval) String() string {
	return fmt.Sprintf("%d:%d-%d", g.Chrom, g.Start, g.Stop)
}

// Gene references an annotated gene by name, optionally narrowed by type and id.
type Gene struct {
	Name string
	Type string
	ID   string
}

// NewGene validates a gene reference.
func NewGene(name, geneType, id string) (Gene, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Gene{}, ErrGeneUndefined
	}
	return Gene{Name: name, Type: strings.TrimSpace(geneType), ID: strings.TrimSpace(id)}, nil
}
