package main

import (
	"fmt"
	"popstudy/pkg/genomics"
	"strings"

	"github.com/spf13/pflag"
)

// populationFlags collects the donor selection shared by most subcommands.
type populationFlags struct {
	gender          string
	healthStatus    string
	dnaSource       []string
	assembly        string
	disease         string
	population      []string
	superPopulation []string
	ethnicity       []string

	withVariants []string
	sameCopy     []string
	diffCopies   []string
	without      []string
	interval     string
	gene         string
	geneType     string
	geneID       string
	cellType     string

	sources []string
}

func (p *populationFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&p.gender, "gender", "", "Donor gender.")
	fs.StringVar(&p.healthStatus, "health-status", "", "Donor health status.")
	fs.StringSliceVar(&p.dnaSource, "dna-source", nil, "DNA sources (any of).")
	fs.StringVar(&p.assembly, "assembly", "", "Reference assembly, e.g. hg19 or GRCh38.")
	fs.StringVar(&p.disease, "disease", "", "Donor disease.")
	fs.StringSliceVar(&p.population, "population", nil, "Populations (any of).")
	fs.StringSliceVar(&p.superPopulation, "super-population", nil, "Super populations (any of).")
	fs.StringSliceVar(&p.ethnicity, "ethnicity", nil, "Ethnicities (any of).")
	fs.StringSliceVar(&p.withVariants, "with-variant", nil, "Variants every donor owns (id or chrom:start:ref:alt).")
	fs.StringSliceVar(&p.sameCopy, "same-copy", nil, "Variants owned on the same chromosome copy.")
	fs.StringSliceVar(&p.diffCopies, "different-copies", nil, "Two variants owned on different chromosome copies.")
	fs.StringSliceVar(&p.without, "without-variant", nil, "Variants no donor owns.")
	fs.StringVar(&p.interval, "interval", "", "Donors with a variant in chrom:start-stop.")
	fs.StringVar(&p.gene, "gene", "", "Donors with a variant in the named gene.")
	fs.StringVar(&p.geneType, "gene-type", "", "Gene type narrowing --gene.")
	fs.StringVar(&p.geneID, "gene-id", "", "Gene id narrowing --gene.")
	fs.StringVar(&p.cellType, "cell-type", "", "germline or somatic.")
	fs.StringSliceVar(&p.sources, "source", nil, "Restrict the query to the named sources.")
}

func (p *populationFlags) meta() genomics.MetadataAttrs {
	opts := []genomics.MetadataOption{
		genomics.WithGender(p.gender),
		genomics.WithHealthStatus(p.healthStatus),
		genomics.WithDNASource(p.dnaSource...),
		genomics.WithAssembly(p.assembly),
		genomics.WithDisease(p.disease),
	}
	switch {
	case len(p.population) > 0:
		opts = append(opts, genomics.WithPopulation(p.population...))
	case len(p.superPopulation) > 0:
		opts = append(opts, genomics.WithSuperPopulation(p.superPopulation...))
	case len(p.ethnicity) > 0:
		opts = append(opts, genomics.WithEthnicity(p.ethnicity...))
	}
	return genomics.NewMetadataAttrs(opts...)
}

func parseMutations(values []string) ([]genomics.Mutation, error) {
	out := make([]genomics.Mutation, 0, len(values))
	for _, v := range values {
		m, err := genomics.ParseMutation(v)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (p *populationFlags) region() (genomics.RegionAttrs, error) {
	var opts []genomics.RegionOption
	lists := []struct {
		values []string
		option func(...genomics.Mutation) genomics.RegionOption
	}{
		{p.withVariants, genomics.WithVariants},
		{p.sameCopy, genomics.WithVariantsOnSameCopy},
		{p.diffCopies, genomics.WithVariantsOnDifferentCopies},
		{p.without, genomics.Without},
	}
	for _, l := range lists {
		if len(l.values) == 0 {
			continue
		}
		ms, err := parseMutations(l.values)
		if err != nil {
			return genomics.RegionAttrs{}, err
		}
		opts = append(opts, l.option(ms...))
	}
	if p.interval != "" && p.gene != "" {
		return genomics.RegionAttrs{}, fmt.Errorf("--interval and --gene are mutually exclusive")
	}
	if p.interval != "" {
		iv, err := genomics.ParseInterval(p.interval)
		if err != nil {
			return genomics.RegionAttrs{}, err
		}
		opts = append(opts, genomics.InInterval(iv))
	}
	if p.gene != "" {
		g, err := genomics.NewGene(p.gene, p.geneType, p.geneID)
		if err != nil {
			return genomics.RegionAttrs{}, err
		}
		opts = append(opts, genomics.InGene(g))
	}
	switch strings.ToLower(p.cellType) {
	case "":
	case "germline":
		opts = append(opts, genomics.InCellType(genomics.Germline))
	case "somatic":
		opts = append(opts, genomics.InCellType(genomics.Somatic))
	default:
		return genomics.RegionAttrs{}, fmt.Errorf("unknown cell type %q", p.cellType)
	}
	return genomics.NewRegionAttrs(opts...)
}

// parseAttributes maps attribute names onto the vocabulary.
func parseAttributes(names []string) ([]genomics.Vocabulary, error) {
	out := make([]genomics.Vocabulary, 0, len(names))
	for _, n := range names {
		v, ok := genomics.ParseVocabulary(n)
		if !ok {
			return nil, fmt.Errorf("unknown attribute %q", n)
		}
		out = append(out, v)
	}
	return out, nil
}
