package main

import (
	"context"
	"fmt"
	"popstudy/internal/core"
	"popstudy/pkg/genomics"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runner executes one coordinator operation with its positional arguments.
type runner func(ctx context.Context, c *core.Coordinator, args []string) (core.Result, error)

// operation is a query exposed both as a subcommand and as an HTTP route.
// bind registers the operation's flags on fs and returns a runner reading them.
type operation struct {
	use   string
	short string
	args  []string
	bind  func(fs *pflag.FlagSet) runner
}

var operations = []operation{
	{use: "donors", short: "Count donors grouped by metadata attributes.", bind: bindDonors},
	{use: "variant-distribution", short: "Measure a variant's frequency across donor groups.", args: []string{"variant"}, bind: bindVariantDistribution},
	{use: "rank", short: "List the most common (or rarest) variants of a population.", bind: bindRank},
	{use: "variant", short: "Show the attributes of a variant from the first source that knows it.", args: []string{"variant"}, bind: bindVariant},
	{use: "values", short: "List the known values of an attribute.", args: []string{"attribute"}, bind: bindValues},
	{use: "annotate", short: "Annotate a genomic interval or the interval spanned by a variant.", bind: bindAnnotate},
	{use: "variants-in-region", short: "List the variants a population owns inside chrom:start-stop.", args: []string{"interval"}, bind: bindVariantsInRegion},
	{use: "variants-in-gene", short: "List the variants a population owns inside a gene.", args: []string{"gene"}, bind: bindVariantsInGene},
}

func (op operation) command(a *app) *cobra.Command {
	use := op.use
	for _, arg := range op.args {
		use += " " + strings.ToUpper(arg)
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: op.short,
		Args:  cobra.ExactArgs(len(op.args)),
	}
	run := op.bind(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.withCoordinator(cmd.Context(), func(c *core.Coordinator) (core.Result, error) {
			return run(cmd.Context(), c, args)
		})
	}
	return cmd
}

func bindDonors(fs *pflag.FlagSet) runner {
	var pop populationFlags
	pop.register(fs)
	by := fs.StringSlice("by", nil, "Group-by attributes, e.g. gender,super_population.")
	export := fs.Bool("export", false, "Publish the donor list and print its download URL.")
	return func(ctx context.Context, c *core.Coordinator, _ []string) (core.Result, error) {
		attrs, err := parseAttributes(*by)
		if err != nil {
			return core.Result{}, err
		}
		region, err := pop.region()
		if err != nil {
			return core.Result{}, err
		}
		return c.DonorDistribution(ctx, core.DonorDistributionRequest{
			ByAttributes: attrs,
			Meta:         pop.meta(),
			Region:       region,
			Sources:      pop.sources,
			ExportDonors: *export,
		})
	}
}

func bindVariantDistribution(fs *pflag.FlagSet) runner {
	var pop populationFlags
	pop.register(fs)
	by := fs.StringSlice("by", nil, "Group-by attributes.")
	return func(ctx context.Context, c *core.Coordinator, args []string) (core.Result, error) {
		variant, err := genomics.ParseMutation(args[0])
		if err != nil {
			return core.Result{}, err
		}
		attrs, err := parseAttributes(*by)
		if err != nil {
			return core.Result{}, err
		}
		region, err := pop.region()
		if err != nil {
			return core.Result{}, err
		}
		return c.VariantDistribution(ctx, core.VariantDistributionRequest{
			ByAttributes: attrs,
			Meta:         pop.meta(),
			Region:       region,
			Variant:      variant,
			Sources:      pop.sources,
		})
	}
}

func bindRank(fs *pflag.FlagSet) runner {
	var pop populationFlags
	pop.register(fs)
	rarest := fs.Bool("rarest", false, "Rank by ascending frequency.")
	limit := fs.Int("limit", 0, "Number of variants (default from configuration).")
	minFreq := fs.Float64("min-frequency", 0, "Drop variants below this frequency.")
	maxFreq := fs.Float64("max-frequency", 1, "Drop variants above this frequency.")
	return func(ctx context.Context, c *core.Coordinator, _ []string) (core.Result, error) {
		region, err := pop.region()
		if err != nil {
			return core.Result{}, err
		}
		req := core.RankRequest{
			Meta:    pop.meta(),
			Region:  region,
			Limit:   *limit,
			Sources: pop.sources,
		}
		if fs.Changed("min-frequency") {
			req.MinFrequency = minFreq
		}
		if fs.Changed("max-frequency") {
			req.MaxFrequency = maxFreq
		}
		if *rarest {
			return c.RarestVariants(ctx, req)
		}
		return c.MostCommonVariants(ctx, req)
	}
}

func bindVariant(fs *pflag.FlagSet) runner {
	attrNames := fs.StringSlice("attributes", []string{"CHROM", "START", "STOP", "REF", "ALT", "ID", "VAR_TYPE"}, "Variant attributes.")
	return func(ctx context.Context, c *core.Coordinator, args []string) (core.Result, error) {
		m, err := genomics.ParseMutation(args[0])
		if err != nil {
			return core.Result{}, err
		}
		attrs, err := parseAttributes(*attrNames)
		if err != nil {
			return core.Result{}, err
		}
		return c.VariantDetails(ctx, m, attrs)
	}
}

func bindValues(*pflag.FlagSet) runner {
	return func(ctx context.Context, c *core.Coordinator, args []string) (core.Result, error) {
		attr, ok := genomics.ParseVocabulary(args[0])
		if !ok {
			return core.Result{}, fmt.Errorf("unknown attribute %q", args[0])
		}
		return c.ValuesOfAttribute(ctx, attr)
	}
}

func bindAnnotate(fs *pflag.FlagSet) runner {
	attrNames := fs.StringSlice("attributes", []string{"GENE_NAME", "GENE_TYPE", "CHROM", "START", "STOP"}, "Annotation attributes.")
	interval := fs.String("interval", "", "Interval chrom:start-stop.")
	variant := fs.String("variant", "", "Variant id or chrom:start:ref:alt.")
	assembly := fs.String("assembly", "", "Reference assembly.")
	return func(ctx context.Context, c *core.Coordinator, _ []string) (core.Result, error) {
		if (*interval == "") == (*variant == "") {
			return core.Result{}, fmt.Errorf("exactly one of --interval and --variant is required")
		}
		attrs, err := parseAttributes(*attrNames)
		if err != nil {
			return core.Result{}, err
		}
		if *variant != "" {
			m, err := genomics.ParseMutation(*variant)
			if err != nil {
				return core.Result{}, err
			}
			return c.AnnotateVariant(ctx, m, attrs, *assembly)
		}
		iv, err := genomics.ParseInterval(*interval)
		if err != nil {
			return core.Result{}, err
		}
		return c.AnnotateInterval(ctx, iv, attrs, *assembly)
	}
}

func bindVariantsInRegion(fs *pflag.FlagSet) runner {
	var pop populationFlags
	pop.register(fs)
	return func(ctx context.Context, c *core.Coordinator, args []string) (core.Result, error) {
		iv, err := genomics.ParseInterval(args[0])
		if err != nil {
			return core.Result{}, err
		}
		region, err := pop.region()
		if err != nil {
			return core.Result{}, err
		}
		return c.VariantsInGenomicInterval(ctx, iv, pop.meta(), region)
	}
}

func bindVariantsInGene(fs *pflag.FlagSet) runner {
	var pop populationFlags
	pop.register(fs)
	geneType := fs.String("type", "", "Gene type.")
	geneID := fs.String("id", "", "Gene id.")
	return func(ctx context.Context, c *core.Coordinator, args []string) (core.Result, error) {
		g, err := genomics.NewGene(args[0], *geneType, *geneID)
		if err != nil {
			return core.Result{}, err
		}
		region, err := pop.region()
		if err != nil {
			return core.Result{}, err
		}
		return c.VariantsInGene(ctx, g, pop.meta(), region)
	}
}
