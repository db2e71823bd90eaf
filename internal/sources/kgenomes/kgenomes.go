// Package kgenomes configures the 1000 Genomes germline catalog.
package kgenomes

import (
	"popstudy/internal/database"
	"popstudy/internal/frequency"
	"popstudy/internal/sources/sqlsource"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
)

// Name identifies the backend in results and notices.
const Name = "1000Genomes"

// Tables names the catalog tables; empty fields take the defaults.
type Tables struct {
	Metadata string
	Variants string
}

const (
	defaultMetadata = "genomes_metadata"
	defaultVariants = "genomes_variants"
)

var capabilities = sourceapi.NewCapabilities(map[genomics.Vocabulary]string{
	genomics.DNASource:       "dna_source",
	genomics.Gender:          "gender",
	genomics.Population:      "population",
	genomics.SuperPopulation: "super_population",
	genomics.HealthStatus:    "health_status",
	genomics.Assembly:        "assembly",
	genomics.DonorID:         "donor_source_id",
	genomics.Chrom:           "chrom",
	genomics.Start:           "start",
	genomics.Stop:            "stop",
	genomics.Strand:          "strand",
	genomics.Ref:             "ref",
	genomics.Alt:             "alt",
	genomics.Length:          "length",
	genomics.VarType:         "mut_type",
	genomics.ID:              "id",
	genomics.Quality:         "quality",
	genomics.Filter:          "filter",
},
	genomics.WithVariant,
	genomics.WithVariantSameCCopy,
	genomics.WithVariantDiffCCopy,
	genomics.WithVariantInGenomicInterval,
	genomics.WithVariantsInGermlineCells,
	genomics.WithoutVariant,
)

// Attribute values are fixed: the catalog is a closed release and some of the
// columns are not indexed.
var values = map[genomics.Vocabulary][]string{
	genomics.Assembly:  {"hg19", "GRCh38"},
	genomics.DNASource: {"lcl", "blood"},
	genomics.Gender:    {"female", "male"},
	genomics.Population: {
		"ACB", "ASW", "BEB", "CDX", "CEU", "CHB", "CHS", "CLM", "ESN", "FIN", "GBR", "GIH", "GWD",
		"IBS", "ITU", "JPT", "KHV", "LWK", "MSL", "MXL", "PEL", "PJL", "PUR", "STU", "TSI", "YRI",
	},
	genomics.SuperPopulation: {"AFR", "AMR", "EAS", "EUR", "SAS"},
	genomics.HealthStatus:    {"true"},
	genomics.VarType:         {"ALU", "CNV", "DEL", "INS", "LINE1", "MNP", "SNP", "SVA"},
}

// Capabilities returns the static declaration of the catalog.
func Capabilities() sourceapi.Capabilities { return capabilities }

// New binds the catalog to db.
func New(db *database.DB, tables Tables, estimator frequency.Estimator) (*sqlsource.Source, error) {
	if tables.Metadata == "" {
		tables.Metadata = defaultMetadata
	}
	if tables.Variants == "" {
		tables.Variants = defaultVariants
	}
	return sqlsource.New(db, sqlsource.Config{
		Name:          Name,
		MetadataTable: tables.Metadata,
		ItemColumn:    "item_id",
		Variants: sqlsource.VariantTable{
			Table:   tables.Variants,
			Chrom:   "chrom",
			Start:   "start",
			Ref:     "ref",
			Alt:     "alt",
			ID:      "id",
			Allele1: "al1",
			Allele2: "al2",
		},
		Capabilities: capabilities,
		Values:       values,
		Estimator:    estimator,
	})
}
