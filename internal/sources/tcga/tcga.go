// Package tcga configures the TCGA somatic mutation catalog.
package tcga

import (
	"popstudy/internal/database"
	"popstudy/internal/frequency"
	"popstudy/internal/sources/sqlsource"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
)

// Name identifies the backend in results and notices.
const Name = "TCGA"

// NotReported replaces a missing gender so that absent and "not reported"
// donors fall in one group.
const NotReported = "not reported"

// Tables names the catalog tables; empty fields take the defaults.
type Tables struct {
	Metadata string
	Variants string
}

var capabilities = sourceapi.NewCapabilities(map[genomics.Vocabulary]string{
	genomics.Gender:       "gender",
	genomics.Ethnicity:    "ethnicity",
	genomics.Disease:      "disease",
	genomics.HealthStatus: "health_status",
	genomics.Assembly:     "assembly",
	genomics.DonorID:      "donor_source_id",
	genomics.DownloadURL:  "local_url",
	genomics.Chrom:        "chrom",
	genomics.Start:        "start",
	genomics.Stop:         "stop",
	genomics.Strand:       "strand",
	genomics.Ref:          "ref",
	genomics.Alt:          "alt",
	genomics.VarType:      "mut_type",
	genomics.ID:           "id",
},
	genomics.WithVariant,
	genomics.WithVariantInGenomicInterval,
	genomics.WithVariantsInSomaticCells,
	genomics.WithoutVariant,
)

// Capabilities returns the static declaration of the catalog.
func Capabilities() sourceapi.Capabilities { return capabilities }

// New binds the catalog to db.
func New(db *database.DB, tables Tables, estimator frequency.Estimator) (*sqlsource.Source, error) {
	if tables.Metadata == "" {
		tables.Metadata = "tcga_metadata"
	}
	if tables.Variants == "" {
		tables.Variants = "tcga_variants"
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
		NullAs:       map[genomics.Vocabulary]string{genomics.Gender: NotReported},
		Values: map[genomics.Vocabulary][]string{
			genomics.Gender: {"female", "male", NotReported},
		},
		Estimator: estimator,
	})
}
