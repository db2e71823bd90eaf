// Package gencode configures the GENCODE gene annotation catalog.
package gencode

import (
	"popstudy/internal/database"
	"popstudy/internal/sources/sqlsource"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
)

// Name identifies the backend in results and notices.
const Name = "GENCODE"

// DefaultTables maps each loaded assembly to its annotation table.
var DefaultTables = map[string]string{
	"hg19":   "gencode_hg19",
	"grch38": "gencode_grch38",
}

var capabilities = sourceapi.NewCapabilities(map[genomics.Vocabulary]string{
	genomics.Chrom:    "chrom",
	genomics.Start:    "start",
	genomics.Stop:     "stop",
	genomics.Strand:   "strand",
	genomics.GeneName: "gene_name",
	genomics.GeneType: "gene_type",
	genomics.GeneID:   "gene_id",
}, genomics.WithVariantInGenomicInterval)

var geneTypes = []string{
	"3prime_overlapping_ncrna", "IG_C_gene", "IG_C_pseudogene", "IG_D_gene", "IG_J_gene", "IG_J_pseudogene",
	"IG_V_gene", "IG_V_pseudogene", "Mt_rRNA", "Mt_tRNA", "TR_C_gene", "TR_D_gene", "TR_J_gene",
	"TR_J_pseudogene", "TR_V_gene", "TR_V_pseudogene", "antisense", "lincRNA", "miRNA", "misc_RNA",
	"polymorphic_pseudogene", "processed_transcript", "protein_coding", "pseudogene", "rRNA",
	"sense_intronic", "sense_overlapping", "snRNA", "snoRNA",
}

// Capabilities returns the static declaration of the catalog.
func Capabilities() sourceapi.Capabilities { return capabilities }

// New binds the catalog to db. A nil tables map selects DefaultTables.
func New(db *database.DB, tables map[string]string) (*sqlsource.Annotations, error) {
	if len(tables) == 0 {
		tables = DefaultTables
	}
	return sqlsource.NewAnnotations(db, sqlsource.AnnotationConfig{
		Name:         Name,
		Tables:       tables,
		Capabilities: capabilities,
		Values:       map[genomics.Vocabulary][]string{genomics.GeneType: geneTypes},
	})
}
