package multivcfanalyzer

import "seqreport/pkg/reportapi"

// summaryColumns is the metric catalog contributed to the cross-module
// summary table. SNP call and coverage metrics share keys so their color
// scales align with other modules; the raw call-class counts share "calls".
func summaryColumns() []reportapi.ColumnSpec {
	return []reportapi.ColumnSpec{
		{
			Metric:      "SNP Calls (all)",
			Title:       "All SNP Calls",
			Description: "The complete set of SNP calls.",
			Scale:       "OrRd",
			Hidden:      true,
			SharedKey:   "snp_call",
		},
		{
			Metric:      "SNP Calls (het)",
			Title:       "Heterozygous SNP Calls",
			Description: "The set of heterozygous SNP calls.",
			Scale:       "OrRd",
			Hidden:      true,
			SharedKey:   "snp_call",
		},
		{
			Metric:      "coverage(fold)",
			Title:       "Fold Coverage",
			Description: "The fold coverage on average over all positions.",
			Scale:       "OrRd",
			Hidden:      true,
			SharedKey:   "coverage",
		},
		{
			Metric:      "coverage(percent)",
			Title:       "Percent Covered",
			Description: "Percentage of the genome covered at the selected coverage threshold.",
			Scale:       "PuBuGn",
			SharedKey:   "coverage",
		},
		{
			Metric:      "refCall",
			Title:       "Reference Calls",
			Description: "Number of calls where there is a reference allele.",
			Scale:       "BuPu",
			SharedKey:   "calls",
		},
		{
			Metric:      "allPos",
			Title:       "Total Positions",
			Description: "Number of positions considered across all input VCFs.",
			Scale:       "BuPu",
			SharedKey:   "calls",
		},
		{
			Metric:      "noCall",
			Title:       "No Calls",
			Description: "Number of positions without a genotype call.",
			Scale:       "BuPu",
			SharedKey:   "calls",
		},
		{
			Metric:      "discardedRefCall",
			Title:       "Discarded Reference Calls",
			Description: "Number of reference calls discarded by filtering.",
			Scale:       "BuPu",
			SharedKey:   "calls",
		},
		{
			Metric:      "discardedVarCall",
			Title:       "Discarded Variant Calls",
			Description: "Number of variant calls discarded by filtering.",
			Scale:       "BuPu",
			SharedKey:   "calls",
		},
		{
			Metric:      "filteredVarCall",
			Title:       "Filtered Variant Calls",
			Description: "Number of variant calls removed by the filter criteria.",
			Scale:       "BuPu",
			SharedKey:   "calls",
		},
		{
			Metric:      "unhandledGenotype",
			Title:       "Unhandled Genotypes",
			Description: "Number of genotypes MultiVCFAnalyzer could not use.",
			Scale:       "BuPu",
			SharedKey:   "calls",
		},
	}
}

func readCountSection(data *reportapi.Table) reportapi.Section {
	return reportapi.Section{
		Name:        "Read Counts",
		Anchor:      "multivcfanalyzer-read-counts",
		Description: "The number of reads covering positions on the autosomes, X and Y chromosomes.",
		Bar: &reportapi.BarChart{
			ID:    "multivcfanalyzer-read-counts-plot",
			Title: "MultiVCFAnalyzer: Read Counts",
			YLab:  "# Reads",
			Categories: []reportapi.BarCategory{
				{Metric: "NR Aut", Label: "Autosomal Reads"},
				{Metric: "NrX", Label: "Reads on X"},
				{Metric: "NrY", Label: "Reads on Y"},
			},
			Data: data,
		},
	}
}

func snpCountSection(data *reportapi.Table) reportapi.Section {
	return reportapi.Section{
		Name:        "SNP Counts",
		Anchor:      "multivcfanalyzer-snp-counts",
		Description: "Total number of SNP positions. When supplied with a BED file, this includes only positions specified there.",
		Bar: &reportapi.BarChart{
			ID:    "multivcfanalyzer-snp-counts-plot",
			Title: "MultiVCFAnalyzer: SNP Counts",
			YLab:  "# SNPs",
			Categories: []reportapi.BarCategory{
				{Metric: "Snps Autosomal", Label: "Autosomal SNPs"},
				{Metric: "XSnps", Label: "SNPs on X"},
				{Metric: "YSnps", Label: "SNPs on Y"},
			},
			Data: data,
		},
	}
}
