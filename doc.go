// Package valuesets derives terminology resources from the codings found in
// FHIR JSON documents.
//
// Every object carrying a string system and a string code is a coding. Codings
// are grouped by code system and resolved path (resource type plus field
// path, array indices omitted), and each group becomes one CodeSystem and one
// ValueSet resource. A markdown report indexes the emitted ValueSets.
//
// # Quick Start
//
//	import "github.com/gofhir/valuesets/pkg/extractor"
//
//	ex, err := extractor.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := ex.Run(ctx, extractor.Config{
//	    SourceDir:  "data/fhir",
//	    OutputDir:  "out/valuesets",
//	    ReportFile: "out/valuesets.md",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d value sets\n", len(summary.Infos))
//
// # Packages
//
//   - pkg/document: order-preserving JSON parsing
//   - pkg/coding: coding shape predicate
//   - pkg/walker: depth-first collection of codings, FHIRPath relocation
//   - pkg/referential: grouping and deduplication of codes
//   - pkg/emitter: CodeSystem and ValueSet files
//   - pkg/report: markdown index
//   - pkg/terminology: in-memory check of the emitted resources
//   - pkg/extractor: orchestration of a run
//
// The gofhir-valuesets command wraps pkg/extractor.
package valuesets
