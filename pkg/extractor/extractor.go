// Package extractor runs a complete extraction: it loads every source
// document, collects codings into referential groups, writes a CodeSystem and
// ValueSet per group, writes the markdown report and finally checks the
// written resources against what was collected.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/gofhir/valuesets/pkg/document"
	"github.com/gofhir/valuesets/pkg/emitter"
	"github.com/gofhir/valuesets/pkg/issue"
	"github.com/gofhir/valuesets/pkg/loader"
	"github.com/gofhir/valuesets/pkg/referential"
	"github.com/gofhir/valuesets/pkg/report"
	"github.com/gofhir/valuesets/pkg/terminology"
	"github.com/gofhir/valuesets/pkg/walker"
)

// ErrMissingConfig is returned when a required location is empty.
var ErrMissingConfig = errors.New("missing configuration")

// Config names the locations of a run.
type Config struct {
	SourceDir  string
	OutputDir  string
	ReportFile string
}

func (c Config) validate() error {
	switch {
	case c.SourceDir == "":
		return fmt.Errorf("%w: source directory", ErrMissingConfig)
	case c.OutputDir == "":
		return fmt.Errorf("%w: output directory", ErrMissingConfig)
	case c.ReportFile == "":
		return fmt.Errorf("%w: report file", ErrMissingConfig)
	}
	return nil
}

// Summary describes a completed run.
type Summary struct {
	// Documents is the number of candidate files found.
	Documents  int
	Processed  int
	Failed     int
	Duplicates int
	// Matches counts every coding found, before deduplication.
	Matches int
	Groups  int
	Codes   int

	Infos    []emitter.Info
	Issues   *issue.Result
	Duration time.Duration
}

// Extractor runs extractions.
type Extractor struct {
	opts    options
	loader  *loader.Loader
	walker  *walker.Walker
	locator *walker.Locator
}

// New creates an Extractor.
func New(opts ...Option) (*Extractor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = afs.New()
	}

	e := &Extractor{
		opts:   o,
		loader: loader.New(o.fs, o.extension),
		walker: walker.New(walker.WithMaxDepth(o.maxDepth)),
	}

	if o.relocate {
		locator, err := walker.NewLocator(walker.DefaultLocatorCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create locator: %w", err)
		}
		e.locator = locator
	}

	return e, nil
}

// Run executes an extraction. A document that cannot be read or parsed is
// logged, recorded as an error issue and skipped. Failing to list the sources
// or to write any output aborts the run.
func (e *Extractor) Run(ctx context.Context, cfg Config) (*Summary, error) {
	start := time.Now()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sources, err := e.loader.List(ctx, cfg.SourceDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Documents: len(sources),
		Issues:    issue.NewResult(),
	}
	log := e.opts.logger
	log.Info("Found %d documents in %s", len(sources), cfg.SourceDir)

	acc := referential.New()
	seen := make(map[uint64]string, len(sources))

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		acc = e.process(ctx, src, acc, seen, summary)
	}

	summary.Groups = acc.Len()
	summary.Codes = acc.Codes()

	em := emitter.New(cfg.OutputDir,
		emitter.WithDate(e.opts.now),
		emitter.WithLogger(log),
		emitter.WithFileSystem(e.opts.fs),
	)
	infos, err := em.Emit(ctx, acc)
	summary.Infos = infos
	if err != nil {
		return summary, fmt.Errorf("failed to emit resources: %w", err)
	}

	if err := report.Write(ctx, e.opts.fs, cfg.ReportFile, infos); err != nil {
		return summary, err
	}
	log.Info("Wrote report %s (%d value sets)", cfg.ReportFile, len(infos))

	if e.opts.verify {
		if err := e.verify(ctx, cfg.OutputDir, acc, infos, summary.Issues); err != nil {
			return summary, fmt.Errorf("failed to verify resources: %w", err)
		}
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

// process folds one document into acc. Failures leave acc untouched.
func (e *Extractor) process(ctx context.Context, src loader.Source, acc *referential.Accumulator, seen map[uint64]string, summary *Summary) *referential.Accumulator {
	log := e.opts.logger

	data, err := e.loader.Read(ctx, src)
	if err != nil {
		log.Error("Error processing %s: %v", src.Name, err)
		summary.Failed++
		summary.Issues.AddWithID(issue.DiagDocumentUnreadable, map[string]any{"error": err}, src.URL)
		return acc
	}

	fingerprint, err := loader.Fingerprint(data)
	if err == nil {
		if original, ok := seen[fingerprint]; ok {
			log.Debug("Skipping %s, same content as %s", src.Name, original)
			summary.Duplicates++
			summary.Issues.AddWithID(issue.DiagDocumentDuplicate, map[string]any{"original": original}, src.URL)
			return acc
		}
		seen[fingerprint] = src.Name
	}

	root, err := document.Parse(data)
	if err != nil {
		log.Error("Error processing %s: %v", src.Name, err)
		summary.Failed++
		summary.Issues.AddWithID(issue.DiagDocumentInvalidJSON, map[string]any{"error": err}, src.URL)
		return acc
	}

	matches := e.walker.Walk(root)
	if e.locator != nil {
		e.relocate(data, src, matches, summary.Issues)
	}

	summary.Processed++
	summary.Matches += len(matches)
	log.Info("Processing %s: %d codings", src.Name, len(matches))

	return referential.Merge(acc, matches)
}

// relocate checks that every match can be found again with FHIRPath.
func (e *Extractor) relocate(data []byte, src loader.Source, matches []walker.Match, res *issue.Result) {
	for _, m := range matches {
		found, err := e.locator.Locate(data, m)
		if found {
			continue
		}
		reason := "no element matched " + walker.Expression(m)
		if err != nil {
			reason = err.Error()
		}
		e.opts.logger.Warn("%s: coding %s|%s at %s not relocated", src.Name, m.System, m.Code, m.Path)
		res.AddWithID(issue.DiagCodingNotRelocated, map[string]any{
			"system": m.System,
			"code":   m.Code,
			"path":   m.Path,
			"reason": reason,
		}, src.URL)
	}
}

// verify reloads the written resources and checks every collected code.
func (e *Extractor) verify(ctx context.Context, outputDir string, acc *referential.Accumulator, infos []emitter.Info, res *issue.Result) error {
	log := e.opts.logger
	svc := terminology.NewService()
	before := len(res.Issues)

	for _, info := range infos {
		for _, name := range []string{info.CodeSystemFile, info.Filename} {
			location := url.Join(outputDir, name)
			if _, err := svc.LoadFile(ctx, e.opts.fs, location); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				res.AddWithID(issue.DiagArtifactUnreadable, map[string]any{"file": name, "error": err}, location)
			}
		}
	}

	if err := terminology.Verify(ctx, svc, acc, infos, res); err != nil {
		return err
	}

	for _, iss := range res.Issues[before:] {
		log.Warn("%s", iss.Diagnostics)
	}
	codeSystems, valueSets := svc.Stats()
	log.Debug("Verified %d code systems and %d value sets", codeSystems, valueSets)
	return nil
}
