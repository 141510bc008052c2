package extractor

import (
	"time"

	"github.com/viant/afs"

	"github.com/gofhir/valuesets/pkg/logger"
)

// options holds the extractor settings.
type options struct {
	logger    *logger.Logger
	fs        afs.Service
	extension string
	now       func() time.Time
	verify    bool
	relocate  bool
	maxDepth  int
}

func defaultOptions() options {
	return options{
		logger: logger.Default(),
		now:    time.Now,
		verify: true,
	}
}

// Option is a functional option for configuring the extractor.
type Option func(*options)

// WithLogger sets the logger used for progress and failures.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithFileSystem sets the storage for source documents and outputs.
func WithFileSystem(fs afs.Service) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithExtension sets the file name suffix of source documents.
func WithExtension(ext string) Option {
	return func(o *options) {
		o.extension = ext
	}
}

// WithDate sets the clock used for the date element of emitted resources.
func WithDate(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithVerify toggles reloading the emitted resources and checking every
// aggregated code against them. Enabled by default.
func WithVerify(verify bool) Option {
	return func(o *options) {
		o.verify = verify
	}
}

// WithRelocate toggles evaluating a FHIRPath expression per match to confirm
// it can be found again in its document.
func WithRelocate(relocate bool) Option {
	return func(o *options) {
		o.relocate = relocate
	}
}

// WithMaxDepth bounds the walk depth. 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}
