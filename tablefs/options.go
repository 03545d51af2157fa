package tablefs

import (
	"log/slog"

	"github.com/pdlfs/tablefs/internal/log"
)

// defaultCacheStripes and defaultStripeCount are the "power-of-two
// size K" defaults spec.md §5 names (K=8) for the striped locks, and a
// matching default stripe count for the lookup cache.
const (
	defaultStripeCount  = 8
	defaultCacheStripes = 8
)

// Options configures a Filesystem at construction time, the way the
// teacher's store backends take a functional-options-style Options
// struct (e.g. badger.Options) rather than parsing a config file —
// TableFS is a library, not a standalone server, so configuration
// *parsing* is out of the core's scope (spec.md §1); this struct is
// the in-scope programmatic surface spec.md §6 describes.
type Options struct {
	cacheSize               int
	skipNameCollisionChecks bool
	skipDeletionChecks      bool
	skipPermChecks          bool
	readOnly                bool
	stripeCount             int
	logger                  *slog.Logger
}

// defaultOptions matches spec.md §6's defaults: lookup cache disabled,
// every safety check enabled, read-write.
func defaultOptions() Options {
	return Options{
		cacheSize:   0,
		stripeCount: defaultStripeCount,
		logger:      log.Noop(),
	}
}

// Option mutates an Options value under construction.
type Option func(*Options)

// WithCacheSize sets size_lookup_cache (spec.md §6). 0 disables the
// lookup cache entirely, and is the default.
func WithCacheSize(n int) Option {
	return func(o *Options) { o.cacheSize = n }
}

// WithSkipNameCollisionChecks sets skip_name_collision_checks
// (spec.md §4.7): Mkdir/Mkfile skip the pre-existence Get and the
// stripe lock, trusting the caller to guarantee uniqueness.
func WithSkipNameCollisionChecks(skip bool) Option {
	return func(o *Options) { o.skipNameCollisionChecks = skip }
}

// WithSkipDeletionChecks sets skip_deletion_checks (spec.md §4.7):
// Rmdir skips the emptiness scan and Unlink skips the file-type check.
func WithSkipDeletionChecks(skip bool) Option {
	return func(o *Options) { o.skipDeletionChecks = skip }
}

// WithSkipPermChecks sets skip_perm_checks (spec.md §4.5, §6).
func WithSkipPermChecks(skip bool) Option {
	return func(o *Options) { o.skipPermChecks = skip }
}

// WithReadOnly sets rdonly (spec.md §6): Open will not create a
// missing image, and Close will never write the root record back.
func WithReadOnly(readOnly bool) Option {
	return func(o *Options) { o.readOnly = readOnly }
}

// WithStripeCount overrides the striped-lock array size K (spec.md
// §5). Must be a power of two; Open panics otherwise.
func WithStripeCount(k int) Option {
	return func(o *Options) { o.stripeCount = k }
}

// WithLogger sets the structured logger tablefs uses for lifecycle and
// corruption diagnostics. Defaults to a discarding logger so embedding
// tablefs never produces unwanted output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
