package services

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/vytor/deckflash/internal/config"
)

// Options tune the quiz services. Zero values fall back to the defaults below.
type Options struct {
	DefaultQuizSize    int
	MaxQuizSize        int
	DuplicateThreshold float64
	DuplicateLimit     int

	// Now is the service clock.
	Now func() time.Time
	// NewRand returns a fresh random source for one session. Sources are
	// never shared between concurrent calls.
	NewRand func() *rand.Rand
}

const (
	defaultQuizSize           = 10
	defaultMaxQuizSize        = 100
	defaultDuplicateThreshold = 0.6
	defaultDuplicateLimit     = 10
)

// OptionsFromConfig builds service options from the loaded configuration.
func OptionsFromConfig(cfg config.Config) Options {
	opts := Options{
		DefaultQuizSize:    cfg.DefaultQuizSize,
		MaxQuizSize:        cfg.MaxQuizSize,
		DuplicateThreshold: cfg.DuplicateThreshold,
		DuplicateLimit:     cfg.DuplicateLimit,
	}
	if cfg.RandomSeed != 0 {
		opts.NewRand = SeededRand(cfg.RandomSeed)
	}
	return opts
}

// SeededRand returns a reproducible source factory: the n-th call yields the
// same stream for the same seed.
func SeededRand(seed uint64) func() *rand.Rand {
	var stream atomic.Uint64
	return func() *rand.Rand {
		return rand.New(rand.NewPCG(seed, stream.Add(1)))
	}
}

func (o Options) withDefaults() Options {
	if o.DefaultQuizSize <= 0 {
		o.DefaultQuizSize = defaultQuizSize
	}
	if o.MaxQuizSize <= 0 {
		o.MaxQuizSize = defaultMaxQuizSize
	}
	if o.DuplicateThreshold <= 0 || o.DuplicateThreshold > 1 {
		o.DuplicateThreshold = defaultDuplicateThreshold
	}
	if o.DuplicateLimit <= 0 {
		o.DuplicateLimit = defaultDuplicateLimit
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	if o.NewRand == nil {
		o.NewRand = func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	return o
}
