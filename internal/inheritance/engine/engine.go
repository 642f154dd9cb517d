// Package engine computes inheritance distributions.
//
// Calculate is a pure function of its normalized inputs: it performs no I/O
// and runs to completion synchronously. The only state shared between calls is
// the optional result cache, which guards itself.
//
// The pipeline runs in a fixed order:
//
//  1. normalize the estate (deductions, bequest cap)
//  2. normalize heir counts (maxima, spouse conflict)
//  3. closed-form special cases (al-Musharraka, al-Akdariyya)
//  4. hijab (exclusion)
//  5. fixed shares
//  6. awl (proportional increase)
//  7. residuary distribution
//  8. radd (return of surplus)
//  9. blood relatives or public treasury
//  10. monetary reconciliation in currency minor units
//  11. confidence scoring
//
// When a closed-form case matches, stages 4 to 7 are skipped.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"faraid/internal/inheritance/cache"
	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
)

var (
	ErrNonPositiveEstate = errors.New("net estate is not positive")
	ErrSpouseConflict    = errors.New("husband and wife cannot both be present")
	ErrInvalidHeir       = errors.New("invalid heir")
	ErrComputation       = errors.New("computation failed")
)

// FailureKind classifies why a calculation produced no result.
type FailureKind string

const (
	KindInput    FailureKind = "input"
	KindState    FailureKind = "state"
	KindInternal FailureKind = "internal"
)

// Failure is returned instead of a result. Messages are human readable; the
// wrapped sentinels can be matched with errors.Is.
type Failure struct {
	Kind       FailureKind
	Messages   []string
	Madhab     fiqh.Madhab
	MadhabName string
	causes     []error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s error: %s", f.Kind, strings.Join(f.Messages, "; "))
}

func (f *Failure) Unwrap() []error {
	return f.causes
}

// SpouseConflictPolicy decides what happens when both a husband and a wife are
// supplied.
type SpouseConflictPolicy string

const (
	// SpouseConflictAbort rejects the input.
	SpouseConflictAbort SpouseConflictPolicy = "abort"
	// SpouseConflictCorrect drops the wife and continues with a warning.
	SpouseConflictCorrect SpouseConflictPolicy = "correct"
)

func ParseSpouseConflictPolicy(s string) (SpouseConflictPolicy, error) {
	switch p := SpouseConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case SpouseConflictAbort, SpouseConflictCorrect:
		return p, nil
	case "":
		return SpouseConflictAbort, nil
	}
	return "", fmt.Errorf("unknown spouse conflict policy %q", s)
}

// ResultCache stores finished results by normalized input key.
type ResultCache = cache.FIFO[string, *models.Result]

func NewResultCache(capacity int) *ResultCache {
	return cache.NewFIFO[string, *models.Result](capacity)
}

type Engine struct {
	cache          *ResultCache
	onCache        func(hit bool)
	spouseConflict SpouseConflictPolicy
}

type Option func(*Engine)

// WithCache shares a result cache between calls.
func WithCache(c *ResultCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithCacheObserver is told about every cache lookup. Ignored without a cache.
func WithCacheObserver(fn func(hit bool)) Option {
	return func(e *Engine) {
		e.onCache = fn
	}
}

func WithSpouseConflictPolicy(p SpouseConflictPolicy) Option {
	return func(e *Engine) {
		e.spouseConflict = p
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{spouseConflict: SpouseConflictAbort}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calculate distributes estate among heirs under madhab. On failure the
// returned error is a *Failure.
func (e *Engine) Calculate(madhab fiqh.Madhab, estate models.Estate, heirs models.HeirCounts) (res *models.Result, err error) {
	cfg, lookupErr := fiqh.Lookup(madhab)
	if lookupErr != nil {
		return nil, &Failure{
			Kind:     KindInput,
			Messages: []string{fmt.Sprintf("unknown madhab %q", string(madhab))},
			Madhab:   madhab,
			causes:   []error{lookupErr},
		}
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &Failure{
				Kind:       KindInternal,
				Messages:   []string{fmt.Sprintf("computation failed: %v", r)},
				Madhab:     cfg.ID,
				MadhabName: cfg.Name,
				causes:     []error{ErrComputation},
			}
		}
	}()

	c := newCalculation(cfg, e.spouseConflict, estate, heirs)

	// Stages 1 and 2
	causes := c.normalizeEstate()
	causes = append(causes, c.normalizeHeirs()...)
	if len(c.errs) > 0 {
		return nil, c.failure(KindInput, c.errs, causes...)
	}
	if !c.net.IsPositive() {
		return nil, c.failure(KindState, []string{"net estate is zero or negative after deductions"}, ErrNonPositiveEstate)
	}

	key := cacheKey(cfg.ID, estate, heirs)
	if e.cache != nil {
		cached, ok := e.cache.Get(key)
		if e.onCache != nil {
			e.onCache(ok)
		}
		if ok {
			return cached.Clone(), nil
		}
	}

	if runErr := c.run(); runErr != nil {
		return nil, c.failure(KindInternal, []string{fmt.Sprintf("computation failed: %v", runErr)}, ErrComputation, runErr)
	}

	res = c.result()
	if e.cache != nil {
		e.cache.Put(key, res.Clone())
	}
	return res, nil
}

// run executes stages 3 to 11 on a normalized calculation.
func (c *calculation) run() error {
	c.stepf(models.LevelInfo, "Net estate", "%s - %s (funeral) - %s (debts) - %s (bequest) = %s",
		c.estate.Total, c.estate.Funeral, c.estate.Debts, c.estate.Will, c.net)

	if !c.applyClosedForm() {
		c.applyHijab()
		c.assignFixedShares()
		c.applyAwl()
		if err := c.distributeResiduary(); err != nil {
			return err
		}
	}
	if err := c.applyRadd(); err != nil {
		return err
	}
	if err := c.distributeRemainder(); err != nil {
		return err
	}
	c.reconcileAmounts()
	c.scoreConfidence()
	return nil
}

func (c *calculation) failure(kind FailureKind, messages []string, causes ...error) *Failure {
	return &Failure{
		Kind:       kind,
		Messages:   append([]string(nil), messages...),
		Madhab:     c.cfg.ID,
		MadhabName: c.cfg.Name,
		causes:     causes,
	}
}

// cacheKey joins the caller's inputs as given. Normalization clips bequests and
// counts with a warning, so two inputs that normalize alike still need separate
// entries. Decimal strings are canonical, so "100" and "100.00" share a key.
func cacheKey(madhab fiqh.Madhab, estate models.Estate, heirs models.HeirCounts) string {
	return strings.Join([]string{
		string(madhab),
		estate.Currency,
		estate.Total.String(),
		estate.Funeral.String(),
		estate.Debts.String(),
		estate.Will.String(),
		heirs.String(),
	}, "|")
}
