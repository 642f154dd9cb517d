// Package fraction implements exact signed rational arithmetic for share
// computation. Every Fraction is kept reduced with a positive denominator.
//
// Intermediate products are computed with arbitrary precision so ordinary
// operations never overflow. A result whose numerator or denominator exceeds
// 10^12 in magnitude is replaced by the nearest fraction over 10^9, which keeps
// values bounded when long chains of operations would otherwise grow without
// limit.
package fraction

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

var (
	// ErrInvalidValue is returned for a zero denominator, a non-finite input,
	// or text that does not parse as a fraction.
	ErrInvalidValue = errors.New("fraction: invalid value")
	// ErrDivisionByZero is returned when dividing by a zero-valued fraction.
	ErrDivisionByZero = errors.New("fraction: division by zero")
)

const (
	overflowLimit      = 1_000_000_000_000
	rescaleDenominator = 1_000_000_000
)

// Fraction is an immutable rational number. The zero value is 0/1.
type Fraction struct {
	num int64
	den int64
}

// Common shares used throughout the fixed-share tables.
var (
	Zero      = Fraction{0, 1}
	One       = Fraction{1, 1}
	Half      = Fraction{1, 2}
	Third     = Fraction{1, 3}
	Quarter   = Fraction{1, 4}
	Sixth     = Fraction{1, 6}
	Eighth    = Fraction{1, 8}
	TwoThirds = Fraction{2, 3}
)

// New builds a reduced fraction num/den.
func New(num, den int64) (Fraction, error) {
	if den == 0 {
		return Fraction{}, fmt.Errorf("%w: zero denominator", ErrInvalidValue)
	}
	return fromBig(big.NewInt(num), big.NewInt(den)), nil
}

// MustNew is New for constant operands; it panics on a zero denominator.
func MustNew(num, den int64) Fraction {
	f, err := New(num, den)
	if err != nil {
		panic(err)
	}
	return f
}

// FromInt returns n/1.
func FromInt(n int64) Fraction {
	return Fraction{n, 1}
}

// FromFloat returns the closest fraction to f whose denominator does not
// exceed maxDen.
func FromFloat(f float64, maxDen int64) (Fraction, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Fraction{}, fmt.Errorf("%w: non-finite %v", ErrInvalidValue, f)
	}
	if f == 0 {
		return Zero, nil
	}
	if maxDen < 1 {
		maxDen = 1
	}

	sign := int64(1)
	if f < 0 {
		sign = -1
		f = -f
	}

	bestNum, bestDen := int64(math.Round(f)), int64(1)
	minErr := math.Abs(f - float64(bestNum))
	for den := int64(2); den <= maxDen && minErr >= 1e-10; den++ {
		num := int64(math.Round(f * float64(den)))
		if e := math.Abs(f - float64(num)/float64(den)); e < minErr {
			minErr, bestNum, bestDen = e, num, den
		}
	}
	return New(sign*bestNum, bestDen)
}

// Parse reads "n/d" or "n".
func Parse(s string) (Fraction, error) {
	s = strings.TrimSpace(s)
	numText, denText, hasDen := strings.Cut(s, "/")
	num, err := strconv.ParseInt(strings.TrimSpace(numText), 10, 64)
	if err != nil {
		return Fraction{}, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	den := int64(1)
	if hasDen {
		den, err = strconv.ParseInt(strings.TrimSpace(denText), 10, 64)
		if err != nil {
			return Fraction{}, fmt.Errorf("%w: %q", ErrInvalidValue, s)
		}
	}
	return New(num, den)
}

// Num returns the reduced numerator.
func (f Fraction) Num() int64 { return f.norm().num }

// Den returns the reduced, always positive denominator.
func (f Fraction) Den() int64 { return f.norm().den }

func (f Fraction) Add(o Fraction) Fraction {
	a, b := f.norm(), o.norm()
	n := new(big.Int).Mul(big.NewInt(a.num), big.NewInt(b.den))
	n.Add(n, new(big.Int).Mul(big.NewInt(b.num), big.NewInt(a.den)))
	return fromBig(n, new(big.Int).Mul(big.NewInt(a.den), big.NewInt(b.den)))
}

func (f Fraction) Sub(o Fraction) Fraction {
	return f.Add(o.Neg())
}

func (f Fraction) Mul(o Fraction) Fraction {
	a, b := f.norm(), o.norm()
	return fromBig(
		new(big.Int).Mul(big.NewInt(a.num), big.NewInt(b.num)),
		new(big.Int).Mul(big.NewInt(a.den), big.NewInt(b.den)),
	)
}

// Div returns f/o, or ErrDivisionByZero when o is zero.
func (f Fraction) Div(o Fraction) (Fraction, error) {
	a, b := f.norm(), o.norm()
	if b.num == 0 {
		return Fraction{}, ErrDivisionByZero
	}
	return fromBig(
		new(big.Int).Mul(big.NewInt(a.num), big.NewInt(b.den)),
		new(big.Int).Mul(big.NewInt(a.den), big.NewInt(b.num)),
	), nil
}

// Neg returns -f.
func (f Fraction) Neg() Fraction {
	n := f.norm()
	return Fraction{-n.num, n.den}
}

// Cmp returns -1, 0 or +1 as f is less than, equal to, or greater than o.
func (f Fraction) Cmp(o Fraction) int {
	a, b := f.norm(), o.norm()
	left := new(big.Int).Mul(big.NewInt(a.num), big.NewInt(b.den))
	right := new(big.Int).Mul(big.NewInt(b.num), big.NewInt(a.den))
	return left.Cmp(right)
}

func (f Fraction) Equal(o Fraction) bool { return f.norm() == o.norm() }
func (f Fraction) IsZero() bool          { return f.num == 0 }
func (f Fraction) IsPositive() bool      { return f.num > 0 }

// Sign returns -1, 0 or +1.
func (f Fraction) Sign() int {
	switch {
	case f.num < 0:
		return -1
	case f.num > 0:
		return 1
	}
	return 0
}

// Float64 returns the nearest float64 value.
func (f Fraction) Float64() float64 {
	n := f.norm()
	return float64(n.num) / float64(n.den)
}

// String renders "0", "n" or "n/d".
func (f Fraction) String() string {
	n := f.norm()
	switch {
	case n.num == 0:
		return "0"
	case n.den == 1:
		return strconv.FormatInt(n.num, 10)
	}
	return strconv.FormatInt(n.num, 10) + "/" + strconv.FormatInt(n.den, 10)
}

// Percent renders the value as a percentage with two decimals, e.g. "16.67%".
func (f Fraction) Percent() string {
	return strconv.FormatFloat(f.Float64()*100, 'f', 2, 64) + "%"
}

func (f Fraction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fraction) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// GCD returns the greatest common divisor of |a| and |b|.
func GCD(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of |a| and |b|, or 0 if either is 0.
func LCM(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	l := a / GCD(a, b) * b
	if l < 0 {
		return -l
	}
	return l
}

// LCMOfDenominators returns the least common multiple of the denominators of
// the non-zero fractions in fs. It returns 1 when there are none.
func LCMOfDenominators(fs ...Fraction) int64 {
	l := int64(1)
	for _, f := range fs {
		if f.IsZero() {
			continue
		}
		l = LCM(l, f.Den())
	}
	return l
}

func (f Fraction) norm() Fraction {
	if f.den == 0 {
		return Fraction{f.num, 1}
	}
	return f
}

func fromBig(n, d *big.Int) Fraction {
	if d.Sign() < 0 {
		n.Neg(n)
		d.Neg(d)
	}
	if n.Sign() == 0 {
		return Zero
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(n), d)
	n.Quo(n, g)
	d.Quo(d, g)

	limit := big.NewInt(overflowLimit)
	if new(big.Int).Abs(n).Cmp(limit) > 0 || d.Cmp(limit) > 0 {
		return rescale(n, d)
	}
	return Fraction{n.Int64(), d.Int64()}
}

// rescale approximates n/d by round(n*10^9/d) / 10^9.
func rescale(n, d *big.Int) Fraction {
	scaled := new(big.Int).Mul(n, big.NewInt(rescaleDenominator))
	q, r := new(big.Int).QuoRem(scaled, d, new(big.Int))
	if new(big.Int).Mul(new(big.Int).Abs(r), big.NewInt(2)).Cmp(d) >= 0 {
		q.Add(q, big.NewInt(int64(n.Sign())))
	}
	if !q.IsInt64() {
		whole := new(big.Int).Quo(n, d)
		if !whole.IsInt64() {
			if n.Sign() < 0 {
				return Fraction{-math.MaxInt64, 1}
			}
			return Fraction{math.MaxInt64, 1}
		}
		return Fraction{whole.Int64(), 1}
	}
	num := q.Int64()
	if num == 0 {
		return Zero
	}
	g := GCD(num, rescaleDenominator)
	return Fraction{num / g, rescaleDenominator / g}
}
