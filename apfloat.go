package gotaylor

import (
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/ALTree/bigfloat"
)

// ============================================================
// Precision context
// ============================================================

// DefaultPrec is the precision in bits used when a Context is created with
// prec == 0 (roughly 77 decimal digits).
const DefaultPrec = 256

// guardBits is the extra working precision carried through intermediate
// scalar evaluations before rounding back to the context precision.
const guardBits = 32

// Context is the immutable precision configuration of a computation. Every
// scalar evaluation and every Series carries its Context explicitly; there is
// no package-level precision state, so computations at different precisions
// can coexist and stay reproducible.
type Context struct {
	prec uint
}

// NewContext returns a context computing at the given precision in bits
// (like MPFR). If prec == 0, DefaultPrec is used.
func NewContext(prec uint) *Context {
	if prec == 0 {
		prec = DefaultPrec
	}
	return &Context{prec: prec}
}

// Prec returns the precision in bits.
func (c *Context) Prec() uint { return c.prec }

// NewFloat returns x as a big.Float at the context precision.
func (c *Context) NewFloat(x float64) *big.Float {
	return new(big.Float).SetPrec(c.prec).SetFloat64(x)
}

// ParseFloat parses a base-10 float literal at the context precision.
func (c *Context) ParseFloat(s string) (*big.Float, error) {
	f, _, err := big.ParseFloat(s, 10, c.prec, big.ToNearestEven)
	if err != nil {
		return nil, fmt.Errorf("gotaylor: invalid float literal %q: %w", s, err)
	}
	return f, nil
}

// work copies x to the guarded working precision.
func (c *Context) work(x *big.Float) *big.Float {
	return new(big.Float).SetPrec(c.prec + guardBits).Set(x)
}

// round rounds x back to the context precision.
func (c *Context) round(x *big.Float) *big.Float {
	return new(big.Float).SetPrec(c.prec).Set(x)
}

// ============================================================
// Elementary scalar functions
// ============================================================

// Exp returns e**x at the context precision.
func (c *Context) Exp(x *big.Float) *big.Float {
	return c.round(bigfloat.Exp(c.work(x)))
}

// Log returns the natural logarithm of x. Non-positive x is outside the real
// domain and fails with ErrDomain.
func (c *Context) Log(x *big.Float) (*big.Float, error) {
	if x.Sign() <= 0 {
		return nil, fmt.Errorf("gotaylor: log of non-positive value %v: %w", x, ErrDomain)
	}
	return c.round(bigfloat.Log(c.work(x))), nil
}

// Pow returns x**y for real x > 0 (x == 0 is allowed for y > 0).
func (c *Context) Pow(x, y *big.Float) (*big.Float, error) {
	if x.Sign() == 0 {
		if y.Sign() > 0 {
			return c.NewFloat(0), nil
		}
		return nil, fmt.Errorf("gotaylor: 0 raised to non-positive power: %w", ErrDomain)
	}
	if x.Sign() < 0 {
		return nil, fmt.Errorf("gotaylor: real power of negative base %v: %w", x, ErrDomain)
	}
	return c.round(bigfloat.Pow(c.work(x), c.work(y))), nil
}

// Sqrt returns the principal square root of x.
func (c *Context) Sqrt(x *big.Float) (*big.Float, error) {
	if x.Sign() < 0 {
		return nil, fmt.Errorf("gotaylor: square root of negative value %v: %w", x, ErrDomain)
	}
	return new(big.Float).SetPrec(c.prec).Sqrt(x), nil
}

var (
	piMu    sync.Mutex
	piCache = map[uint]*big.Float{}
)

// Pi returns pi at the context precision, by Machin's formula
// pi/4 = 4*atan(1/5) - atan(1/239). Computed once per working precision and
// cached, like the index-space registry; callers get an independent copy.
func (c *Context) Pi() *big.Float {
	prec := c.prec + guardBits
	piMu.Lock()
	pi, ok := piCache[prec]
	piMu.Unlock()
	if !ok {
		a := atanInvInt(5, prec)
		b := atanInvInt(239, prec)
		pi = new(big.Float).SetPrec(prec)
		pi.Mul(a, big.NewFloat(16))
		b.Mul(b, big.NewFloat(4))
		pi.Sub(pi, b)
		piMu.Lock()
		piCache[prec] = pi
		piMu.Unlock()
	}
	return c.round(pi)
}

// atanInvInt computes atan(1/k) for integer k >= 2 by the Taylor series,
// which converges geometrically with ratio 1/k^2.
func atanInvInt(k int64, prec uint) *big.Float {
	one := new(big.Float).SetPrec(prec).SetInt64(1)
	invK := new(big.Float).SetPrec(prec).SetInt64(k)
	invK.Quo(one, invK)
	invK2 := new(big.Float).SetPrec(prec).Mul(invK, invK)

	sum := new(big.Float).SetPrec(prec)
	term := new(big.Float).SetPrec(prec).Set(invK) // (1/k)^(2i+1)
	tmp := new(big.Float).SetPrec(prec)
	for i := int64(0); ; i++ {
		tmp.Quo(term, new(big.Float).SetPrec(prec).SetInt64(2*i+1))
		if i%2 == 0 {
			sum.Add(sum, tmp)
		} else {
			sum.Sub(sum, tmp)
		}
		term.Mul(term, invK2)
		if term.MantExp(nil) < sum.MantExp(nil)-int(prec) {
			return sum
		}
	}
}

// maxSeriesTerms caps the summation loops of the iterative scalar functions.
// Hitting the cap means the series failed to converge at the configured
// precision and is reported as ErrPrecisionFailure.
const maxSeriesTerms = 100000

// Sin returns sin(x) at the context precision.
func (c *Context) Sin(x *big.Float) (*big.Float, error) {
	s, _, err := c.sinCos(x)
	return s, err
}

// Cos returns cos(x) at the context precision.
func (c *Context) Cos(x *big.Float) (*big.Float, error) {
	_, cs, err := c.sinCos(x)
	return cs, err
}

// SinCos returns sin(x) and cos(x) in one reduction pass.
func (c *Context) SinCos(x *big.Float) (sin, cos *big.Float, err error) {
	return c.sinCos(x)
}

func (c *Context) sinCos(x *big.Float) (*big.Float, *big.Float, error) {
	prec := c.prec + guardBits
	wc := NewContext(prec)

	// Reduce modulo 2*pi. The Taylor series below converges for any finite
	// argument; reduction just keeps the term count small.
	twoPi := new(big.Float).SetPrec(prec).Mul(wc.Pi(), big.NewFloat(2))
	r := new(big.Float).SetPrec(prec).Set(x)
	q := new(big.Float).SetPrec(prec).Quo(r, twoPi)
	qi, _ := q.Int(nil)
	r.Sub(r, new(big.Float).SetPrec(prec).Mul(twoPi, new(big.Float).SetPrec(prec).SetInt(qi)))

	sin := new(big.Float).SetPrec(prec)
	cos := new(big.Float).SetPrec(prec)
	term := new(big.Float).SetPrec(prec).SetInt64(1) // r^i / i!
	tmp := new(big.Float).SetPrec(prec)
	converged := false
	for i := int64(0); i < maxSeriesTerms; i++ {
		switch i % 4 {
		case 0:
			cos.Add(cos, term)
		case 1:
			sin.Add(sin, term)
		case 2:
			cos.Sub(cos, term)
		case 3:
			sin.Sub(sin, term)
		}
		if i > 0 && (term.Sign() == 0 || term.MantExp(nil) < -int(prec)-4) {
			converged = true
			break
		}
		tmp.SetInt64(i + 1)
		term.Mul(term, r)
		term.Quo(term, tmp)
	}
	if !converged {
		return nil, nil, fmt.Errorf("gotaylor: sin/cos series did not converge at %d bits: %w", c.prec, ErrPrecisionFailure)
	}
	return c.round(sin), c.round(cos), nil
}

// Atan returns atan(x) at the context precision.
func (c *Context) Atan(x *big.Float) (*big.Float, error) {
	prec := c.prec + guardBits
	wc := NewContext(prec)

	if x.Sign() < 0 {
		r, err := c.Atan(new(big.Float).SetPrec(prec).Neg(x))
		if err != nil {
			return nil, err
		}
		return r.Neg(r), nil
	}
	one := new(big.Float).SetPrec(prec).SetInt64(1)
	if x.Cmp(one) > 0 {
		// atan(x) = pi/2 - atan(1/x)
		inv := new(big.Float).SetPrec(prec).Quo(one, x)
		r, err := wc.Atan(inv)
		if err != nil {
			return nil, err
		}
		half := new(big.Float).SetPrec(prec).Quo(wc.Pi(), big.NewFloat(2))
		return c.round(half.Sub(half, r)), nil
	}

	// Halve the argument with atan(x) = 2*atan(x/(1+sqrt(1+x^2))) until the
	// Taylor series converges quickly.
	r := new(big.Float).SetPrec(prec).Set(x)
	quarter := big.NewFloat(0.25)
	doublings := 0
	for r.Cmp(quarter) > 0 {
		t := new(big.Float).SetPrec(prec).Mul(r, r)
		t.Add(t, one)
		t.Sqrt(t)
		t.Add(t, one)
		r.Quo(r, t)
		doublings++
	}

	sum := new(big.Float).SetPrec(prec)
	r2 := new(big.Float).SetPrec(prec).Mul(r, r)
	term := new(big.Float).SetPrec(prec).Set(r) // r^(2i+1)
	tmp := new(big.Float).SetPrec(prec)
	converged := false
	for i := int64(0); i < maxSeriesTerms; i++ {
		tmp.Quo(term, new(big.Float).SetPrec(prec).SetInt64(2*i+1))
		if i%2 == 0 {
			sum.Add(sum, tmp)
		} else {
			sum.Sub(sum, tmp)
		}
		if term.Sign() == 0 || term.MantExp(nil) < -int(prec)-4 {
			converged = true
			break
		}
		term.Mul(term, r2)
	}
	if !converged {
		return nil, fmt.Errorf("gotaylor: atan series did not converge at %d bits: %w", c.prec, ErrPrecisionFailure)
	}
	for ; doublings > 0; doublings-- {
		sum.Add(sum, sum)
	}
	return c.round(sum), nil
}

// Asin returns asin(x) for -1 <= x <= 1.
func (c *Context) Asin(x *big.Float) (*big.Float, error) {
	one := big.NewFloat(1)
	negOne := big.NewFloat(-1)
	if x.Cmp(one) > 0 || x.Cmp(negOne) < 0 {
		return nil, fmt.Errorf("gotaylor: asin of %v outside [-1, 1]: %w", x, ErrDomain)
	}
	prec := c.prec + guardBits
	wc := NewContext(prec)
	if x.Cmp(one) == 0 || x.Cmp(negOne) == 0 {
		half := new(big.Float).SetPrec(prec).Quo(wc.Pi(), big.NewFloat(2))
		if x.Sign() < 0 {
			half.Neg(half)
		}
		return c.round(half), nil
	}
	// asin(x) = atan(x / sqrt(1 - x^2))
	t := new(big.Float).SetPrec(prec).Mul(x, x)
	t.Sub(new(big.Float).SetPrec(prec).SetInt64(1), t)
	t.Sqrt(t)
	t.Quo(new(big.Float).SetPrec(prec).Set(x), t)
	r, err := wc.Atan(t)
	if err != nil {
		return nil, err
	}
	return c.round(r), nil
}

// maxHalleySteps caps the Lambert W root-finding iteration.
const maxHalleySteps = 500

// LambertW returns the Lambert W function of x on the given real branch:
// branch 0 (principal, x >= -1/e) or branch -1 (x in [-1/e, 0)). Other
// branches are complex-valued and rejected with ErrBranch. The branch
// parameter is part of the contract; there is no implicit default.
func (c *Context) LambertW(x *big.Float, branch int) (*big.Float, error) {
	if branch != 0 && branch != -1 {
		return nil, fmt.Errorf("gotaylor: lambertw branch %d not real-valued: %w", branch, ErrBranch)
	}
	prec := c.prec + guardBits

	negInvE := new(big.Float).SetPrec(prec).Quo(big.NewFloat(-1), bigfloat.Exp(new(big.Float).SetPrec(prec).SetInt64(1)))
	if x.Cmp(negInvE) < 0 {
		return nil, fmt.Errorf("gotaylor: lambertw of %v below -1/e: %w", x, ErrDomain)
	}
	if branch == -1 && x.Sign() >= 0 {
		return nil, fmt.Errorf("gotaylor: lambertw branch -1 needs negative argument, got %v: %w", x, ErrDomain)
	}

	xf, _ := x.Float64()
	w := new(big.Float).SetPrec(prec).SetFloat64(lambertSeed(xf, branch))

	ew := new(big.Float).SetPrec(prec)
	f := new(big.Float).SetPrec(prec)
	df := new(big.Float).SetPrec(prec)
	t := new(big.Float).SetPrec(prec)
	step := new(big.Float).SetPrec(prec)
	one := new(big.Float).SetPrec(prec).SetInt64(1)
	two := new(big.Float).SetPrec(prec).SetInt64(2)
	for i := 0; i < maxHalleySteps; i++ {
		ew.Set(bigfloat.Exp(w))
		f.Mul(w, ew)
		f.Sub(f, x) // f = w*e^w - x
		df.Add(w, one)
		df.Mul(df, ew) // f' = e^w (w+1)
		// Halley: step = f / (f' - f*(w+2)/(2*(w+1)))
		t.Add(w, two)
		t.Mul(t, f)
		step.Add(w, one)
		step.Mul(step, two)
		t.Quo(t, step)
		t.Sub(df, t)
		if t.Sign() == 0 {
			break
		}
		step.Quo(f, t)
		w.Sub(w, step)
		if step.Sign() == 0 || step.MantExp(nil) < w.MantExp(nil)-int(c.prec)-8 {
			return c.round(w), nil
		}
	}
	// Verify the residual before giving up blame to precision.
	ew.Set(bigfloat.Exp(w))
	f.Mul(w, ew)
	f.Sub(f, x)
	if f.Sign() == 0 {
		return c.round(w), nil
	}
	return nil, fmt.Errorf("gotaylor: lambertw Halley iteration stalled at %d bits: %w", c.prec, ErrPrecisionFailure)
}

// lambertSeed produces a float64 starting point good enough for Halley's
// method to converge on either real branch.
func lambertSeed(x float64, branch int) float64 {
	if branch == -1 {
		// Near -1/e both branches meet at -1; away from it W_{-1} ~ log(-x) - log(-log(-x)).
		lx := math.Log(-x)
		if lx > -2 {
			return -2
		}
		return lx - math.Log(-lx)
	}
	switch {
	case x > math.E:
		lx := math.Log(x)
		return lx - math.Log(lx)
	case x > -0.25:
		return x / (1 + x)
	default:
		return -0.75
	}
}
