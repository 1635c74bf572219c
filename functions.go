package gotaylor

import (
	"fmt"
	"math/big"
)

// ============================================================
// Elementary functions
// ============================================================
//
// Each built-in follows the same shape: evaluate at the order-0 batch with
// the precision backend (failing with a domain error outside the real
// domain), then fill the higher orders with the function's graded ODE
// recurrence. Functions with no convenient ODE (lambertw, asin) go through
// Lagrange inversion of their forward map instead.

// Exp returns e**x. From y' = y: d*y_d = sum_{j=1..d} j*u_j * y_{d-j}.
func (x *Series) Exp() (*Series, error) {
	y := x.newLike()
	var err error
	y.coeffs[0], err = x.ctx.mapUnary(x.coeffs[0], func(v *big.Float) (*big.Float, error) {
		return x.ctx.Exp(v), nil
	})
	if err != nil {
		return nil, err
	}
	for out := 1; out < len(y.coeffs); out++ {
		s, err := eulerSum(x, y, out)
		if err != nil {
			return nil, err
		}
		y.coeffs[out] = x.ctx.bDivInt(s, int64(x.space.deg[out]))
	}
	return y, nil
}

// Log returns the natural logarithm of x. The order-0 batch must be strictly
// positive everywhere; this real core reports ErrDomain rather than escaping
// to a complex result. From u*y' = u': d*u_0*y_d = d*u_d - sum_{j=1..d-1}
// u_{d-j} * j*y_j.
func (x *Series) Log() (*Series, error) {
	y := x.newLike()
	var err error
	y.coeffs[0], err = x.ctx.mapUnary(x.coeffs[0], x.ctx.Log)
	if err != nil {
		return nil, err
	}
	u0 := x.coeffs[0]
	for out := 1; out < len(y.coeffs); out++ {
		d := x.space.deg[out]
		acc := x.ctx.bScaleInt(x.coeffs[out], int64(d))
		for _, p := range x.space.conv[out] {
			if p.a == 0 || x.space.deg[p.b] == 0 {
				continue
			}
			if isZeroScalar(x.coeffs[p.a]) || isZeroScalar(y.coeffs[p.b]) {
				continue
			}
			t, err := x.ctx.bMul(x.coeffs[p.a], y.coeffs[p.b])
			if err != nil {
				return nil, err
			}
			acc, err = x.ctx.bSub(acc, x.ctx.bScaleInt(t, int64(x.space.deg[p.b])))
			if err != nil {
				return nil, err
			}
		}
		y.coeffs[out], err = x.ctx.bDiv(acc, x.ctx.bScaleInt(u0, int64(d)))
		if err != nil {
			return nil, err
		}
	}
	return y, nil
}

// SinCos returns sin(x) and cos(x) in one graded sweep; the two recurrences
// are coupled: d*s_d = sum j*u_j*c_{d-j}, d*c_d = -sum j*u_j*s_{d-j}.
func (x *Series) SinCos() (sin, cos *Series, err error) {
	s := x.newLike()
	c := x.newLike()
	s.coeffs[0], err = x.ctx.mapUnary(x.coeffs[0], x.ctx.Sin)
	if err != nil {
		return nil, nil, err
	}
	c.coeffs[0], err = x.ctx.mapUnary(x.coeffs[0], x.ctx.Cos)
	if err != nil {
		return nil, nil, err
	}
	for out := 1; out < len(s.coeffs); out++ {
		d := int64(x.space.deg[out])
		sc, err := eulerSum(x, c, out)
		if err != nil {
			return nil, nil, err
		}
		ss, err := eulerSum(x, s, out)
		if err != nil {
			return nil, nil, err
		}
		s.coeffs[out] = x.ctx.bDivInt(sc, d)
		c.coeffs[out] = x.ctx.bNeg(x.ctx.bDivInt(ss, d))
	}
	return s, c, nil
}

// Sin returns sin(x).
func (x *Series) Sin() (*Series, error) {
	s, _, err := x.SinCos()
	return s, err
}

// Cos returns cos(x).
func (x *Series) Cos() (*Series, error) {
	_, c, err := x.SinCos()
	return c, err
}

// powSeries fills the graded recurrence for y = u**p given the already
// branch-resolved order-0 batch f0. From u*y' = p*y*u':
// d*u_0*y_d = sum_{j=1..d} (p*j - (d-j)) * u_j * y_{d-j}.
// Requires a nonzero order-0 batch.
func (x *Series) powSeries(p *big.Float, f0 Batch) (*Series, error) {
	if bHasZero(x.coeffs[0]) {
		return nil, fmt.Errorf("gotaylor: power of series with zero order-0 term is not analytic: %w", ErrDomain)
	}
	y := x.newLike()
	y.coeffs[0] = x.ctx.bCopy(f0)
	u0 := x.coeffs[0]
	for out := 1; out < len(y.coeffs); out++ {
		d := x.space.deg[out]
		acc := x.ctx.zeros(nil)
		for _, p2 := range x.space.conv[out] {
			if p2.a == 0 {
				continue
			}
			if isZeroScalar(x.coeffs[p2.a]) || isZeroScalar(y.coeffs[p2.b]) {
				continue
			}
			// weight = p*deg(i) - deg(j)
			w := new(big.Float).SetPrec(x.ctx.prec + guardBits).SetInt64(int64(x.space.deg[p2.a]))
			w.Mul(w, p)
			w.Sub(w, new(big.Float).SetInt64(int64(x.space.deg[p2.b])))
			t, err := x.ctx.bMul(x.coeffs[p2.a], y.coeffs[p2.b])
			if err != nil {
				return nil, err
			}
			acc, err = x.ctx.bAdd(acc, x.ctx.bScale(t, w))
			if err != nil {
				return nil, err
			}
		}
		var err error
		y.coeffs[out], err = x.ctx.bDiv(acc, x.ctx.bScaleInt(u0, int64(d)))
		if err != nil {
			return nil, err
		}
	}
	return y, nil
}

// PowReal returns x**p for a real exponent. The order-0 batch must be
// strictly positive everywhere (integer exponents with negative bases go
// through PowInt, roots through Root).
func (x *Series) PowReal(p *big.Float) (*Series, error) {
	f0, err := x.ctx.mapUnary(x.coeffs[0], func(v *big.Float) (*big.Float, error) {
		if v.Sign() <= 0 {
			return nil, fmt.Errorf("gotaylor: real power of non-positive base %v: %w", v, ErrDomain)
		}
		return x.ctx.Pow(v, p)
	})
	if err != nil {
		return nil, err
	}
	return x.powSeries(p, f0)
}

// Sqrt returns the principal square root of x. Equivalent to Root(2, 0).
func (x *Series) Sqrt() (*Series, error) {
	return x.Root(2, 0)
}

// Root returns the k-th root of x on an explicit branch. Branch 0 is the
// principal real root; for even k, branch 1 selects its negation. An even
// root of a batch containing a negative (or zero) order-0 value has no real
// branch and fails with ErrDomain; odd roots of negative values follow the
// real branch sign(v)*|v|**(1/k).
func (x *Series) Root(k, branch int) (*Series, error) {
	if k < 1 {
		return nil, fmt.Errorf("gotaylor: %d-th root undefined: %w", k, ErrDomain)
	}
	even := k%2 == 0
	switch {
	case branch == 0:
	case branch == 1 && even:
	default:
		return nil, fmt.Errorf("gotaylor: branch %d invalid for real %d-th root: %w", branch, k, ErrBranch)
	}

	p := new(big.Float).SetPrec(x.ctx.prec + guardBits).SetInt64(int64(k))
	p.Quo(new(big.Float).SetPrec(x.ctx.prec+guardBits).SetInt64(1), p)

	f0, err := x.ctx.mapUnary(x.coeffs[0], func(v *big.Float) (*big.Float, error) {
		switch {
		case v.Sign() > 0:
			return x.ctx.Pow(v, p)
		case v.Sign() < 0 && !even:
			r, err := x.ctx.Pow(new(big.Float).Neg(v), p)
			if err != nil {
				return nil, err
			}
			return r.Neg(r), nil
		case v.Sign() < 0:
			return nil, fmt.Errorf("gotaylor: even root of negative value %v has no real branch: %w", v, ErrDomain)
		}
		return nil, fmt.Errorf("gotaylor: root of zero order-0 term is not analytic: %w", ErrDomain)
	})
	if err != nil {
		return nil, err
	}
	if branch == 1 {
		f0 = x.ctx.bNeg(f0)
	}
	return x.powSeries(p, f0)
}

// Lambertw returns the Lambert W function of x on the given real branch
// (0 or -1). There is no ODE shortcut here: the order-0 value comes from the
// backend's Halley iteration, and the series part from Lagrange inversion of
// the forward map w*e^w — the same route available to user-defined inverses.
func (x *Series) Lambertw(branch int) (*Series, error) {
	w0, err := x.ctx.mapUnary(x.coeffs[0], func(v *big.Float) (*big.Float, error) {
		return x.ctx.LambertW(v, branch)
	})
	if err != nil {
		return nil, err
	}
	// Forward derivatives: (w*e^w)^(k) = e^w * (w + k).
	fseq := make([]Batch, x.space.m+1)
	for k := 0; k <= x.space.m; k++ {
		kk := k
		fseq[k], err = x.ctx.mapUnary(w0, func(v *big.Float) (*big.Float, error) {
			t := new(big.Float).SetPrec(x.ctx.prec + guardBits).SetInt64(int64(kk))
			t.Add(t, v)
			return t.Mul(t, x.ctx.Exp(v)), nil
		})
		if err != nil {
			return nil, err
		}
	}
	return x.Inverse(w0, fseq)
}

// Asin returns asin(x), derived by inverting sin's derivative sequence at
// the preimage. Order-0 values on the open interval (-1, 1) only: at the
// endpoints the forward derivative vanishes and the inverse is not analytic.
func (x *Series) Asin() (*Series, error) {
	one := big.NewFloat(1)
	w0, err := x.ctx.mapUnary(x.coeffs[0], func(v *big.Float) (*big.Float, error) {
		if new(big.Float).Abs(v).Cmp(one) >= 0 {
			return nil, fmt.Errorf("gotaylor: asin series needs |value| < 1, got %v: %w", v, ErrDomain)
		}
		return x.ctx.Asin(v)
	})
	if err != nil {
		return nil, err
	}
	s0, err := x.ctx.mapUnary(w0, x.ctx.Sin)
	if err != nil {
		return nil, err
	}
	c0, err := x.ctx.mapUnary(w0, x.ctx.Cos)
	if err != nil {
		return nil, err
	}
	fseq := make([]Batch, x.space.m+1)
	for k := 0; k <= x.space.m; k++ {
		switch k % 4 {
		case 0:
			fseq[k] = x.ctx.bCopy(s0)
		case 1:
			fseq[k] = x.ctx.bCopy(c0)
		case 2:
			fseq[k] = x.ctx.bNeg(s0)
		case 3:
			fseq[k] = x.ctx.bNeg(c0)
		}
	}
	return x.Inverse(w0, fseq)
}
