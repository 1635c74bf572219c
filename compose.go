package gotaylor

import (
	"fmt"
	"math/big"
)

// ============================================================
// Decompose / Compose
// ============================================================
//
// The seam through which elementary functions attach: split a series into
// its order-0 value and its strictly-positive-order remainder, evaluate a
// scalar derivative sequence on the value with the precision backend, then
// recombine through the composition engine. Custom functions outside the
// built-in library use exactly the same three steps.

// Decompose splits x into its order-0 coefficient batch f0 and the remainder
// R: a series identical to x except the order-0 term is zeroed.
func (x *Series) Decompose() (Batch, *Series) {
	f0 := x.ctx.bCopy(x.coeffs[0])
	r := x.newLike()
	for slot := 1; slot < len(x.coeffs); slot++ {
		r.coeffs[slot] = x.ctx.bCopy(x.coeffs[slot])
	}
	return f0, r
}

// Compose recombines an order-0 batch with the higher-order terms of r,
// inverting Decompose.
func (r *Series) Compose(f0 Batch) *Series {
	z := r.newLike()
	if len(z.shape) == 0 {
		z.shape = f0.Shape()
	}
	z.coeffs[0] = r.ctx.bCopy(f0)
	for slot := 1; slot < len(r.coeffs); slot++ {
		z.coeffs[slot] = r.ctx.bCopy(r.coeffs[slot])
	}
	return z
}

// ============================================================
// Composition engine
// ============================================================

// ApplySeq composes a one-argument analytic function g with x, given g's
// ordinary derivative sequence seq = [g(x0), g'(x0), …, g^(m)(x0)] evaluated
// elementwise at x's order-0 batch. The result is the Taylor expansion of
// g(x0 + R) truncated to total degree m, computed by Horner evaluation of
// the factorial-normalized sequence over the remainder R. Cost is m series
// multiplications — polynomial, never the combinatorial Faà di Bruno sum.
func (x *Series) ApplySeq(seq []Batch) (*Series, error) {
	m := x.space.m
	if len(seq) < m+1 {
		return nil, fmt.Errorf("gotaylor: derivative sequence has %d entries, need %d: %w", len(seq), m+1, ErrOrderOutOfRange)
	}
	_, r := x.Decompose()

	// res = c_m; res = res*R + c_j for j = m-1 … 0, with c_j = seq[j]/j!.
	res := r.constLike(x.ctx.bScale(seq[m], recipFactorial(m, x.ctx)))
	for j := m - 1; j >= 0; j-- {
		var err error
		res, err = res.Mul(r)
		if err != nil {
			return nil, err
		}
		res, err = res.AddConst(x.ctx.bScale(seq[j], recipFactorial(j, x.ctx)))
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// recipFactorial returns 1/j! at the context precision.
func recipFactorial(j int, c *Context) *big.Float {
	one := new(big.Float).SetPrec(c.prec + guardBits).SetInt64(1)
	return one.Quo(one, factorial(j))
}

// ------------------------------------------------------------
// Graded recurrence plumbing
// ------------------------------------------------------------
//
// The built-in elementary functions avoid even the Horner pass: each one
// satisfies a first-order ODE, and applying the Euler grading operator
// E(f_d) = d*f_d to the ODE yields a per-degree recurrence. In multi-index
// form the homogeneous-part products expand to convolution pairs, giving the
// per-slot sums below. Each new coefficient depends only on strictly lower
// degrees, so one graded sweep fills the whole series in quadratic work.

// eulerSum computes, for an output slot, the sum over convolution pairs
// (i, j) with i nonzero of deg(i) * u[i] * v[j].
func eulerSum(u, v *Series, out int) (Batch, error) {
	ctx := u.ctx
	acc := ctx.zeros(nil)
	for _, p := range u.space.conv[out] {
		if p.a == 0 {
			continue
		}
		if isZeroScalar(u.coeffs[p.a]) || isZeroScalar(v.coeffs[p.b]) {
			continue
		}
		t, err := ctx.bMul(u.coeffs[p.a], v.coeffs[p.b])
		if err != nil {
			return Batch{}, err
		}
		acc, err = ctx.bAdd(acc, ctx.bScaleInt(t, int64(u.space.deg[p.a])))
		if err != nil {
			return Batch{}, err
		}
	}
	return acc, nil
}

// bDivInt divides every point of a by the integer d.
func (c *Context) bDivInt(a Batch, d int64) Batch {
	inv := new(big.Float).SetPrec(c.prec + guardBits).SetInt64(d)
	inv.Quo(new(big.Float).SetPrec(c.prec+guardBits).SetInt64(1), inv)
	return c.bScale(a, inv)
}
