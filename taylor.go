package gotaylor

import (
	"fmt"
	"math/big"
)

// ============================================================
// Taylor polynomial consumers
// ============================================================
//
// Downstream utilities that only need the stored coefficients and the
// extraction interface — the surface external consumers build against.

// BuildTaylor evaluates the stored Taylor polynomial at a displacement from
// the expansion point: sum over k of terms[k] * prod(dx_i^k_i). One
// displacement batch per variable.
func (x *Series) BuildTaylor(dx ...Batch) (Batch, error) {
	if len(dx) != x.space.n {
		return Batch{}, fmt.Errorf("gotaylor: %d displacements for %d variables: %w", len(dx), x.space.n, ErrShapeMismatch)
	}
	ctx := x.ctx

	// Powers dx_i^j for j = 0..m, shared across slots.
	pows := make([][]Batch, x.space.n)
	for i := range pows {
		pows[i] = make([]Batch, x.space.m+1)
		pows[i][0] = ctx.Scalar(1)
		for j := 1; j <= x.space.m; j++ {
			var err error
			pows[i][j], err = ctx.bMul(pows[i][j-1], dx[i])
			if err != nil {
				return Batch{}, err
			}
		}
	}

	sum := ctx.zeros(nil)
	for slot, k := range x.space.indices {
		if isZeroScalar(x.coeffs[slot]) {
			continue
		}
		term := ctx.bCopy(x.coeffs[slot])
		var err error
		for i, ki := range k {
			if ki == 0 {
				continue
			}
			term, err = ctx.bMul(term, pows[i][ki])
			if err != nil {
				return Batch{}, err
			}
		}
		sum, err = ctx.bAdd(sum, term)
		if err != nil {
			return Batch{}, err
		}
	}
	return sum, nil
}

// TaylorIntegrate1D integrates f over [a, b] by expanding it to order m at
// the midpoint of each of the given steps and integrating the local Taylor
// polynomials exactly: over a step of width h centered at t, odd terms
// cancel and each even term c_j contributes c_j * h^(j+1) / (2^j * (j+1)).
func TaylorIntegrate1D(ctx *Context, f func(*Series) (*Series, error), a, b float64, m, steps int) (*big.Float, error) {
	if steps < 1 {
		return nil, fmt.Errorf("gotaylor: integration needs at least one step: %w", ErrShapeMismatch)
	}
	prec := ctx.prec + guardBits
	width := new(big.Float).SetPrec(prec).Sub(ctx.NewFloat(b), ctx.NewFloat(a))
	h := new(big.Float).SetPrec(prec).Quo(width, new(big.Float).SetInt64(int64(steps)))
	half := new(big.Float).SetPrec(prec).Quo(h, big.NewFloat(2))

	total := new(big.Float).SetPrec(prec)
	t := new(big.Float).SetPrec(prec).Add(ctx.NewFloat(a), half)
	for s := 0; s < steps; s++ {
		xs, err := Initialize(ctx, m, ctx.ScalarBig(t))
		if err != nil {
			return nil, err
		}
		ft, err := f(xs[0])
		if err != nil {
			return nil, err
		}
		// sum_{j even} c_j * h^(j+1) / (2^j * (j+1))
		hp := new(big.Float).SetPrec(prec).Set(h) // h^(j+1)
		for j := 0; j <= m; j++ {
			if j%2 == 0 {
				c, err := ft.Coeff(j)
				if err != nil {
					return nil, err
				}
				term := new(big.Float).SetPrec(prec).Set(c.At(0))
				term.Mul(term, hp)
				den := new(big.Float).SetPrec(prec).SetInt64(int64(j + 1))
				den.SetMantExp(den, j) // (j+1) * 2^j
				term.Quo(term, den)
				total.Add(total, term)
			}
			hp.Mul(hp, h)
		}
		t.Add(t, h)
	}
	return new(big.Float).SetPrec(ctx.prec).Set(total), nil
}
