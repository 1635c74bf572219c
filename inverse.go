package gotaylor

import (
	"fmt"
	"math/big"
)

// ============================================================
// Lagrange inversion
// ============================================================

// InvertSeqBatch computes, from the ordinary derivative sequence
// fseq = [g(x0), g'(x0), …, g^(m)(x0)] of a forward function g, the ordinary
// derivative sequence of the inverse function g^-1 at y0 = g(x0). The
// caller supplies x0 (elementwise), which becomes the value entry of the
// result. g'(x0) must be nonzero at every point — the inverse is not
// analytic at a critical point.
//
// The forward sequence is treated as a one-variable truncated series in a
// local shift and the composition identity g^-1(g(t)) = t is solved for the
// inverse coefficients order-by-order: the order-k unknown appears only
// against g'(x0)^k, with every other contribution built from already-solved
// lower orders.
func InvertSeqBatch(ctx *Context, x0 Batch, fseq []Batch) ([]Batch, error) {
	m := len(fseq) - 1
	if m < 1 {
		return nil, fmt.Errorf("gotaylor: inversion needs at least the first derivative: %w", ErrOrderOutOfRange)
	}
	if bHasZero(fseq[1]) {
		return nil, fmt.Errorf("gotaylor: inversion at a critical point (zero forward derivative): %w", ErrDomain)
	}

	// Forward series G(t) = sum_{j>=1} (g^(j)/j!) t^j as a univariate
	// truncated series over the batch; slot j is exactly degree j for n=1.
	g, err := Constant(ctx, 1, m, ctx.zeros(x0.Shape()))
	if err != nil {
		return nil, err
	}
	for j := 1; j <= m; j++ {
		g.coeffs[j] = ctx.bScale(fseq[j], recipFactorial(j, ctx))
	}

	// Powers G^1 … G^m; [t^k]G^k = (g'/1!)^k is the pivot of each solve.
	pow := make([]*Series, m+1)
	pow[1] = g
	for j := 2; j <= m; j++ {
		pow[j], err = pow[j-1].Mul(g)
		if err != nil {
			return nil, err
		}
	}

	// Solve sum_{j=1..k} b_j [t^k]G^j = [k == 1] for b_1 … b_m.
	b := make([]Batch, m+1)
	one := ctx.Scalar(1)
	b[1], err = ctx.bDiv(one, g.coeffs[1])
	if err != nil {
		return nil, err
	}
	for k := 2; k <= m; k++ {
		rhs := ctx.zeros(nil)
		for j := 1; j < k; j++ {
			if isZeroScalar(pow[j].coeffs[k]) {
				continue
			}
			t, err := ctx.bMul(b[j], pow[j].coeffs[k])
			if err != nil {
				return nil, err
			}
			rhs, err = ctx.bSub(rhs, t)
			if err != nil {
				return nil, err
			}
		}
		b[k], err = ctx.bDiv(rhs, pow[k].coeffs[k])
		if err != nil {
			return nil, err
		}
	}

	out := make([]Batch, m+1)
	out[0] = ctx.bCopy(x0)
	for k := 1; k <= m; k++ {
		out[k] = ctx.bScale(b[k], factorial(k))
	}
	return out, nil
}

// InvertSeq is the scalar form of InvertSeqBatch.
func InvertSeq(ctx *Context, x0 *big.Float, fseq []*big.Float) ([]*big.Float, error) {
	batches := make([]Batch, len(fseq))
	for i, v := range fseq {
		batches[i] = ctx.ScalarBig(v)
	}
	out, err := InvertSeqBatch(ctx, ctx.ScalarBig(x0), batches)
	if err != nil {
		return nil, err
	}
	seq := make([]*big.Float, len(out))
	for i, b := range out {
		seq[i] = b.At(0)
	}
	return seq, nil
}

// Inverse applies a user-defined inverse function to x: fseq is the forward
// function's ordinary derivative sequence evaluated elementwise at w0, where
// w0 is the preimage of x's order-0 batch (so fseq[0] equals x's value
// term). The sequence is inverted by Lagrange inversion and composed with x
// through the generic engine, so no hand-derived recurrence is needed.
func (x *Series) Inverse(w0 Batch, fseq []Batch) (*Series, error) {
	// An order-0 series carries no derivative part to invert; the result is
	// just the preimage value.
	if x.space.m == 0 {
		z := x.newLike()
		z.coeffs[0] = x.ctx.bCopy(w0)
		return z, nil
	}
	gseq, err := InvertSeqBatch(x.ctx, w0, fseq)
	if err != nil {
		return nil, err
	}
	return x.ApplySeq(gseq)
}
