package gotaylor

import (
	"fmt"
	"math/big"
)

// ============================================================
// Truncated power series arithmetic
// ============================================================
//
// All arithmetic happens in the quotient ring of polynomials modulo total
// degree > m: the convolution table of the index space never forms a pair of
// multi-indices whose degrees sum beyond m, so truncation is structural
// rather than a post-hoc filter.

// resultShape combines the logical batch shapes of two operands.
func resultShape(x, y *Series) ([]int, error) {
	switch {
	case shapeEqual(x.shape, y.shape):
		return x.Shape(), nil
	case len(x.shape) == 0:
		return y.Shape(), nil
	case len(y.shape) == 0:
		return x.Shape(), nil
	}
	return nil, fmt.Errorf("gotaylor: cannot broadcast batch shapes %v and %v: %w", x.shape, y.shape, ErrShapeMismatch)
}

// Add returns x + y termwise. Operands must share n and m.
func (x *Series) Add(y *Series) (*Series, error) {
	if err := x.sameSpace(y); err != nil {
		return nil, err
	}
	shape, err := resultShape(x, y)
	if err != nil {
		return nil, err
	}
	z := x.newLike()
	z.shape = shape
	for slot := range z.coeffs {
		z.coeffs[slot], err = x.ctx.bAdd(x.coeffs[slot], y.coeffs[slot])
		if err != nil {
			return nil, err
		}
	}
	return z, nil
}

// Sub returns x - y termwise.
func (x *Series) Sub(y *Series) (*Series, error) {
	if err := x.sameSpace(y); err != nil {
		return nil, err
	}
	shape, err := resultShape(x, y)
	if err != nil {
		return nil, err
	}
	z := x.newLike()
	z.shape = shape
	for slot := range z.coeffs {
		z.coeffs[slot], err = x.ctx.bSub(x.coeffs[slot], y.coeffs[slot])
		if err != nil {
			return nil, err
		}
	}
	return z, nil
}

// Neg returns -x.
func (x *Series) Neg() *Series {
	z := x.newLike()
	for slot := range z.coeffs {
		z.coeffs[slot] = x.ctx.bNeg(x.coeffs[slot])
	}
	return z
}

// Scale returns x multiplied by the plain scalar s.
func (x *Series) Scale(s *big.Float) *Series {
	z := x.newLike()
	for slot := range z.coeffs {
		z.coeffs[slot] = x.ctx.bScale(x.coeffs[slot], s)
	}
	return z
}

// AddConst returns x + v for a raw batch v (auto-seeded with zero derivative
// part).
func (x *Series) AddConst(v Batch) (*Series, error) {
	return x.Add(x.constLike(v))
}

// isZeroScalar reports a stored scalar zero coefficient; the common case for
// seeded variables, worth skipping inside convolutions.
func isZeroScalar(b Batch) bool {
	return len(b.data) == 1 && b.data[0].Sign() == 0
}

// Mul returns the product of x and y: discrete convolution over multi-indices
// truncated at total degree m.
func (x *Series) Mul(y *Series) (*Series, error) {
	if err := x.sameSpace(y); err != nil {
		return nil, err
	}
	shape, err := resultShape(x, y)
	if err != nil {
		return nil, err
	}
	z := x.newLike()
	z.shape = shape
	for out := range z.coeffs {
		acc := z.coeffs[out]
		for _, p := range x.space.conv[out] {
			if isZeroScalar(x.coeffs[p.a]) || isZeroScalar(y.coeffs[p.b]) {
				continue
			}
			t, err := x.ctx.bMul(x.coeffs[p.a], y.coeffs[p.b])
			if err != nil {
				return nil, err
			}
			acc, err = x.ctx.bAdd(acc, t)
			if err != nil {
				return nil, err
			}
		}
		z.coeffs[out] = acc
	}
	return z, nil
}

// Div returns x / y by solving the convolution identity y*q = x for q one
// degree at a time: the order-0 quotient is x0/y0, and the coefficient at
// slot k only involves already-solved quotient coefficients of strictly
// lower degree. A zero anywhere in y's order-0 batch makes the division
// undefined.
func (x *Series) Div(y *Series) (*Series, error) {
	if err := x.sameSpace(y); err != nil {
		return nil, err
	}
	shape, err := resultShape(x, y)
	if err != nil {
		return nil, err
	}
	if bHasZero(y.coeffs[0]) {
		return nil, fmt.Errorf("gotaylor: division by series with zero order-0 term: %w", ErrDomain)
	}
	q := x.newLike()
	q.shape = shape
	q.coeffs[0], err = x.ctx.bDiv(x.coeffs[0], y.coeffs[0])
	if err != nil {
		return nil, err
	}
	// Slots are stored in graded order, so iterating upward guarantees every
	// q[p.b] read below is already solved.
	for out := 1; out < len(q.coeffs); out++ {
		acc := x.ctx.bCopy(x.coeffs[out])
		for _, p := range x.space.conv[out] {
			if p.a == 0 {
				continue // the unknown term y0*q[out]
			}
			if isZeroScalar(y.coeffs[p.a]) || isZeroScalar(q.coeffs[p.b]) {
				continue
			}
			t, err := x.ctx.bMul(y.coeffs[p.a], q.coeffs[p.b])
			if err != nil {
				return nil, err
			}
			acc, err = x.ctx.bSub(acc, t)
			if err != nil {
				return nil, err
			}
		}
		q.coeffs[out], err = x.ctx.bDiv(acc, y.coeffs[0])
		if err != nil {
			return nil, err
		}
	}
	return q, nil
}

// PowInt returns x**p for integer p. Negative powers require a nonzero
// order-0 term.
func (x *Series) PowInt(p int) (*Series, error) {
	if p == 0 {
		return x.constLike(x.ctx.Scalar(1)), nil
	}
	if p < 0 {
		inv, err := x.constLike(x.ctx.Scalar(1)).Div(x)
		if err != nil {
			return nil, err
		}
		return inv.PowInt(-p)
	}
	// Square-and-multiply over the truncated ring.
	var acc *Series
	base := x
	for p > 0 {
		if p&1 == 1 {
			if acc == nil {
				acc = base
			} else {
				var err error
				acc, err = acc.Mul(base)
				if err != nil {
					return nil, err
				}
			}
		}
		p >>= 1
		if p > 0 {
			var err error
			base, err = base.Mul(base)
			if err != nil {
				return nil, err
			}
		}
	}
	return acc, nil
}
