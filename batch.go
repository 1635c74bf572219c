package gotaylor

import (
	"fmt"
	"math/big"
)

// ============================================================
// Batch — vectorized coefficient arrays
// ============================================================

// Batch is an array of arbitrary-precision values sharing a shape. Every
// coefficient of a Series is a Batch; the batch dimension is the only axis of
// data parallelism in the package, one independent expansion per point. A
// Batch with an empty shape holds a single scalar point.
//
// Batches are treated as immutable: operations allocate fresh values and
// never write through a stored *big.Float.
type Batch struct {
	shape []int
	data  []*big.Float
}

// Scalar returns a scalar (empty-shape) batch holding v.
func (c *Context) Scalar(v float64) Batch {
	return Batch{data: []*big.Float{c.NewFloat(v)}}
}

// ScalarBig returns a scalar batch holding a copy of v at the context
// precision.
func (c *Context) ScalarBig(v *big.Float) Batch {
	return Batch{data: []*big.Float{c.round(v)}}
}

// BatchOf returns a rank-1 batch of the given values.
func (c *Context) BatchOf(vs ...float64) Batch {
	data := make([]*big.Float, len(vs))
	for i, v := range vs {
		data[i] = c.NewFloat(v)
	}
	return Batch{shape: []int{len(vs)}, data: data}
}

// NewBatch builds a batch with an explicit shape. The number of values must
// equal the product of the shape's extents.
func (c *Context) NewBatch(vals []*big.Float, shape []int) (Batch, error) {
	if shapeSize(shape) != len(vals) {
		return Batch{}, fmt.Errorf("gotaylor: %d values for shape %v: %w", len(vals), shape, ErrShapeMismatch)
	}
	data := make([]*big.Float, len(vals))
	for i, v := range vals {
		data[i] = c.round(v)
	}
	return Batch{shape: append([]int(nil), shape...), data: data}, nil
}

// zeros returns a batch of zero values with the given shape.
func (c *Context) zeros(shape []int) Batch {
	data := make([]*big.Float, shapeSize(shape))
	for i := range data {
		data[i] = new(big.Float).SetPrec(c.prec)
	}
	return Batch{shape: append([]int(nil), shape...), data: data}
}

// Shape returns a copy of the batch shape (empty for a scalar point).
func (b Batch) Shape() []int { return append([]int(nil), b.shape...) }

// Len is the number of points in the batch.
func (b Batch) Len() int { return len(b.data) }

// IsScalar reports whether the batch holds a single point.
func (b Batch) IsScalar() bool { return len(b.data) == 1 && len(b.shape) == 0 }

// At returns a copy of the i-th value in flattened (row-major) order.
func (b Batch) At(i int) *big.Float { return new(big.Float).Copy(b.data[i]) }

// Float64s converts every value to float64, discarding precision.
func (b Batch) Float64s() []float64 {
	out := make([]float64, len(b.data))
	for i, v := range b.data {
		out[i], _ = v.Float64()
	}
	return out
}

// Float64 converts a scalar batch to float64, discarding precision.
func (b Batch) Float64() float64 {
	v, _ := b.data[0].Float64()
	return v
}

func shapeSize(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// broadcastShape unifies two batch shapes: equal shapes pass through, and a
// scalar broadcasts against anything. Anything else is a broadcast error.
func broadcastShape(a, b Batch) ([]int, error) {
	switch {
	case shapeEqual(a.shape, b.shape):
		return a.Shape(), nil
	case a.IsScalar():
		return b.Shape(), nil
	case b.IsScalar():
		return a.Shape(), nil
	}
	return nil, fmt.Errorf("gotaylor: cannot broadcast shapes %v and %v: %w", a.shape, b.shape, ErrShapeMismatch)
}

// ============================================================
// Elementwise map constructs
// ============================================================

// mapUnary applies f to every point of a, producing a fresh batch. This is
// the package's elementwise map over the batch dimension; all vectorized
// behavior funnels through here and mapBinary.
func (c *Context) mapUnary(a Batch, f func(x *big.Float) (*big.Float, error)) (Batch, error) {
	data := make([]*big.Float, len(a.data))
	for i, x := range a.data {
		y, err := f(x)
		if err != nil {
			return Batch{}, err
		}
		data[i] = c.round(y)
	}
	return Batch{shape: a.Shape(), data: data}, nil
}

// mapBinary applies f pointwise across a and b under broadcasting.
func (c *Context) mapBinary(a, b Batch, f func(x, y *big.Float) (*big.Float, error)) (Batch, error) {
	shape, err := broadcastShape(a, b)
	if err != nil {
		return Batch{}, err
	}
	n := shapeSize(shape)
	data := make([]*big.Float, n)
	for i := 0; i < n; i++ {
		x := a.data[i%len(a.data)]
		y := b.data[i%len(b.data)]
		z, err := f(x, y)
		if err != nil {
			return Batch{}, err
		}
		data[i] = c.round(z)
	}
	return Batch{shape: shape, data: data}, nil
}

// ------------------------------------------------------------
// Batch arithmetic helpers used by the series core
// ------------------------------------------------------------

func (c *Context) bAdd(a, b Batch) (Batch, error) {
	return c.mapBinary(a, b, func(x, y *big.Float) (*big.Float, error) {
		return new(big.Float).SetPrec(c.prec + guardBits).Add(x, y), nil
	})
}

func (c *Context) bSub(a, b Batch) (Batch, error) {
	return c.mapBinary(a, b, func(x, y *big.Float) (*big.Float, error) {
		return new(big.Float).SetPrec(c.prec + guardBits).Sub(x, y), nil
	})
}

func (c *Context) bMul(a, b Batch) (Batch, error) {
	return c.mapBinary(a, b, func(x, y *big.Float) (*big.Float, error) {
		return new(big.Float).SetPrec(c.prec + guardBits).Mul(x, y), nil
	})
}

// bDiv divides pointwise. Callers are responsible for rejecting zero
// denominators with a domain error before calling; a zero here is a bug.
func (c *Context) bDiv(a, b Batch) (Batch, error) {
	return c.mapBinary(a, b, func(x, y *big.Float) (*big.Float, error) {
		if y.Sign() == 0 {
			return nil, fmt.Errorf("gotaylor: division by zero coefficient: %w", ErrDomain)
		}
		return new(big.Float).SetPrec(c.prec + guardBits).Quo(x, y), nil
	})
}

func (c *Context) bNeg(a Batch) Batch {
	out, _ := c.mapUnary(a, func(x *big.Float) (*big.Float, error) {
		return new(big.Float).SetPrec(c.prec).Neg(x), nil
	})
	return out
}

// bScale multiplies every point by the scalar s.
func (c *Context) bScale(a Batch, s *big.Float) Batch {
	out, _ := c.mapUnary(a, func(x *big.Float) (*big.Float, error) {
		return new(big.Float).SetPrec(c.prec + guardBits).Mul(x, s), nil
	})
	return out
}

func (c *Context) bScaleInt(a Batch, k int64) Batch {
	return c.bScale(a, new(big.Float).SetInt64(k))
}

// bHasZero reports whether any point of the batch is exactly zero.
func bHasZero(a Batch) bool {
	for _, x := range a.data {
		if x.Sign() == 0 {
			return true
		}
	}
	return false
}

// bExpand replicates a into the given shape: same-shape batches pass through
// as copies, scalars are repeated per point. Stored coefficients may remain
// scalar until a broadcasting operation touches them, so extraction expands
// them to the logical series shape on the way out.
func (c *Context) bExpand(a Batch, shape []int) Batch {
	if shapeEqual(a.shape, shape) {
		return c.bCopy(a)
	}
	n := shapeSize(shape)
	data := make([]*big.Float, n)
	for i := 0; i < n; i++ {
		data[i] = new(big.Float).Copy(a.data[i%len(a.data)])
	}
	return Batch{shape: append([]int(nil), shape...), data: data}
}

// bCopy returns an independent copy of a at the context precision.
func (c *Context) bCopy(a Batch) Batch {
	out, _ := c.mapUnary(a, func(x *big.Float) (*big.Float, error) {
		return new(big.Float).Copy(x), nil
	})
	return out
}
