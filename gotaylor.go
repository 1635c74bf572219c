// Package gotaylor computes exact, arbitrary-order partial derivatives of
// composite multivariate functions at arbitrary numeric precision.
//
// Design goals:
//   - Generalized dual numbers: truncated multivariate Taylor expansions
//     propagated through arithmetic and elementary functions
//   - Batched: one independent expansion per point in a coefficient array
//   - Arbitrary precision (math/big) with an explicit, immutable precision
//     Context — no ambient global state
//   - Deterministic storage via a graded multi-index enumeration
//   - Extensible: new elementary functions attach through a derivative
//     sequence, with Lagrange inversion for inverse functions
//
// Minimal usage:
//
//	ctx := gotaylor.NewContext(256)
//	xs, _ := gotaylor.InitializeFloats(ctx, 3, 0.5)
//	f, _ := xs[0].Exp()
//	d, _ := f.DiffFloat64(2) // second derivative of exp at 0.5
package gotaylor

import (
	"errors"
	"fmt"
	"math/big"
)

// ============================================================
// Error taxonomy
// ============================================================

var (
	// ErrShapeMismatch reports operands that differ in variable count n,
	// truncation order m, or have broadcast-incompatible coefficient arrays.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrDomain reports evaluation outside a function's mathematical domain
	// (zero order-0 divisor, log of a non-positive value, root with no real
	// branch, inversion at a critical point).
	ErrDomain = errors.New("domain error")
	// ErrOrderOutOfRange reports a requested derivative whose total order
	// exceeds the truncation order m.
	ErrOrderOutOfRange = errors.New("derivative order out of range")
	// ErrBranch reports an invalid or unsupported branch index for a
	// multi-valued function.
	ErrBranch = errors.New("invalid branch")
	// ErrPrecisionFailure reports an iterative scalar evaluation that failed
	// to converge at the configured precision.
	ErrPrecisionFailure = errors.New("precision failure")
)

// ============================================================
// Series — the generalized dual number
// ============================================================

// Series is a batch of truncated multivariate Taylor expansions: one
// expansion in n variables up to total order m per point of the batch shape.
// Coefficients are stored densely in graded multi-index order, normalized by
// factorials — the slot for multi-index k holds the true partial derivative
// of total order sum(k) divided by prod(k_i!), and the all-zero slot holds
// the function value at the expansion point.
//
// A Series is immutable: every operation returns a new value.
type Series struct {
	ctx    *Context
	space  *indexSpace
	shape  []int
	coeffs []Batch
}

// maxOrder bounds the truncation order (the multi-index encoding packs one
// component per byte).
const maxOrder = 255

// Initialize seeds one variable per coordinate batch: the i-th result has
// order-0 term equal to coords[i], a unit term at order 1 along its own
// axis, and zeros elsewhere. All coordinates must be scalars or share one
// common shape.
func Initialize(ctx *Context, m int, coords ...Batch) ([]*Series, error) {
	if m < 0 || m > maxOrder {
		return nil, fmt.Errorf("gotaylor: truncation order %d out of [0, %d]: %w", m, maxOrder, ErrOrderOutOfRange)
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("gotaylor: Initialize needs at least one coordinate: %w", ErrShapeMismatch)
	}
	var shape []int
	for _, cb := range coords {
		if cb.IsScalar() {
			continue
		}
		if shape == nil {
			shape = cb.Shape()
			continue
		}
		if !shapeEqual(shape, cb.shape) {
			return nil, fmt.Errorf("gotaylor: coordinate shapes %v and %v differ: %w", shape, cb.shape, ErrShapeMismatch)
		}
	}

	n := len(coords)
	space := spaceFor(n, m)
	out := make([]*Series, n)
	for i, cb := range coords {
		s := &Series{ctx: ctx, space: space, shape: shape, coeffs: make([]Batch, len(space.indices))}
		for slot := range s.coeffs {
			s.coeffs[slot] = ctx.zeros(nil)
		}
		s.coeffs[0] = ctx.bCopy(cb)
		if m >= 1 {
			unit := make([]int, n)
			unit[i] = 1
			slot, _ := space.slotOf(unit)
			s.coeffs[slot] = ctx.Scalar(1)
		}
		out[i] = s
	}
	return out, nil
}

// InitializeFloats seeds scalar expansion points from float64 coordinates.
func InitializeFloats(ctx *Context, m int, coords ...float64) ([]*Series, error) {
	batches := make([]Batch, len(coords))
	for i, v := range coords {
		batches[i] = ctx.Scalar(v)
	}
	return Initialize(ctx, m, batches...)
}

// InitializeStrings seeds scalar expansion points from base-10 literals,
// parsed at the full context precision (no float64 rounding on the way in).
func InitializeStrings(ctx *Context, m int, coords ...string) ([]*Series, error) {
	batches := make([]Batch, len(coords))
	for i, s := range coords {
		v, err := ctx.ParseFloat(s)
		if err != nil {
			return nil, err
		}
		batches[i] = ctx.ScalarBig(v)
	}
	return Initialize(ctx, m, batches...)
}

// Constant lifts a raw batch into an (n, m) series with zero derivative
// part — the auto-seeding used when mixing plain values into arithmetic.
func Constant(ctx *Context, n, m int, v Batch) (*Series, error) {
	if m < 0 || m > maxOrder {
		return nil, fmt.Errorf("gotaylor: truncation order %d out of [0, %d]: %w", m, maxOrder, ErrOrderOutOfRange)
	}
	if n < 1 {
		return nil, fmt.Errorf("gotaylor: need at least one variable, got n=%d: %w", n, ErrShapeMismatch)
	}
	space := spaceFor(n, m)
	s := &Series{ctx: ctx, space: space, shape: v.Shape(), coeffs: make([]Batch, len(space.indices))}
	for slot := range s.coeffs {
		s.coeffs[slot] = ctx.zeros(nil)
	}
	if len(s.shape) == 0 {
		s.shape = nil
	}
	s.coeffs[0] = ctx.bCopy(v)
	return s, nil
}

// constLike lifts v into a series matching x's space and batch shape.
func (x *Series) constLike(v Batch) *Series {
	s, _ := Constant(x.ctx, x.space.n, x.space.m, v)
	if len(s.shape) == 0 {
		s.shape = x.Shape()
	}
	return s
}

// N returns the number of independent variables.
func (x *Series) N() int { return x.space.n }

// M returns the truncation order.
func (x *Series) M() int { return x.space.m }

// Shape returns the batch shape (empty for scalar expansion points).
func (x *Series) Shape() []int { return append([]int(nil), x.shape...) }

// Context returns the precision configuration the series was built with.
func (x *Series) Context() *Context { return x.ctx }

// Indices enumerates every stored multi-index in storage order.
func (x *Series) Indices() [][]int {
	out := make([][]int, len(x.coeffs))
	for slot := range x.coeffs {
		out[slot] = x.space.indexOf(slot)
	}
	return out
}

// Coeff returns the stored (factorial-normalized) Taylor coefficient at
// multi-index k.
func (x *Series) Coeff(k ...int) (Batch, error) {
	slot, err := x.slotFor(k)
	if err != nil {
		return Batch{}, err
	}
	return x.ctx.bExpand(x.coeffs[slot], x.shape), nil
}

func (x *Series) slotFor(k []int) (int, error) {
	if len(k) != x.space.n {
		return 0, fmt.Errorf("gotaylor: multi-index %v has %d components, series has %d variables: %w", k, len(k), x.space.n, ErrShapeMismatch)
	}
	d := 0
	for _, v := range k {
		if v < 0 {
			return 0, fmt.Errorf("gotaylor: negative multi-index component in %v: %w", k, ErrOrderOutOfRange)
		}
		d += v
	}
	if d > x.space.m {
		return 0, fmt.Errorf("gotaylor: order %d exceeds truncation order %d: %w", d, x.space.m, ErrOrderOutOfRange)
	}
	slot, ok := x.space.slotOf(k)
	if !ok {
		return 0, fmt.Errorf("gotaylor: invalid multi-index %v: %w", k, ErrShapeMismatch)
	}
	return slot, nil
}

// ============================================================
// Differentiation extraction
// ============================================================

// Diff returns the true partial derivative of f with respect to the
// multi-index k — d^|k| f / dx_1^k_1 … dx_n^k_n at the expansion points —
// recovered from the stored coefficient as terms[k] * prod(k_i!). A single
// integer is accepted when n == 1.
func (x *Series) Diff(k ...int) (Batch, error) {
	slot, err := x.slotFor(k)
	if err != nil {
		return Batch{}, err
	}
	return x.ctx.bExpand(x.ctx.bScale(x.coeffs[slot], indexFactorial(k)), x.shape), nil
}

// DiffFloat64 is Diff followed by conversion to float64 (precision is
// discarded; meant for plotting-style consumers).
func (x *Series) DiffFloat64(k ...int) ([]float64, error) {
	b, err := x.Diff(k...)
	if err != nil {
		return nil, err
	}
	return b.Float64s(), nil
}

// DerivativesAlong returns the one-variable ordinary derivative sequence of
// orders 0..m along axis i, holding all other variables at order 0. This is
// the sequence format consumed by ApplySeq and InvertSeq.
func (x *Series) DerivativesAlong(i int) ([]Batch, error) {
	if i < 0 || i >= x.space.n {
		return nil, fmt.Errorf("gotaylor: axis %d out of range for %d variables: %w", i, x.space.n, ErrShapeMismatch)
	}
	out := make([]Batch, x.space.m+1)
	k := make([]int, x.space.n)
	for j := 0; j <= x.space.m; j++ {
		k[i] = j
		slot, _ := x.space.slotOf(k)
		out[j] = x.ctx.bExpand(x.ctx.bScale(x.coeffs[slot], indexFactorial(k)), x.shape)
	}
	return out, nil
}

// indexFactorial returns prod(k_i!) as a big.Float.
func indexFactorial(k []int) *big.Float {
	f := big.NewInt(1)
	for _, v := range k {
		if v > 1 {
			f.Mul(f, new(big.Int).MulRange(1, int64(v)))
		}
	}
	return new(big.Float).SetInt(f)
}

// factorial returns j! as a big.Float.
func factorial(j int) *big.Float {
	if j < 2 {
		return big.NewFloat(1)
	}
	return new(big.Float).SetInt(new(big.Int).MulRange(1, int64(j)))
}

// String renders the expansion of the first batch point, lowest orders
// first, for debugging.
func (x *Series) String() string {
	out := fmt.Sprintf("Series(n=%d, m=%d, shape=%v)[", x.space.n, x.space.m, x.shape)
	for slot, k := range x.space.indices {
		if slot > 0 {
			out += " "
		}
		out += fmt.Sprintf("%v:%s", k, x.coeffs[slot].data[0].Text('g', 8))
	}
	return out + "]"
}

// newLike allocates a zero series sharing x's space, shape, and context.
func (x *Series) newLike() *Series {
	s := &Series{ctx: x.ctx, space: x.space, shape: x.Shape(), coeffs: make([]Batch, len(x.coeffs))}
	for slot := range s.coeffs {
		s.coeffs[slot] = x.ctx.zeros(nil)
	}
	return s
}

// sameSpace verifies that two operands live in the same truncated algebra.
func (x *Series) sameSpace(y *Series) error {
	if x.space.n != y.space.n || x.space.m != y.space.m {
		return fmt.Errorf("gotaylor: operands differ in (n=%d,m=%d) vs (n=%d,m=%d): %w",
			x.space.n, x.space.m, y.space.n, y.space.m, ErrShapeMismatch)
	}
	return nil
}
