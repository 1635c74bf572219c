package gotaylor_test

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"gonum.org/v1/gonum/diff/fd"

	gotaylor "github.com/njchilds90/go-taylor"
)

// ============================================================
// Elementary function composition
// ============================================================

func TestExp_SelfDerivative(t *testing.T) {
	xs, _ := gotaylor.InitializeFloats(tctx(), 3, 0.5)
	f, err := xs[0].Exp()
	if err != nil {
		t.Fatalf("Exp failed: %v", err)
	}
	want := math.Exp(0.5)
	for k := 0; k <= 3; k++ {
		near(t, d1(t, f, k), want, 1e-15, "exp derivative order")
	}
}

func TestExp_MatchesFiniteDifference(t *testing.T) {
	x0 := 0.8
	xs, _ := gotaylor.InitializeFloats(tctx(), 2, x0)
	f, err := xs[0].Exp()
	if err != nil {
		t.Fatalf("Exp failed: %v", err)
	}
	approx := fd.Derivative(math.Exp, x0, nil)
	near(t, d1(t, f, 1), approx, 1e-6, "exp' vs finite difference")
}

func TestLog_DomainError(t *testing.T) {
	for _, v := range []float64{0, -1} {
		xs, _ := gotaylor.InitializeFloats(tctx(), 2, v)
		if _, err := xs[0].Log(); !errors.Is(err, gotaylor.ErrDomain) {
			t.Errorf("log at %v should be DomainError, got %v", v, err)
		}
	}
}

func TestLogExp_CompositionIdentity(t *testing.T) {
	for m := 1; m <= 6; m++ {
		xs, _ := gotaylor.InitializeFloats(tctx(), m, 0.7)
		e, err := xs[0].Exp()
		if err != nil {
			t.Fatalf("Exp failed: %v", err)
		}
		f, err := e.Log()
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
		for k := 0; k <= m; k++ {
			near(t, d1(t, f, k), d1(t, xs[0], k), 1e-30, "log(exp(x)) coefficient")
		}
	}
}

func TestLog_KnownDerivatives(t *testing.T) {
	xs, _ := gotaylor.InitializeFloats(tctx(), 3, 2)
	f, err := xs[0].Log()
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	near(t, d1(t, f, 0), math.Log(2), 1e-15, "log value")
	near(t, d1(t, f, 1), 0.5, 1e-30, "log'")
	near(t, d1(t, f, 2), -0.25, 1e-30, "log''")
	near(t, d1(t, f, 3), 0.25, 1e-30, "log'''")
}

func TestSinCos_DerivativeCycle(t *testing.T) {
	x0 := 0.4
	xs, _ := gotaylor.InitializeFloats(tctx(), 4, x0)
	s, c, err := xs[0].SinCos()
	if err != nil {
		t.Fatalf("SinCos failed: %v", err)
	}
	near(t, d1(t, s, 0), math.Sin(x0), 1e-15, "sin value")
	near(t, d1(t, s, 1), math.Cos(x0), 1e-15, "sin'")
	near(t, d1(t, s, 2), -math.Sin(x0), 1e-15, "sin''")
	near(t, d1(t, c, 1), -math.Sin(x0), 1e-15, "cos'")
	approx := fd.Derivative(math.Sin, x0, nil)
	near(t, d1(t, s, 1), approx, 1e-6, "sin' vs finite difference")
}

func TestSinCos_PythagoreanIdentity(t *testing.T) {
	xs, _ := gotaylor.InitializeFloats(tctx(), 4, 1.1)
	s, c, err := xs[0].SinCos()
	if err != nil {
		t.Fatalf("SinCos failed: %v", err)
	}
	s2, err := s.Mul(s)
	if err != nil {
		t.Fatalf("Mul failed: %v", err)
	}
	c2, err := c.Mul(c)
	if err != nil {
		t.Fatalf("Mul failed: %v", err)
	}
	one, err := s2.Add(c2)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	near(t, d1(t, one, 0), 1, 1e-30, "sin^2+cos^2 value")
	for k := 1; k <= 4; k++ {
		near(t, d1(t, one, k), 0, 1e-30, "sin^2+cos^2 derivative")
	}
}

func TestSqrt_SquareRoundtrip(t *testing.T) {
	xs, _ := gotaylor.InitializeFloats(tctx(), 3, 2.25)
	r, err := xs[0].Sqrt()
	if err != nil {
		t.Fatalf("Sqrt failed: %v", err)
	}
	sq, err := r.Mul(r)
	if err != nil {
		t.Fatalf("Mul failed: %v", err)
	}
	for k := 0; k <= 3; k++ {
		near(t, d1(t, sq, k), d1(t, xs[0], k), 1e-30, "sqrt(x)^2 coefficient")
	}
}

func TestRoot_Branches(t *testing.T) {
	xs, _ := gotaylor.InitializeFloats(tctx(), 2, 4)
	principal, err := xs[0].Root(2, 0)
	if err != nil {
		t.Fatalf("Root(2,0) failed: %v", err)
	}
	near(t, d1(t, principal, 0), 2, 1e-30, "principal square root")
	negated, err := xs[0].Root(2, 1)
	if err != nil {
		t.Fatalf("Root(2,1) failed: %v", err)
	}
	near(t, d1(t, negated, 0), -2, 1e-30, "negated branch")
	if _, err := xs[0].Root(2, 2); !errors.Is(err, gotaylor.ErrBranch) {
		t.Errorf("branch 2 should be BranchError, got %v", err)
	}
	if _, err := xs[0].Root(3, 1); !errors.Is(err, gotaylor.ErrBranch) {
		t.Errorf("branch 1 on odd root should be BranchError, got %v", err)
	}
}

func TestRoot_OddRootOfNegative(t *testing.T) {
	xs, _ := gotaylor.InitializeFloats(tctx(), 2, -8)
	r, err := xs[0].Root(3, 0)
	if err != nil {
		t.Fatalf("cube root of -8 failed: %v", err)
	}
	near(t, d1(t, r, 0), -2, 1e-30, "cube root value")
	// d/dx x^(1/3) = (1/3) x^(-2/3) = 1/12 at x=-8
	near(t, d1(t, r, 1), 1.0/12, 1e-25, "cube root derivative")
}

func TestRoot_EvenRootOfNegative(t *testing.T) {
	xs, _ := gotaylor.InitializeFloats(tctx(), 2, -4)
	if _, err := xs[0].Root(2, 0); !errors.Is(err, gotaylor.ErrDomain) {
		t.Errorf("sqrt of -4 should be DomainError, got %v", err)
	}
}

func TestPowReal_Derivative(t *testing.T) {
	ctx := tctx()
	x0 := 1.7
	p := 2.5
	xs, _ := gotaylor.InitializeFloats(ctx, 2, x0)
	f, err := xs[0].PowReal(ctx.NewFloat(p))
	if err != nil {
		t.Fatalf("PowReal failed: %v", err)
	}
	near(t, d1(t, f, 0), math.Pow(x0, p), 1e-14, "x^p value")
	near(t, d1(t, f, 1), p*math.Pow(x0, p-1), 1e-14, "x^p derivative")
	near(t, d1(t, f, 2), p*(p-1)*math.Pow(x0, p-2), 1e-14, "x^p second derivative")
}

func TestPowReal_NegativeBase(t *testing.T) {
	ctx := tctx()
	xs, _ := gotaylor.InitializeFloats(ctx, 2, -1.5)
	if _, err := xs[0].PowReal(ctx.NewFloat(0.5)); !errors.Is(err, gotaylor.ErrDomain) {
		t.Errorf("real power of negative base should be DomainError, got %v", err)
	}
}

// ============================================================
// Decompose / compose and the generic engine
// ============================================================

func TestDecomposeCompose_Roundtrip(t *testing.T) {
	xs, _ := gotaylor.InitializeFloats(tctx(), 3, 1.5, 2.5)
	f, err := xs[0].Mul(xs[1])
	if err != nil {
		t.Fatalf("Mul failed: %v", err)
	}
	f0, r := f.Decompose()
	v, err := r.Diff(0, 0)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	near(t, v.Float64s()[0], 0, 0, "remainder value term")
	back := r.Compose(f0)
	for _, k := range f.Indices() {
		near(t, d1(t, back, k...), d1(t, f, k...), 0, "compose(decompose(x))")
	}
}

func TestApplySeq_MatchesExpRecurrence(t *testing.T) {
	ctx := tctx()
	xs, _ := gotaylor.InitializeFloats(ctx, 4, 0.3, -0.6)
	f, err := xs[0].Mul(xs[1])
	if err != nil {
		t.Fatalf("Mul failed: %v", err)
	}

	// exp through the generic engine: every ordinary derivative equals the value.
	v, err := f.Coeff(0, 0)
	if err != nil {
		t.Fatalf("Coeff failed: %v", err)
	}
	ev := ctx.Exp(v.At(0))
	seq := make([]gotaylor.Batch, 5)
	for k := range seq {
		seq[k] = ctx.ScalarBig(ev)
	}
	viaEngine, err := f.ApplySeq(seq)
	if err != nil {
		t.Fatalf("ApplySeq failed: %v", err)
	}
	viaRecurrence, err := f.Exp()
	if err != nil {
		t.Fatalf("Exp failed: %v", err)
	}
	for _, k := range f.Indices() {
		near(t, d1(t, viaEngine, k...), d1(t, viaRecurrence, k...), 1e-30, "engine vs recurrence")
	}
}

func TestApplySeq_ShortSequence(t *testing.T) {
	xs, _ := gotaylor.InitializeFloats(tctx(), 3, 1)
	if _, err := xs[0].ApplySeq([]gotaylor.Batch{tctx().Scalar(1)}); !errors.Is(err, gotaylor.ErrOrderOutOfRange) {
		t.Errorf("short sequence should be OrderOutOfRange, got %v", err)
	}
}

func TestApplySeq_CustomCosh(t *testing.T) {
	ctx := tctx()
	x0 := 0.9
	xs, _ := gotaylor.InitializeFloats(ctx, 3, x0)

	// Attach cosh from scratch: derivatives alternate cosh, sinh.
	e := ctx.Exp(ctx.NewFloat(x0))
	en := ctx.Exp(ctx.NewFloat(-x0))
	two := big.NewFloat(2)
	cosh := new(big.Float).Add(e, en)
	cosh.Quo(cosh, two)
	sinh := new(big.Float).Sub(e, en)
	sinh.Quo(sinh, two)

	seq := []gotaylor.Batch{ctx.ScalarBig(cosh), ctx.ScalarBig(sinh), ctx.ScalarBig(cosh), ctx.ScalarBig(sinh)}
	f, err := xs[0].ApplySeq(seq)
	if err != nil {
		t.Fatalf("ApplySeq failed: %v", err)
	}
	near(t, d1(t, f, 0), math.Cosh(x0), 1e-15, "cosh value")
	near(t, d1(t, f, 1), math.Sinh(x0), 1e-15, "cosh'")
	near(t, d1(t, f, 2), math.Cosh(x0), 1e-15, "cosh''")
	near(t, d1(t, f, 3), math.Sinh(x0), 1e-15, "cosh'''")
}
