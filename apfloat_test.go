package gotaylor_test

import (
	"errors"
	"math"
	"math/big"
	"testing"

	gotaylor "github.com/njchilds90/go-taylor"
)

// helper: |a - b| < 2^-bits on big floats
func bigNear(t *testing.T, got, want *big.Float, bits int, what string) {
	t.Helper()
	d := new(big.Float).Sub(got, want)
	if d.Sign() == 0 {
		return
	}
	if d.MantExp(nil) >= -bits {
		t.Errorf("%s: want %v, got %v (diff %v)", what, want, got, d)
	}
}

func TestContext_DefaultPrecision(t *testing.T) {
	if p := gotaylor.NewContext(0).Prec(); p != gotaylor.DefaultPrec {
		t.Errorf("want default precision %d, got %d", gotaylor.DefaultPrec, p)
	}
}

func TestContext_Pi(t *testing.T) {
	ctx := gotaylor.NewContext(256)
	pi, _ := ctx.Pi().Float64()
	near(t, pi, math.Pi, 1e-15, "pi")
}

func TestContext_PiCopiesAreIndependent(t *testing.T) {
	ctx := gotaylor.NewContext(128)
	first := ctx.Pi()
	first.SetInt64(0)
	again, _ := ctx.Pi().Float64()
	near(t, again, math.Pi, 1e-15, "pi after mutating an earlier result")
}

func TestContext_ExpLogRoundtrip(t *testing.T) {
	ctx := gotaylor.NewContext(256)
	x := ctx.NewFloat(1.375)
	back, err := ctx.Log(ctx.Exp(x))
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	bigNear(t, back, x, 250, "log(exp(x))")
}

func TestContext_LogDomain(t *testing.T) {
	ctx := gotaylor.NewContext(128)
	if _, err := ctx.Log(ctx.NewFloat(-2)); !errors.Is(err, gotaylor.ErrDomain) {
		t.Errorf("log(-2) should be DomainError, got %v", err)
	}
	if _, err := ctx.Log(ctx.NewFloat(0)); !errors.Is(err, gotaylor.ErrDomain) {
		t.Errorf("log(0) should be DomainError, got %v", err)
	}
}

func TestContext_SinCosAgainstStdlib(t *testing.T) {
	ctx := gotaylor.NewContext(128)
	for _, x := range []float64{-7.25, -1, 0, 0.5, 3.1, 42.0} {
		s, err := ctx.Sin(ctx.NewFloat(x))
		if err != nil {
			t.Fatalf("Sin(%v) failed: %v", x, err)
		}
		c, err := ctx.Cos(ctx.NewFloat(x))
		if err != nil {
			t.Fatalf("Cos(%v) failed: %v", x, err)
		}
		sf, _ := s.Float64()
		cf, _ := c.Float64()
		near(t, sf, math.Sin(x), 1e-14, "sin")
		near(t, cf, math.Cos(x), 1e-14, "cos")
	}
}

func TestContext_AtanAsinAgainstStdlib(t *testing.T) {
	ctx := gotaylor.NewContext(128)
	for _, x := range []float64{-3, -0.9, -0.1, 0, 0.3, 0.99} {
		a, err := ctx.Atan(ctx.NewFloat(x))
		if err != nil {
			t.Fatalf("Atan(%v) failed: %v", x, err)
		}
		af, _ := a.Float64()
		near(t, af, math.Atan(x), 1e-14, "atan")
	}
	for _, x := range []float64{-1, -0.5, 0, 0.5, 1} {
		a, err := ctx.Asin(ctx.NewFloat(x))
		if err != nil {
			t.Fatalf("Asin(%v) failed: %v", x, err)
		}
		af, _ := a.Float64()
		near(t, af, math.Asin(x), 1e-14, "asin")
	}
	if _, err := ctx.Asin(ctx.NewFloat(1.5)); !errors.Is(err, gotaylor.ErrDomain) {
		t.Errorf("asin(1.5) should be DomainError, got %v", err)
	}
}

func TestContext_PowDomain(t *testing.T) {
	ctx := gotaylor.NewContext(128)
	if _, err := ctx.Pow(ctx.NewFloat(-2), ctx.NewFloat(0.5)); !errors.Is(err, gotaylor.ErrDomain) {
		t.Errorf("(-2)^0.5 should be DomainError, got %v", err)
	}
	if _, err := ctx.Pow(ctx.NewFloat(0), ctx.NewFloat(-1)); !errors.Is(err, gotaylor.ErrDomain) {
		t.Errorf("0^-1 should be DomainError, got %v", err)
	}
	z, err := ctx.Pow(ctx.NewFloat(0), ctx.NewFloat(2))
	if err != nil || z.Sign() != 0 {
		t.Errorf("0^2 should be 0, got %v, %v", z, err)
	}
}

func TestContext_SqrtDomain(t *testing.T) {
	ctx := gotaylor.NewContext(128)
	if _, err := ctx.Sqrt(ctx.NewFloat(-1)); !errors.Is(err, gotaylor.ErrDomain) {
		t.Errorf("sqrt(-1) should be DomainError, got %v", err)
	}
	r, err := ctx.Sqrt(ctx.NewFloat(2))
	if err != nil {
		t.Fatalf("sqrt(2) failed: %v", err)
	}
	rf, _ := r.Float64()
	near(t, rf, math.Sqrt2, 1e-15, "sqrt(2)")
}

func TestContext_LambertWResidual(t *testing.T) {
	ctx := gotaylor.NewContext(192)
	for _, x := range []float64{-0.3, -0.05, 0.2, 1, 5, 100} {
		w, err := ctx.LambertW(ctx.NewFloat(x), 0)
		if err != nil {
			t.Fatalf("LambertW(%v, 0) failed: %v", x, err)
		}
		res := new(big.Float).Mul(w, ctx.Exp(w))
		bigNear(t, res, ctx.NewFloat(x), 150, "w*e^w residual")
	}
	for _, x := range []float64{-0.35, -0.2, -0.01} {
		w, err := ctx.LambertW(ctx.NewFloat(x), -1)
		if err != nil {
			t.Fatalf("LambertW(%v, -1) failed: %v", x, err)
		}
		res := new(big.Float).Mul(w, ctx.Exp(w))
		bigNear(t, res, ctx.NewFloat(x), 150, "branch -1 residual")
	}
}

func TestContext_LambertWErrors(t *testing.T) {
	ctx := gotaylor.NewContext(128)
	if _, err := ctx.LambertW(ctx.NewFloat(1), 3); !errors.Is(err, gotaylor.ErrBranch) {
		t.Errorf("branch 3 should be BranchError, got %v", err)
	}
	if _, err := ctx.LambertW(ctx.NewFloat(-1), 0); !errors.Is(err, gotaylor.ErrDomain) {
		t.Errorf("x < -1/e should be DomainError, got %v", err)
	}
	if _, err := ctx.LambertW(ctx.NewFloat(0.5), -1); !errors.Is(err, gotaylor.ErrDomain) {
		t.Errorf("branch -1 at positive x should be DomainError, got %v", err)
	}
}

func TestContext_ParseFloat(t *testing.T) {
	ctx := gotaylor.NewContext(128)
	v, err := ctx.ParseFloat("2.5e-1")
	if err != nil {
		t.Fatalf("ParseFloat failed: %v", err)
	}
	vf, _ := v.Float64()
	near(t, vf, 0.25, 0, "parsed literal")
	if _, err := ctx.ParseFloat("not-a-number"); err == nil {
		t.Error("invalid literal should fail")
	}
}

func TestBatch_Accessors(t *testing.T) {
	ctx := gotaylor.NewContext(128)
	b := ctx.BatchOf(1, 2, 3)
	if b.Len() != 3 {
		t.Fatalf("want 3 points, got %d", b.Len())
	}
	if b.IsScalar() {
		t.Error("rank-1 batch should not be scalar")
	}
	if !ctx.Scalar(4).IsScalar() {
		t.Error("Scalar batch should be scalar")
	}
	vs := b.Float64s()
	for i, want := range []float64{1, 2, 3} {
		near(t, vs[i], want, 0, "batch value")
	}
	got, _ := b.At(1).Float64()
	near(t, got, 2, 0, "At")
	if shape := b.Shape(); len(shape) != 1 || shape[0] != 3 {
		t.Errorf("want shape [3], got %v", shape)
	}
}

func TestBatch_NewBatchShapeCheck(t *testing.T) {
	ctx := gotaylor.NewContext(128)
	vals := []*big.Float{ctx.NewFloat(1), ctx.NewFloat(2)}
	if _, err := ctx.NewBatch(vals, []int{3}); !errors.Is(err, gotaylor.ErrShapeMismatch) {
		t.Errorf("2 values for shape [3] should be ShapeMismatch, got %v", err)
	}
	b, err := ctx.NewBatch(vals, []int{2, 1})
	if err != nil {
		t.Fatalf("NewBatch failed: %v", err)
	}
	if shape := b.Shape(); len(shape) != 2 {
		t.Errorf("want rank-2 shape, got %v", shape)
	}
}
