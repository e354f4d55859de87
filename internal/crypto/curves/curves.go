// Package curves implements the group of points of a short Weierstrass curve
// y^2 = x^3 + a*x + b over a prime field.
package curves

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/smallyu/go-detecdsa/internal/crypto/field"
	"github.com/smallyu/go-detecdsa/internal/crypto/scalar"
	"github.com/smallyu/go-detecdsa/pkg/ecc"
)

// Curve is an instantiated curve: validated parameters plus the base and
// scalar fields built from them.  A Curve is immutable and safe for
// concurrent use.
type Curve struct {
	params *ecc.CurveParams
	fp     *field.Field
	fn     *scalar.Field

	a, b, b3 field.Element
	g        Point
}

// New validates params and builds a curve from them.  On top of
// CurveParams.Validate it checks that n*G is the point at infinity.
func New(params *ecc.CurveParams) (*Curve, error) {
	if params == nil {
		return nil, ecc.MakeError(ecc.ErrInvalidCurveParams, "curve params: nil")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params = params.Copy()

	fp, err := field.New(params.P)
	if err != nil {
		return nil, err
	}
	fn, err := scalar.New(params.N)
	if err != nil {
		return nil, err
	}

	c := &Curve{
		params: params,
		fp:     fp,
		fn:     fn,
		a:      fp.FromBig(params.A),
		b:      fp.FromBig(params.B),
	}
	c.b3 = c.b.Add(c.b).Add(c.b)
	c.g = Point{c: c, x: fp.FromBig(params.Gx), y: fp.FromBig(params.Gy)}

	if !c.g.mulBytesVarTime(params.N.Bytes()).IsInfinity() {
		return nil, ecc.MakeError(ecc.ErrInvalidCurveParams,
			"curve params: generator does not have order n")
	}
	return c, nil
}

var (
	builtinMu     sync.Mutex
	builtinCurves = make(map[string]*Curve)
)

// ByName returns the built-in curve registered under name or one of its
// aliases.  Curves are built once and shared.
func ByName(name string) (*Curve, error) {
	params, err := ecc.ParamsByName(name)
	if err != nil {
		return nil, err
	}

	builtinMu.Lock()
	defer builtinMu.Unlock()
	if c, ok := builtinCurves[params.Name]; ok {
		return c, nil
	}
	c, err := New(params)
	if err != nil {
		return nil, err
	}
	builtinCurves[params.Name] = c
	return c, nil
}

func mustBuiltin(name string) *Curve {
	c, err := ByName(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Secp256k1 returns the secp256k1 curve.
func Secp256k1() *Curve { return mustBuiltin("secp256k1") }

// P224 returns the NIST P-224 curve.
func P224() *Curve { return mustBuiltin("P-224") }

// P256 returns the NIST P-256 curve.
func P256() *Curve { return mustBuiltin("P-256") }

// P384 returns the NIST P-384 curve.
func P384() *Curve { return mustBuiltin("P-384") }

// Name returns the curve name.
func (c *Curve) Name() string { return c.params.Name }

// Params returns a copy of the curve parameters.
func (c *Curve) Params() *ecc.CurveParams { return c.params.Copy() }

// Field returns the base field F_p.
func (c *Curve) Field() *field.Field { return c.fp }

// Scalars returns the scalar field Z_n.
func (c *Curve) Scalars() *scalar.Field { return c.fn }

// Generator returns the base point G.
func (c *Curve) Generator() Point { return c.g }

// Infinity returns the point at infinity.
func (c *Curve) Infinity() Point { return Point{c: c, inf: true} }

// NewPoint returns the affine point (x, y).  It fails with ErrPointNotOnCurve
// when a coordinate is outside [0, p) or the pair does not satisfy the curve
// equation.
func (c *Curve) NewPoint(x, y *big.Int) (Point, error) {
	p := c.params.P
	if x == nil || y == nil || x.Sign() < 0 || y.Sign() < 0 || x.Cmp(p) >= 0 || y.Cmp(p) >= 0 {
		return Point{}, ecc.MakeError(ecc.ErrPointNotOnCurve, "point coordinate is not a field element")
	}
	return c.NewPointFromElements(c.fp.FromBig(x), c.fp.FromBig(y))
}

// NewPointFromElements returns the affine point (x, y) built from field
// elements of this curve.
func (c *Curve) NewPointFromElements(x, y field.Element) (Point, error) {
	if x.Field() != c.fp || y.Field() != c.fp {
		return Point{}, ecc.MakeError(ecc.ErrCurveMismatch, "coordinates belong to another field")
	}
	pt := Point{c: c, x: x, y: y}
	if !pt.IsOnCurve() {
		return Point{}, ecc.MakeError(ecc.ErrPointNotOnCurve,
			fmt.Sprintf("point (%v, %v) is not on %s", x, y, c.Name()))
	}
	return pt, nil
}

// RHS returns x^3 + a*x + b.
func (c *Curve) RHS(x field.Element) field.Element {
	return x.Square().Add(c.a).Mul(x).Add(c.b)
}

// ScalarBaseMult returns k*G in constant time.
func (c *Curve) ScalarBaseMult(k scalar.Scalar) Point {
	return c.g.ScalarMult(k)
}

// DoubleScalarMultVarTime returns k1*P1 + k2*P2 using interleaved
// (Straus-Shamir) double-and-add.  It leaks the scalars through timing and
// must only be used with public values, as in signature verification.
func (c *Curve) DoubleScalarMultVarTime(k1 scalar.Scalar, p1 Point, k2 scalar.Scalar, p2 Point) Point {
	c.check(p1)
	c.check(p2)
	b1, b2 := k1.Bytes(), k2.Bytes()

	q1, q2 := p1.projective(), p2.projective()
	q12 := c.add(q1, q2)

	acc := c.identity()
	for i := 0; i < len(b1)*8; i++ {
		acc = c.double(acc)
		bit1 := (b1[i/8] >> (7 - uint(i%8))) & 1
		bit2 := (b2[i/8] >> (7 - uint(i%8))) & 1
		switch {
		case bit1 == 1 && bit2 == 1:
			acc = c.add(acc, q12)
		case bit1 == 1:
			acc = c.add(acc, q1)
		case bit2 == 1:
			acc = c.add(acc, q2)
		}
	}
	return c.affine(acc)
}

func (c *Curve) check(p Point) {
	if p.c != c {
		panic("curves: point from a different curve")
	}
}

// Point is a point on a Curve in affine coordinates, or the point at
// infinity.  Points are values; every operation returns a new Point.  Every
// non-infinity Point produced by this package satisfies the curve equation.
type Point struct {
	c    *Curve
	x, y field.Element
	inf  bool
}

// Curve returns the curve p lies on.
func (p Point) Curve() *Curve { return p.c }

// IsInfinity reports whether p is the point at infinity.
func (p Point) IsInfinity() bool { return p.inf }

// X returns the affine x coordinate.  It must not be called on the point at
// infinity.
func (p Point) X() field.Element { return p.x }

// Y returns the affine y coordinate.  It must not be called on the point at
// infinity.
func (p Point) Y() field.Element { return p.y }

// XY returns the affine coordinates as big integers, or nil for the point at
// infinity.
func (p Point) XY() (x, y *big.Int) {
	if p.inf {
		return nil, nil
	}
	return p.x.BigInt(), p.y.BigInt()
}

// IsOnCurve reports whether p satisfies the curve equation.  The point at
// infinity is on every curve.
func (p Point) IsOnCurve() bool {
	if p.inf {
		return true
	}
	return p.y.Square().Equal(p.c.RHS(p.x))
}

// InPrimeSubgroup reports whether n*p is the point at infinity.  On curves
// with cofactor 1 every point on the curve passes.
func (p Point) InPrimeSubgroup() bool {
	if !p.IsOnCurve() {
		return false
	}
	if p.c.params.H.Cmp(big.NewInt(1)) == 0 {
		return true
	}
	return p.mulBytesVarTime(p.c.params.N.Bytes()).IsInfinity()
}

// Equal reports whether p and q are the same point on the same curve.
func (p Point) Equal(q Point) bool {
	if p.c != q.c {
		return false
	}
	if p.inf || q.inf {
		return p.inf == q.inf
	}
	return p.x.Equal(q.x) && p.y.Equal(q.y)
}

// Neg returns -p.
func (p Point) Neg() Point {
	if p.inf {
		return p
	}
	return Point{c: p.c, x: p.x, y: p.y.Neg()}
}

// Add returns p + q using the affine chord rule.  It handles every case:
// either operand at infinity, q = p and q = -p.
func (p Point) Add(q Point) Point {
	p.c.check(q)
	switch {
	case p.inf:
		return q
	case q.inf:
		return p
	}

	if p.x.Equal(q.x) {
		if p.y.Equal(q.y) {
			return p.Double()
		}
		// q = -p
		return p.c.Infinity()
	}

	// 1. lambda = (y2 - y1) / (x2 - x1)
	den, _ := q.x.Sub(p.x).Inv() // non-zero, x1 != x2
	lambda := q.y.Sub(p.y).Mul(den)

	// 2. x3 = lambda^2 - x1 - x2
	x3 := lambda.Square().Sub(p.x).Sub(q.x)

	// 3. y3 = lambda * (x1 - x3) - y1
	y3 := lambda.Mul(p.x.Sub(x3)).Sub(p.y)

	return Point{c: p.c, x: x3, y: y3}
}

// Double returns 2p using the affine tangent rule.
func (p Point) Double() Point {
	if p.inf || p.y.IsZero() {
		return p.c.Infinity()
	}

	// 1. lambda = (3*x^2 + a) / (2*y)
	x2 := p.x.Square()
	num := x2.Add(x2).Add(x2).Add(p.c.a)
	den, _ := p.y.Add(p.y).Inv() // non-zero, y != 0 and p is odd
	lambda := num.Mul(den)

	// 2. x3 = lambda^2 - 2x
	x3 := lambda.Square().Sub(p.x).Sub(p.x)

	// 3. y3 = lambda * (x - x3) - y
	y3 := lambda.Mul(p.x.Sub(x3)).Sub(p.y)

	return Point{c: p.c, x: x3, y: y3}
}

// String returns the point as "(x, y)" in hex, or "infinity".
func (p Point) String() string {
	if p.c == nil {
		return "<nil>"
	}
	if p.inf {
		return "infinity"
	}
	return fmt.Sprintf("(%v, %v)", p.x, p.y)
}
