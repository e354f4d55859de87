package ecc

import (
	"fmt"
	"math/big"
	"strings"
)

// MaxBits is the largest field prime or group order, in bits, the arithmetic
// backend supports.
const MaxBits = 576

// CurveParams is the configuration bundle describing a short Weierstrass
// curve y^2 = x^3 + a*x + b over the prime field F_p, together with a
// generator of prime order n and the curve cofactor h.
type CurveParams struct {
	Name string
	P    *big.Int // field prime
	A    *big.Int // curve coefficient a, in [0, p)
	B    *big.Int // curve coefficient b, in [0, p)
	Gx   *big.Int // generator x coordinate
	Gy   *big.Int // generator y coordinate
	N    *big.Int // order of the generator
	H    *big.Int // cofactor
}

// Copy returns a deep copy of the parameters.
func (c *CurveParams) Copy() *CurveParams {
	cp := func(v *big.Int) *big.Int {
		if v == nil {
			return nil
		}
		return new(big.Int).Set(v)
	}
	return &CurveParams{
		Name: c.Name,
		P:    cp(c.P),
		A:    cp(c.A),
		B:    cp(c.B),
		Gx:   cp(c.Gx),
		Gy:   cp(c.Gy),
		N:    cp(c.N),
		H:    cp(c.H),
	}
}

// Validate performs the checks that need nothing beyond integer arithmetic:
// primality of p and n, an odd cofactor, ranges of the coefficients and
// generator, a non-singular curve and the generator on the curve.  Checking
// that n*G is the identity requires the group law and is done when a curve is
// instantiated.
func (c *CurveParams) Validate() error {
	for _, f := range []struct {
		name string
		v    *big.Int
	}{{"p", c.P}, {"a", c.A}, {"b", c.B}, {"gx", c.Gx}, {"gy", c.Gy}, {"n", c.N}, {"h", c.H}} {
		if f.v == nil {
			return paramsError("missing parameter %s", f.name)
		}
		if f.v.Sign() < 0 {
			return paramsError("parameter %s is negative", f.name)
		}
	}

	p, n := c.P, c.N
	if p.Cmp(big.NewInt(3)) <= 0 || p.Bit(0) == 0 || !p.ProbablyPrime(20) {
		return paramsError("field modulus %x is not an odd prime > 3", p)
	}
	if n.Cmp(big.NewInt(3)) < 0 || !n.ProbablyPrime(20) {
		return paramsError("group order %x is not an odd prime", n)
	}
	if p.BitLen() > MaxBits || n.BitLen() > MaxBits {
		return paramsError("parameters exceed %d bits", MaxBits)
	}
	if c.H.Sign() == 0 {
		return paramsError("cofactor must be at least 1")
	}
	// The complete projective formulas need a group of odd order.
	if c.H.Bit(0) == 0 {
		return paramsError("cofactor %v is even", c.H)
	}
	for _, v := range []*big.Int{c.A, c.B, c.Gx, c.Gy} {
		if v.Cmp(p) >= 0 {
			return paramsError("coefficient %x is not reduced modulo p", v)
		}
	}

	// Discriminant: 4a^3 + 27b^2 != 0 (mod p).
	a3 := new(big.Int).Exp(c.A, big.NewInt(3), p)
	a3.Lsh(a3, 2)
	b2 := new(big.Int).Mul(c.B, c.B)
	b2.Mul(b2, big.NewInt(27))
	disc := a3.Add(a3, b2)
	if disc.Mod(disc, p).Sign() == 0 {
		return paramsError("curve is singular")
	}

	if !c.IsOnCurve(c.Gx, c.Gy) {
		return paramsError("generator is not on the curve")
	}
	return nil
}

// IsOnCurve reports whether (x, y) satisfies the curve equation.  It works on
// public values only and is meant for parameter validation.
func (c *CurveParams) IsOnCurve(x, y *big.Int) bool {
	p := c.P
	lhs := new(big.Int).Mul(y, y)
	lhs.Mod(lhs, p)

	rhs := new(big.Int).Mul(x, x)
	rhs.Add(rhs, c.A)
	rhs.Mul(rhs, x)
	rhs.Add(rhs, c.B)
	rhs.Mod(rhs, p)

	return lhs.Cmp(rhs) == 0
}

func paramsError(format string, args ...interface{}) error {
	return MakeError(ErrInvalidCurveParams, fmt.Sprintf("curve params: "+format, args...))
}

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("ecc: invalid hex constant " + s)
	}
	return v
}

// Secp256k1 returns the parameters of the SEC 2 secp256k1 curve.
func Secp256k1() *CurveParams {
	return &CurveParams{
		Name: "secp256k1",
		P:    mustHex("fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f"),
		A:    big.NewInt(0),
		B:    big.NewInt(7),
		Gx:   mustHex("79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"),
		Gy:   mustHex("483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8"),
		N:    mustHex("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141"),
		H:    big.NewInt(1),
	}
}

// P224 returns the parameters of the NIST P-224 curve.
func P224() *CurveParams {
	p := mustHex("ffffffffffffffffffffffffffffffff000000000000000000000001")
	return &CurveParams{
		Name: "P-224",
		P:    p,
		A:    new(big.Int).Sub(p, big.NewInt(3)),
		B:    mustHex("b4050a850c04b3abf54132565044b0b7d7bfd8ba270b39432355ffb4"),
		Gx:   mustHex("b70e0cbd6bb4bf7f321390b94a03c1d356c21122343280d6115c1d21"),
		Gy:   mustHex("bd376388b5f723fb4c22dfe6cd4375a05a07476444d5819985007e34"),
		N:    mustHex("ffffffffffffffffffffffffffff16a2e0b8f03e13dd29455c5c2a3d"),
		H:    big.NewInt(1),
	}
}

// P256 returns the parameters of the NIST P-256 (secp256r1) curve.
func P256() *CurveParams {
	p := mustHex("ffffffff00000001000000000000000000000000ffffffffffffffffffffffff")
	return &CurveParams{
		Name: "P-256",
		P:    p,
		A:    new(big.Int).Sub(p, big.NewInt(3)),
		B:    mustHex("5ac635d8aa3a93e7b3ebbd55769886bc651d06b0cc53b0f63bce3c3e27d2604b"),
		Gx:   mustHex("6b17d1f2e12c4247f8bce6e563a440f277037d812deb33a0f4a13945d898c296"),
		Gy:   mustHex("4fe342e2fe1a7f9b8ee7eb4a7c0f9e162bce33576b315ececbb6406837bf51f5"),
		N:    mustHex("ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551"),
		H:    big.NewInt(1),
	}
}

// P384 returns the parameters of the NIST P-384 curve.
func P384() *CurveParams {
	p := mustHex("fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffeffffffff0000000000000000ffffffff")
	return &CurveParams{
		Name: "P-384",
		P:    p,
		A:    new(big.Int).Sub(p, big.NewInt(3)),
		B:    mustHex("b3312fa7e23ee7e4988e056be3f82d19181d9c6efe8141120314088f5013875ac656398d8a2ed19d2a85c8edd3ec2aef"),
		Gx:   mustHex("aa87ca22be8b05378eb1c71ef320ad746e1d3b628ba79b9859f741e082542a385502f25dbf55296c3a545e3872760ab7"),
		Gy:   mustHex("3617de4a96262c6f5d9e98bf9292dc29f8f41dbd289a147ce9da3113b5f0b8c00a60b1ce1d7e819d7a431d7c90ea0e5f"),
		N:    mustHex("ffffffffffffffffffffffffffffffffffffffffffffffffc7634d81f4372ddf581a0db248b0a77aecec196accc52973"),
		H:    big.NewInt(1),
	}
}

// builtin maps lower-cased names and aliases to parameter constructors.
var builtin = map[string]func() *CurveParams{
	"secp256k1":  Secp256k1,
	"p-224":      P224,
	"p224":       P224,
	"secp224r1":  P224,
	"p-256":      P256,
	"p256":       P256,
	"secp256r1":  P256,
	"prime256v1": P256,
	"p-384":      P384,
	"p384":       P384,
	"secp384r1":  P384,
}

// ParamsByName returns a fresh copy of the named built-in parameters.  Lookup
// is case-insensitive and accepts the usual SEC 2 and ANSI aliases.
func ParamsByName(name string) (*CurveParams, error) {
	ctor, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, MakeError(ErrUnknownCurve, fmt.Sprintf("unknown curve %q", name))
	}
	return ctor(), nil
}

// Names returns the canonical names of the built-in curves.
func Names() []string {
	return []string{"secp256k1", "P-224", "P-256", "P-384"}
}
