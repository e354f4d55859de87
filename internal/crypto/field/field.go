package field

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-detecdsa/internal/crypto/modular"
	"github.com/smallyu/go-detecdsa/pkg/ecc"
)

// Field is the prime field F_p that curve coordinates live in.
type Field struct {
	mod *modular.Modulus

	// Exponents used by Sqrt, all derived from the public prime.
	legendreExp []byte // (p-1)/2
	sqrtExp     []byte // (p+1)/4, only when p = 3 mod 4
	tsQ         []byte // odd part q of p-1 = q*2^s
	tsQPlus1    []byte // (q+1)/2
	tsS         int
	tsZ         Element // quadratic non-residue
}

// New returns the field of integers modulo the odd prime p.  Primality is
// the caller's responsibility; curve parameters are validated before they
// reach this point.
func New(p *big.Int) (*Field, error) {
	mod, err := modular.NewModulus(p)
	if err != nil {
		return nil, ecc.MakeError(ecc.ErrInvalidCurveParams, err.Error())
	}
	f := &Field{mod: mod}

	one := big.NewInt(1)
	pm1 := new(big.Int).Sub(p, one)
	f.legendreExp = new(big.Int).Rsh(pm1, 1).Bytes()

	if p.Bit(1) == 1 {
		// p = 3 mod 4
		f.sqrtExp = new(big.Int).Rsh(new(big.Int).Add(p, one), 2).Bytes()
		return f, nil
	}

	q := new(big.Int).Set(pm1)
	for q.Bit(0) == 0 {
		q.Rsh(q, 1)
		f.tsS++
	}
	f.tsQ = q.Bytes()
	f.tsQPlus1 = new(big.Int).Rsh(new(big.Int).Add(q, one), 1).Bytes()

	// The smallest non-residue is tiny for every prime of interest.
	for z := uint64(2); ; z++ {
		cand := f.FromUint64(z)
		if cand.legendre() == -1 {
			f.tsZ = cand
			break
		}
	}
	return f, nil
}

// Modulus returns a copy of p.
func (f *Field) Modulus() *big.Int { return f.mod.Big() }

// BitLen returns the bit length of p.
func (f *Field) BitLen() int { return f.mod.BitLen() }

// ByteLen returns the length of the fixed-width encoding of elements.
func (f *Field) ByteLen() int { return f.mod.ByteLen() }

// Zero returns the additive identity.
func (f *Field) Zero() Element { return Element{f: f} }

// One returns the multiplicative identity.
func (f *Field) One() Element { return Element{f: f, v: f.mod.One()} }

// FromUint64 returns v mod p.
func (f *Field) FromUint64(v uint64) Element {
	return Element{f: f, v: f.mod.SetUint64(v)}
}

// FromBig returns v mod p.  Negative values are reduced into range.  v must
// be public.
func (f *Field) FromBig(v *big.Int) Element {
	return Element{f: f, v: f.mod.FromBig(v)}
}

// FromBytes decodes exactly ByteLen big-endian bytes holding a value below p.
func (f *Field) FromBytes(b []byte) (Element, error) {
	if len(b) != f.ByteLen() {
		return Element{}, ecc.MakeError(ecc.ErrInvalidEncoding,
			fmt.Sprintf("field element must be %d bytes, got %d", f.ByteLen(), len(b)))
	}
	v, ok := f.mod.SetBytes(b)
	if !ok {
		return Element{}, ecc.MakeError(ecc.ErrInvalidEncoding,
			"field element is not less than the field prime")
	}
	return Element{f: f, v: v}, nil
}

// FromBytesReduced decodes big-endian bytes of any length modulo p.
func (f *Field) FromBytesReduced(b []byte) Element {
	return Element{f: f, v: f.mod.SetBytesReduced(b)}
}

// Element is an integer in [0, p).  The zero value is not usable; elements
// come from a Field.
type Element struct {
	f *Field
	v modular.Nat
}

// Field returns the field the element belongs to.
func (e Element) Field() *Field { return e.f }

func (e Element) same(o Element) {
	if e.f != o.f {
		panic("field: elements from different fields")
	}
}

// Add returns e + o.
func (e Element) Add(o Element) Element {
	e.same(o)
	return Element{f: e.f, v: e.f.mod.Add(e.v, o.v)}
}

// Sub returns e - o.
func (e Element) Sub(o Element) Element {
	e.same(o)
	return Element{f: e.f, v: e.f.mod.Sub(e.v, o.v)}
}

// Mul returns e * o.
func (e Element) Mul(o Element) Element {
	e.same(o)
	return Element{f: e.f, v: e.f.mod.Mul(e.v, o.v)}
}

// Square returns e^2.
func (e Element) Square() Element {
	return Element{f: e.f, v: e.f.mod.Square(e.v)}
}

// Neg returns -e.
func (e Element) Neg() Element {
	return Element{f: e.f, v: e.f.mod.Neg(e.v)}
}

// Inv returns e^-1.  It runs in constant time and fails only for zero.
func (e Element) Inv() (Element, error) {
	inv, ok := e.f.mod.Inverse(e.v)
	if !ok {
		return Element{}, ecc.MakeError(ecc.ErrNotInvertible, "field: zero has no inverse")
	}
	return Element{f: e.f, v: inv}, nil
}

// Exp returns e^k for a public big-endian exponent k.
func (e Element) Exp(k []byte) Element {
	return Element{f: e.f, v: e.f.mod.Exp(e.v, k)}
}

// IsZero reports whether e is zero.
func (e Element) IsZero() bool { return e.v.IsZero() == 1 }

// Equal reports whether e and o hold the same value.
func (e Element) Equal(o Element) bool {
	e.same(o)
	return e.v.Equal(o.v) == 1
}

// IsOdd reports whether the low bit of e is set.
func (e Element) IsOdd() bool { return e.v.IsOdd() == 1 }

// Select returns a when cond is 1 and b when cond is 0 without branching on
// the element values.  Any other cond gives an unspecified result.
func Select(cond int, a, b Element) Element {
	a.same(b)
	return Element{f: a.f, v: modular.Select(uint64(cond), a.v, b.v)}
}

// Bytes returns the fixed-width big-endian encoding of e.
func (e Element) Bytes() []byte { return e.f.mod.Bytes(e.v) }

// BigInt returns e as a big integer.
func (e Element) BigInt() *big.Int { return e.f.mod.BigOf(e.v) }

// String returns e in hex.
func (e Element) String() string {
	if e.f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%x", e.Bytes())
}

// legendre returns 1 for non-zero squares, -1 for non-squares and 0 for zero.
func (e Element) legendre() int {
	if e.IsZero() {
		return 0
	}
	if e.Exp(e.f.legendreExp).Equal(e.f.One()) {
		return 1
	}
	return -1
}

// IsSquare reports whether e has a square root in the field.
func (e Element) IsSquare() bool { return e.legendre() >= 0 }

// Sqrt returns a square root of e, or ErrNoSquareRoot when e is a quadratic
// non-residue.  Which of the two roots is returned is unspecified.  Sqrt is
// used when decoding public points and is not constant time for primes
// p = 1 mod 4.
func (e Element) Sqrt() (Element, error) {
	f := e.f
	if e.IsZero() {
		return e, nil
	}

	if f.sqrtExp != nil {
		r := e.Exp(f.sqrtExp)
		if !r.Square().Equal(e) {
			return Element{}, errNoSquareRoot
		}
		return r, nil
	}

	if e.legendre() != 1 {
		return Element{}, errNoSquareRoot
	}

	// Tonelli-Shanks.
	one := f.One()
	m := f.tsS
	c := f.tsZ.Exp(f.tsQ)
	t := e.Exp(f.tsQ)
	r := e.Exp(f.tsQPlus1)
	for !t.Equal(one) {
		// Find the least i with t^(2^i) = 1.
		i := 0
		for tt := t; !tt.Equal(one); tt = tt.Square() {
			i++
			if i == m {
				return Element{}, errNoSquareRoot
			}
		}
		b := c
		for j := 0; j < m-i-1; j++ {
			b = b.Square()
		}
		m = i
		c = b.Square()
		t = t.Mul(c)
		r = r.Mul(b)
	}
	return r, nil
}

var errNoSquareRoot = ecc.MakeError(ecc.ErrNoSquareRoot, "field: element is not a quadratic residue")
