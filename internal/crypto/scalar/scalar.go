// Package scalar implements arithmetic modulo the prime order n of a curve's
// generator.  Private keys, nonces and signature components are scalars.
package scalar

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-detecdsa/internal/crypto/modular"
	"github.com/smallyu/go-detecdsa/pkg/ecc"
)

// Field is Z_n for a prime group order n.
type Field struct {
	mod   *modular.Modulus
	halfN modular.Nat // floor(n/2)
	qlen  int         // bit length of n
}

// New returns the scalar field for the prime order n.
func New(n *big.Int) (*Field, error) {
	mod, err := modular.NewModulus(n)
	if err != nil {
		return nil, ecc.MakeError(ecc.ErrInvalidCurveParams, err.Error())
	}
	return &Field{
		mod:   mod,
		halfN: mod.FromBig(new(big.Int).Rsh(n, 1)),
		qlen:  n.BitLen(),
	}, nil
}

// Order returns a copy of n.
func (f *Field) Order() *big.Int { return f.mod.Big() }

// BitLen returns the bit length of n.
func (f *Field) BitLen() int { return f.qlen }

// ByteLen returns the length of the fixed-width encoding of scalars.
func (f *Field) ByteLen() int { return f.mod.ByteLen() }

// Zero returns 0.
func (f *Field) Zero() Scalar { return Scalar{f: f} }

// One returns 1.
func (f *Field) One() Scalar { return Scalar{f: f, v: f.mod.One()} }

// FromUint64 returns v mod n.
func (f *Field) FromUint64(v uint64) Scalar {
	return Scalar{f: f, v: f.mod.SetUint64(v)}
}

// FromBig returns v mod n.  v must be public.
func (f *Field) FromBig(v *big.Int) Scalar {
	return Scalar{f: f, v: f.mod.FromBig(v)}
}

// IsValid reports whether 1 <= v <= n-1.
func (f *Field) IsValid(v *big.Int) bool {
	return v != nil && v.Sign() > 0 && v.Cmp(f.mod.Big()) < 0
}

// FromBytes decodes exactly ByteLen big-endian bytes holding a value below n.
// The check runs in constant time so it is safe for private keys.
func (f *Field) FromBytes(b []byte) (Scalar, error) {
	if len(b) != f.ByteLen() {
		return Scalar{}, ecc.MakeError(ecc.ErrInvalidScalarRange,
			fmt.Sprintf("scalar must be %d bytes, got %d", f.ByteLen(), len(b)))
	}
	v, ok := f.mod.SetBytes(b)
	if !ok {
		return Scalar{}, ecc.MakeError(ecc.ErrInvalidScalarRange,
			"scalar is not less than the group order")
	}
	return Scalar{f: f, v: v}, nil
}

// FromBytesReduced interprets b as a big-endian integer of any length and
// reduces it modulo n.  It is used for x-coordinates.
func (f *Field) FromBytesReduced(b []byte) Scalar {
	return Scalar{f: f, v: f.mod.SetBytesReduced(b)}
}

// Bits2Int implements the bits2int transform of RFC 6979 section 2.3.2: the
// leftmost BitLen(n) bits of b as an integer.  The result may exceed n; it is
// returned as big-endian bytes of length ByteLen.
func (f *Field) Bits2Int(b []byte) []byte {
	out := make([]byte, f.ByteLen())
	if len(b)*8 <= f.qlen {
		copy(out[len(out)-len(b):], b)
		return out
	}

	// Keep the first ByteLen bytes, then drop the surplus low bits.
	copy(out, b[:len(out)])
	if shift := uint(len(out)*8 - f.qlen); shift > 0 {
		var carry byte
		for i := range out {
			next := out[i] << (8 - shift)
			out[i] = out[i]>>shift | carry
			carry = next
		}
	}
	return out
}

// HashToScalar returns bits2int(digest) mod n, the integer z used by ECDSA.
func (f *Field) HashToScalar(digest []byte) Scalar {
	return f.FromBytesReduced(f.Bits2Int(digest))
}

// Scalar is an integer in [0, n).  The zero value is not usable; scalars come
// from a Field.
type Scalar struct {
	f *Field
	v modular.Nat
}

// Field returns the scalar field s belongs to.
func (s Scalar) Field() *Field { return s.f }

func (s Scalar) same(o Scalar) {
	if s.f != o.f {
		panic("scalar: values from different fields")
	}
}

// Add returns s + o.
func (s Scalar) Add(o Scalar) Scalar {
	s.same(o)
	return Scalar{f: s.f, v: s.f.mod.Add(s.v, o.v)}
}

// Sub returns s - o.
func (s Scalar) Sub(o Scalar) Scalar {
	s.same(o)
	return Scalar{f: s.f, v: s.f.mod.Sub(s.v, o.v)}
}

// Mul returns s * o.
func (s Scalar) Mul(o Scalar) Scalar {
	s.same(o)
	return Scalar{f: s.f, v: s.f.mod.Mul(s.v, o.v)}
}

// Neg returns -s.
func (s Scalar) Neg() Scalar {
	return Scalar{f: s.f, v: s.f.mod.Neg(s.v)}
}

// Inv returns s^-1 in constant time, or ErrNotInvertible for zero.
func (s Scalar) Inv() (Scalar, error) {
	inv, ok := s.f.mod.Inverse(s.v)
	if !ok {
		return Scalar{}, ecc.MakeError(ecc.ErrNotInvertible, "scalar: zero has no inverse")
	}
	return Scalar{f: s.f, v: inv}, nil
}

// IsZero reports whether s is zero.
func (s Scalar) IsZero() bool { return s.v.IsZero() == 1 }

// Equal reports whether s and o hold the same value, in constant time.
func (s Scalar) Equal(o Scalar) bool {
	s.same(o)
	return s.v.Equal(o.v) == 1
}

// IsOverHalfOrder reports whether s > n/2, in constant time.
func (s Scalar) IsOverHalfOrder() bool {
	return s.f.mod.GreaterThan(s.v, s.f.halfN) == 1
}

// Select returns a when cond is 1 and b when cond is 0 without branching on
// the scalar values.  Any other cond gives an unspecified result.
func Select(cond int, a, b Scalar) Scalar {
	a.same(b)
	return Scalar{f: a.f, v: modular.Select(uint64(cond), a.v, b.v)}
}

// Bytes returns the fixed-width big-endian encoding of s.
func (s Scalar) Bytes() []byte { return s.f.mod.Bytes(s.v) }

// BigInt returns s as a big integer.  The result is not constant time and
// should be kept away from secrets.
func (s Scalar) BigInt() *big.Int { return s.f.mod.BigOf(s.v) }

// String returns s in hex.
func (s Scalar) String() string {
	if s.f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%x", s.Bytes())
}

// Zero overwrites the value held by s.
func (s *Scalar) Zero() {
	s.v = modular.Nat{}
}
