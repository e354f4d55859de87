// Package modular implements fixed-width arithmetic modulo an odd modulus of
// up to 576 bits.
//
// Values are held in a fixed array of 64-bit limbs and every operation runs a
// number of steps that depends only on the size of the modulus, never on the
// operand values.  Multiplication uses the CIOS Montgomery method; values are
// kept in canonical (non-Montgomery) form between operations so that byte
// conversion, parity and comparison work directly on them.
package modular

import (
	"errors"
	"math/big"
	"math/bits"
)

// MaxLimbs is the number of 64-bit limbs in a Nat.
const MaxLimbs = 9

// Nat is an unsigned integer stored as little-endian 64-bit limbs.  Limbs at
// or above the modulus width are always zero.  Nat is a value type: every
// operation returns a new Nat and never modifies its inputs.
type Nat struct {
	limbs [MaxLimbs]uint64
}

// Modulus holds an odd modulus m together with the precomputed Montgomery
// constants for R = 2^(64*n), where n is the number of limbs in use.
type Modulus struct {
	m     Nat
	n     int    // limbs in use
	bits  int    // bit length of m
	m0inv uint64 // -m^-1 mod 2^64
	rr    Nat    // R^2 mod m
	one   Nat    // R mod m, the Montgomery form of 1
	big   *big.Int
}

var (
	errModulusEven  = errors.New("modular: modulus must be odd")
	errModulusSmall = errors.New("modular: modulus must be at least 3")
	errModulusLarge = errors.New("modular: modulus too large")
)

// NewModulus prepares m for arithmetic.  The setup uses math/big since m is
// public.
func NewModulus(m *big.Int) (*Modulus, error) {
	if m.Cmp(big.NewInt(3)) < 0 {
		return nil, errModulusSmall
	}
	if m.Bit(0) == 0 {
		return nil, errModulusEven
	}
	if m.BitLen() > MaxLimbs*64 {
		return nil, errModulusLarge
	}

	mod := &Modulus{
		bits: m.BitLen(),
		n:    (m.BitLen() + 63) / 64,
		big:  new(big.Int).Set(m),
	}
	mod.m = natFromBig(m)

	// m0inv = -m^-1 mod 2^64.
	word := new(big.Int).Lsh(big.NewInt(1), 64)
	inv := new(big.Int).ModInverse(new(big.Int).SetUint64(mod.m.limbs[0]), word)
	inv.Sub(word, inv)
	mod.m0inv = inv.Uint64()

	r := new(big.Int).Lsh(big.NewInt(1), uint(64*mod.n))
	mod.one = natFromBig(new(big.Int).Mod(r, m))
	rr := new(big.Int).Mul(r, r)
	mod.rr = natFromBig(rr.Mod(rr, m))

	return mod, nil
}

func natFromBig(v *big.Int) Nat {
	var x Nat
	for i, w := range v.Bits() {
		// big.Word is 64 bits on every platform this package targets; the
		// shift keeps it correct on 32-bit ones as well.
		if bits.UintSize == 64 {
			x.limbs[i] = uint64(w)
		} else {
			x.limbs[i/2] |= uint64(w) << (32 * uint(i%2))
		}
	}
	return x
}

// BitLen returns the bit length of the modulus.
func (m *Modulus) BitLen() int { return m.bits }

// ByteLen returns the length of the fixed-width byte encoding of values.
func (m *Modulus) ByteLen() int { return (m.bits + 7) / 8 }

// Big returns a copy of the modulus as a big integer.
func (m *Modulus) Big() *big.Int { return new(big.Int).Set(m.big) }

// Nat returns the modulus itself as a Nat.  It is not a valid element.
func (m *Modulus) Nat() Nat { return m.m }

// Zero returns 0.
func (m *Modulus) Zero() Nat { return Nat{} }

// One returns 1.
func (m *Modulus) One() Nat {
	var x Nat
	x.limbs[0] = 1
	return x
}

// SetUint64 returns v mod m.
func (m *Modulus) SetUint64(v uint64) Nat {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> (8 * i))
	}
	return m.SetBytesReduced(b[:])
}

// FromBig returns v mod m.  It uses math/big and must only be given public
// values.
func (m *Modulus) FromBig(v *big.Int) Nat {
	r := new(big.Int).Mod(v, m.big)
	return natFromBig(r)
}

// BigOf returns x as a big integer.
func (m *Modulus) BigOf(x Nat) *big.Int {
	return new(big.Int).SetBytes(m.Bytes(x))
}

// SetBytes decodes a big-endian value.  It returns false when b is longer than
// ByteLen or encodes a value that is not less than m.  The time taken depends
// only on len(b).
func (m *Modulus) SetBytes(b []byte) (Nat, bool) {
	if len(b) > m.ByteLen() {
		return Nat{}, false
	}
	x := load(b)
	_, borrow := m.subRaw(x, m.m)
	return x, borrow == 1
}

// SetBytesReduced decodes a big-endian value of any length and reduces it
// modulo m.  It shifts the input in one bit at a time so the work depends only
// on len(b).
func (m *Modulus) SetBytesReduced(b []byte) Nat {
	var r, bit Nat
	for _, byt := range b {
		for i := 7; i >= 0; i-- {
			r = m.Add(r, r)
			bit.limbs[0] = uint64(byt>>uint(i)) & 1
			r = m.Add(r, bit)
		}
	}
	return r
}

func load(b []byte) Nat {
	var x Nat
	for i := 0; i < len(b); i++ {
		x.limbs[i/8] |= uint64(b[len(b)-1-i]) << (8 * uint(i%8))
	}
	return x
}

// Bytes returns the fixed-width big-endian encoding of x.
func (m *Modulus) Bytes(x Nat) []byte {
	out := make([]byte, m.ByteLen())
	for i := 0; i < len(out); i++ {
		out[len(out)-1-i] = byte(x.limbs[i/8] >> (8 * uint(i%8)))
	}
	return out
}

// subRaw returns a - b over the modulus width and the final borrow.
func (m *Modulus) subRaw(a, b Nat) (Nat, uint64) {
	var d Nat
	var borrow uint64
	for i := 0; i < m.n; i++ {
		d.limbs[i], borrow = bits.Sub64(a.limbs[i], b.limbs[i], borrow)
	}
	return d, borrow
}

// reduceOnce maps t in [0, 2m) to [0, m).  carry is the bit above the modulus
// width.
func (m *Modulus) reduceOnce(t Nat, carry uint64) Nat {
	d, borrow := m.subRaw(t, m.m)
	// Subtract when t overflowed the width or t >= m.
	need := carry | (borrow ^ 1)
	return Select(need, d, t)
}

// Add returns a + b mod m.
func (m *Modulus) Add(a, b Nat) Nat {
	var s Nat
	var carry uint64
	for i := 0; i < m.n; i++ {
		s.limbs[i], carry = bits.Add64(a.limbs[i], b.limbs[i], carry)
	}
	return m.reduceOnce(s, carry)
}

// Sub returns a - b mod m.
func (m *Modulus) Sub(a, b Nat) Nat {
	d, borrow := m.subRaw(a, b)
	mask := -borrow
	var carry uint64
	for i := 0; i < m.n; i++ {
		d.limbs[i], carry = bits.Add64(d.limbs[i], m.m.limbs[i]&mask, carry)
	}
	return d
}

// Neg returns -a mod m.
func (m *Modulus) Neg(a Nat) Nat {
	return m.Sub(Nat{}, a)
}

// montMul returns a * b * R^-1 mod m.  Both inputs must be less than m.
func (m *Modulus) montMul(a, b Nat) Nat {
	var t [MaxLimbs + 2]uint64
	n := m.n
	for i := 0; i < n; i++ {
		// t += a * b[i]
		var c, cc uint64
		for j := 0; j < n; j++ {
			hi, lo := bits.Mul64(a.limbs[j], b.limbs[i])
			lo, cc = bits.Add64(lo, t[j], 0)
			hi += cc
			lo, cc = bits.Add64(lo, c, 0)
			hi += cc
			t[j] = lo
			c = hi
		}
		t[n], cc = bits.Add64(t[n], c, 0)
		t[n+1] = cc

		// t = (t + u*m) / 2^64 with u chosen to clear the low limb.
		u := t[0] * m.m0inv
		hi, lo := bits.Mul64(u, m.m.limbs[0])
		_, cc = bits.Add64(lo, t[0], 0)
		c = hi + cc
		for j := 1; j < n; j++ {
			hi, lo = bits.Mul64(u, m.m.limbs[j])
			lo, cc = bits.Add64(lo, t[j], 0)
			hi += cc
			lo, cc = bits.Add64(lo, c, 0)
			hi += cc
			t[j-1] = lo
			c = hi
		}
		t[n-1], cc = bits.Add64(t[n], c, 0)
		t[n] = t[n+1] + cc
	}

	var r Nat
	copy(r.limbs[:n], t[:n])
	return m.reduceOnce(r, t[n])
}

// toMont converts a into Montgomery form.
func (m *Modulus) toMont(a Nat) Nat { return m.montMul(a, m.rr) }

// fromMont converts a out of Montgomery form.
func (m *Modulus) fromMont(a Nat) Nat { return m.montMul(a, m.One()) }

// Mul returns a * b mod m.
func (m *Modulus) Mul(a, b Nat) Nat {
	return m.montMul(m.toMont(a), b)
}

// Square returns a^2 mod m.
func (m *Modulus) Square(a Nat) Nat {
	return m.Mul(a, a)
}

// Exp returns a^e mod m for a public big-endian exponent e.  The sequence of
// operations depends on e but not on a.
func (m *Modulus) Exp(a Nat, e []byte) Nat {
	base := m.toMont(a)
	acc := m.one
	for _, byt := range e {
		for i := 7; i >= 0; i-- {
			acc = m.montMul(acc, acc)
			if (byt>>uint(i))&1 == 1 {
				acc = m.montMul(acc, base)
			}
		}
	}
	return m.fromMont(acc)
}

// Inverse returns a^-1 mod m computed as a^(m-2), which requires m to be
// prime.  ok is false when a is zero.
func (m *Modulus) Inverse(a Nat) (inv Nat, ok bool) {
	e := new(big.Int).Sub(m.big, big.NewInt(2))
	inv = m.Exp(a, e.Bytes())
	return inv, a.IsZero() == 0
}

// GreaterThan returns 1 if a > b and 0 otherwise, in constant time.
func (m *Modulus) GreaterThan(a, b Nat) uint64 {
	_, borrow := m.subRaw(b, a)
	return borrow
}

// IsZero returns 1 if x is zero and 0 otherwise, in constant time.
func (x Nat) IsZero() uint64 {
	var acc uint64
	for _, l := range x.limbs {
		acc |= l
	}
	return isZeroWord(acc)
}

// Equal returns 1 if x == y and 0 otherwise, in constant time.
func (x Nat) Equal(y Nat) uint64 {
	var acc uint64
	for i := range x.limbs {
		acc |= x.limbs[i] ^ y.limbs[i]
	}
	return isZeroWord(acc)
}

// IsOdd returns 1 if the low bit of x is set.
func (x Nat) IsOdd() uint64 {
	return x.limbs[0] & 1
}

// Select returns a when cond is 1 and b when cond is 0, in constant time.
func Select(cond uint64, a, b Nat) Nat {
	mask := -cond
	var r Nat
	for i := range r.limbs {
		r.limbs[i] = b.limbs[i] ^ (mask & (a.limbs[i] ^ b.limbs[i]))
	}
	return r
}

func isZeroWord(w uint64) uint64 {
	// (w | -w) has its top bit set exactly when w != 0.
	return ((w | -w) >> 63) ^ 1
}
