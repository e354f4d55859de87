package curves

import (
	"crypto/subtle"

	"github.com/smallyu/go-detecdsa/internal/crypto/field"
	"github.com/smallyu/go-detecdsa/internal/crypto/scalar"
)

// projectivePoint is (X : Y : Z) with x = X/Z and y = Y/Z.  The point at
// infinity is (0 : 1 : 0).
type projectivePoint struct {
	x, y, z field.Element
}

func (c *Curve) identity() projectivePoint {
	return projectivePoint{x: c.fp.Zero(), y: c.fp.One(), z: c.fp.Zero()}
}

func (p Point) projective() projectivePoint {
	if p.inf {
		return p.c.identity()
	}
	return projectivePoint{x: p.x, y: p.y, z: p.c.fp.One()}
}

func (c *Curve) affine(p projectivePoint) Point {
	zinv, err := p.z.Inv()
	if err != nil {
		return c.Infinity()
	}
	return Point{c: c, x: p.x.Mul(zinv), y: p.y.Mul(zinv)}
}

// add returns p + q using the complete addition formula for arbitrary a
// (Renes, Costello, Batina 2016, algorithm 1).  It has no exceptional cases
// on prime order curves, so the same sequence of field operations runs for
// every input, including doubling and the identity.
func (c *Curve) add(p, q projectivePoint) projectivePoint {
	a, b3 := c.a, c.b3
	var x3, y3, z3 field.Element

	t0 := p.x.Mul(q.x)
	t1 := p.y.Mul(q.y)
	t2 := p.z.Mul(q.z)
	t3 := p.x.Add(p.y)
	t4 := q.x.Add(q.y)
	t3 = t3.Mul(t4)
	t4 = t0.Add(t1)
	t3 = t3.Sub(t4)
	t4 = p.x.Add(p.z)
	t5 := q.x.Add(q.z)
	t4 = t4.Mul(t5)
	t5 = t0.Add(t2)
	t4 = t4.Sub(t5)
	t5 = p.y.Add(p.z)
	x3 = q.y.Add(q.z)
	t5 = t5.Mul(x3)
	x3 = t1.Add(t2)
	t5 = t5.Sub(x3)
	z3 = a.Mul(t4)
	x3 = b3.Mul(t2)
	z3 = x3.Add(z3)
	x3 = t1.Sub(z3)
	z3 = t1.Add(z3)
	y3 = x3.Mul(z3)
	t1 = t0.Add(t0)
	t1 = t1.Add(t0)
	t2 = a.Mul(t2)
	t4 = b3.Mul(t4)
	t1 = t1.Add(t2)
	t2 = t0.Sub(t2)
	t2 = a.Mul(t2)
	t4 = t4.Add(t2)
	t0 = t1.Mul(t4)
	y3 = y3.Add(t0)
	t0 = t5.Mul(t4)
	x3 = x3.Mul(t3)
	x3 = x3.Sub(t0)
	t0 = t3.Mul(t1)
	z3 = t5.Mul(z3)
	z3 = z3.Add(t0)

	return projectivePoint{x: x3, y: y3, z: z3}
}

// double returns 2p using the complete doubling formula for arbitrary a
// (Renes, Costello, Batina 2016, algorithm 3).
func (c *Curve) double(p projectivePoint) projectivePoint {
	a, b3 := c.a, c.b3
	var x3, y3, z3 field.Element

	t0 := p.x.Square()
	t1 := p.y.Square()
	t2 := p.z.Square()
	t3 := p.x.Mul(p.y)
	t3 = t3.Add(t3)
	z3 = p.x.Mul(p.z)
	z3 = z3.Add(z3)
	x3 = a.Mul(z3)
	y3 = b3.Mul(t2)
	y3 = x3.Add(y3)
	x3 = t1.Sub(y3)
	y3 = t1.Add(y3)
	y3 = x3.Mul(y3)
	x3 = t3.Mul(x3)
	z3 = b3.Mul(z3)
	t2 = a.Mul(t2)
	t3 = t0.Sub(t2)
	t3 = a.Mul(t3)
	t3 = t3.Add(z3)
	z3 = t0.Add(t0)
	t0 = z3.Add(t0)
	t0 = t0.Add(t2)
	t0 = t0.Mul(t3)
	y3 = y3.Add(t0)
	t2 = p.y.Mul(p.z)
	t2 = t2.Add(t2)
	t0 = t2.Mul(t3)
	x3 = x3.Sub(t0)
	z3 = t2.Mul(t1)
	z3 = z3.Add(z3)
	z3 = z3.Add(z3)

	return projectivePoint{x: x3, y: y3, z: z3}
}

func selectProjective(cond int, a, b projectivePoint) projectivePoint {
	return projectivePoint{
		x: field.Select(cond, a.x, b.x),
		y: field.Select(cond, a.y, b.y),
		z: field.Select(cond, a.z, b.z),
	}
}

// ScalarMult returns k*p in constant time.  It uses a fixed 4-bit window
// over every bit of the scalar encoding, so the sequence of field operations
// depends only on the size of the group order, never on k.
func (p Point) ScalarMult(k scalar.Scalar) Point {
	c := p.c
	if k.Field() != c.fn {
		panic("curves: scalar from a different curve")
	}
	kb := k.Bytes()
	defer clear(kb)

	// 1. table[i] = i*p for i in [0, 15]
	var table [16]projectivePoint
	table[0] = c.identity()
	table[1] = p.projective()
	for i := 2; i < 16; i++ {
		table[i] = c.add(table[i-1], table[1])
	}

	// 2. For every nibble from the top: acc = 16*acc + table[nibble]
	acc := c.identity()
	for _, b := range kb {
		for _, w := range [2]byte{b >> 4, b & 0x0f} {
			acc = c.double(acc)
			acc = c.double(acc)
			acc = c.double(acc)
			acc = c.double(acc)

			// 3. Constant-time lookup of table[w]
			sel := c.identity()
			for j := 1; j < 16; j++ {
				sel = selectProjective(subtle.ConstantTimeByteEq(byte(j), w), table[j], sel)
			}
			acc = c.add(acc, sel)
		}
	}
	return c.affine(acc)
}

// ScalarMultVarTime returns k*p with plain double-and-add.  It leaks k
// through timing and must only be used with public scalars.
func (p Point) ScalarMultVarTime(k scalar.Scalar) Point {
	if k.Field() != p.c.fn {
		panic("curves: scalar from a different curve")
	}
	return p.mulBytesVarTime(k.Bytes())
}

// mulBytesVarTime returns k*p for a big-endian integer k of any size.
func (p Point) mulBytesVarTime(k []byte) Point {
	c := p.c
	q := p.projective()
	acc := c.identity()
	for _, b := range k {
		for i := 7; i >= 0; i-- {
			acc = c.double(acc)
			if (b>>uint(i))&1 == 1 {
				acc = c.add(acc, q)
			}
		}
	}
	return c.affine(acc)
}
