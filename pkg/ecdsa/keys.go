// Package ecdsa provides deterministic ECDSA signing and verification over the
// short Weierstrass curves of this module.
//
// Nonces are derived with RFC 6979, so signing the same digest with the same
// key always produces the same signature.  Secret scalars are handled with
// constant-time arithmetic throughout.
package ecdsa

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/smallyu/go-detecdsa/internal/crypto/curves"
	"github.com/smallyu/go-detecdsa/internal/crypto/pointcodec"
	"github.com/smallyu/go-detecdsa/internal/crypto/scalar"
	"github.com/smallyu/go-detecdsa/pkg/ecc"
)

// PrivateKey is a secret scalar d in [1, n-1] together with its public key.
type PrivateKey struct {
	d      scalar.Scalar
	pub    PublicKey
	zeroed bool
}

// PublicKey is the curve point Q = d*G.
type PublicKey struct {
	q curves.Point
}

// NewPrivateKey builds a private key from its fixed-width big-endian
// encoding.  The value must lie in [1, n-1]; nothing is reduced or clamped.
func NewPrivateKey(c *curves.Curve, b []byte) (*PrivateKey, error) {
	d, err := c.Scalars().FromBytes(b)
	if err != nil {
		return nil, err
	}
	if d.IsZero() {
		return nil, ecc.MakeError(ecc.ErrInvalidScalarRange, "private key must not be zero")
	}
	return &PrivateKey{
		d:   d,
		pub: PublicKey{q: c.ScalarBaseMult(d)},
	}, nil
}

// PrivateKeyFromHex parses a hex encoded private key.
func PrivateKeyFromHex(c *curves.Curve, s string) (*PrivateKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ecc.MakeError(ecc.ErrInvalidEncoding, fmt.Sprintf("private key hex: %v", err))
	}
	defer clear(b)
	return NewPrivateKey(c, b)
}

// GenerateKey returns a uniformly random private key read from r, or from
// crypto/rand when r is nil.
func GenerateKey(c *curves.Curve, r io.Reader) (*PrivateKey, error) {
	if r == nil {
		r = rand.Reader
	}
	fn := c.Scalars()
	b := make([]byte, fn.ByteLen())
	defer clear(b)

	// Rejection sampling over the leftmost BitLen(n) bits.
	for i := 0; i < 128; i++ {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}
		kb := fn.Bits2Int(b)
		key, err := NewPrivateKey(c, kb)
		clear(kb)
		if err == nil {
			return key, nil
		}
	}
	return nil, ecc.MakeError(ecc.ErrInvalidScalarRange, "generate key: random source produced no valid scalar")
}

// Curve returns the curve the key belongs to.
func (k *PrivateKey) Curve() *curves.Curve { return k.pub.q.Curve() }

// PublicKey returns the public key for k.
func (k *PrivateKey) PublicKey() *PublicKey {
	pub := k.pub
	return &pub
}

// Bytes returns the fixed-width big-endian encoding of the secret scalar.
// The caller should clear the result when done with it.
func (k *PrivateKey) Bytes() []byte { return k.d.Bytes() }

// Zero wipes the secret scalar.  The key cannot sign afterwards.
func (k *PrivateKey) Zero() {
	k.d.Zero()
	k.zeroed = true
}

func (k *PrivateKey) scalar() (scalar.Scalar, error) {
	if k.zeroed {
		return scalar.Scalar{}, ecc.MakeError(ecc.ErrInvalidScalarRange, "private key has been zeroed")
	}
	return k.d, nil
}

// NewPublicKey decodes a compressed, uncompressed or hybrid SEC 1 encoding.
// Points outside the prime order subgroup are rejected.
func NewPublicKey(c *curves.Curve, b []byte) (*PublicKey, error) {
	q, err := pointcodec.Decode(c, b)
	if err != nil {
		return nil, err
	}
	return PublicKeyFromPoint(q)
}

// PublicKeyFromHex decodes a hex encoded SEC 1 public key.
func PublicKeyFromHex(c *curves.Curve, s string) (*PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ecc.MakeError(ecc.ErrInvalidEncoding, fmt.Sprintf("public key hex: %v", err))
	}
	return NewPublicKey(c, b)
}

// PublicKeyFromPoint wraps a curve point as a public key.
func PublicKeyFromPoint(q curves.Point) (*PublicKey, error) {
	if q.Curve() == nil || q.IsInfinity() {
		return nil, ecc.MakeError(ecc.ErrInvalidEncoding, "public key is the point at infinity")
	}
	if !q.InPrimeSubgroup() {
		return nil, ecc.MakeError(ecc.ErrPointNotOnCurve, "public key is not in the prime order subgroup")
	}
	return &PublicKey{q: q}, nil
}

// Curve returns the curve the key belongs to.
func (p *PublicKey) Curve() *curves.Curve { return p.q.Curve() }

// Point returns Q.
func (p *PublicKey) Point() curves.Point { return p.q }

// SerializeCompressed returns the 0x02/0x03 SEC 1 form.
func (p *PublicKey) SerializeCompressed() []byte {
	b, _ := pointcodec.EncodeCompressed(p.q) // never infinity
	return b
}

// SerializeUncompressed returns the 0x04 SEC 1 form.
func (p *PublicKey) SerializeUncompressed() []byte {
	b, _ := pointcodec.EncodeUncompressed(p.q) // never infinity
	return b
}

// Equal reports whether p and o are the same point on the same curve.
func (p *PublicKey) Equal(o *PublicKey) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.q.Equal(o.q)
}
