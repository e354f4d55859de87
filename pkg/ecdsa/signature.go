package ecdsa

import (
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/smallyu/go-detecdsa/internal/crypto/curves"
	"github.com/smallyu/go-detecdsa/internal/crypto/scalar"
	"github.com/smallyu/go-detecdsa/pkg/ecc"
)

// Signature is an ECDSA signature (r, s) with both components in [1, n-1].
// It is immutable once created.
type Signature struct {
	curve *curves.Curve
	r, s  scalar.Scalar
}

// NewSignature builds a signature from its components, which must both lie
// in [1, n-1].
func NewSignature(c *curves.Curve, r, s *big.Int) (*Signature, error) {
	fn := c.Scalars()
	if !fn.IsValid(r) {
		return nil, ecc.MakeError(ecc.ErrInvalidScalarRange, "signature r is not in [1, n-1]")
	}
	if !fn.IsValid(s) {
		return nil, ecc.MakeError(ecc.ErrInvalidScalarRange, "signature s is not in [1, n-1]")
	}
	return &Signature{curve: c, r: fn.FromBig(r), s: fn.FromBig(s)}, nil
}

// ParseSignature decodes the fixed-width r || s form produced by Bytes.
func ParseSignature(c *curves.Curve, b []byte) (*Signature, error) {
	size := c.Scalars().ByteLen()
	if len(b) != 2*size {
		return nil, ecc.MakeError(ecc.ErrInvalidEncoding,
			fmt.Sprintf("signature must be %d bytes, got %d", 2*size, len(b)))
	}
	r := new(big.Int).SetBytes(b[:size])
	s := new(big.Int).SetBytes(b[size:])
	return NewSignature(c, r, s)
}

// ParseDERSignature decodes an ASN.1 DER SEQUENCE { r INTEGER, s INTEGER }.
// Trailing data and non-minimal integer encodings are rejected.
func ParseDERSignature(c *curves.Curve, der []byte) (*Signature, error) {
	var (
		r, s  = new(big.Int), new(big.Int)
		inner cryptobyte.String
	)
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, ecc.MakeError(ecc.ErrInvalidEncoding, "malformed DER signature")
	}
	return NewSignature(c, r, s)
}

// Curve returns the curve the signature was made on.
func (sig *Signature) Curve() *curves.Curve { return sig.curve }

// R returns the r component.
func (sig *Signature) R() *big.Int { return sig.r.BigInt() }

// S returns the s component.
func (sig *Signature) S() *big.Int { return sig.s.BigInt() }

// Bytes returns r || s, each as fixed-width big-endian integers.
func (sig *Signature) Bytes() []byte {
	return append(sig.r.Bytes(), sig.s.Bytes()...)
}

// DER returns the ASN.1 DER encoding of the signature.
func (sig *Signature) DER() []byte {
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(sig.R())
		b.AddASN1BigInt(sig.S())
	})
	return b.BytesOrPanic()
}

// IsLowS reports whether s <= n/2.
func (sig *Signature) IsLowS() bool { return !sig.s.IsOverHalfOrder() }

// Normalize returns the equivalent signature (r, n-s) when s > n/2 and sig
// itself otherwise.  Both forms verify against the same key and digest.
func (sig *Signature) Normalize() *Signature {
	if sig.IsLowS() {
		return sig
	}
	return &Signature{curve: sig.curve, r: sig.r, s: sig.s.Neg()}
}

// Equal reports whether both signatures have the same components.
func (sig *Signature) Equal(o *Signature) bool {
	if sig == nil || o == nil {
		return sig == o
	}
	return sig.curve == o.curve && sig.r.Equal(o.r) && sig.s.Equal(o.s)
}

// String returns the signature as "r || s" hex.
func (sig *Signature) String() string {
	return fmt.Sprintf("%x", sig.Bytes())
}
