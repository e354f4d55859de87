package ecdsa

import (
	"errors"
	"fmt"
	"hash"
	"math/big"

	"github.com/smallyu/go-detecdsa/internal/crypto/curves"
	"github.com/smallyu/go-detecdsa/internal/crypto/rfc6979"
	"github.com/smallyu/go-detecdsa/internal/crypto/scalar"
	"github.com/smallyu/go-detecdsa/pkg/ecc"
)

const (
	// MaxSignAttempts bounds the nonces tried when r or s come out zero.
	MaxSignAttempts = 64

	// DefaultDigestSize is the digest length required when
	// Options.DigestSize is zero.
	DefaultDigestSize = 32

	// AnyDigestSize accepts digests of every non-empty length.  Digests
	// longer than the group order are truncated to its bit length.
	AnyDigestSize = -1
)

// Options configures a Signer.  The zero value signs with SHA-256 nonces,
// leaves s as computed and requires 32-byte digests.
type Options struct {
	// Hash is the HMAC hash used for nonce derivation.  Nil means SHA-256.
	Hash func() hash.Hash

	// LowS replaces s by n-s whenever s > n/2.
	LowS bool

	// RejectHighS makes verification fail for s > n/2.
	RejectHighS bool

	// DigestSize is the exact digest length accepted, DefaultDigestSize when
	// zero, or AnyDigestSize.
	DigestSize int

	// ExtraData is mixed into nonce derivation as the additional input k'
	// of RFC 6979 section 3.6.
	ExtraData []byte
}

// Signer signs and verifies digests on one curve.  A Signer holds no secret
// state and is safe for concurrent use.
type Signer struct {
	Curve   *curves.Curve
	Options Options

	// nonce overrides RFC 6979 derivation in tests.
	nonce func(d scalar.Scalar, digest []byte, attempt uint32) (scalar.Scalar, error)
}

// NewSigner returns a signer for c.
func NewSigner(c *curves.Curve, opts Options) *Signer {
	return &Signer{Curve: c, Options: opts}
}

func (sg *Signer) checkDigest(digest []byte) error {
	if len(digest) == 0 {
		return ecc.MakeError(ecc.ErrInvalidDigest, "digest is empty")
	}
	size := sg.Options.DigestSize
	if size == 0 {
		size = DefaultDigestSize
	}
	if size != AnyDigestSize && len(digest) != size {
		return ecc.MakeError(ecc.ErrInvalidDigest,
			fmt.Sprintf("digest must be %d bytes, got %d", size, len(digest)))
	}
	return nil
}

func (sg *Signer) checkCurve(c *curves.Curve) error {
	if sg.Curve == nil {
		return ecc.MakeError(ecc.ErrInvalidCurveParams, "signer has no curve")
	}
	if c != sg.Curve {
		return ecc.MakeError(ecc.ErrCurveMismatch,
			fmt.Sprintf("key is on %s, signer is on %s", c.Name(), sg.Curve.Name()))
	}
	return nil
}

func (sg *Signer) deriveNonce(d scalar.Scalar, digest []byte, attempt uint32) (scalar.Scalar, error) {
	if sg.nonce != nil {
		return sg.nonce(d, digest, attempt)
	}
	return rfc6979.Generate(sg.Options.Hash, sg.Curve.Scalars(), d, digest, sg.Options.ExtraData, attempt)
}

// Sign returns the deterministic signature of digest under priv.
//
// The nonce is the RFC 6979 value for (priv, digest).  If it produces r = 0
// or s = 0 the next candidate of the same HMAC_DRBG stream is used, for at
// most MaxSignAttempts attempts.
func (sg *Signer) Sign(priv *PrivateKey, digest []byte) (*Signature, error) {
	if priv == nil {
		return nil, ecc.MakeError(ecc.ErrInvalidScalarRange, "nil private key")
	}
	if err := sg.checkCurve(priv.Curve()); err != nil {
		return nil, err
	}
	if err := sg.checkDigest(digest); err != nil {
		return nil, err
	}
	d, err := priv.scalar()
	if err != nil {
		return nil, err
	}

	z := sg.Curve.Scalars().HashToScalar(digest)
	for attempt := uint32(0); attempt < MaxSignAttempts; attempt++ {
		// 1. k = RFC 6979 nonce
		k, err := sg.deriveNonce(d, digest, attempt)
		if err != nil {
			return nil, err
		}
		if sig := sg.signWithNonce(d, z, &k); sig != nil {
			return sig, nil
		}
	}
	return nil, ecc.MakeError(ecc.ErrSignatureRetryExhausted,
		fmt.Sprintf("no valid signature after %d nonces", MaxSignAttempts))
}

// signWithNonce returns the signature for nonce k, or nil when k gives r = 0
// or s = 0.  k is wiped on every path.
func (sg *Signer) signWithNonce(d, z scalar.Scalar, k *scalar.Scalar) *Signature {
	defer k.Zero()
	c := sg.Curve
	fn := c.Scalars()

	// 2. R = k * G, r = R.x mod n
	rp := c.ScalarBaseMult(*k)
	if rp.IsInfinity() {
		return nil
	}
	r := fn.FromBytesReduced(rp.X().Bytes())
	if r.IsZero() {
		return nil
	}

	// 3. s = k^-1 * (z + r*d) mod n
	kinv, err := k.Inv()
	if err != nil {
		return nil
	}
	defer kinv.Zero()
	s := kinv.Mul(z.Add(r.Mul(d)))
	if s.IsZero() {
		return nil
	}

	// 4. Optional low-s normalization.
	if sg.Options.LowS {
		high := 0
		if s.IsOverHalfOrder() {
			high = 1
		}
		s = scalar.Select(high, s.Neg(), s)
	}
	return &Signature{curve: c, r: r, s: s}
}

// Verify reports whether sig is a valid signature of digest under pub.  It
// never fails with an error: malformed or mismatched inputs simply do not
// verify.
func (sg *Signer) Verify(pub *PublicKey, digest []byte, sig *Signature) bool {
	return sg.VerifyStrict(pub, digest, sig) == nil
}

// VerifyRaw is Verify for signature components that have not been range
// checked.  r or s outside [1, n-1] do not verify.
func (sg *Signer) VerifyRaw(pub *PublicKey, digest []byte, r, s *big.Int) bool {
	if sg.Curve == nil {
		return false
	}
	sig, err := NewSignature(sg.Curve, r, s)
	if err != nil {
		return false
	}
	return sg.Verify(pub, digest, sig)
}

// VerifyStrict is Verify with a reason: nil when sig is valid, otherwise an
// error whose kind says why it was rejected.
func (sg *Signer) VerifyStrict(pub *PublicKey, digest []byte, sig *Signature) error {
	if pub == nil || sig == nil {
		return ecc.MakeError(ecc.ErrInvalidSignature, "nil public key or signature")
	}
	if err := sg.checkCurve(pub.Curve()); err != nil {
		return err
	}
	if err := sg.checkCurve(sig.curve); err != nil {
		return err
	}
	if err := sg.checkDigest(digest); err != nil {
		return err
	}
	if sig.r.IsZero() || sig.s.IsZero() {
		return ecc.MakeError(ecc.ErrInvalidScalarRange, "signature component is zero")
	}
	if sg.Options.RejectHighS && !sig.IsLowS() {
		return ecc.MakeError(ecc.ErrInvalidScalarRange, "signature s is above n/2")
	}

	c := sg.Curve
	fn := c.Scalars()

	// 1. w = s^-1, u1 = z*w, u2 = r*w
	w, err := sig.s.Inv()
	if err != nil {
		return err
	}
	z := fn.HashToScalar(digest)
	u1 := z.Mul(w)
	u2 := sig.r.Mul(w)

	// 2. R = u1*G + u2*Q
	rp := c.DoubleScalarMultVarTime(u1, c.Generator(), u2, pub.q)
	if rp.IsInfinity() {
		return ecc.MakeError(ecc.ErrInvalidSignature, "signature does not verify")
	}

	// 3. Accept iff R.x mod n == r
	if !fn.FromBytesReduced(rp.X().Bytes()).Equal(sig.r) {
		return ecc.MakeError(ecc.ErrInvalidSignature, "signature does not verify")
	}
	return nil
}

// IsVerificationFailure reports whether err came from a signature that was
// well formed but did not verify.
func IsVerificationFailure(err error) bool {
	return errors.Is(err, ecc.ErrInvalidSignature)
}
