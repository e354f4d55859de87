// Package rfc6979 derives deterministic ECDSA nonces as described in RFC 6979
// section 3.2, using HMAC_DRBG over a caller chosen hash.
package rfc6979

import (
	"crypto/hmac"
	"crypto/sha256"
	"hash"

	"github.com/smallyu/go-detecdsa/internal/crypto/scalar"
	"github.com/smallyu/go-detecdsa/pkg/ecc"
)

// MaxCandidates bounds the number of candidates Generate examines, counting
// both rejected values and valid values skipped because of iteration.
const MaxCandidates = 256

// Generate returns the nonce k in [1, n-1] for the private key and digest.
//
// hashFn selects the HMAC hash and defaults to SHA-256.  extra is the
// optional additional data k' of RFC 6979 section 3.6; it is appended to the
// HMAC input as is.  iteration selects which valid candidate of the
// HMAC_DRBG stream to return: 0 is the standard RFC 6979 nonce, 1 the next
// valid candidate, and so on.  Signers use it to retry when a nonce yields
// r = 0 or s = 0.
//
// The same inputs always give the same nonce.  If the stream does not yield
// the requested candidate within MaxCandidates values the error has kind
// ErrNonceGenerationExhausted.
func Generate(hashFn func() hash.Hash, fn *scalar.Field, privKey scalar.Scalar, digest, extra []byte, iteration uint32) (scalar.Scalar, error) {
	if hashFn == nil {
		hashFn = sha256.New
	}
	if privKey.Field() != fn {
		return scalar.Scalar{}, ecc.MakeError(ecc.ErrCurveMismatch, "rfc6979: private key from a different scalar field")
	}
	hlen := hashFn().Size()

	// int2octets(x) || bits2octets(h1) || k'
	x := privKey.Bytes()
	h := fn.HashToScalar(digest).Bytes()
	seed := make([]byte, 0, len(x)+len(h)+len(extra))
	seed = append(seed, x...)
	seed = append(seed, h...)
	seed = append(seed, extra...)
	defer clear(seed)
	clear(x)

	// Step B. V = 0x01 0x01 ... 0x01
	v := make([]byte, hlen)
	for i := range v {
		v[i] = 0x01
	}

	// Step C. K = 0x00 0x00 ... 0x00
	k := make([]byte, hlen)

	// Step D. K = HMAC_K(V || 0x00 || seed)
	k = mac(hashFn, k, v, []byte{0x00}, seed)

	// Step E. V = HMAC_K(V)
	v = mac(hashFn, k, v)

	// Step F. K = HMAC_K(V || 0x01 || seed)
	k = mac(hashFn, k, v, []byte{0x01}, seed)

	// Step G. V = HMAC_K(V)
	v = mac(hashFn, k, v)

	// Step H. Generate candidates until one is in [1, n-1].
	var valid uint32
	tlen := fn.ByteLen()
	t := make([]byte, 0, tlen+hlen)
	defer clear(t)
	for candidates := 0; candidates < MaxCandidates; candidates++ {
		// H1, H2. T = V_1 || V_2 || ... until T holds qlen bits.
		t = t[:0]
		for len(t)*8 < fn.BitLen() {
			v = mac(hashFn, k, v)
			t = append(t, v...)
		}

		// H3. k = bits2int(T)
		kb := fn.Bits2Int(t)
		nonce, err := fn.FromBytes(kb)
		clear(kb)
		if err == nil && !nonce.IsZero() {
			if valid == iteration {
				return nonce, nil
			}
			valid++
		}

		// K = HMAC_K(V || 0x00), V = HMAC_K(V)
		k = mac(hashFn, k, v, []byte{0x00})
		v = mac(hashFn, k, v)
	}
	return scalar.Scalar{}, ecc.MakeError(ecc.ErrNonceGenerationExhausted,
		"rfc6979: no valid nonce within the candidate limit")
}

func mac(hashFn func() hash.Hash, key []byte, parts ...[]byte) []byte {
	m := hmac.New(hashFn, key)
	for _, p := range parts {
		m.Write(p)
	}
	return m.Sum(nil)
}
