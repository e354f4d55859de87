package rfc6979

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallyu/go-detecdsa/internal/crypto/curves"
	"github.com/smallyu/go-detecdsa/pkg/ecc"
)

func hexBytes(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func sha256Sum(msg string) []byte {
	h := sha256.Sum256([]byte(msg))
	return h[:]
}

func sha512Sum(msg string) []byte {
	h := sha512.Sum512([]byte(msg))
	return h[:]
}

func TestVectors(t *testing.T) {
	tests := []struct {
		name   string
		curve  *curves.Curve
		key    string
		hashFn func() hash.Hash
		digest []byte
		k      string
	}{
		{
			name:   "P-224 SHA-256 sample",
			curve:  curves.P224(),
			key:    "f220266e1105bfe3083e03ec7a3a654651f45e37167e88600bf257c1",
			hashFn: sha256.New,
			digest: sha256Sum("sample"),
			k:      "ad3029e0278f80643de33917ce6908c70a8ff50a411f06e41dedfcdc",
		},
		{
			name:   "P-256 SHA-256 sample",
			curve:  curves.P256(),
			key:    "c9afa9d845ba75166b5c215767b1d6934e50c3db36e89b127b8a622b120f6721",
			hashFn: sha256.New,
			digest: sha256Sum("sample"),
			k:      "a6e3c57dd01abe90086538398355dd4c3b17aa873382b0f24d6129493d8aad60",
		},
		{
			name:   "P-256 SHA-256 test",
			curve:  curves.P256(),
			key:    "c9afa9d845ba75166b5c215767b1d6934e50c3db36e89b127b8a622b120f6721",
			hashFn: sha256.New,
			digest: sha256Sum("test"),
			k:      "d16b6ae827f17175e040871a1c7ec3500192c4c92677336ec2537acaee0008e0",
		},
		{
			name:   "P-256 SHA-512 sample",
			curve:  curves.P256(),
			key:    "c9afa9d845ba75166b5c215767b1d6934e50c3db36e89b127b8a622b120f6721",
			hashFn: sha512.New,
			digest: sha512Sum("sample"),
			k:      "5fa81c63109badb88c1f367b47da606da28cad69aa22c4fe6ad7df73a7173aa5",
		},
		{
			name:   "P-384 SHA-256 sample",
			curve:  curves.P384(),
			key:    "6b9d3dad2e1b8c1c05b19875b6659f4de23c3b667bf297ba9aa47740787137d896d5724e4c70a825f872c9ea60d2edf5",
			hashFn: sha256.New,
			digest: sha256Sum("sample"),
			k:      "180ae9f9aec5438a44bc159a1fcb277c7be54fa20e7cf404b490650a8acc414e375572342863c899f9f2edf9747a9b60",
		},
		{
			name:   "secp256k1 hello world",
			curve:  curves.Secp256k1(),
			key:    "1111111111111111111111111111111111111111111111111111111111111111",
			hashFn: nil, // SHA-256 by default
			digest: sha256Sum("hello world"),
			k:      "f570ad4c47a441d4eb5db4724203655e96a7fd131abe23234dea32c34382e074",
		},
		{
			name:   "secp256k1 key 1",
			curve:  curves.Secp256k1(),
			key:    "0000000000000000000000000000000000000000000000000000000000000001",
			hashFn: sha256.New,
			digest: sha256Sum("Satoshi Nakamoto"),
			k:      "8f8a276c19f4149656b280621e358cce24f5f52542772691ee69063b74f15d15",
		},
		{
			name:   "secp256k1 key n-1",
			curve:  curves.Secp256k1(),
			key:    "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364140",
			hashFn: sha256.New,
			digest: sha256Sum("Satoshi Nakamoto"),
			k:      "33a19b60e25fb6f4435af53a3d42d493644827367e6453928554f43e49aa6f90",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fn := tc.curve.Scalars()
			priv, err := fn.FromBytes(hexBytes(t, tc.key))
			require.NoError(t, err)

			k, err := Generate(tc.hashFn, fn, priv, tc.digest, nil, 0)
			require.NoError(t, err)
			assert.Equal(t, tc.k, hex.EncodeToString(k.Bytes()))
		})
	}
}

func TestIterationStream(t *testing.T) {
	fn := curves.Secp256k1().Scalars()
	priv, err := fn.FromBytes(bytes.Repeat([]byte{0x11}, 32))
	require.NoError(t, err)
	digest := sha256Sum("hello world")

	want := []string{
		"f570ad4c47a441d4eb5db4724203655e96a7fd131abe23234dea32c34382e074",
		"4c184fca0e37e9c70e53f76c6f6c51982399a988b226d9cfa33a2a1c158595a7",
		"e0f50657149c71fdacd184dc498e44e28d1ee61fc1fd54eaf328d80ff32409dd",
	}
	for i, w := range want {
		k, err := Generate(sha256.New, fn, priv, digest, nil, uint32(i))
		require.NoError(t, err)
		assert.Equal(t, w, hex.EncodeToString(k.Bytes()), "iteration %d", i)
	}
}

func TestAdditionalData(t *testing.T) {
	fn := curves.Secp256k1().Scalars()
	priv, err := fn.FromBytes(bytes.Repeat([]byte{0x11}, 32))
	require.NoError(t, err)
	digest := sha256Sum("hello world")

	k, err := Generate(sha256.New, fn, priv, digest, bytes.Repeat([]byte{0xaa}, 32), 0)
	require.NoError(t, err)
	assert.Equal(t, "002f66c82f73f9abb0ed4c442c0ab86bb6bd8d6884d70d5caa22035cec38eef7", hex.EncodeToString(k.Bytes()))

	plain, err := Generate(sha256.New, fn, priv, digest, nil, 0)
	require.NoError(t, err)
	assert.False(t, plain.Equal(k))
}

// TestMatchesDecred compares against the secp256k1 nonce generator of dcrd,
// including its extra data and iteration inputs.
func TestMatchesDecred(t *testing.T) {
	fn := curves.Secp256k1().Scalars()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 25; i++ {
		keyBytes := make([]byte, 32)
		rng.Read(keyBytes)
		priv, err := fn.FromBytes(keyBytes)
		if err != nil {
			continue
		}
		digest := make([]byte, 32)
		rng.Read(digest)
		extra := make([]byte, 32)
		rng.Read(extra)

		iteration := uint32(i % 3)
		for _, ext := range [][]byte{nil, extra} {
			want := secp256k1.NonceRFC6979(keyBytes, digest, ext, nil, iteration)
			wantBytes := want.Bytes()

			got, err := Generate(sha256.New, fn, priv, digest, ext, iteration)
			require.NoError(t, err)
			if !bytes.Equal(wantBytes[:], got.Bytes()) {
				t.Fatalf("nonce mismatch for key %x digest %x extra %x iteration %d:\n%s",
					keyBytes, digest, ext, iteration, spew.Sdump(wantBytes[:], got.Bytes()))
			}
		}
	}
}

func TestDeterministic(t *testing.T) {
	fn := curves.P256().Scalars()
	priv := fn.FromUint64(123456789)
	digest := sha256Sum("determinism")

	k1, err := Generate(nil, fn, priv, digest, nil, 0)
	require.NoError(t, err)
	k2, err := Generate(nil, fn, priv, digest, nil, 0)
	require.NoError(t, err)
	assert.True(t, k1.Equal(k2))

	k3, err := Generate(nil, fn, priv, sha256Sum("determinism!"), nil, 0)
	require.NoError(t, err)
	assert.False(t, k1.Equal(k3))
}

// zeroHash is a broken hash whose output is always zero, which makes every
// HMAC_DRBG candidate zero.
type zeroHash struct{ written int }

func (z *zeroHash) Write(p []byte) (int, error) {
	z.written += len(p)
	return len(p), nil
}

func (z *zeroHash) Sum(b []byte) []byte { return append(b, make([]byte, 32)...) }
func (z *zeroHash) Reset()              { z.written = 0 }
func (z *zeroHash) Size() int           { return 32 }
func (z *zeroHash) BlockSize() int      { return 64 }

func TestExhaustion(t *testing.T) {
	fn := curves.Secp256k1().Scalars()
	newZero := func() hash.Hash { return &zeroHash{} }

	_, err := Generate(newZero, fn, fn.One(), sha256Sum("x"), nil, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ecc.ErrNonceGenerationExhausted))

	// Skipping past the candidate limit also exhausts the stream.
	_, err = Generate(sha256.New, fn, fn.One(), sha256Sum("x"), nil, MaxCandidates)
	assert.True(t, errors.Is(err, ecc.ErrNonceGenerationExhausted))
}

func TestCurveMismatch(t *testing.T) {
	priv := curves.P256().Scalars().One()
	_, err := Generate(nil, curves.Secp256k1().Scalars(), priv, sha256Sum("x"), nil, 0)
	assert.True(t, errors.Is(err, ecc.ErrCurveMismatch))
}
