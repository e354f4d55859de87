package pointcodec

import (
	"encoding/hex"
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallyu/go-detecdsa/internal/crypto/curves"
	"github.com/smallyu/go-detecdsa/pkg/ecc"
)

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestEncodeGoldenSecp256k1(t *testing.T) {
	c := curves.Secp256k1()
	d, err := c.Scalars().FromBytes(mustHex(t, "1111111111111111111111111111111111111111111111111111111111111111"))
	require.NoError(t, err)
	q := c.ScalarBaseMult(d)

	compressed, err := EncodeCompressed(q)
	require.NoError(t, err)
	assert.Equal(t, "034f355bdcb7cc0af728ef3cceb9615d90684bb5b2ca5f859ab0f0b704075871aa", hex.EncodeToString(compressed))

	uncompressed, err := EncodeUncompressed(q)
	require.NoError(t, err)
	assert.Equal(t, "044f355bdcb7cc0af728ef3cceb9615d90684bb5b2ca5f859ab0f0b704075871aa"+
		"385b6b1b8ead809ca67454d9683fcf2ba03456d6fe2c4abe2b07f0fbdbb2f1c1", hex.EncodeToString(uncompressed))

	for _, enc := range [][]byte{compressed, uncompressed} {
		got, err := Decode(c, enc)
		require.NoError(t, err)
		assert.True(t, got.Equal(q))
	}
}

func TestRoundTripAllCurves(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, c := range []*curves.Curve{curves.Secp256k1(), curves.P224(), curves.P256(), curves.P384()} {
		n := c.Params().N
		for i := 0; i < 5; i++ {
			p := c.ScalarBaseMult(c.Scalars().FromBig(new(big.Int).Rand(rng, n)))
			if p.IsInfinity() {
				continue
			}

			comp, err := EncodeCompressed(p)
			require.NoError(t, err)
			assert.Len(t, comp, CompressedLen(c))
			got, err := Decode(c, comp)
			require.NoError(t, err, c.Name())
			assert.True(t, got.Equal(p), c.Name())

			unc, err := EncodeUncompressed(p)
			require.NoError(t, err)
			assert.Len(t, unc, UncompressedLen(c))
			got, err = Decode(c, unc)
			require.NoError(t, err, c.Name())
			assert.True(t, got.Equal(p), c.Name())

			// The negated point differs only in the compressed prefix.
			negComp, err := EncodeCompressed(p.Neg())
			require.NoError(t, err)
			assert.Equal(t, comp[1:], negComp[1:])
			assert.NotEqual(t, comp[0], negComp[0])
		}
	}
}

func TestDecodeP224PublicKey(t *testing.T) {
	// RFC 6979 A.2.4 public key; P-224 needs Tonelli-Shanks for decompression.
	c := curves.P224()
	x := "00cf08da5ad719e42707fa431292dea11244d64fc51610d94b130d6c"
	y := "eeab6f3debe455e3dbf85416f7030cbd94f34f2d6f232c69f3c1385a"

	want, err := Decode(c, mustHex(t, "04"+x+y))
	require.NoError(t, err)
	got, err := Decode(c, mustHex(t, "02"+x)) // y is even
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	_, err = Decode(c, mustHex(t, "03"+x))
	require.NoError(t, err)
}

func TestDecodeHybrid(t *testing.T) {
	c := curves.Secp256k1()
	g := c.Generator()
	unc, err := EncodeUncompressed(g)
	require.NoError(t, err)

	// Gy is even.
	hybrid := append([]byte{0x06}, unc[1:]...)
	got, err := Decode(c, hybrid)
	require.NoError(t, err)
	assert.True(t, got.Equal(g))

	hybrid[0] = 0x07
	_, err = Decode(c, hybrid)
	assert.True(t, errors.Is(err, ecc.ErrInvalidEncoding))
}

func TestDecodeRejects(t *testing.T) {
	c := curves.Secp256k1()
	g := c.Generator()
	unc, _ := EncodeUncompressed(g)
	comp, _ := EncodeCompressed(g)
	pBytes := c.Params().P.Bytes()

	offCurve := append([]byte{}, unc...)
	offCurve[len(offCurve)-1] ^= 0x01

	// x = 5 has no square root of x^3 + 7.
	noRoot := make([]byte, 33)
	noRoot[0] = 0x02
	noRoot[32] = 5

	tests := []struct {
		name string
		in   []byte
		kind ecc.ErrorKind
	}{
		{"empty", nil, ecc.ErrInvalidEncoding},
		{"infinity", []byte{0x00}, ecc.ErrInvalidEncoding},
		{"unknown marker", append([]byte{0x05}, comp[1:]...), ecc.ErrInvalidEncoding},
		{"short compressed", comp[:32], ecc.ErrInvalidEncoding},
		{"long compressed", append(append([]byte{}, comp...), 0), ecc.ErrInvalidEncoding},
		{"short uncompressed", unc[:64], ecc.ErrInvalidEncoding},
		{"compressed marker with uncompressed length", append([]byte{0x02}, unc[1:]...), ecc.ErrInvalidEncoding},
		{"x not below p", append([]byte{0x02}, pBytes...), ecc.ErrInvalidEncoding},
		{"y not below p", append(append([]byte{0x04}, unc[1:33]...), pBytes...), ecc.ErrInvalidEncoding},
		{"off curve", offCurve, ecc.ErrPointNotOnCurve},
		{"no square root", noRoot, ecc.ErrNoSquareRoot},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(c, tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
		})
	}
}

func TestDecodeNoRootP224(t *testing.T) {
	c := curves.P224()
	b := make([]byte, CompressedLen(c))
	b[0] = 0x03
	b[len(b)-1] = 1 // x = 1 is not the x coordinate of any point
	_, err := Decode(c, b)
	assert.True(t, errors.Is(err, ecc.ErrNoSquareRoot))
}

// TestDecodeCompressedEveryX decompresses every x of y^2 = x^3 + x + 1 over
// F_103 with both markers.  Malformed input never reaches this curve, so every
// failure must be about the point itself, not the encoding.
func TestDecodeCompressedEveryX(t *testing.T) {
	c, err := curves.New(&ecc.CurveParams{
		Name: "toy103",
		P:    big.NewInt(103),
		A:    big.NewInt(1),
		B:    big.NewInt(1),
		Gx:   big.NewInt(72),
		Gy:   big.NewInt(96),
		N:    big.NewInt(29),
		H:    big.NewInt(3),
	})
	require.NoError(t, err)

	decoded := 0
	for x := byte(0); x < 103; x++ {
		for _, marker := range []byte{0x02, 0x03} {
			p, err := Decode(c, []byte{marker, x})
			if err != nil {
				if errors.Is(err, ecc.ErrInvalidEncoding) {
					t.Fatalf("x=%d marker=%#x: %v", x, marker, err)
				}
				assert.True(t, errors.Is(err, ecc.ErrNoSquareRoot) || errors.Is(err, ecc.ErrPointNotOnCurve),
					"x=%d marker=%#x: %v", x, marker, err)
				continue
			}
			decoded++
			assert.Equal(t, marker == 0x03, p.Y().IsOdd())
			assert.Equal(t, int64(x), p.X().BigInt().Int64())
		}
	}
	assert.Equal(t, 86, decoded)
}

func TestEncodeInfinity(t *testing.T) {
	inf := curves.P256().Infinity()
	_, err := EncodeCompressed(inf)
	assert.True(t, errors.Is(err, ecc.ErrInvalidEncoding))
	_, err = EncodeUncompressed(inf)
	assert.True(t, errors.Is(err, ecc.ErrInvalidEncoding))
}

func FuzzDecode(f *testing.F) {
	c := curves.Secp256k1()
	comp, _ := EncodeCompressed(c.Generator())
	unc, _ := EncodeUncompressed(c.Generator())
	f.Add(comp)
	f.Add(unc)
	f.Add([]byte{0x00})
	f.Add([]byte{0x07})

	f.Fuzz(func(t *testing.T, b []byte) {
		p, err := Decode(c, b)
		if err != nil {
			return
		}
		if !p.IsOnCurve() {
			t.Fatalf("decoded point %v is not on the curve", p)
		}
		var again []byte
		if b[0] == 0x02 || b[0] == 0x03 {
			again, err = EncodeCompressed(p)
		} else {
			again, err = EncodeUncompressed(p)
		}
		if err != nil {
			t.Fatalf("re-encode: %v", err)
		}
		// Hybrid inputs re-encode with the uncompressed marker.
		again[0] = b[0]
		assert.Equal(t, b, again)
	})
}
