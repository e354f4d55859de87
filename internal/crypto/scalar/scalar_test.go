package scalar

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallyu/go-detecdsa/pkg/ecc"
)

func newField(t *testing.T, params *ecc.CurveParams) *Field {
	t.Helper()
	f, err := New(params.N)
	require.NoError(t, err)
	return f
}

func TestScalarArithmetic(t *testing.T) {
	n := ecc.Secp256k1().N
	f := newField(t, ecc.Secp256k1())
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		a, b := new(big.Int).Rand(rng, n), new(big.Int).Rand(rng, n)
		x, y := f.FromBig(a), f.FromBig(b)

		want := new(big.Int).Add(a, b)
		assert.Equal(t, 0, want.Mod(want, n).Cmp(x.Add(y).BigInt()))
		want = new(big.Int).Sub(a, b)
		assert.Equal(t, 0, want.Mod(want, n).Cmp(x.Sub(y).BigInt()))
		want = new(big.Int).Mul(a, b)
		assert.Equal(t, 0, want.Mod(want, n).Cmp(x.Mul(y).BigInt()))
		assert.True(t, x.Add(x.Neg()).IsZero())

		if !x.IsZero() {
			inv, err := x.Inv()
			require.NoError(t, err)
			assert.True(t, inv.Mul(x).Equal(f.One()))
		}
	}

	_, err := f.Zero().Inv()
	assert.True(t, errors.Is(err, ecc.ErrNotInvertible))
}

func TestIsValid(t *testing.T) {
	n := ecc.P256().N
	f := newField(t, ecc.P256())

	assert.False(t, f.IsValid(nil))
	assert.False(t, f.IsValid(big.NewInt(0)))
	assert.False(t, f.IsValid(big.NewInt(-1)))
	assert.True(t, f.IsValid(big.NewInt(1)))
	assert.True(t, f.IsValid(new(big.Int).Sub(n, big.NewInt(1))))
	assert.False(t, f.IsValid(n))
	assert.False(t, f.IsValid(new(big.Int).Add(n, big.NewInt(1))))
}

func TestFromBytes(t *testing.T) {
	n := ecc.Secp256k1().N
	f := newField(t, ecc.Secp256k1())

	nm1 := new(big.Int).Sub(n, big.NewInt(1)).FillBytes(make([]byte, 32))
	s, err := f.FromBytes(nm1)
	require.NoError(t, err)
	assert.Equal(t, nm1, s.Bytes())

	for _, b := range [][]byte{
		n.FillBytes(make([]byte, 32)),
		new(big.Int).Add(n, big.NewInt(7)).FillBytes(make([]byte, 32)),
		make([]byte, 31),
		make([]byte, 33),
	} {
		_, err := f.FromBytes(b)
		assert.True(t, errors.Is(err, ecc.ErrInvalidScalarRange), "input %x", b)
	}
}

func TestFromBytesReduced(t *testing.T) {
	n := ecc.Secp256k1().N
	f := newField(t, ecc.Secp256k1())

	// n+5 reduces to 5.
	b := new(big.Int).Add(n, big.NewInt(5)).FillBytes(make([]byte, 32))
	assert.Equal(t, int64(5), f.FromBytesReduced(b).BigInt().Int64())
}

func TestIsOverHalfOrder(t *testing.T) {
	n := ecc.Secp256k1().N
	f := newField(t, ecc.Secp256k1())
	half := new(big.Int).Rsh(n, 1)

	assert.False(t, f.Zero().IsOverHalfOrder())
	assert.False(t, f.One().IsOverHalfOrder())
	assert.False(t, f.FromBig(half).IsOverHalfOrder())
	assert.True(t, f.FromBig(new(big.Int).Add(half, big.NewInt(1))).IsOverHalfOrder())
	assert.True(t, f.FromBig(new(big.Int).Sub(n, big.NewInt(1))).IsOverHalfOrder())

	// s and n-s fall on opposite sides of the half order.
	s := f.FromBig(new(big.Int).SetBytes([]byte("an arbitrary scalar value")))
	assert.NotEqual(t, s.IsOverHalfOrder(), s.Neg().IsOverHalfOrder())
}

func TestBits2Int(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, params := range []*ecc.CurveParams{ecc.Secp256k1(), ecc.P224(), ecc.P256(), ecc.P384()} {
		f := newField(t, params)
		qlen := params.N.BitLen()
		for _, size := range []int{1, 20, 28, 32, 48, 64} {
			b := make([]byte, size)
			rng.Read(b)

			want := new(big.Int).SetBytes(b)
			if size*8 > qlen {
				want.Rsh(want, uint(size*8-qlen))
			}
			got := new(big.Int).SetBytes(f.Bits2Int(b))
			assert.Equal(t, 0, want.Cmp(got), "%s len %d", params.Name, size)
			assert.Len(t, f.Bits2Int(b), f.ByteLen())

			z := f.HashToScalar(b)
			assert.Equal(t, 0, want.Mod(want, params.N).Cmp(z.BigInt()), "%s len %d", params.Name, size)
		}
	}
}

func TestBits2IntSampleDigest(t *testing.T) {
	// SHA-256("sample") truncated to the 224-bit order of P-224.
	h1, _ := new(big.Int).SetString("af2bdbe1aa9b6ec1e2ade1d694f41fc71a831d0268e9891562113d8a62add1bf", 16)
	f := newField(t, ecc.P224())
	got := f.Bits2Int(h1.Bytes())
	want, _ := new(big.Int).SetString("af2bdbe1aa9b6ec1e2ade1d694f41fc71a831d0268e9891562113d8a", 16)
	assert.Equal(t, want.FillBytes(make([]byte, 28)), got)
}

func TestSelectAndZero(t *testing.T) {
	f := newField(t, ecc.P256())
	a, b := f.FromUint64(3), f.FromUint64(4)
	assert.True(t, Select(1, a, b).Equal(a))
	assert.True(t, Select(0, a, b).Equal(b))

	a.Zero()
	assert.True(t, a.IsZero())
	assert.Equal(t, "<nil>", Scalar{}.String())
}
