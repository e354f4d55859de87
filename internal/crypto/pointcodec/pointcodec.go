// Package pointcodec converts curve points to and from the SEC 1 octet
// string forms.
package pointcodec

import (
	"fmt"

	"github.com/smallyu/go-detecdsa/internal/crypto/curves"
	"github.com/smallyu/go-detecdsa/pkg/ecc"
)

// SEC 1 format markers.
const (
	formatCompressedEven byte = 0x02
	formatCompressedOdd  byte = 0x03
	formatUncompressed   byte = 0x04
	formatHybridEven     byte = 0x06
	formatHybridOdd      byte = 0x07
)

// CompressedLen returns the length of a compressed encoding on c.
func CompressedLen(c *curves.Curve) int { return 1 + c.Field().ByteLen() }

// UncompressedLen returns the length of an uncompressed encoding on c.
func UncompressedLen(c *curves.Curve) int { return 1 + 2*c.Field().ByteLen() }

// EncodeUncompressed returns 0x04 || X || Y with fixed-width coordinates.
// The point at infinity has no encoding.
func EncodeUncompressed(p curves.Point) ([]byte, error) {
	if p.IsInfinity() {
		return nil, errInfinity
	}
	out := make([]byte, 0, UncompressedLen(p.Curve()))
	out = append(out, formatUncompressed)
	out = append(out, p.X().Bytes()...)
	out = append(out, p.Y().Bytes()...)
	return out, nil
}

// EncodeCompressed returns 0x02 || X when Y is even and 0x03 || X when Y is
// odd.  The point at infinity has no encoding.
func EncodeCompressed(p curves.Point) ([]byte, error) {
	if p.IsInfinity() {
		return nil, errInfinity
	}
	out := make([]byte, 0, CompressedLen(p.Curve()))
	format := formatCompressedEven
	if p.Y().IsOdd() {
		format = formatCompressedOdd
	}
	out = append(out, format)
	out = append(out, p.X().Bytes()...)
	return out, nil
}

// Decode parses a compressed, uncompressed or hybrid encoding of a point on
// c.  Every successfully decoded point lies on the curve; the point at
// infinity (a lone 0x00) is rejected.
func Decode(c *curves.Curve, b []byte) (curves.Point, error) {
	size := c.Field().ByteLen()
	if len(b) == 0 {
		return curves.Point{}, invalid("empty point encoding")
	}

	switch format := b[0]; format {
	case formatCompressedEven, formatCompressedOdd:
		if len(b) != 1+size {
			return curves.Point{}, invalid(fmt.Sprintf(
				"compressed point must be %d bytes, got %d", 1+size, len(b)))
		}
		return decompress(c, b[1:], format == formatCompressedOdd)

	case formatUncompressed, formatHybridEven, formatHybridOdd:
		if len(b) != 1+2*size {
			return curves.Point{}, invalid(fmt.Sprintf(
				"uncompressed point must be %d bytes, got %d", 1+2*size, len(b)))
		}
		x, err := c.Field().FromBytes(b[1 : 1+size])
		if err != nil {
			return curves.Point{}, err
		}
		y, err := c.Field().FromBytes(b[1+size:])
		if err != nil {
			return curves.Point{}, err
		}
		if format != formatUncompressed && y.IsOdd() != (format == formatHybridOdd) {
			return curves.Point{}, invalid("hybrid point parity does not match y")
		}
		return c.NewPointFromElements(x, y)

	case 0x00:
		return curves.Point{}, errInfinity

	default:
		return curves.Point{}, invalid(fmt.Sprintf("unknown point format 0x%02x", format))
	}
}

// decompress recovers y from x and the requested parity.
func decompress(c *curves.Curve, xb []byte, odd bool) (curves.Point, error) {
	x, err := c.Field().FromBytes(xb)
	if err != nil {
		return curves.Point{}, err
	}
	y, err := c.RHS(x).Sqrt()
	if err != nil {
		return curves.Point{}, err
	}
	if y.IsOdd() != odd {
		y = y.Neg()
	}
	// y = 0 has a single root, which is even.
	if y.IsOdd() != odd {
		return curves.Point{}, ecc.MakeError(ecc.ErrPointNotOnCurve,
			"pointcodec: no point with the requested y parity")
	}
	return c.NewPointFromElements(x, y)
}

func invalid(desc string) error {
	return ecc.MakeError(ecc.ErrInvalidEncoding, "pointcodec: "+desc)
}

var errInfinity = ecc.MakeError(ecc.ErrInvalidEncoding, "pointcodec: the point at infinity has no encoding")
