package ecc

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// paramsFile is the on-disk form of a curve parameter bundle.  Integers are
// strings so that values wider than 64 bits survive TOML decoding; they accept
// a 0x prefix for hex, otherwise decimal.
//
//	name = "secp256k1"
//	p    = "0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f"
//	a    = "0"
//	b    = "7"
//	gx   = "0x79be66..."
//	gy   = "0x483ada..."
//	n    = "0xffffff..."
//	h    = "1"
type paramsFile struct {
	Name string `toml:"name"`
	P    string `toml:"p"`
	A    string `toml:"a"`
	B    string `toml:"b"`
	Gx   string `toml:"gx"`
	Gy   string `toml:"gy"`
	N    string `toml:"n"`
	H    string `toml:"h"`
}

// ParseParams decodes and validates a TOML curve parameter bundle.  Unknown
// keys are rejected.  A missing cofactor defaults to 1; a negative a is
// reduced modulo p so that "-3" can be written for the NIST curves.
func ParseParams(data string) (*CurveParams, error) {
	var f paramsFile
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("decode curve params: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, paramsError("unknown keys %v", undecoded)
	}
	return f.params()
}

// LoadParams reads a TOML curve parameter bundle from disk.
func LoadParams(path string) (*CurveParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curve params: %w", err)
	}
	params, err := ParseParams(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return params, nil
}

// Resolve returns built-in parameters when ref names a known curve and
// otherwise treats ref as the path of a TOML parameter file.
func Resolve(ref string) (*CurveParams, error) {
	if params, err := ParamsByName(ref); err == nil {
		return params, nil
	}
	if strings.HasSuffix(ref, ".toml") {
		return LoadParams(ref)
	}
	return nil, MakeError(ErrUnknownCurve, fmt.Sprintf("unknown curve %q", ref))
}

// MarshalTOML encodes the parameters in the format accepted by ParseParams.
func (c *CurveParams) MarshalTOML() ([]byte, error) {
	hex := func(v *big.Int) string {
		if v == nil {
			return ""
		}
		return "0x" + v.Text(16)
	}
	var sb strings.Builder
	err := toml.NewEncoder(&sb).Encode(paramsFile{
		Name: c.Name,
		P:    hex(c.P),
		A:    hex(c.A),
		B:    hex(c.B),
		Gx:   hex(c.Gx),
		Gy:   hex(c.Gy),
		N:    hex(c.N),
		H:    hex(c.H),
	})
	if err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func (f *paramsFile) params() (*CurveParams, error) {
	if f.Name == "" {
		return nil, paramsError("missing name")
	}
	if f.H == "" {
		f.H = "1"
	}
	out := &CurveParams{Name: f.Name}
	for _, field := range []struct {
		key string
		src string
		dst **big.Int
	}{
		{"p", f.P, &out.P},
		{"a", f.A, &out.A},
		{"b", f.B, &out.B},
		{"gx", f.Gx, &out.Gx},
		{"gy", f.Gy, &out.Gy},
		{"n", f.N, &out.N},
		{"h", f.H, &out.H},
	} {
		if field.src == "" {
			return nil, paramsError("missing parameter %s", field.key)
		}
		v, ok := parseInt(field.src)
		if !ok {
			return nil, paramsError("parameter %s: invalid integer %q", field.key, field.src)
		}
		*field.dst = v
	}
	// Accept negative coefficients and reduce them into [0, p).
	if out.P.Sign() > 0 {
		out.A.Mod(out.A, out.P)
		out.B.Mod(out.B, out.P)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// parseInt accepts an optionally signed hex integer with a 0x prefix or a
// decimal one.
func parseInt(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	base := 10
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		base, s = 16, rest
	} else if rest, ok := strings.CutPrefix(s, "0X"); ok {
		base, s = 16, rest
	}
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return nil, false
	}
	return new(big.Int).SetString(sign+s, base)
}
