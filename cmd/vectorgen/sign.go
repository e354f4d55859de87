package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/smallyu/go-detecdsa/internal/crypto/curves"
	"github.com/smallyu/go-detecdsa/internal/log"
	"github.com/smallyu/go-detecdsa/pkg/ecdsa"
)

var (
	keyFlag = &cli.StringFlag{
		Name:  "key",
		Usage: "hex private key; a random key is generated when empty",
	}
	lowSFlag = &cli.BoolFlag{
		Name:  "lows",
		Usage: "normalize s to the lower half of the group order",
	}
	pubKeyFlag = &cli.StringFlag{
		Name:     "pubkey",
		Usage:    "hex SEC 1 public key",
		Required: true,
	}
	sigFlag = &cli.StringFlag{
		Name:     "sig",
		Usage:    "hex signature, either r || s or DER",
		Required: true,
	}
	rejectHighSFlag = &cli.BoolFlag{
		Name:  "reject-high-s",
		Usage: "reject signatures whose s is above n/2",
	}
)

var (
	signCommand = &cli.Command{
		Name:   "sign",
		Usage:  "Signs a message and prints the full test vector",
		Action: signAction,
		Flags: []cli.Flag{
			curveFlag, keyFlag, messageFlag, digestFlag, hashFlag, extraFlag, lowSFlag, jsonFlag,
		},
	}
	verifyCommand = &cli.Command{
		Name:   "verify",
		Usage:  "Verifies a signature against a public key",
		Action: verifyAction,
		Flags: []cli.Flag{
			curveFlag, pubKeyFlag, messageFlag, digestFlag, hashFlag, sigFlag, rejectHighSFlag,
		},
	}
)

// vector is one signing test case with every encoding spelled out.
type vector struct {
	Curve        string `json:"curve"`
	Hash         string `json:"hash"`
	Message      string `json:"message,omitempty"`
	Digest       string `json:"digest"`
	Extra        string `json:"extra,omitempty"`
	PrivateKey   string `json:"privateKey"`
	PublicKey    string `json:"publicKey"`
	PublicKeyRaw string `json:"publicKeyUncompressed"`
	R            string `json:"r"`
	S            string `json:"s"`
	Signature    string `json:"signature"`
	DER          string `json:"der"`
	LowS         bool   `json:"lowS"`
}

func signAction(ctx *cli.Context) error {
	logger := log.Module("sign")

	c, err := curveFromRef(ctx.String(curveFlag.Name))
	if err != nil {
		return err
	}
	digest, opts, err := signerInput(ctx)
	if err != nil {
		return err
	}
	opts.LowS = ctx.Bool(lowSFlag.Name)

	var priv *ecdsa.PrivateKey
	if ctx.IsSet(keyFlag.Name) {
		priv, err = ecdsa.PrivateKeyFromHex(c, ctx.String(keyFlag.Name))
	} else {
		logger.Warn("No --key given, generating a random key")
		priv, err = ecdsa.GenerateKey(c, nil)
	}
	if err != nil {
		return err
	}
	defer priv.Zero()

	signer := ecdsa.NewSigner(c, opts)
	sig, err := signer.Sign(priv, digest)
	if err != nil {
		return err
	}
	logger.Debug("Signed digest", "curve", c.Name(), "digest", hex.EncodeToString(digest))

	if err := checkRoundTrip(signer, priv.PublicKey(), digest, sig); err != nil {
		return err
	}

	pub := priv.PublicKey()
	size := c.Scalars().ByteLen()
	raw := sig.Bytes()
	v := vector{
		Curve:        c.Name(),
		Hash:         ctx.String(hashFlag.Name),
		Message:      ctx.String(messageFlag.Name),
		Digest:       hex.EncodeToString(digest),
		Extra:        hex.EncodeToString(opts.ExtraData),
		PrivateKey:   hex.EncodeToString(priv.Bytes()),
		PublicKey:    hex.EncodeToString(pub.SerializeCompressed()),
		PublicKeyRaw: hex.EncodeToString(pub.SerializeUncompressed()),
		R:            hex.EncodeToString(raw[:size]),
		S:            hex.EncodeToString(raw[size:]),
		Signature:    hex.EncodeToString(raw),
		DER:          hex.EncodeToString(sig.DER()),
		LowS:         sig.IsLowS(),
	}
	if ctx.IsSet(digestFlag.Name) {
		v.Message = ""
	}

	w := ctx.App.Writer
	if ctx.Bool(jsonFlag.Name) {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	printFields(w, [][2]string{
		{"curve", v.Curve},
		{"hash", v.Hash},
		{"message", v.Message},
		{"digest", v.Digest},
		{"extra", v.Extra},
		{"private key", v.PrivateKey},
		{"public key", v.PublicKey},
		{"uncompressed", v.PublicKeyRaw},
		{"r", v.R},
		{"s", v.S},
		{"signature", v.Signature},
		{"der", v.DER},
		{"low s", fmt.Sprint(v.LowS)},
	})
	return nil
}

// checkRoundTrip decodes every encoding of sig and pub and verifies the
// result again.
func checkRoundTrip(signer *ecdsa.Signer, pub *ecdsa.PublicKey, digest []byte, sig *ecdsa.Signature) error {
	c := signer.Curve
	raw, err := ecdsa.ParseSignature(c, sig.Bytes())
	if err != nil {
		return fmt.Errorf("round trip r||s: %w", err)
	}
	der, err := ecdsa.ParseDERSignature(c, sig.DER())
	if err != nil {
		return fmt.Errorf("round trip DER: %w", err)
	}
	if !raw.Equal(sig) || !der.Equal(sig) {
		return errors.New("round trip: decoded signature differs")
	}
	for _, enc := range [][]byte{pub.SerializeCompressed(), pub.SerializeUncompressed()} {
		decoded, err := ecdsa.NewPublicKey(c, enc)
		if err != nil {
			return fmt.Errorf("round trip public key: %w", err)
		}
		if !decoded.Equal(pub) {
			return errors.New("round trip: decoded public key differs")
		}
	}
	if err := signer.VerifyStrict(pub, digest, sig); err != nil {
		return fmt.Errorf("round trip verify: %w", err)
	}
	return nil
}

func verifyAction(ctx *cli.Context) error {
	c, err := curveFromRef(ctx.String(curveFlag.Name))
	if err != nil {
		return err
	}
	digest, opts, err := signerInput(ctx)
	if err != nil {
		return err
	}
	opts.RejectHighS = ctx.Bool(rejectHighSFlag.Name)

	pub, err := ecdsa.PublicKeyFromHex(c, ctx.String(pubKeyFlag.Name))
	if err != nil {
		return err
	}
	sig, err := parseSignatureHex(c, ctx.String(sigFlag.Name))
	if err != nil {
		return err
	}

	if err := ecdsa.NewSigner(c, opts).VerifyStrict(pub, digest, sig); err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, "valid")
	return nil
}

// parseSignatureHex accepts the fixed-width r || s form or DER.
func parseSignatureHex(c *curves.Curve, s string) (*ecdsa.Signature, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --sig: %w", err)
	}
	size := 2 * c.Scalars().ByteLen()
	if len(b) > 0 && b[0] == 0x30 {
		sig, err := ecdsa.ParseDERSignature(c, b)
		if err == nil || len(b) != size {
			return sig, err
		}
	}
	return ecdsa.ParseSignature(c, b)
}
