// vectorgen produces and checks deterministic ECDSA test vectors.
//
//	vectorgen sign --curve P-256 --key c9afa9d8... --message sample
//	vectorgen verify --curve P-256 --pubkey 03... --message sample --sig 3045...
//	vectorgen curves --dump secp256k1 > secp256k1.toml
package main

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/sha3"

	"github.com/smallyu/go-detecdsa/internal/crypto/curves"
	"github.com/smallyu/go-detecdsa/internal/log"
	"github.com/smallyu/go-detecdsa/pkg/ecc"
	"github.com/smallyu/go-detecdsa/pkg/ecdsa"
)

var (
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "log level (debug, info, warn, error)",
		Value: "info",
	}
	logJSONFlag = &cli.BoolFlag{
		Name:  "log.json",
		Usage: "format logs as JSON lines",
	}

	curveFlag = &cli.StringFlag{
		Name:  "curve",
		Usage: "curve name or path of a .toml parameter file",
		Value: "secp256k1",
	}
	messageFlag = &cli.StringFlag{
		Name:  "message",
		Usage: "message to hash and sign",
	}
	digestFlag = &cli.StringFlag{
		Name:  "digest",
		Usage: "hex digest to sign instead of hashing --message",
	}
	hashFlag = &cli.StringFlag{
		Name:  "hash",
		Usage: "message hash, also used for nonce derivation (sha256, sha512, keccak256)",
		Value: "sha256",
	}
	extraFlag = &cli.StringFlag{
		Name:  "extra",
		Usage: "hex additional data mixed into the nonce",
	}
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "print the vector as JSON",
	}
)

func newApp() *cli.App {
	app := &cli.App{
		Name:      "vectorgen",
		Usage:     "deterministic ECDSA test vector tool",
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Flags:     []cli.Flag{verbosityFlag, logJSONFlag},
		Commands: []*cli.Command{
			signCommand,
			verifyCommand,
			curvesCommand,
		},
		HideVersion: true,
	}
	app.Before = func(ctx *cli.Context) error {
		level, err := log.ParseLevel(ctx.String(verbosityFlag.Name))
		if err != nil {
			return err
		}
		log.SetDefault(log.New(ctx.App.ErrWriter, level, ctx.Bool(logJSONFlag.Name)))
		return nil
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// curveFromRef resolves a built-in curve name or a TOML parameter file.
func curveFromRef(ref string) (*curves.Curve, error) {
	if c, err := curves.ByName(ref); err == nil {
		return c, nil
	}
	params, err := ecc.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return curves.New(params)
}

func hashByName(name string) (func() hash.Hash, error) {
	switch strings.ToLower(name) {
	case "sha256", "sha-256":
		return sha256.New, nil
	case "sha512", "sha-512":
		return sha512.New, nil
	case "keccak256", "keccak-256":
		return sha3.NewLegacyKeccak256, nil
	}
	return nil, fmt.Errorf("unknown hash %q", name)
}

// signerInput collects the digest and signer options shared by sign and
// verify.
func signerInput(ctx *cli.Context) ([]byte, ecdsa.Options, error) {
	newHash, err := hashByName(ctx.String(hashFlag.Name))
	if err != nil {
		return nil, ecdsa.Options{}, err
	}
	opts := ecdsa.Options{Hash: newHash}

	var digest []byte
	switch {
	case ctx.IsSet(digestFlag.Name):
		if digest, err = hex.DecodeString(ctx.String(digestFlag.Name)); err != nil {
			return nil, opts, fmt.Errorf("invalid --digest: %w", err)
		}
		opts.DigestSize = ecdsa.AnyDigestSize
	case ctx.IsSet(messageFlag.Name):
		h := newHash()
		h.Write([]byte(ctx.String(messageFlag.Name)))
		digest = h.Sum(nil)
		opts.DigestSize = len(digest)
	default:
		return nil, opts, fmt.Errorf("need --message or --digest")
	}

	if ctx.IsSet(extraFlag.Name) {
		if opts.ExtraData, err = hex.DecodeString(ctx.String(extraFlag.Name)); err != nil {
			return nil, opts, fmt.Errorf("invalid --extra: %w", err)
		}
	}
	return digest, opts, nil
}

func printFields(w io.Writer, fields [][2]string) {
	width := 0
	for _, f := range fields {
		width = max(width, len(f[0]))
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintf(w, "%-*s  %s\n", width+1, f[0]+":", f[1])
	}
}
