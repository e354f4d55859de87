package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/smallyu/go-detecdsa/internal/crypto/curves"
	"github.com/smallyu/go-detecdsa/pkg/ecdsa"
)

// keyring holds the private keys imported from JavaScript.  Keys never cross
// back into JS; callers refer to them by handle.
type keyring struct {
	mu   sync.Mutex
	keys map[string]*ecdsa.PrivateKey
}

func newKeyring() *keyring {
	return &keyring{keys: make(map[string]*ecdsa.PrivateKey)}
}

// importKey stores the hex private key and returns its handle,
// "<curve>:<compressed public key hex>".  Importing the same key again
// replaces the stored copy.
func (kr *keyring) importKey(curveName, keyHex string) (string, error) {
	c, err := curves.ByName(curveName)
	if err != nil {
		return "", err
	}
	priv, err := ecdsa.PrivateKeyFromHex(c, keyHex)
	if err != nil {
		return "", err
	}
	handle := fmt.Sprintf("%s:%x", c.Name(), priv.PublicKey().SerializeCompressed())

	kr.mu.Lock()
	defer kr.mu.Unlock()
	if old, ok := kr.keys[handle]; ok {
		old.Zero()
	}
	kr.keys[handle] = priv
	return handle, nil
}

// signature is the JSON form returned to JavaScript.
type signature struct {
	R         string `json:"r"`
	S         string `json:"s"`
	Signature string `json:"signature"`
	DER       string `json:"der"`
}

func (kr *keyring) sign(handle, digestHex string, lowS bool) (string, error) {
	kr.mu.Lock()
	priv, ok := kr.keys[handle]
	kr.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown key handle %q", handle)
	}
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return "", fmt.Errorf("invalid digest: %w", err)
	}

	signer := ecdsa.NewSigner(priv.Curve(), ecdsa.Options{LowS: lowS, DigestSize: ecdsa.AnyDigestSize})
	sig, err := signer.Sign(priv, digest)
	if err != nil {
		return "", err
	}
	size := priv.Curve().Scalars().ByteLen()
	raw := sig.Bytes()
	out, err := json.Marshal(signature{
		R:         hex.EncodeToString(raw[:size]),
		S:         hex.EncodeToString(raw[size:]),
		Signature: hex.EncodeToString(raw),
		DER:       hex.EncodeToString(sig.DER()),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// free zeroes and forgets the key.  It reports whether the handle was known.
func (kr *keyring) free(handle string) bool {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	priv, ok := kr.keys[handle]
	if ok {
		priv.Zero()
		delete(kr.keys, handle)
	}
	return ok
}

// verify checks an r || s or DER signature against a SEC 1 public key.
func verify(curveName, pubHex, digestHex, sigHex string) (bool, error) {
	c, err := curves.ByName(curveName)
	if err != nil {
		return false, err
	}
	pub, err := ecdsa.PublicKeyFromHex(c, pubHex)
	if err != nil {
		return false, err
	}
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return false, fmt.Errorf("invalid digest: %w", err)
	}
	raw, err := hex.DecodeString(sigHex)
	if err != nil {
		return false, fmt.Errorf("invalid signature: %w", err)
	}

	var sig *ecdsa.Signature
	if len(raw) == 2*c.Scalars().ByteLen() {
		sig, err = ecdsa.ParseSignature(c, raw)
	} else {
		sig, err = ecdsa.ParseDERSignature(c, raw)
	}
	if err != nil {
		return false, err
	}
	signer := ecdsa.NewSigner(c, ecdsa.Options{DigestSize: ecdsa.AnyDigestSize})
	return signer.Verify(pub, digest, sig), nil
}
