//go:build js && wasm

package main

import (
	"fmt"
	"syscall/js"
)

var keys = newKeyring()

func main() {
	c := make(chan struct{})

	fmt.Println("go-detecdsa WASM initialized")

	// Expose Go functions to JS
	js.Global().Set("GoDetECDSA", map[string]interface{}{
		"ImportKey": js.FuncOf(ImportKey),
		"Sign":      js.FuncOf(Sign),
		"Verify":    js.FuncOf(Verify),
		"Free":      js.FuncOf(Free),
	})

	<-c
}

// ImportKey stores a private key.
// Arguments:
// 0: curve name
// 1: hex private key
// Returns:
// Key handle (string) or an "error: ..." string
func ImportKey(this js.Value, args []js.Value) interface{} {
	if len(args) != 2 {
		return "error: expected 2 arguments (curve, keyHex)"
	}
	handle, err := keys.importKey(args[0].String(), args[1].String())
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return handle
}

// Sign signs a digest with an imported key.
// Arguments:
// 0: key handle
// 1: hex digest
// 2: low-s (bool, optional)
// Returns:
// JSON string {r, s, signature, der}
func Sign(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return "error: expected 2 or 3 arguments (handle, digestHex, lowS)"
	}
	lowS := len(args) > 2 && args[2].Truthy()
	out, err := keys.sign(args[0].String(), args[1].String(), lowS)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return out
}

// Verify checks a signature.
// Arguments:
// 0: curve name
// 1: hex public key
// 2: hex digest
// 3: hex signature (r || s or DER)
// Returns:
// bool, or an "error: ..." string for malformed input
func Verify(this js.Value, args []js.Value) interface{} {
	if len(args) != 4 {
		return "error: expected 4 arguments (curve, pubHex, digestHex, sigHex)"
	}
	ok, err := verify(args[0].String(), args[1].String(), args[2].String(), args[3].String())
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return ok
}

// Free zeroes an imported key.
func Free(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return "error: expected 1 argument (handle)"
	}
	return keys.free(args[0].String())
}
