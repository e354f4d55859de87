package ecc

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrNotInvertible is returned when the modular inverse of zero is
	// requested.
	ErrNotInvertible = ErrorKind("ErrNotInvertible")

	// ErrPointNotOnCurve is returned when coordinates do not satisfy the
	// curve equation.
	ErrPointNotOnCurve = ErrorKind("ErrPointNotOnCurve")

	// ErrInvalidEncoding is returned when a byte encoding has an unsupported
	// length or marker, or encodes a value outside its range.
	ErrInvalidEncoding = ErrorKind("ErrInvalidEncoding")

	// ErrNoSquareRoot is returned when a field element is a quadratic
	// non-residue.
	ErrNoSquareRoot = ErrorKind("ErrNoSquareRoot")

	// ErrNonceGenerationExhausted is returned when deterministic nonce
	// generation fails to produce a candidate in [1, n-1] within its bound.
	ErrNonceGenerationExhausted = ErrorKind("ErrNonceGenerationExhausted")

	// ErrSignatureRetryExhausted is returned when signing produced r = 0 or
	// s = 0 for every attempted nonce.
	ErrSignatureRetryExhausted = ErrorKind("ErrSignatureRetryExhausted")

	// ErrInvalidScalarRange is returned when a key, nonce or signature
	// component is outside [1, n-1].
	ErrInvalidScalarRange = ErrorKind("ErrInvalidScalarRange")

	// ErrInvalidSignature is returned by strict verification when a
	// well-formed signature does not match the digest and public key.
	ErrInvalidSignature = ErrorKind("ErrInvalidSignature")

	// ErrInvalidDigest is returned when a digest is empty or does not have
	// the length required by the signer.
	ErrInvalidDigest = ErrorKind("ErrInvalidDigest")

	// ErrInvalidCurveParams is returned when a parameter bundle does not
	// describe a usable short Weierstrass curve.
	ErrInvalidCurveParams = ErrorKind("ErrInvalidCurveParams")

	// ErrCurveMismatch is returned when values that belong to different
	// curves are combined.
	ErrCurveMismatch = ErrorKind("ErrCurveMismatch")

	// ErrUnknownCurve is returned when a curve name is not registered.
	ErrUnknownCurve = ErrorKind("ErrUnknownCurve")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error related to curve arithmetic, encodings or
// signatures.  It has full support for errors.Is and errors.As, so the caller
// can ascertain the specific reason for the error by checking the underlying
// error.
type Error struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// MakeError creates an Error given a set of arguments.
func MakeError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}
