package htsig

import (
	"errors"

	"github.com/lestrrat-go/htsig/digest"
)

// Verification failures returned by Verifier.Verify.
var (
	ErrNoSignatureHeader    = errors.New("htsig: no signature header")
	ErrMalformedSignature   = errors.New("htsig: malformed signature header")
	ErrUnknownKey           = errors.New("htsig: unknown key")
	ErrUnsupportedAlgorithm = errors.New("htsig: unsupported algorithm")
	ErrMissingSignedHeader  = errors.New("htsig: signed header missing from message")
	ErrSignatureMismatch    = errors.New("htsig: signature mismatch")
)

// Signing failures.
var (
	ErrInvalidHeaderName = errors.New("htsig: invalid header name")
	ErrEmptyKey          = errors.New("htsig: empty key")
)

// DigestError reports a structurally invalid Digest header.
type DigestError = digest.Error
