// Package digest computes and verifies the Digest header
//
//	Digest: SHA-256=X48E9qOokqqrvdts8nOJRJN3OWDUoyWxBf7kbu9DBPE=
//
// and its structured field successor, Content-Digest.
//
// Unlike signature parameters, a structurally malformed Digest header is
// reported as an *Error. A well-formed header whose value does not match
// the body is reported as a plain false.
package digest

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/htsig/algorithm"
	"github.com/lestrrat-go/htsig/message"
)

// HeaderName is the name of the Digest header.
const HeaderName = "Digest"

// Kind classifies a structural Digest error.
type Kind int

const (
	KindMissing Kind = iota + 1
	KindMalformed
	KindUnsupportedAlgorithm
)

// Sentinels matched by errors.Is against an *Error of the same Kind.
var (
	ErrMissing              = errors.New("digest: header missing")
	ErrMalformed            = errors.New("digest: header malformed")
	ErrUnsupportedAlgorithm = errors.New("digest: unsupported algorithm")
)

func (k Kind) sentinel() error {
	switch k {
	case KindMissing:
		return ErrMissing
	case KindMalformed:
		return ErrMalformed
	case KindUnsupportedAlgorithm:
		return ErrUnsupportedAlgorithm
	}
	return nil
}

// Error describes a structurally invalid digest header.
type Error struct {
	Kind Kind
	// Header is the header the error relates to.
	Header string
	// Algorithm is set for KindUnsupportedAlgorithm.
	Algorithm string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissing:
		return fmt.Sprintf("digest: no %s header in message", e.Header)
	case KindMalformed:
		return fmt.Sprintf("digest: malformed %s header", e.Header)
	case KindUnsupportedAlgorithm:
		return fmt.Sprintf("digest: unsupported algorithm %q in %s header", e.Algorithm, e.Header)
	}
	return "digest: invalid header"
}

func (e *Error) Unwrap() error {
	return e.Kind.sentinel()
}

// Value is a parsed Digest header.
type Value struct {
	Algorithm string
	// Encoded is the base64 text exactly as it appeared in the header.
	Encoded string
}

// Sum decodes the digest value.
func (v *Value) Sum() ([]byte, error) {
	return base64.StdEncoding.DecodeString(v.Encoded)
}

func (v *Value) String() string {
	return v.Algorithm + "=" + v.Encoded
}

// Parse splits a Digest header value on its first '=' and checks that the
// algorithm is registered in reg. The encoded value itself is not
// validated here.
func Parse(value string, reg *algorithm.Registry) (*Value, error) {
	alg, encoded, ok := strings.Cut(strings.TrimSpace(value), "=")
	if !ok || alg == "" {
		return nil, &Error{Kind: KindMalformed, Header: HeaderName}
	}
	if _, ok := reg.DigestFunc(alg); !ok {
		return nil, &Error{Kind: KindUnsupportedAlgorithm, Header: HeaderName, Algorithm: alg}
	}
	return &Value{Algorithm: alg, Encoded: encoded}, nil
}

// Verify checks the Digest header of msg against its body. Structural
// problems with the header are returned as *Error. A mismatch, including a
// value that is not valid base64, returns false with no error.
func Verify(msg message.Message, reg *algorithm.Registry) (bool, error) {
	values := msg.HeaderValues(HeaderName)
	if len(values) == 0 {
		return false, &Error{Kind: KindMissing, Header: HeaderName}
	}

	v, err := Parse(strings.Join(values, ", "), reg)
	if err != nil {
		return false, err
	}

	expected, err := encode(msg.Body(), v.Algorithm, reg)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(v.Encoded)) == 1, nil
}

// Compute returns the Digest header value for body, in the form
// "<algorithm>=<base64>".
func Compute(body []byte, alg string, reg *algorithm.Registry) (string, error) {
	encoded, err := encode(body, alg, reg)
	if err != nil {
		return "", err
	}
	return alg + "=" + encoded, nil
}

func sum(body []byte, alg string, reg *algorithm.Registry) ([]byte, error) {
	newHash, ok := reg.DigestFunc(alg)
	if !ok {
		return nil, &Error{Kind: KindUnsupportedAlgorithm, Header: HeaderName, Algorithm: alg}
	}
	h := newHash()
	h.Write(body)
	return h.Sum(nil), nil
}

func encode(body []byte, alg string, reg *algorithm.Registry) (string, error) {
	b, err := sum(body, alg, reg)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
