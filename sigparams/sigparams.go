// Package sigparams parses and formats the value of the Signature header,
// and of an Authorization header using the Signature scheme.
//
//	keyId="secret1",algorithm="hmac-sha256",headers="(request-target) date",signature="..."
package sigparams

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Scheme is the Authorization scheme carrying signature parameters.
const Scheme = "Signature"

// Parameter names.
const (
	KeyIDParam     = "keyId"
	AlgorithmParam = "algorithm"
	HeadersParam   = "headers"
	SignatureParam = "signature"
)

// ErrInvalid is wrapped by every error returned from Parse.
var ErrInvalid = errors.New("sigparams: invalid signature parameters")

// Parameters is the decoded form of a signature header value.
type Parameters struct {
	KeyID     string
	Algorithm string
	// Headers lists the lower-cased header names covered by the
	// signature, in signing order.
	Headers   []string
	Signature []byte
}

// Parse decodes a signature header value. All four parameters must be
// present exactly once. Unknown parameters are rejected.
func Parse(value string) (*Parameters, error) {
	fields := make(map[string]string, 4)

	rest := strings.TrimSpace(value)
	if rest == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalid)
	}
	for rest != "" {
		name, v, tail, err := nextPair(rest)
		if err != nil {
			return nil, err
		}
		switch name {
		case KeyIDParam, AlgorithmParam, HeadersParam, SignatureParam:
		default:
			return nil, fmt.Errorf("%w: unrecognized parameter %q", ErrInvalid, name)
		}
		if _, dup := fields[name]; dup {
			return nil, fmt.Errorf("%w: duplicate parameter %q", ErrInvalid, name)
		}
		fields[name] = v
		rest = tail
	}

	for _, name := range []string{KeyIDParam, AlgorithmParam, HeadersParam, SignatureParam} {
		if _, ok := fields[name]; !ok {
			return nil, fmt.Errorf("%w: missing parameter %q", ErrInvalid, name)
		}
	}

	sig, err := base64.StdEncoding.DecodeString(fields[SignatureParam])
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not valid base64", ErrInvalid)
	}

	p := &Parameters{
		KeyID:     fields[KeyIDParam],
		Algorithm: fields[AlgorithmParam],
		Headers:   strings.Fields(strings.ToLower(fields[HeadersParam])),
		Signature: sig,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseAuthorization decodes an Authorization header value that uses the
// Signature scheme.
func ParseAuthorization(value string) (*Parameters, error) {
	rest, ok := StripScheme(value)
	if !ok {
		return nil, fmt.Errorf("%w: authorization scheme is not %q", ErrInvalid, Scheme)
	}
	return Parse(rest)
}

// StripScheme removes the "Signature " prefix from an Authorization header
// value. It reports false when the prefix is absent.
func StripScheme(value string) (string, bool) {
	return strings.CutPrefix(value, Scheme+" ")
}

// Validate checks that p can be formatted and would parse back to itself.
func (p *Parameters) Validate() error {
	if p.KeyID == "" {
		return fmt.Errorf("%w: empty %s", ErrInvalid, KeyIDParam)
	}
	if p.Algorithm == "" {
		return fmt.Errorf("%w: empty %s", ErrInvalid, AlgorithmParam)
	}
	if len(p.Headers) == 0 {
		return fmt.Errorf("%w: empty %s", ErrInvalid, HeadersParam)
	}
	if len(p.Signature) == 0 {
		return fmt.Errorf("%w: empty %s", ErrInvalid, SignatureParam)
	}
	if strings.ContainsRune(p.KeyID, '"') || strings.ContainsRune(p.Algorithm, '"') {
		return fmt.Errorf("%w: quote in parameter value", ErrInvalid)
	}
	for _, h := range p.Headers {
		if h == "" || h != strings.ToLower(h) || strings.ContainsAny(h, "\" \t") {
			return fmt.Errorf("%w: bad header name %q", ErrInvalid, h)
		}
	}
	return nil
}

// String formats p as a Signature header value.
func (p *Parameters) String() string {
	return Format(p)
}

// Format serializes p. It is the inverse of Parse for any p that passes
// Validate.
func Format(p *Parameters) string {
	var sb strings.Builder
	sb.WriteString(KeyIDParam)
	sb.WriteString(`="`)
	sb.WriteString(p.KeyID)
	sb.WriteString(`",`)
	sb.WriteString(AlgorithmParam)
	sb.WriteString(`="`)
	sb.WriteString(p.Algorithm)
	sb.WriteString(`",`)
	sb.WriteString(HeadersParam)
	sb.WriteString(`="`)
	sb.WriteString(strings.Join(p.Headers, " "))
	sb.WriteString(`",`)
	sb.WriteString(SignatureParam)
	sb.WriteString(`="`)
	sb.WriteString(base64.StdEncoding.EncodeToString(p.Signature))
	sb.WriteByte('"')
	return sb.String()
}

// FormatAuthorization serializes p as an Authorization header value.
func FormatAuthorization(p *Parameters) string {
	return Scheme + " " + Format(p)
}

// nextPair consumes one name="value" pair and the comma following it.
func nextPair(s string) (name, value, rest string, err error) {
	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return "", "", "", fmt.Errorf("%w: expected name=\"value\"", ErrInvalid)
	}
	name = strings.TrimSpace(s[:eq])
	if name == "" {
		return "", "", "", fmt.Errorf("%w: empty parameter name", ErrInvalid)
	}

	s = s[eq+1:]
	if !strings.HasPrefix(s, `"`) {
		return "", "", "", fmt.Errorf("%w: value of %q is not quoted", ErrInvalid, name)
	}
	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		return "", "", "", fmt.Errorf("%w: unterminated value for %q", ErrInvalid, name)
	}
	value = s[1 : end+1]

	rest = strings.TrimLeft(s[end+2:], " \t")
	if rest == "" {
		return name, value, "", nil
	}
	if rest[0] != ',' {
		return "", "", "", fmt.Errorf("%w: expected ',' after %q", ErrInvalid, name)
	}
	rest = strings.TrimLeft(rest[1:], " \t")
	if rest == "" {
		return "", "", "", fmt.Errorf("%w: trailing ','", ErrInvalid)
	}
	return name, value, rest, nil
}
