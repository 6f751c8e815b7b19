// Package htsig signs and verifies HTTP messages using the Signature and
// Digest headers described in draft-cavage-http-signatures.
//
// A signed request carries a header such as
//
//	Signature: keyId="secret1",algorithm="hmac-sha256",headers="(request-target) date digest",signature="..."
//
// or the same parameters in an Authorization header using the Signature
// scheme. The signature is a keyed hash over a signing string built from
// the listed headers, see package sigbase.
//
// Verifier.IsValid reports every signature failure as false. Digest
// checks are separate: Verifier.IsValidDigest returns a *DigestError when
// the Digest header is malformed, and false when it merely does not match.
package htsig

import (
	"strings"

	"github.com/lestrrat-go/htsig/digest"
	"github.com/lestrrat-go/htsig/message"
)

const (
	SignatureHeader     = "Signature"
	AuthorizationHeader = "Authorization"
	DigestHeader        = digest.HeaderName
)

// withHeader presents msg with the values of one header replaced.
type withHeader struct {
	message.Message
	name   string
	values []string
}

func (m withHeader) HeaderValues(name string) []string {
	if strings.EqualFold(name, m.name) {
		return m.values
	}
	return m.Message.HeaderValues(name)
}
