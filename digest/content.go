package digest

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/lestrrat-go/htsig/algorithm"
	"github.com/lestrrat-go/htsig/message"
	"github.com/lestrrat-go/sfv"
)

// ContentHeaderName is the name of the structured field digest header.
const ContentHeaderName = "Content-Digest"

// Content-Digest algorithm keys, strongest first.
var contentAlgorithms = []struct {
	key  string
	name string
}{
	{"sha-512", algorithm.SHA512},
	{"sha-256", algorithm.SHA256},
}

func contentAlgorithm(key string) (string, bool) {
	for _, a := range contentAlgorithms {
		if a.key == key {
			return a.name, true
		}
	}
	return "", false
}

// ComputeContent returns a Content-Digest header value holding one entry
// per requested key, e.g. `sha-256=:<base64>:`. With no keys, sha-256 is
// used.
func ComputeContent(body []byte, reg *algorithm.Registry, keys ...string) (string, error) {
	if len(keys) == 0 {
		keys = []string{"sha-256"}
	}

	dict := sfv.NewDictionary()
	for _, key := range keys {
		name, ok := contentAlgorithm(key)
		if !ok {
			return "", &Error{Kind: KindUnsupportedAlgorithm, Header: ContentHeaderName, Algorithm: key}
		}
		b, err := sum(body, name, reg)
		if err != nil {
			return "", err
		}
		if err := dict.Set(key, sfv.ByteSequence(b)); err != nil {
			return "", fmt.Errorf("failed to set %s in dictionary: %w", key, err)
		}
	}

	var sb strings.Builder
	if err := sfv.NewEncoder(&sb).Encode(dict); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", ContentHeaderName, err)
	}
	return sb.String(), nil
}

// VerifyContent checks the Content-Digest header of msg against its body.
// The strongest supported entry is checked; unknown entries are ignored.
// Error semantics match Verify.
func VerifyContent(msg message.Message, reg *algorithm.Registry) (bool, error) {
	values := msg.HeaderValues(ContentHeaderName)
	if len(values) == 0 {
		return false, &Error{Kind: KindMissing, Header: ContentHeaderName}
	}

	dict, err := sfv.ParseDictionary([]byte(strings.Join(values, ", ")))
	if err != nil {
		return false, &Error{Kind: KindMalformed, Header: ContentHeaderName}
	}

	for _, a := range contentAlgorithms {
		if _, ok := reg.DigestFunc(a.name); !ok {
			continue
		}

		var entry any
		if err := dict.GetValue(a.key, &entry); err != nil {
			continue
		}

		advertised, err := byteSequence(entry)
		if err != nil {
			return false, &Error{Kind: KindMalformed, Header: ContentHeaderName}
		}

		computed, err := sum(msg.Body(), a.name, reg)
		if err != nil {
			return false, err
		}
		return subtle.ConstantTimeCompare(computed, advertised) == 1, nil
	}
	return false, &Error{Kind: KindUnsupportedAlgorithm, Header: ContentHeaderName}
}

func byteSequence(entry any) ([]byte, error) {
	var b []byte
	switch v := entry.(type) {
	case sfv.BareItem:
		if v.Type() != sfv.ByteSequenceType {
			return nil, fmt.Errorf("entry must be a byte sequence, got type %d", v.Type())
		}
		if err := v.GetValue(&b); err != nil {
			return nil, fmt.Errorf("failed to extract bytes: %w", err)
		}
	case sfv.Item:
		if err := v.GetValue(&b); err != nil {
			return nil, fmt.Errorf("failed to extract bytes: %w", err)
		}
	default:
		return nil, fmt.Errorf("entry must be an item, got %T", entry)
	}
	return b, nil
}
