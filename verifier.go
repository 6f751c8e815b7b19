package htsig

import (
	"crypto/hmac"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lestrrat-go/blackmagic"
	"github.com/lestrrat-go/htsig/algorithm"
	"github.com/lestrrat-go/htsig/digest"
	"github.com/lestrrat-go/htsig/keystore"
	"github.com/lestrrat-go/htsig/message"
	"github.com/lestrrat-go/htsig/sigbase"
	"github.com/lestrrat-go/htsig/sigparams"
)

// Verifier checks signed messages against a KeyStore. A Verifier is
// immutable and safe for concurrent use.
type Verifier struct {
	keys     keystore.KeyStore
	registry *algorithm.Registry
	logger   *slog.Logger
}

// NewVerifier creates a Verifier that resolves keys from keys.
func NewVerifier(keys keystore.KeyStore, options ...VerifierOption) (*Verifier, error) {
	if keys == nil {
		return nil, fmt.Errorf("htsig: nil key store")
	}

	v := &Verifier{
		keys:     keys,
		registry: algorithm.Default(),
		logger:   discardLogger(),
	}
	for _, opt := range options {
		var err error
		switch opt.Ident() {
		case identRegistry{}:
			err = blackmagic.AssignIfCompatible(&v.registry, opt.Value())
		case identLogger{}:
			err = blackmagic.AssignIfCompatible(&v.logger, opt.Value())
		}
		if err != nil {
			return nil, fmt.Errorf("failed to apply option %s: %w", opt.Ident(), err)
		}
	}
	if v.registry == nil {
		return nil, fmt.Errorf("htsig: nil algorithm registry")
	}
	if v.logger == nil {
		v.logger = discardLogger()
	}
	return v, nil
}

// IsValid reports whether msg carries a valid signature. Every failure,
// including a missing or malformed signature header, yields false.
func (v *Verifier) IsValid(msg message.Message) bool {
	return v.Verify(msg) == nil
}

// IsValidDigest reports whether the Digest header of msg matches its body.
// A missing or structurally invalid Digest header is returned as a
// *DigestError. A mismatch is false with a nil error.
func (v *Verifier) IsValidDigest(msg message.Message) (bool, error) {
	ok, err := digest.Verify(msg, v.registry)
	if err != nil {
		v.logger.Debug("digest verification failed", "err", err)
		return false, err
	}
	if !ok {
		v.logger.Debug("digest mismatch")
	}
	return ok, nil
}

// IsValidWithDigest reports whether msg has both a valid signature and a
// matching Digest header. The digest is only inspected once the signature
// is known to be valid, so a *DigestError is never returned for a message
// that fails authentication.
func (v *Verifier) IsValidWithDigest(msg message.Message) (bool, error) {
	if !v.IsValid(msg) {
		return false, nil
	}
	return v.IsValidDigest(msg)
}

// Verify runs the same checks as IsValid and returns an error naming the
// first one that failed. The returned errors wrap one of the ErrXxx
// sentinels of this package.
func (v *Verifier) Verify(msg message.Message) error {
	params, err := v.verify(msg)
	if err != nil {
		attrs := []any{"err", err}
		if params != nil {
			attrs = append(attrs, "keyId", params.KeyID, "algorithm", params.Algorithm)
		}
		v.logger.Debug("signature verification failed", attrs...)
	}
	return err
}

func (v *Verifier) verify(msg message.Message) (*sigparams.Parameters, error) {
	params, err := locateParameters(msg)
	if err != nil {
		return nil, err
	}

	key, ok := v.keys.Lookup(params.KeyID)
	if !ok {
		return params, fmt.Errorf("%w: %q", ErrUnknownKey, params.KeyID)
	}

	sign, ok := v.registry.SigningFunc(params.Algorithm)
	if !ok {
		return params, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, params.Algorithm)
	}

	base, err := sigbase.Build(msg, params.Headers)
	if err != nil {
		return params, fmt.Errorf("%w: %w", ErrMissingSignedHeader, err)
	}

	expected, err := sign(key.Material, []byte(base))
	if err != nil {
		return params, fmt.Errorf("failed to compute signature: %w", err)
	}
	if !hmac.Equal(expected, params.Signature) {
		return params, ErrSignatureMismatch
	}
	return params, nil
}

// locateParameters reads the Signature header, or failing that an
// Authorization header using the Signature scheme. A Signature header that
// is present but unparseable does not fall back to Authorization.
func locateParameters(msg message.Message) (*sigparams.Parameters, error) {
	if values := msg.HeaderValues(SignatureHeader); len(values) > 0 {
		params, err := sigparams.Parse(strings.Join(values, ", "))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedSignature, err)
		}
		return params, nil
	}

	for _, value := range msg.HeaderValues(AuthorizationHeader) {
		rest, ok := sigparams.StripScheme(value)
		if !ok {
			continue
		}
		params, err := sigparams.Parse(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedSignature, err)
		}
		return params, nil
	}
	return nil, ErrNoSignatureHeader
}
