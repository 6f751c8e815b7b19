package htsig

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/lestrrat-go/blackmagic"
	"github.com/lestrrat-go/htsig/algorithm"
	"github.com/lestrrat-go/htsig/digest"
	"github.com/lestrrat-go/htsig/keystore"
	"github.com/lestrrat-go/htsig/message"
	"github.com/lestrrat-go/htsig/sigbase"
	"github.com/lestrrat-go/htsig/sigparams"
	"golang.org/x/net/http/httpguts"
)

// Headers holds header values produced by a Signer. Empty fields are not
// set by Apply.
type Headers struct {
	Signature     string
	Authorization string
	Digest        string
}

// Apply sets the non-empty values on hdr.
func (h *Headers) Apply(hdr http.Header) {
	if h.Digest != "" {
		hdr.Set(DigestHeader, h.Digest)
	}
	if h.Signature != "" {
		hdr.Set(SignatureHeader, h.Signature)
	}
	if h.Authorization != "" {
		hdr.Set(AuthorizationHeader, h.Authorization)
	}
}

// Signer produces signature header values. It never modifies the message
// it signs. A Signer is immutable and safe for concurrent use.
type Signer struct {
	registry  *algorithm.Registry
	logger    *slog.Logger
	digestAlg string
}

// NewSigner creates a Signer.
func NewSigner(options ...SignerOption) (*Signer, error) {
	s := &Signer{
		registry:  algorithm.Default(),
		logger:    discardLogger(),
		digestAlg: algorithm.SHA256,
	}
	for _, opt := range options {
		var err error
		switch opt.Ident() {
		case identRegistry{}:
			err = blackmagic.AssignIfCompatible(&s.registry, opt.Value())
		case identLogger{}:
			err = blackmagic.AssignIfCompatible(&s.logger, opt.Value())
		case identDigestAlgorithm{}:
			err = blackmagic.AssignIfCompatible(&s.digestAlg, opt.Value())
		}
		if err != nil {
			return nil, fmt.Errorf("failed to apply option %s: %w", opt.Ident(), err)
		}
	}
	if s.registry == nil {
		return nil, fmt.Errorf("htsig: nil algorithm registry")
	}
	if s.logger == nil {
		s.logger = discardLogger()
	}
	if _, ok := s.registry.DigestFunc(s.digestAlg); !ok {
		return nil, fmt.Errorf("%w: digest %q", ErrUnsupportedAlgorithm, s.digestAlg)
	}
	return s, nil
}

// Parameters signs msg and returns the resulting signature parameters.
func (s *Signer) Parameters(msg message.Message, key keystore.Key, alg string, headers []string) (*sigparams.Parameters, error) {
	if len(key.Material) == 0 {
		return nil, ErrEmptyKey
	}

	names := make([]string, len(headers))
	for i, name := range headers {
		name = strings.ToLower(name)
		if name != sigbase.RequestTarget && !httpguts.ValidHeaderFieldName(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHeaderName, name)
		}
		names[i] = name
	}

	sign, ok := s.registry.SigningFunc(alg)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}

	base, err := sigbase.Build(msg, names)
	if err != nil {
		return nil, fmt.Errorf("failed to build signing string: %w", err)
	}

	sig, err := sign(key.Material, []byte(base))
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	params := &sigparams.Parameters{
		KeyID:     key.ID,
		Algorithm: alg,
		Headers:   names,
		Signature: sig,
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	s.logger.Debug("signed message", "keyId", key.ID, "algorithm", alg, "headers", strings.Join(names, " "))
	return params, nil
}

// Sign returns the Signature header value for msg, covering headers in
// the given order.
func (s *Signer) Sign(msg message.Message, key keystore.Key, alg string, headers []string) (string, error) {
	params, err := s.Parameters(msg, key, alg, headers)
	if err != nil {
		return "", err
	}
	return sigparams.Format(params), nil
}

// Authorize is like Sign but returns an Authorization header value using
// the Signature scheme.
func (s *Signer) Authorize(msg message.Message, key keystore.Key, alg string, headers []string) (string, error) {
	params, err := s.Parameters(msg, key, alg, headers)
	if err != nil {
		return "", err
	}
	return sigparams.FormatAuthorization(params), nil
}

// SignWithDigest computes the Digest of the message body and signs the
// message as if that Digest header were present. digest is added to the
// covered headers when absent. The returned Headers hold both values.
func (s *Signer) SignWithDigest(msg message.Message, key keystore.Key, alg string, headers []string) (*Headers, error) {
	msg, headers, digestValue, err := s.withDigest(msg, headers)
	if err != nil {
		return nil, err
	}
	sig, err := s.Sign(msg, key, alg, headers)
	if err != nil {
		return nil, err
	}
	return &Headers{Signature: sig, Digest: digestValue}, nil
}

// AuthorizeWithDigest is like SignWithDigest but produces an Authorization
// header value.
func (s *Signer) AuthorizeWithDigest(msg message.Message, key keystore.Key, alg string, headers []string) (*Headers, error) {
	msg, headers, digestValue, err := s.withDigest(msg, headers)
	if err != nil {
		return nil, err
	}
	auth, err := s.Authorize(msg, key, alg, headers)
	if err != nil {
		return nil, err
	}
	return &Headers{Authorization: auth, Digest: digestValue}, nil
}

func (s *Signer) withDigest(msg message.Message, headers []string) (message.Message, []string, string, error) {
	value, err := digest.Compute(msg.Body(), s.digestAlg, s.registry)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to compute digest: %w", err)
	}

	covered := slices.ContainsFunc(headers, func(name string) bool {
		return strings.EqualFold(name, DigestHeader)
	})
	if !covered {
		headers = append(slices.Clip(headers), strings.ToLower(DigestHeader))
	}

	return withHeader{Message: msg, name: DigestHeader, values: []string{value}}, headers, value, nil
}
