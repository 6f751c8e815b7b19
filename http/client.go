package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/lestrrat-go/blackmagic"
	"github.com/lestrrat-go/htsig"
	"github.com/lestrrat-go/htsig/algorithm"
	"github.com/lestrrat-go/htsig/keystore"
	"github.com/lestrrat-go/htsig/message"
	"github.com/lestrrat-go/htsig/sigbase"
)

// SigningTransport is an http.RoundTripper that signs requests before
// handing them to the underlying transport. The caller's request is never
// modified.
type SigningTransport struct {
	transport     http.RoundTripper
	signer        *htsig.Signer
	key           keystore.Key
	algorithm     string
	headers       []string
	digest        bool
	authorization bool
	clock         Clock
}

// DefaultRequestHeaders returns the headers covered by request signatures
// unless WithHeaders is given.
func DefaultRequestHeaders() []string {
	return []string{sigbase.RequestTarget, "host", "date"}
}

// NewSigningTransport creates a SigningTransport that signs with key.
func NewSigningTransport(key keystore.Key, options ...TransportOption) (*SigningTransport, error) {
	t := &SigningTransport{
		transport: http.DefaultTransport,
		key:       key,
		algorithm: algorithm.HMACSHA256,
		headers:   DefaultRequestHeaders(),
		clock:     SystemClock{},
	}
	for _, opt := range options {
		var err error
		switch opt.Ident() {
		case identTransport{}:
			err = blackmagic.AssignIfCompatible(&t.transport, opt.Value())
		case identSigner{}:
			err = blackmagic.AssignIfCompatible(&t.signer, opt.Value())
		case identAlgorithm{}:
			err = blackmagic.AssignIfCompatible(&t.algorithm, opt.Value())
		case identHeaders{}:
			err = blackmagic.AssignIfCompatible(&t.headers, opt.Value())
		case identDigest{}:
			err = blackmagic.AssignIfCompatible(&t.digest, opt.Value())
		case identAuthorization{}:
			err = blackmagic.AssignIfCompatible(&t.authorization, opt.Value())
		case identClock{}:
			err = blackmagic.AssignIfCompatible(&t.clock, opt.Value())
		}
		if err != nil {
			return nil, fmt.Errorf("failed to apply option %s: %w", opt.Ident(), err)
		}
	}

	if t.signer == nil {
		s, err := htsig.NewSigner()
		if err != nil {
			return nil, fmt.Errorf("failed to create signer: %w", err)
		}
		t.signer = s
	}
	if t.transport == nil {
		t.transport = http.DefaultTransport
	}
	if t.clock == nil {
		t.clock = SystemClock{}
	}
	return t, nil
}

// RoundTrip implements http.RoundTripper.
func (t *SigningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	signed, err := t.sign(req)
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}
	return t.transport.RoundTrip(signed)
}

func (t *SigningTransport) sign(req *http.Request) (*http.Request, error) {
	signed := req.Clone(req.Context())
	setDate(signed.Header, t.clock)

	msg, err := message.FromRequest(signed)
	if err != nil {
		return nil, err
	}
	if body := msg.Body(); body != nil {
		signed.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	var out *htsig.Headers
	switch {
	case t.digest && t.authorization:
		out, err = t.signer.AuthorizeWithDigest(msg, t.key, t.algorithm, t.headers)
	case t.digest:
		out, err = t.signer.SignWithDigest(msg, t.key, t.algorithm, t.headers)
	case t.authorization:
		var v string
		v, err = t.signer.Authorize(msg, t.key, t.algorithm, t.headers)
		out = &htsig.Headers{Authorization: v}
	default:
		var v string
		v, err = t.signer.Sign(msg, t.key, t.algorithm, t.headers)
		out = &htsig.Headers{Signature: v}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	out.Apply(signed.Header)
	return signed, nil
}

// NewClient creates an http.Client whose requests are signed with key.
func NewClient(key keystore.Key, options ...TransportOption) (*http.Client, error) {
	transport, err := NewSigningTransport(key, options...)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: transport}, nil
}
