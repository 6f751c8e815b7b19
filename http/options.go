package http

import (
	"log/slog"
	"net/http"

	"github.com/lestrrat-go/htsig"
	"github.com/lestrrat-go/option"
)

type Option = option.Interface

type identVerifier struct{}

func (identVerifier) String() string { return "WithVerifier" }

type identResponseSigner struct{}

func (identResponseSigner) String() string { return "WithResponseSigner" }

type identRequireDigest struct{}

func (identRequireDigest) String() string { return "WithRequireDigest" }

type identSkipOnMissing struct{}

func (identSkipOnMissing) String() string { return "WithSkipOnMissing" }

type identVerifierErrorHandler struct{}

func (identVerifierErrorHandler) String() string { return "WithVerifierErrorHandler" }

type identLogger struct{}

func (identLogger) String() string { return "WithLogger" }

type identTransport struct{}

func (identTransport) String() string { return "WithTransport" }

type identDigest struct{}

func (identDigest) String() string { return "WithDigest" }

type identAuthorization struct{}

func (identAuthorization) String() string { return "WithAuthorization" }

type identSigner struct{}

func (identSigner) String() string { return "WithSigner" }

type identAlgorithm struct{}

func (identAlgorithm) String() string { return "WithAlgorithm" }

type identHeaders struct{}

func (identHeaders) String() string { return "WithHeaders" }

type identClock struct{}

func (identClock) String() string { return "WithClock" }

type identSigningErrorHandler struct{}

func (identSigningErrorHandler) String() string { return "WithSigningErrorHandler" }

type identFailOnError struct{}

func (identFailOnError) String() string { return "WithFailOnError" }

// MiddlewareOption configures Wrap.
type MiddlewareOption interface {
	Option
	middlewareOption()
}

type middlewareOption struct {
	Option
}

func (middlewareOption) middlewareOption() {}

// WithVerifier verifies incoming requests with v.
func WithVerifier(v *Verifier) MiddlewareOption {
	return middlewareOption{option.New(identVerifier{}, v)}
}

// WithResponseSigner signs outgoing responses with s.
func WithResponseSigner(s *ResponseSigner) MiddlewareOption {
	return middlewareOption{option.New(identResponseSigner{}, s)}
}

// VerifierOption configures a Verifier.
type VerifierOption interface {
	Option
	verifierOption()
}

type verifierOption struct {
	Option
}

func (verifierOption) verifierOption() {}

// WithRequireDigest requires a Digest header matching the request body in
// addition to a valid signature.
func WithRequireDigest(require bool) VerifierOption {
	return verifierOption{option.New(identRequireDigest{}, require)}
}

// WithSkipOnMissing lets requests without any signature header through
// unverified.
func WithSkipOnMissing(skip bool) VerifierOption {
	return verifierOption{option.New(identSkipOnMissing{}, skip)}
}

// WithVerifierErrorHandler sets the handler invoked when verification
// fails. The error is available through VerificationErrorFromContext.
func WithVerifierErrorHandler(h http.Handler) VerifierOption {
	return verifierOption{option.New(identVerifierErrorHandler{}, h)}
}

// WithLogger sets the logger used to record rejected requests.
func WithLogger(l *slog.Logger) VerifierOption {
	return verifierOption{option.New(identLogger{}, l)}
}

// TransportOption configures a SigningTransport.
type TransportOption interface {
	Option
	transportOption()
}

type transportOption struct {
	Option
}

func (transportOption) transportOption() {}

// WithTransport sets the underlying RoundTripper. The default is
// http.DefaultTransport.
func WithTransport(rt http.RoundTripper) TransportOption {
	return transportOption{option.New(identTransport{}, rt)}
}

// WithDigest adds a Digest header to each request and covers it by the
// signature.
func WithDigest(enable bool) TransportOption {
	return transportOption{option.New(identDigest{}, enable)}
}

// WithAuthorization places the signature in the Authorization header
// instead of the Signature header.
func WithAuthorization(enable bool) TransportOption {
	return transportOption{option.New(identAuthorization{}, enable)}
}

// ResponseSignerOption configures a ResponseSigner.
type ResponseSignerOption interface {
	Option
	responseSignerOption()
}

type responseSignerOption struct {
	Option
}

func (responseSignerOption) responseSignerOption() {}

// WithSigningErrorHandler sets a callback for errors raised while signing
// a response.
func WithSigningErrorHandler(fn func(error)) ResponseSignerOption {
	return responseSignerOption{option.New(identSigningErrorHandler{}, fn)}
}

// WithFailOnError makes a response fail with 500 Internal Server Error
// when it cannot be signed. By default the response is sent unsigned.
func WithFailOnError(fail bool) ResponseSignerOption {
	return responseSignerOption{option.New(identFailOnError{}, fail)}
}

// SignOption can be used with both SigningTransport and ResponseSigner.
type SignOption interface {
	TransportOption
	ResponseSignerOption
}

type signOption struct {
	Option
}

func (signOption) transportOption()      {}
func (signOption) responseSignerOption() {}

// WithSigner sets the signer. The default is htsig.NewSigner().
func WithSigner(s *htsig.Signer) SignOption {
	return signOption{option.New(identSigner{}, s)}
}

// WithAlgorithm sets the signature algorithm. The default is hmac-sha256.
func WithAlgorithm(name string) SignOption {
	return signOption{option.New(identAlgorithm{}, name)}
}

// WithHeaders sets the headers covered by the signature.
func WithHeaders(names ...string) SignOption {
	return signOption{option.New(identHeaders{}, names)}
}

// WithClock sets the clock used to fill in a missing Date header.
func WithClock(c Clock) SignOption {
	return signOption{option.New(identClock{}, c)}
}
