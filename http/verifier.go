package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lestrrat-go/blackmagic"
	"github.com/lestrrat-go/htsig"
	"github.com/lestrrat-go/htsig/message"
	"github.com/lestrrat-go/htsig/sigparams"
)

// ErrDigestMismatch is returned by Verifier.VerifyRequest when a digest is
// required and the Digest header does not match the request body.
var ErrDigestMismatch = errors.New("htsig/http: digest does not match body")

// Verifier checks the signature of incoming requests. Used as an
// http.Handler it writes nothing on success, and hands failed requests to
// its error handler.
type Verifier struct {
	verifier      *htsig.Verifier
	requireDigest bool
	skipOnMissing bool
	errorHandler  http.Handler
	logger        *slog.Logger
}

// NewVerifier creates a Verifier backed by v.
func NewVerifier(v *htsig.Verifier, options ...VerifierOption) (*Verifier, error) {
	if v == nil {
		return nil, fmt.Errorf("htsig/http: nil verifier")
	}

	hv := &Verifier{
		verifier:     v,
		errorHandler: DefaultErrorHandler(),
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		var err error
		switch opt.Ident() {
		case identRequireDigest{}:
			err = blackmagic.AssignIfCompatible(&hv.requireDigest, opt.Value())
		case identSkipOnMissing{}:
			err = blackmagic.AssignIfCompatible(&hv.skipOnMissing, opt.Value())
		case identVerifierErrorHandler{}:
			err = blackmagic.AssignIfCompatible(&hv.errorHandler, opt.Value())
		case identLogger{}:
			err = blackmagic.AssignIfCompatible(&hv.logger, opt.Value())
		}
		if err != nil {
			return nil, fmt.Errorf("failed to apply option %s: %w", opt.Ident(), err)
		}
	}
	if hv.errorHandler == nil {
		hv.errorHandler = DefaultErrorHandler()
	}
	if hv.logger == nil {
		hv.logger = slog.New(slog.DiscardHandler)
	}
	return hv, nil
}

// VerifyRequest verifies the signature of r and, when configured, its
// Digest header. The request body remains readable afterwards.
func (v *Verifier) VerifyRequest(r *http.Request) error {
	if v.skipOnMissing && !hasSignature(r) {
		return nil
	}

	msg, err := message.FromRequest(r)
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}

	if err := v.verifier.Verify(msg); err != nil {
		return err
	}

	if v.requireDigest {
		ok, err := v.verifier.IsValidDigest(msg)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDigestMismatch
		}
	}
	return nil
}

// ServeHTTP implements http.Handler.
func (v *Verifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := v.VerifyRequest(r); err != nil {
		v.reject(w, r, err)
	}
}

func (v *Verifier) reject(w http.ResponseWriter, r *http.Request, err error) {
	v.logger.InfoContext(r.Context(), "rejected request", "method", r.Method, "path", r.URL.Path, "err", err)
	r = r.WithContext(WithVerificationError(r.Context(), err))
	v.errorHandler.ServeHTTP(w, r)
}

func hasSignature(r *http.Request) bool {
	if r.Header.Get(htsig.SignatureHeader) != "" {
		return true
	}
	for _, value := range r.Header.Values(htsig.AuthorizationHeader) {
		if _, ok := sigparams.StripScheme(value); ok {
			return true
		}
	}
	return false
}

type verificationErrorKey struct{}

// WithVerificationError adds a verification error to the context.
func WithVerificationError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, verificationErrorKey{}, err)
}

// VerificationErrorFromContext retrieves the verification error stored by
// a Verifier before it invoked its error handler.
func VerificationErrorFromContext(ctx context.Context) error {
	err, _ := ctx.Value(verificationErrorKey{}).(error)
	return err
}

// DefaultErrorHandler returns a handler that responds with 401
// Unauthorized. The reason for the failure is not disclosed.
func DefaultErrorHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("WWW-Authenticate", sigparams.Scheme)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	})
}
