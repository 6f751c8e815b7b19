package htsig

import (
	"log/slog"

	"github.com/lestrrat-go/htsig/algorithm"
	"github.com/lestrrat-go/option"
)

type Option = option.Interface

// VerifierOption configures a Verifier.
type VerifierOption interface {
	Option
	verifierOption()
}

// SignerOption configures a Signer.
type SignerOption interface {
	Option
	signerOption()
}

// SignerVerifierOption can be passed to both NewSigner and NewVerifier.
type SignerVerifierOption interface {
	VerifierOption
	SignerOption
}

type signerOption struct {
	Option
}

func (signerOption) signerOption() {}

type signerVerifierOption struct {
	Option
}

func (signerVerifierOption) verifierOption() {}
func (signerVerifierOption) signerOption()   {}

type identRegistry struct{}

func (identRegistry) String() string { return "WithRegistry" }

type identLogger struct{}

func (identLogger) String() string { return "WithLogger" }

type identDigestAlgorithm struct{}

func (identDigestAlgorithm) String() string { return "WithDigestAlgorithm" }

// WithRegistry sets the algorithm registry. The default is
// algorithm.Default().
func WithRegistry(r *algorithm.Registry) SignerVerifierOption {
	return signerVerifierOption{option.New(identRegistry{}, r)}
}

// WithLogger sets the logger that receives debug records about signing
// and about why a verification failed. Key material and signature bytes
// are never logged.
func WithLogger(l *slog.Logger) SignerVerifierOption {
	return signerVerifierOption{option.New(identLogger{}, l)}
}

// WithDigestAlgorithm sets the digest algorithm used by SignWithDigest and
// AuthorizeWithDigest. The default is SHA-256.
func WithDigestAlgorithm(name string) SignerOption {
	return signerOption{option.New(identDigestAlgorithm{}, name)}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
