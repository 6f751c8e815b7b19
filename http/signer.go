package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/lestrrat-go/blackmagic"
	"github.com/lestrrat-go/htsig"
	"github.com/lestrrat-go/htsig/algorithm"
	"github.com/lestrrat-go/htsig/keystore"
	"github.com/lestrrat-go/htsig/message"
)

// ResponseSigner signs responses produced by a handler. Responses are
// buffered in full so that a Digest of the body can be computed before
// the headers are sent. The Digest header is always covered.
type ResponseSigner struct {
	signer      *htsig.Signer
	key         keystore.Key
	algorithm   string
	headers     []string
	clock       Clock
	onError     func(error)
	failOnError bool
}

// DefaultResponseHeaders returns the headers covered by response
// signatures unless WithHeaders is given. digest is added automatically.
func DefaultResponseHeaders() []string {
	return []string{"date"}
}

// NewResponseSigner creates a ResponseSigner that signs with key.
func NewResponseSigner(key keystore.Key, options ...ResponseSignerOption) (*ResponseSigner, error) {
	s := &ResponseSigner{
		key:       key,
		algorithm: algorithm.HMACSHA256,
		headers:   DefaultResponseHeaders(),
		clock:     SystemClock{},
	}
	for _, opt := range options {
		var err error
		switch opt.Ident() {
		case identSigner{}:
			err = blackmagic.AssignIfCompatible(&s.signer, opt.Value())
		case identAlgorithm{}:
			err = blackmagic.AssignIfCompatible(&s.algorithm, opt.Value())
		case identHeaders{}:
			err = blackmagic.AssignIfCompatible(&s.headers, opt.Value())
		case identClock{}:
			err = blackmagic.AssignIfCompatible(&s.clock, opt.Value())
		case identSigningErrorHandler{}:
			err = blackmagic.AssignIfCompatible(&s.onError, opt.Value())
		case identFailOnError{}:
			err = blackmagic.AssignIfCompatible(&s.failOnError, opt.Value())
		}
		if err != nil {
			return nil, fmt.Errorf("failed to apply option %s: %w", opt.Ident(), err)
		}
	}

	if s.signer == nil {
		signer, err := htsig.NewSigner()
		if err != nil {
			return nil, fmt.Errorf("failed to create signer: %w", err)
		}
		s.signer = signer
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	return s, nil
}

// ResponseWriter wraps w. The returned writer must be finished with
// Finish once the handler has returned; nothing reaches w before then.
func (s *ResponseSigner) ResponseWriter(w http.ResponseWriter) *SigningResponseWriter {
	return &SigningResponseWriter{ResponseWriter: w, signer: s}
}

// SignResponse signs a response whose headers and body are given. It sets
// Date when absent, and sets Digest and Signature.
func (s *ResponseSigner) SignResponse(hdr http.Header, body []byte) error {
	setDate(hdr, s.clock)

	out, err := s.signer.SignWithDigest(message.New("", "", hdr, body), s.key, s.algorithm, s.headers)
	if err != nil {
		return fmt.Errorf("failed to sign response: %w", err)
	}
	out.Apply(hdr)
	return nil
}

// SigningResponseWriter buffers a response until Finish signs and sends it.
type SigningResponseWriter struct {
	http.ResponseWriter
	signer   *ResponseSigner
	status   int
	body     bytes.Buffer
	finished bool
}

func (w *SigningResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *SigningResponseWriter) Write(data []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(data)
}

// Finish signs the buffered response and writes it to the underlying
// ResponseWriter. Calls after the first are no-ops.
func (w *SigningResponseWriter) Finish() error {
	if w.finished {
		return nil
	}
	w.finished = true

	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	if err := w.signer.SignResponse(w.Header(), w.body.Bytes()); err != nil {
		if w.signer.onError != nil {
			w.signer.onError(err)
		}
		if w.signer.failOnError {
			http.Error(w.ResponseWriter, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return err
		}
	}

	w.ResponseWriter.WriteHeader(status)
	if _, err := w.ResponseWriter.Write(w.body.Bytes()); err != nil {
		return fmt.Errorf("failed to write response body: %w", err)
	}
	return nil
}
