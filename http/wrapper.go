package http

import (
	"net/http"
)

// Middleware verifies requests and signs responses around a handler.
type Middleware struct {
	handler  http.Handler
	verifier *Verifier
	signer   *ResponseSigner
}

// Wrap wraps h with request verification and/or response signing.
// Without options the handler is returned wrapped but unchanged in
// behavior.
func Wrap(h http.Handler, options ...MiddlewareOption) *Middleware {
	m := &Middleware{handler: h}
	for _, opt := range options {
		switch opt.Ident() {
		case identVerifier{}:
			m.verifier = opt.Value().(*Verifier)
		case identResponseSigner{}:
			m.signer = opt.Value().(*ResponseSigner)
		}
	}
	return m
}

// ServeHTTP implements http.Handler.
func (m *Middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if v := m.verifier; v != nil {
		if err := v.VerifyRequest(r); err != nil {
			v.reject(w, r, err)
			return
		}
	}

	if m.signer == nil {
		m.handler.ServeHTTP(w, r)
		return
	}

	sw := m.signer.ResponseWriter(w)
	m.handler.ServeHTTP(sw, r)
	_ = sw.Finish()
}
