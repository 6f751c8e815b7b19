// Package http provides net/http integration for htsig: a verifying
// middleware, a signing RoundTripper, and a response signer.
//
// # Server
//
//	v, _ := htsig.NewVerifier(keys)
//	hv, _ := http.NewVerifier(v, http.WithRequireDigest(true))
//	handler := http.Wrap(myHandler, http.WithVerifier(hv))
//
// Requests that fail verification are handed to the error handler, which
// by default responds with 401 Unauthorized. The error that caused the
// rejection is available through VerificationErrorFromContext.
//
// # Client
//
//	client, _ := http.NewClient(key, http.WithDigest(true))
//	resp, err := client.Post("https://example.com/api", "application/json", body)
//
// Each request is cloned, given a Date header when it has none, and
// signed over (request-target), host and date, plus digest when enabled.
package http
