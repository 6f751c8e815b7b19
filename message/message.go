// Package message defines the read-only view of an HTTP message that the
// signing and verification code consumes, along with adapters for the
// net/http request and response types.
package message

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Message is the read-only view of an HTTP message.
//
// HeaderValues must perform a case-insensitive lookup and return the values
// in the order they were received. A nil or empty slice means the header is
// absent.
type Message interface {
	Method() string
	RequestTarget() string
	HeaderValues(name string) []string
	Body() []byte
}

type basic struct {
	method string
	target string
	header http.Header
	body   []byte
}

// New creates a Message from discrete values. The header is not copied,
// so the caller must not modify it while the Message is in use.
func New(method, target string, header http.Header, body []byte) Message {
	if header == nil {
		header = http.Header{}
	}
	return &basic{
		method: method,
		target: target,
		header: header,
		body:   body,
	}
}

func (m *basic) Method() string        { return m.method }
func (m *basic) RequestTarget() string { return m.target }
func (m *basic) Body() []byte          { return m.body }

func (m *basic) HeaderValues(name string) []string {
	return lookup(m.header, name)
}

type request struct {
	basic
	host string
}

func (m *request) HeaderValues(name string) []string {
	if values := lookup(m.header, name); len(values) > 0 {
		return values
	}
	// net/http moves Host out of the header map
	if m.host != "" && strings.EqualFold(name, "host") {
		return []string{m.host}
	}
	return nil
}

// FromRequest creates a Message from an *http.Request. The request body, if
// any, is read in full and replaced with an equivalent reader so that
// handlers further down the chain can still consume it.
func FromRequest(req *http.Request) (Message, error) {
	if req == nil {
		return nil, fmt.Errorf("message: nil request")
	}

	body, err := readAndRestore(&req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	host := req.Host
	if host == "" && req.URL != nil {
		host = req.URL.Host
	}

	return &request{
		basic: basic{
			method: req.Method,
			target: requestTarget(req),
			header: req.Header,
			body:   body,
		},
		host: host,
	}, nil
}

// FromResponse creates a Message from an *http.Response. Responses carry no
// request line, so Method and RequestTarget are empty. The response body is
// read in full and restored.
func FromResponse(resp *http.Response) (Message, error) {
	if resp == nil {
		return nil, fmt.Errorf("message: nil response")
	}

	body, err := readAndRestore(&resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return New("", "", resp.Header, body), nil
}

// requestTarget returns the path and query exactly as they appeared on the
// request line when available. Server side requests carry it in RequestURI.
func requestTarget(req *http.Request) string {
	if strings.HasPrefix(req.RequestURI, "/") {
		return req.RequestURI
	}
	if req.URL == nil {
		return ""
	}

	path := req.URL.EscapedPath()
	if path == "" {
		path = "/"
	}
	if req.URL.RawQuery != "" || req.URL.ForceQuery {
		return path + "?" + req.URL.RawQuery
	}
	return path
}

func readAndRestore(rc *io.ReadCloser) ([]byte, error) {
	if *rc == nil || *rc == http.NoBody {
		return nil, nil
	}

	data, err := io.ReadAll(*rc)
	_ = (*rc).Close()
	if err != nil {
		return nil, err
	}
	*rc = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func lookup(h http.Header, name string) []string {
	if values := h.Values(name); len(values) > 0 {
		return values
	}

	// Keys written directly into the map bypass canonicalization.
	var values []string
	for key, v := range h {
		if strings.EqualFold(key, name) {
			values = append(values, v...)
		}
	}
	return values
}
