// Package sigbase builds the signing string that is fed to the keyed hash
// when signing or verifying a message.
package sigbase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/htsig/message"
)

// RequestTarget is the pseudo-header naming the request method and target.
const RequestTarget = "(request-target)"

var (
	// ErrMissingHeader is returned when a covered header is absent from
	// the message.
	ErrMissingHeader = errors.New("sigbase: covered header missing from message")

	// ErrNoHeaders is returned for an empty list of covered headers.
	ErrNoHeaders = errors.New("sigbase: no headers to sign")

	// ErrNoRequestLine is returned when (request-target) is covered but
	// the message has no method or target, as with responses.
	ErrNoRequestLine = errors.New("sigbase: message has no request line")
)

// Build creates the signing string for msg over the given header names.
// Each name produces one line, in order:
//
//	(request-target): get /path?query=123
//	date: Fri, 01 Aug 2014 13:44:32 -0700
//
// Lines are separated by a single newline with none after the last.
// Multiple values of a header are joined with ", ".
func Build(msg message.Message, names []string) (string, error) {
	if len(names) == 0 {
		return "", ErrNoHeaders
	}

	var sb strings.Builder
	for i, name := range names {
		name = strings.ToLower(name)
		if i > 0 {
			sb.WriteByte('\n')
		}

		if name == RequestTarget {
			method, target := msg.Method(), msg.RequestTarget()
			if method == "" || target == "" {
				return "", ErrNoRequestLine
			}
			sb.WriteString(RequestTarget)
			sb.WriteString(": ")
			sb.WriteString(strings.ToLower(method))
			sb.WriteByte(' ')
			sb.WriteString(target)
			continue
		}

		values := msg.HeaderValues(name)
		if len(values) == 0 {
			return "", fmt.Errorf("%w: %q", ErrMissingHeader, name)
		}
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(values, ", "))
	}
	return sb.String(), nil
}
