package sigbase_test

import (
	"net/http"
	"testing"

	"github.com/lestrrat-go/htsig/message"
	"github.com/lestrrat-go/htsig/sigbase"
	"github.com/stretchr/testify/require"
)

func testMessage() message.Message {
	hdr := http.Header{}
	hdr.Set("Date", "Fri, 01 Aug 2014 13:44:32 -0700")
	hdr.Set("Digest", "SHA-256=h7gWacNDycTMI1vWH4Z3f3Wek1nNZS8px82bBQEEARI=")
	hdr.Add("Cache-Control", "max-age=60")
	hdr.Add("Cache-Control", "must-revalidate")
	return message.New("GET", "/path?query=123", hdr, nil)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  []string
		expected string
	}{
		{
			name:    "request target, date and digest",
			headers: []string{"(request-target)", "date", "digest"},
			expected: "(request-target): get /path?query=123\n" +
				"date: Fri, 01 Aug 2014 13:44:32 -0700\n" +
				"digest: SHA-256=h7gWacNDycTMI1vWH4Z3f3Wek1nNZS8px82bBQEEARI=",
		},
		{
			name:     "order is preserved",
			headers:  []string{"date", "(request-target)"},
			expected: "date: Fri, 01 Aug 2014 13:44:32 -0700\n(request-target): get /path?query=123",
		},
		{
			name:     "names are lower-cased",
			headers:  []string{"Date"},
			expected: "date: Fri, 01 Aug 2014 13:44:32 -0700",
		},
		{
			name:     "multiple values are folded",
			headers:  []string{"cache-control"},
			expected: "cache-control: max-age=60, must-revalidate",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := sigbase.Build(testMessage(), tc.headers)
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()

		_, err := sigbase.Build(testMessage(), []string{"date", "x-missing"})
		require.ErrorIs(t, err, sigbase.ErrMissingHeader)
	})

	t.Run("no headers", func(t *testing.T) {
		t.Parallel()

		_, err := sigbase.Build(testMessage(), nil)
		require.ErrorIs(t, err, sigbase.ErrNoHeaders)
	})

	t.Run("request target on a response", func(t *testing.T) {
		t.Parallel()

		resp := message.New("", "", http.Header{"Date": {"now"}}, nil)
		_, err := sigbase.Build(resp, []string{"(request-target)", "date"})
		require.ErrorIs(t, err, sigbase.ErrNoRequestLine)

		got, err := sigbase.Build(resp, []string{"date"})
		require.NoError(t, err)
		require.Equal(t, "date: now", got)
	})
}
