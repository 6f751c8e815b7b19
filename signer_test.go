package htsig_test

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/lestrrat-go/htsig"
	"github.com/lestrrat-go/htsig/algorithm"
	"github.com/lestrrat-go/htsig/keystore"
	"github.com/lestrrat-go/htsig/message"
	"github.com/lestrrat-go/htsig/sigbase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner(t *testing.T, options ...htsig.SignerOption) *htsig.Signer {
	t.Helper()
	s, err := htsig.NewSigner(options...)
	require.NoError(t, err)
	return s
}

func secret1() keystore.Key {
	return keystore.Key{ID: "secret1", Material: []byte("secret")}
}

func unsigned() *messageFixture {
	return newFixture().del("Signature")
}

func TestSignerKnownVector(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	msg := unsigned().build()

	value, err := s.Sign(msg, secret1(), algorithm.HMACSHA256, []string{sigbase.RequestTarget, "date", "digest"})
	require.NoError(t, err)
	require.Equal(t, testSignatureHeader, value)

	auth, err := s.Authorize(msg, secret1(), algorithm.HMACSHA256, []string{sigbase.RequestTarget, "Date", "Digest"})
	require.NoError(t, err)
	require.Equal(t, "Signature "+testSignatureHeader, auth)

	// the message itself is untouched
	require.Empty(t, msg.HeaderValues("Signature"))
	require.Empty(t, msg.HeaderValues("Authorization"))
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	keys := keystore.NewMap(map[string]string{"k1": "a fairly long shared secret"})
	v, err := htsig.NewVerifier(keys)
	require.NoError(t, err)
	key, ok := keys.Lookup("k1")
	require.True(t, ok)

	algorithms := []string{algorithm.HMACSHA256, algorithm.HMACSHA384, algorithm.HMACSHA512}
	headerSets := [][]string{
		{sigbase.RequestTarget},
		{"date"},
		{sigbase.RequestTarget, "date", "digest", "x-multi"},
		{"x-multi", "date"},
	}

	for _, alg := range algorithms {
		for _, headers := range headerSets {
			t.Run(alg+"/"+strings.Join(headers, ","), func(t *testing.T) {
				t.Parallel()

				hdr := http.Header{}
				hdr.Set("Date", testDate)
				hdr.Set("Digest", testDigest)
				hdr.Add("X-Multi", "one")
				hdr.Add("X-Multi", "two")

				value, err := s.Sign(message.New("PUT", "/a/b?c=d", hdr, nil), key, alg, headers)
				require.NoError(t, err)

				hdr.Set("Signature", value)
				signed := message.New("PUT", "/a/b?c=d", hdr, nil)
				require.True(t, v.IsValid(signed))

				hdr.Add("X-Multi", "three")
				if strings.Contains(strings.Join(headers, " "), "x-multi") {
					require.False(t, v.IsValid(message.New("PUT", "/a/b?c=d", hdr, nil)))
				}
			})
		}
	}
}

func TestSignWithDigest(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	v := testVerifier(t)

	hdr := http.Header{}
	hdr.Set("Date", testDate)
	msg := message.New("GET", "/path?query=123", hdr, []byte(testBody))

	t.Run("signature", func(t *testing.T) {
		t.Parallel()

		out, err := s.SignWithDigest(msg, secret1(), algorithm.HMACSHA256, []string{sigbase.RequestTarget, "date"})
		require.NoError(t, err)
		require.Equal(t, testDigest, out.Digest)
		require.Equal(t, testSignatureHeader, out.Signature)
		require.Empty(t, out.Authorization)

		signed := hdr.Clone()
		out.Apply(signed)
		ok, err := v.IsValidWithDigest(message.New("GET", "/path?query=123", signed, []byte(testBody)))
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("authorization", func(t *testing.T) {
		t.Parallel()

		out, err := s.AuthorizeWithDigest(msg, secret1(), algorithm.HMACSHA256, []string{sigbase.RequestTarget, "date", "digest"})
		require.NoError(t, err)
		require.Equal(t, "Signature "+testSignatureHeader, out.Authorization)
		require.Empty(t, out.Signature)

		signed := hdr.Clone()
		out.Apply(signed)
		ok, err := v.IsValidWithDigest(message.New("GET", "/path?query=123", signed, []byte(testBody)))
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("custom digest algorithm", func(t *testing.T) {
		t.Parallel()

		s512 := testSigner(t, htsig.WithDigestAlgorithm(algorithm.SHA512))
		out, err := s512.SignWithDigest(msg, secret1(), algorithm.HMACSHA256, []string{"date"})
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(out.Digest, "SHA-512="))
		require.Contains(t, out.Signature, `headers="date digest"`)
	})

	require.Empty(t, msg.HeaderValues("Digest"))
}

func TestSignerErrors(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	msg := unsigned().build()

	_, err := s.Sign(msg, secret1(), "hmac-md5", []string{"date"})
	require.ErrorIs(t, err, htsig.ErrUnsupportedAlgorithm)

	_, err = s.Sign(msg, secret1(), algorithm.HMACSHA256, []string{"x-missing"})
	require.ErrorIs(t, err, sigbase.ErrMissingHeader)

	_, err = s.Sign(msg, secret1(), algorithm.HMACSHA256, nil)
	require.ErrorIs(t, err, sigbase.ErrNoHeaders)

	_, err = s.Sign(msg, secret1(), algorithm.HMACSHA256, []string{"bad header"})
	require.ErrorIs(t, err, htsig.ErrInvalidHeaderName)

	_, err = s.Sign(msg, keystore.Key{ID: "empty"}, algorithm.HMACSHA256, []string{"date"})
	require.ErrorIs(t, err, htsig.ErrEmptyKey)

	_, err = s.Sign(msg, keystore.Key{Material: []byte("x")}, algorithm.HMACSHA256, []string{"date"})
	require.Error(t, err)

	_, err = htsig.NewSigner(htsig.WithDigestAlgorithm("SHA-255"))
	require.ErrorIs(t, err, htsig.ErrUnsupportedAlgorithm)
}

func TestSignerConcurrentUse(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	v := testVerifier(t)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := unsigned().build()
			value, err := s.Sign(msg, secret1(), algorithm.HMACSHA256, []string{sigbase.RequestTarget, "date", "digest"})
			if !assert.NoError(t, err) {
				return
			}
			hdr := http.Header{}
			hdr.Set("Date", testDate)
			hdr.Set("Digest", testDigest)
			hdr.Set("Signature", value)
			if !v.IsValid(message.New("GET", "/path?query=123", hdr, nil)) {
				t.Errorf("signature from goroutine did not verify")
			}
		}()
	}
	wg.Wait()
}
