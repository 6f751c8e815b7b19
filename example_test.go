package htsig_test

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/lestrrat-go/htsig"
	"github.com/lestrrat-go/htsig/algorithm"
	"github.com/lestrrat-go/htsig/keystore"
	"github.com/lestrrat-go/htsig/message"
	"github.com/lestrrat-go/htsig/sigbase"
)

// ExampleSigner_SignWithDigest demonstrates how to sign an HTTP request
// along with a Digest of its body
func ExampleSigner_SignWithDigest() {
	req, err := http.NewRequest(http.MethodGet, "https://example.com/path?query=123",
		strings.NewReader("Some body (though any body in a GET should be ignored)"))
	if err != nil {
		panic(err)
	}
	req.Header.Set("Date", "Fri, 01 Aug 2014 13:44:32 -0700")

	msg, err := message.FromRequest(req)
	if err != nil {
		panic(err)
	}

	signer, err := htsig.NewSigner()
	if err != nil {
		panic(err)
	}

	key := keystore.Key{ID: "secret1", Material: []byte("secret")}
	headers, err := signer.SignWithDigest(msg, key, algorithm.HMACSHA256, []string{sigbase.RequestTarget, "date"})
	if err != nil {
		panic(err)
	}
	headers.Apply(req.Header)

	fmt.Println(req.Header.Get("Digest"))
	fmt.Println(req.Header.Get("Signature"))
	// Output:
	// SHA-256=h7gWacNDycTMI1vWH4Z3f3Wek1nNZS8px82bBQEEARI=
	// keyId="secret1",algorithm="hmac-sha256",headers="(request-target) date digest",signature="tcniMTUZOzRWCgKmLNAHag0CManFsj25ze9Skpk4q8c="
}

// ExampleVerifier demonstrates how to verify a signed HTTP request
func ExampleVerifier() {
	req, err := http.NewRequest(http.MethodGet, "https://example.com/path?query=123",
		strings.NewReader("Some body (though any body in a GET should be ignored)"))
	if err != nil {
		panic(err)
	}
	req.Header.Set("Date", "Fri, 01 Aug 2014 13:44:32 -0700")
	req.Header.Set("Digest", "SHA-256=h7gWacNDycTMI1vWH4Z3f3Wek1nNZS8px82bBQEEARI=")
	req.Header.Set("Authorization", `Signature keyId="secret1",algorithm="hmac-sha256",headers="(request-target) date digest",signature="tcniMTUZOzRWCgKmLNAHag0CManFsj25ze9Skpk4q8c="`)

	verifier, err := htsig.NewVerifier(keystore.NewMap(map[string]string{"secret1": "secret"}))
	if err != nil {
		panic(err)
	}

	msg, err := message.FromRequest(req)
	if err != nil {
		panic(err)
	}

	fmt.Printf("signature valid: %t\n", verifier.IsValid(msg))

	ok, err := verifier.IsValidWithDigest(msg)
	if err != nil {
		panic(err)
	}
	fmt.Printf("signature and digest valid: %t\n", ok)

	req.Header.Set("Digest", "SHA-255=xxx")
	msg, _ = message.FromRequest(req)
	_, err = verifier.IsValidDigest(msg)
	fmt.Println(err)
	// Output:
	// signature valid: true
	// signature and digest valid: true
	// digest: unsupported algorithm "SHA-255" in Digest header
}
