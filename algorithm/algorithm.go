// Package algorithm provides the registry that maps signature algorithm
// names to keyed hash functions, and digest algorithm names to hash
// functions.
//
// A Registry is immutable once built, so a single instance can be shared
// between any number of goroutines.
package algorithm

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"sync"

	"github.com/lestrrat-go/jwx/v3/jws/jwsbb"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Signature algorithm names.
const (
	HMACSHA256 = "hmac-sha256"
	HMACSHA384 = "hmac-sha384"
	HMACSHA512 = "hmac-sha512"
)

// Digest algorithm names. Lookups are case-sensitive.
const (
	SHA256     = "SHA-256"
	SHA512     = "SHA-512"
	SHA3_256   = "SHA3-256"
	SHA3_512   = "SHA3-512"
	BLAKE2b256 = "BLAKE2b-256"
	BLAKE2b512 = "BLAKE2b-512"
)

// KeyedHash computes a MAC over data using key.
type KeyedHash func(key, data []byte) ([]byte, error)

// HashFunc creates a new unkeyed hash.
type HashFunc func() hash.Hash

// Registry is a read-only table of algorithms. Use a Builder to create one.
type Registry struct {
	signing map[string]KeyedHash
	digest  map[string]HashFunc
}

// SigningFunc returns the keyed hash registered under name.
func (r *Registry) SigningFunc(name string) (KeyedHash, bool) {
	fn, ok := r.signing[name]
	return fn, ok
}

// DigestFunc returns the hash constructor registered under name.
func (r *Registry) DigestFunc(name string) (HashFunc, bool) {
	fn, ok := r.digest[name]
	return fn, ok
}

// Builder assembles a Registry.
type Builder struct {
	signing map[string]KeyedHash
	digest  map[string]HashFunc
	err     error
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		signing: make(map[string]KeyedHash),
		digest:  make(map[string]HashFunc),
	}
}

// From seeds the builder with every entry of r.
func (b *Builder) From(r *Registry) *Builder {
	for name, fn := range r.signing {
		b.signing[name] = fn
	}
	for name, fn := range r.digest {
		b.digest[name] = fn
	}
	return b
}

// Signing registers a keyed hash under name, replacing any previous entry.
func (b *Builder) Signing(name string, fn KeyedHash) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" || fn == nil {
		b.err = fmt.Errorf("algorithm: invalid signing entry %q", name)
		return b
	}
	b.signing[name] = fn
	return b
}

// Digest registers a hash constructor under name, replacing any previous
// entry.
func (b *Builder) Digest(name string, fn HashFunc) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" || fn == nil {
		b.err = fmt.Errorf("algorithm: invalid digest entry %q", name)
		return b
	}
	b.digest[name] = fn
	return b
}

// Build creates the Registry. The builder must not be reused afterwards.
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := &Registry{
		signing: b.signing,
		digest:  b.digest,
	}
	b.signing = nil
	b.digest = nil
	return r, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewBuilder().
		Signing(HMACSHA256, jwsHMAC("HS256")).
		Signing(HMACSHA384, jwsHMAC("HS384")).
		Signing(HMACSHA512, jwsHMAC("HS512")).
		Digest(SHA256, sha256.New).
		Digest(SHA512, sha512.New).
		Digest(SHA3_256, func() hash.Hash { return sha3.New256() }).
		Digest(SHA3_512, func() hash.Hash { return sha3.New512() }).
		Digest(BLAKE2b256, blake2b256).
		Digest(BLAKE2b512, blake2b512).
		MustBuild()
})

// Default returns the registry holding the algorithms that ship with this
// package.
func Default() *Registry {
	return defaultRegistry()
}

// jwsHMAC signs with the JWS HMAC algorithm alg. The signing input is the
// raw data, with no JOSE header.
func jwsHMAC(alg string) KeyedHash {
	return func(key, data []byte) ([]byte, error) {
		sig, err := jwsbb.Sign(key, alg, data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to sign with algorithm %s: %w", alg, err)
		}
		return sig, nil
	}
}

// blake2b constructors only fail for oversized keys, and these are unkeyed.
func blake2b256() hash.Hash {
	h, _ := blake2b.New256(nil)
	return h
}

func blake2b512() hash.Hash {
	h, _ := blake2b.New512(nil)
	return h
}
