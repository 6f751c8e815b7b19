// Package keystore maps key identifiers to shared secret key material.
package keystore

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrKeyNotFound is returned by Must when no key exists for an identifier.
var ErrKeyNotFound = errors.New("keystore: key not found")

// Key is a shared secret identified by ID.
type Key struct {
	ID       string
	Material []byte
}

// KeyStore looks up keys by their identifier. Implementations must be safe
// for concurrent use.
type KeyStore interface {
	Lookup(id string) (Key, bool)
}

// LookupFunc is a function adapter for KeyStore.
type LookupFunc func(id string) (Key, bool)

func (f LookupFunc) Lookup(id string) (Key, bool) {
	return f(id)
}

// Map is a KeyStore backed by an immutable map. Use NewMap to create one.
type Map struct {
	keys map[string]Key
}

// NewMap creates a Map from id to secret pairs. Entries with an empty id
// or an empty secret are skipped. The secrets are copied.
func NewMap(secrets map[string]string) *Map {
	keys := make(map[string]Key, len(secrets))
	for id, secret := range secrets {
		if id == "" || secret == "" {
			continue
		}
		keys[id] = Key{ID: id, Material: []byte(secret)}
	}
	return &Map{keys: keys}
}

// FromKeys creates a Map holding the given keys. Key material is copied.
func FromKeys(keys ...Key) (*Map, error) {
	m := make(map[string]Key, len(keys))
	for _, k := range keys {
		if k.ID == "" {
			return nil, fmt.Errorf("keystore: empty key id")
		}
		if _, ok := m[k.ID]; ok {
			return nil, fmt.Errorf("keystore: duplicate key id %q", k.ID)
		}
		m[k.ID] = k.clone()
	}
	return &Map{keys: m}, nil
}

func (m *Map) Lookup(id string) (Key, bool) {
	k, ok := m.keys[id]
	return k, ok
}

// Len returns the number of keys held.
func (m *Map) Len() int {
	return len(m.keys)
}

// Rotating is a KeyStore whose contents can be replaced while it is being
// read. Swap installs a new table atomically; readers never lock.
type Rotating struct {
	current atomic.Pointer[Map]
}

// NewRotating creates a Rotating store that initially serves initial.
// A nil initial store behaves as an empty one.
func NewRotating(initial *Map) *Rotating {
	var r Rotating
	r.Swap(initial)
	return &r
}

// Swap replaces the current key table and returns the previous one.
func (r *Rotating) Swap(next *Map) *Map {
	if next == nil {
		next = &Map{keys: map[string]Key{}}
	}
	return r.current.Swap(next)
}

func (r *Rotating) Lookup(id string) (Key, bool) {
	return r.current.Load().Lookup(id)
}

// Must looks up id in store and returns ErrKeyNotFound when it is absent.
func Must(store KeyStore, id string) (Key, error) {
	k, ok := store.Lookup(id)
	if !ok {
		return Key{}, fmt.Errorf("%w: %q", ErrKeyNotFound, id)
	}
	return k, nil
}

// Generate creates a new key with a random UUID identifier and 32 bytes of
// random material.
func Generate() (Key, error) {
	material := make([]byte, 32)
	if _, err := rand.Read(material); err != nil {
		return Key{}, fmt.Errorf("failed to generate key material: %w", err)
	}
	return Key{ID: uuid.New().String(), Material: material}, nil
}

func (k Key) clone() Key {
	material := make([]byte, len(k.Material))
	copy(material, k.Material)
	return Key{ID: k.ID, Material: material}
}
