package keystore

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileEntry is a single key in a key file.
type fileEntry struct {
	ID     string `yaml:"id"`
	Secret string `yaml:"secret"`
}

type fileFormat struct {
	Keys []fileEntry `yaml:"keys"`
}

// Load reads a YAML key file of the form
//
//	keys:
//	  - id: secret1
//	    secret: secret
//
// Entries with an empty id or secret are skipped. Duplicate ids are an error.
func Load(r io.Reader) (*Map, error) {
	var doc fileFormat
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &Map{keys: map[string]Key{}}, nil
		}
		return nil, fmt.Errorf("failed to decode key file: %w", err)
	}

	keys := make([]Key, 0, len(doc.Keys))
	for _, e := range doc.Keys {
		if e.ID == "" || e.Secret == "" {
			continue
		}
		keys = append(keys, Key{ID: e.ID, Material: []byte(e.Secret)})
	}
	return FromKeys(keys...)
}

// LoadFile reads a YAML key file from path. See Load for the format.
func LoadFile(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load key file %q: %w", path, err)
	}
	return m, nil
}
