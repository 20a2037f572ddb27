package stub

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v2"
)

// Seed is a stub declared in a seed file and registered at startup.
type Seed struct {
	Method       string `yaml:"method"`
	Path         string `yaml:"path"`
	Registration `yaml:",inline"`
}

// Key validates the seed target with the same rules as the add command.
func (s Seed) Key() (Key, error) {
	key, err := NewKey(s.Method, s.Path)
	if err != nil {
		return Key{}, err
	}

	if key.Reserved() {
		return Key{}, ErrReservedTarget
	}

	return key, nil
}

// LoadSeeds decodes a YAML list of seeds and validates every target.
func LoadSeeds(r io.Reader) (map[Key]Definition, error) {
	var seeds []Seed
	if err := yaml.NewDecoder(r).Decode(&seeds); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode seeds: %w", err)
	}

	stubs := make(map[Key]Definition, len(seeds))
	for i, s := range seeds {
		key, err := s.Key()
		if err != nil {
			return nil, fmt.Errorf("seed %d (%s %s): %w", i, s.Method, s.Path, err)
		}

		stubs[key] = s.Definition()
	}

	return stubs, nil
}
