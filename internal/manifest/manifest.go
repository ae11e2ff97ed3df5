// Package manifest loads a TOML archive definition: the set of input
// files and packing options for a single archive, so a build can be
// driven by a declarative file instead of a long flag list.
package manifest

import (
	"io/ioutil"

	"github.com/BurntSushi/toml"
)

// ArchiveSection only needs a nice exported name for the TOML parser to
// produce more meaningful error messages on malformed input data.
type ArchiveSection struct {
	Format           string
	FixedEntryStride int
	PayloadAlignment int
	Files            []string
}

// Definition is the top-level shape of a manifest file.
type Definition struct {
	Archive ArchiveSection
}

// Load reads and parses the TOML manifest at path.
func Load(path string) (*Definition, error) {
	blob, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var def Definition
	_, err = toml.Decode(string(blob), &def)
	if err != nil {
		return nil, err
	}
	return &def, nil
}
