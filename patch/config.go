package patch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"mempatch/signature"

	"gopkg.in/yaml.v3"
)

// TableConfig is the YAML form of a patch table:
//
//	module: server
//	patches:
//	  - name: HasVisitedEnemySpawn
//	    signature: "40 88 B7 05 05 00 00"
//	    patch: "C6 87 05 05 00 00 01"
//	    expected: "40 88 B7 05 05 00 00"
type TableConfig struct {
	Module  string             `yaml:"module"`
	Patches []DefinitionConfig `yaml:"patches"`
}

// DefinitionConfig holds one patch in text form
type DefinitionConfig struct {
	Name      string `yaml:"name"`
	Module    string `yaml:"module,omitempty"`
	Signature string `yaml:"signature"`
	Patch     string `yaml:"patch"`
	Expected  string `yaml:"expected"`
}

// Definition parses the text fields
func (c DefinitionConfig) Definition() (Definition, error) {
	sig, err := signature.Parse(c.Signature)
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %s: signature: %w", ErrMalformedDefinition, c.Name, err)
	}

	replacement, err := signature.ParseBytes(c.Patch)
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %s: patch: %w", ErrMalformedDefinition, c.Name, err)
	}

	expected, err := signature.Parse(c.Expected)
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %s: expected: %w", ErrMalformedDefinition, c.Name, err)
	}

	return Definition{
		Name:        c.Name,
		Module:      c.Module,
		Signature:   sig,
		Replacement: replacement,
		Expected:    expected,
	}, nil
}

// Table parses and validates every definition
func (c TableConfig) Table() (*Table, error) {
	defs := make([]Definition, 0, len(c.Patches))
	for _, pc := range c.Patches {
		def, err := pc.Definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return NewTable(c.Module, defs...)
}

// DecodeTable reads a YAML patch table. Unknown keys are rejected.
func DecodeTable(r io.Reader) (*Table, error) {
	var cfg TableConfig

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return NewTable("")
		}
		return nil, fmt.Errorf("failed to decode patch table: %w", err)
	}

	return cfg.Table()
}

// ParseTable is DecodeTable over a byte slice
func ParseTable(data []byte) (*Table, error) {
	return DecodeTable(bytes.NewReader(data))
}

// LoadTable reads a YAML patch table from disk
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeTable(f)
}
