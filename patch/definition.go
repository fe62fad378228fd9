package patch

import (
	"fmt"

	"mempatch/signature"
)

// Definition describes one named patch: where to find it, what to write,
// and what must be there before writing.
type Definition struct {
	Name string

	// Module is handed to the resolver; empty means the table default
	Module string

	Signature   signature.Pattern
	Replacement []byte
	Expected    signature.Pattern
}

// Validate checks the length invariant shared by signature, replacement and
// expected bytes.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrMalformedDefinition)
	}
	if len(d.Signature) == 0 {
		return fmt.Errorf("%w: %s: empty signature", ErrMalformedDefinition, d.Name)
	}
	if len(d.Replacement) != len(d.Signature) {
		return fmt.Errorf("%w: %s: replacement is %d bytes, signature is %d",
			ErrMalformedDefinition, d.Name, len(d.Replacement), len(d.Signature))
	}
	if len(d.Expected) != len(d.Signature) {
		return fmt.Errorf("%w: %s: expected is %d bytes, signature is %d",
			ErrMalformedDefinition, d.Name, len(d.Expected), len(d.Signature))
	}
	return nil
}

func (d Definition) clone() Definition {
	d.Signature = append(signature.Pattern(nil), d.Signature...)
	d.Replacement = append([]byte(nil), d.Replacement...)
	d.Expected = append(signature.Pattern(nil), d.Expected...)
	return d
}

// Table is an immutable, ordered set of definitions.
type Table struct {
	defs  []Definition
	index map[string]int
}

// NewTable validates defs and fills in defaultModule where a definition
// names none. Duplicate names are rejected.
func NewTable(defaultModule string, defs ...Definition) (*Table, error) {
	t := &Table{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}

	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := t.index[def.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %s", ErrMalformedDefinition, def.Name)
		}

		def = def.clone()
		if def.Module == "" {
			def.Module = defaultModule
		}

		t.index[def.Name] = len(t.defs)
		t.defs = append(t.defs, def)
	}

	return t, nil
}

// Lookup returns a copy of the named definition
func (t *Table) Lookup(name string) (Definition, bool) {
	i, ok := t.index[name]
	if !ok {
		return Definition{}, false
	}
	return t.defs[i].clone(), true
}

// Names returns the definition names in declaration order
func (t *Table) Names() []string {
	names := make([]string, len(t.defs))
	for i, def := range t.defs {
		names[i] = def.Name
	}
	return names
}

func (t *Table) Len() int {
	return len(t.defs)
}
