package patch

import (
	"os"
	"path/filepath"
	"testing"

	"mempatch/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTable = `
module: server
patches:
  - name: HasVisitedEnemySpawn
    signature: "40 88 B7 05 05 00 00"
    patch: "C6 87 05 05 00 00 01"
    expected: "40 88 B7 05 05 00 00"
  - name: Idle_IsSafeAlwaysFalse
    module: engine2
    signature: "74 28"
    patch: "EB 28"
    expected: "74 ?"
`

func TestParseTable(t *testing.T) {
	table, err := ParseTable([]byte(sampleTable))
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"HasVisitedEnemySpawn", "Idle_IsSafeAlwaysFalse"}, table.Names())

	def, ok := table.Lookup("HasVisitedEnemySpawn")
	require.True(t, ok)
	assert.Equal(t, "server", def.Module)
	assert.Equal(t, signature.MustParse("40 88 B7 05 05 00 00"), def.Signature)
	assert.Equal(t, []byte{0xC6, 0x87, 0x05, 0x05, 0x00, 0x00, 0x01}, def.Replacement)

	def, ok = table.Lookup("Idle_IsSafeAlwaysFalse")
	require.True(t, ok)
	assert.Equal(t, "engine2", def.Module)
	assert.Equal(t, signature.Pattern{signature.Exact(0x74), signature.Any()}, def.Expected)

	_, ok = table.Lookup("nope")
	assert.False(t, ok)
}

func TestLookupReturnsCopy(t *testing.T) {
	table, err := ParseTable([]byte(sampleTable))
	require.NoError(t, err)

	def, _ := table.Lookup("HasVisitedEnemySpawn")
	def.Replacement[0] = 0x00

	again, _ := table.Lookup("HasVisitedEnemySpawn")
	assert.Equal(t, byte(0xC6), again.Replacement[0])
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "length mismatch",
			yaml: `
patches:
  - name: GameState_Reset
    signature: "44 89 77 ? F3"
    patch: "0F 1F 40 00"
    expected: "44 89 77 0C"
`,
		},
		{
			name: "wildcard in patch",
			yaml: `
patches:
  - name: p
    signature: "AA BB"
    patch: "90 ?"
    expected: "AA BB"
`,
		},
		{
			name: "bad signature token",
			yaml: `
patches:
  - name: p
    signature: "AA BBB"
    patch: "90 90"
    expected: "AA BB"
`,
		},
		{
			name: "missing expected",
			yaml: `
patches:
  - name: p
    signature: "AA BB"
    patch: "90 90"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrMalformedDefinition)
		})
	}
}

func TestParseTableRejectsUnknownFields(t *testing.T) {
	_, err := ParseTable([]byte("patches:\n  - name: p\n    sig: \"AA\"\n"))
	assert.Error(t, err)
}

func TestParseTableEmpty(t *testing.T) {
	table, err := ParseTable(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patches.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTable), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
