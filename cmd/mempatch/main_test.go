package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	site     = []byte{0x40, 0x88, 0xB7, 0x05, 0x05, 0x00, 0x00}
	replaced = []byte{0xC6, 0x87, 0x05, 0x05, 0x00, 0x00, 0x01}
)

func writeImage(t *testing.T, dir string, at int) (string, []byte) {
	t.Helper()
	image := bytes.Repeat([]byte{0xCC}, 0x100)
	copy(image[at:], site)
	path := filepath.Join(dir, "server.dll")
	require.NoError(t, os.WriteFile(path, image, 0o644))
	return path, image
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScan(t *testing.T) {
	image, _ := writeImage(t, t.TempDir(), 0x40)

	out, err := run(t, "scan", image, "40 88 ? 05")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 matches")
	assert.Contains(t, out, "(offset 0x40)")
	assert.Contains(t, out, "40 88 b7 05")
}

func TestScanNegativeContext(t *testing.T) {
	image, _ := writeImage(t, t.TempDir(), 0x40)

	out, err := run(t, "scan", image, "40 88", "--context=-10")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 matches")
	assert.Contains(t, out, "000000400040  40 88 ")
	assert.NotContains(t, out, "b7")
}

func TestScanBadSignature(t *testing.T) {
	image, _ := writeImage(t, t.TempDir(), 0x40)

	_, err := run(t, "scan", image, "40 8")
	require.Error(t, err)
}

func TestCheck(t *testing.T) {
	image, _ := writeImage(t, t.TempDir(), 0x10)

	out, err := run(t, "check", image, "--config", "patches.yaml", "--base", "0x10000")
	require.NoError(t, err)
	assert.Contains(t, out, "OK   HasVisitedEnemySpawn at")
}

func TestCheckReportsMismatch(t *testing.T) {
	dir := t.TempDir()
	image, _ := writeImage(t, dir, 0x10)

	config := filepath.Join(dir, "patches.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`
patches:
  - name: Loose
    signature: "40 88 ? 05"
    patch: "90 90 90 90"
    expected: "40 88 B8 05"
`), 0o644))

	out, err := run(t, "check", image, "-c", config)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL Loose")
	assert.Contains(t, out, "byte mismatch at offset 2")
}

func TestApplyWritesPatchedCopy(t *testing.T) {
	dir := t.TempDir()
	image, original := writeImage(t, dir, 0x20)
	output := filepath.Join(dir, "server.patched.dll")

	out, err := run(t, "apply", image, "-c", "patches.yaml", "-o", output, "--restore")
	require.NoError(t, err)
	assert.Contains(t, out, "APPLIED HasVisitedEnemySpawn")
	assert.Contains(t, out, "restored image matches")

	patched, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, replaced, patched[0x20:0x20+len(replaced)])
	assert.Equal(t, original[:0x20], patched[:0x20])
	assert.Equal(t, original[0x20+len(site):], patched[0x20+len(site):])

	input, err := os.ReadFile(image)
	require.NoError(t, err)
	assert.Equal(t, original, input)
}

func TestApplyRefusesPartialImage(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "server.dll")
	require.NoError(t, os.WriteFile(image, bytes.Repeat([]byte{0xCC}, 64), 0o644))
	output := filepath.Join(dir, "out.dll")

	out, err := run(t, "apply", image, "-c", "patches.yaml", "-o", output)
	require.Error(t, err)
	assert.Contains(t, out, "SKIPPED HasVisitedEnemySpawn")
	assert.NoFileExists(t, output)
}

func TestApplyRequiresOutput(t *testing.T) {
	image, _ := writeImage(t, t.TempDir(), 0)

	_, err := run(t, "apply", image, "-c", "patches.yaml")
	require.Error(t, err)
}

func TestHelpListsCommands(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "scan")
	assert.Contains(t, out, "check")
	assert.Contains(t, out, "apply")
}

func TestParseBase(t *testing.T) {
	addr, err := parseBase("0x140000000")
	require.NoError(t, err)
	assert.EqualValues(t, 0x140000000, addr)

	addr, err = parseBase("4096")
	require.NoError(t, err)
	assert.EqualValues(t, 4096, addr)

	_, err = parseBase("nope")
	require.Error(t, err)
}
