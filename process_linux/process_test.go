//go:build linux

package process_linux

import (
	"os"
	"testing"
	"unsafe"

	"mempatch/process"
	"mempatch/protect"
	"mempatch/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func mapPage(t *testing.T, prot int) ([]byte, process.ProcessMemoryAddress) {
	t.Helper()

	page, err := unix.Mmap(-1, 0, protect.PageSize, prot, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	require.NoError(t, err)
	t.Cleanup(func() { _ = unix.Munmap(page) })

	return page, process.ProcessMemoryAddress(uintptr(unsafe.Pointer(&page[0])))
}

func TestReadWriteMemory(t *testing.T) {
	proc, err := New()
	require.NoError(t, err)
	defer proc.Close()

	page, addr := mapPage(t, unix.PROT_READ|unix.PROT_WRITE)
	copy(page[16:], []byte{0xAA, 0xBB})

	assert.True(t, proc.IsValidAddress(addr+16))

	got, err := proc.ReadMemory(addr+16, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, got)

	require.NoError(t, proc.WriteMemory(addr+16, []byte{0xCC, 0xDD}))
	assert.Equal(t, []byte{0xCC, 0xDD}, page[16:18])
}

func TestWriteReadOnlyPage(t *testing.T) {
	proc, err := New()
	require.NoError(t, err)
	defer proc.Close()

	page, addr := mapPage(t, unix.PROT_READ)

	err = proc.WriteMemory(addr+8, []byte{0x90})
	require.Error(t, err)
	assert.Equal(t, byte(0x00), page[8])

	require.True(t, protect.EnsureWritable(addr.Ptr()+8, 1))
	require.NoError(t, proc.WriteMemory(addr+8, []byte{0x90}))
	assert.Equal(t, byte(0x90), page[8])
}

func TestReadUnmapped(t *testing.T) {
	proc, err := New()
	require.NoError(t, err)
	defer proc.Close()

	page, err := unix.Mmap(-1, 0, protect.PageSize, unix.PROT_READ, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	require.NoError(t, err)
	addr := process.ProcessMemoryAddress(uintptr(unsafe.Pointer(&page[0])))
	require.NoError(t, unix.Munmap(page))

	assert.False(t, proc.IsValidAddress(addr))

	_, err = proc.ReadMemory(addr, 4)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)

	assert.False(t, proc.IsValidAddress(0))
}

func TestScanModuleExecutable(t *testing.T) {
	proc, err := New()
	require.NoError(t, err)
	defer proc.Close()

	exe, err := os.Executable()
	require.NoError(t, err)

	// The first mapping of an ELF executable starts with its header
	addr, err := proc.ScanModule(exe, signature.MustParse("7F 45 4C 46 ? ?"))
	require.NoError(t, err)

	got, err := proc.ReadMemory(addr, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x7F, 'E', 'L', 'F'}, got)
}

func TestScanModuleMissing(t *testing.T) {
	proc, err := New()
	require.NoError(t, err)
	defer proc.Close()

	_, err = proc.ScanModule("libdefinitely-not-loaded.so", signature.MustParse("90"))
	assert.ErrorIs(t, err, process.ErrModuleNotFound)
}

func TestClosedProcess(t *testing.T) {
	proc, err := New()
	require.NoError(t, err)
	require.NoError(t, proc.Close())

	_, err = proc.ReadMemory(0x1000, 1)
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
	assert.ErrorIs(t, proc.WriteMemory(0x1000, []byte{1}), process.ErrProcessNotOpen)
}
