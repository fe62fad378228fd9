//go:build windows

package protect

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestEnsureWritableReadOnlyPage(t *testing.T) {
	addr, err := windows.VirtualAlloc(0, 2*PageSize, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READONLY)
	require.NoError(t, err)
	defer windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
	page := unsafe.Slice((*byte)(unsafe.Pointer(addr)), 2*PageSize)

	// Straddle the boundary between the two pages.
	require.True(t, OS{}.EnsureWritable(addr+PageSize-2, 4))

	copy(page[PageSize-2:], []byte{0xAA, 0xBB, 0xCC, 0xDD})
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, page[PageSize-2:PageSize+2])
}

func TestEnsureWritableUnmapped(t *testing.T) {
	addr, err := windows.VirtualAlloc(0, PageSize, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READONLY)
	require.NoError(t, err)
	require.NoError(t, windows.VirtualFree(addr, 0, windows.MEM_RELEASE))

	assert.False(t, EnsureWritable(addr+8, 4))
	assert.Error(t, EnsureWritableErr(addr+8, 4))
}
