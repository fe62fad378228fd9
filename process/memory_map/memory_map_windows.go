//go:build windows

package memory_map

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// WindowsMemoryMap implements MemoryMap for Windows
type WindowsMemoryMap struct{}

var _ MemoryMap = (*WindowsMemoryMap)(nil)

// NewWindowsMemoryMap creates a new WindowsMemoryMap instance
func NewWindowsMemoryMap() *WindowsMemoryMap {
	return &WindowsMemoryMap{}
}

// ReadMemoryMap walks the committed regions of a process with VirtualQueryEx
func (w *WindowsMemoryMap) ReadMemoryMap(pid int) ([]MemoryMapItem, error) {
	var handle windows.Handle
	if uint32(pid) == windows.GetCurrentProcessId() {
		handle = windows.CurrentProcess()
	} else {
		h, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION, false, uint32(pid))
		if err != nil {
			return nil, fmt.Errorf("OpenProcess failed: %w", err)
		}
		defer windows.CloseHandle(h)
		handle = h
	}

	var memoryMap []MemoryMapItem
	var mbi windows.MemoryBasicInformation
	addr := uintptr(0)
	for {
		if err := windows.VirtualQueryEx(handle, addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
			// ERROR_INVALID_PARAMETER marks the end of the address space
			break
		}

		if mbi.State == windows.MEM_COMMIT {
			memoryMap = append(memoryMap, MemoryMapItem{
				Address: uint64(mbi.BaseAddress),
				Size:    uint(mbi.RegionSize),
				Perms:   ProtectToPerms(mbi.Protect),
			})
		}

		next := mbi.BaseAddress + mbi.RegionSize
		if next <= addr {
			break
		}
		addr = next
	}

	return memoryMap, nil
}

// ProtectToPerms converts a PAGE_* protection value into the "rwxp" form used on Linux
func ProtectToPerms(protect uint32) string {
	if protect&(windows.PAGE_GUARD|windows.PAGE_NOACCESS) != 0 {
		return "---p"
	}

	perms := []byte("---p")
	switch protect &^ (windows.PAGE_NOCACHE | windows.PAGE_WRITECOMBINE) {
	case windows.PAGE_READONLY:
		perms[0] = 'r'
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		perms[0], perms[1] = 'r', 'w'
	case windows.PAGE_EXECUTE:
		perms[2] = 'x'
	case windows.PAGE_EXECUTE_READ:
		perms[0], perms[2] = 'r', 'x'
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		perms[0], perms[1], perms[2] = 'r', 'w', 'x'
	}
	return string(perms)
}
