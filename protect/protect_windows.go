//go:build windows

package protect

import (
	"golang.org/x/sys/windows"
)

func setRWX(base, size uintptr) error {
	var old uint32
	return windows.VirtualProtect(base, size, windows.PAGE_EXECUTE_READWRITE, &old)
}
