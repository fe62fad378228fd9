//go:build unix

package protect

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func setRWX(base, size uintptr) error {
	region := unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
	return unix.Mprotect(region, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC)
}
