package process

import (
	"fmt"
)

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// Ptr converts the address to a native pointer-sized integer
func (pma ProcessMemoryAddress) Ptr() uintptr {
	return uintptr(pma)
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint
