// Package protect changes page protection so code bytes in the current
// process can be overwritten.
package protect

import "fmt"

// PageSize is the page granularity used to align protection changes. It is
// fixed rather than queried from the OS.
const PageSize = 4096

// AlignRegion returns the page aligned region covering [addr, addr+size).
func AlignRegion(addr, size uintptr) (base, alignedSize uintptr) {
	base = addr &^ (PageSize - 1)
	alignedSize = size + (addr - base)
	return base, alignedSize
}

// EnsureWritable makes [addr, addr+size) readable, writable and executable.
// It reports false if the OS refused the change. addr must not be zero.
func EnsureWritable(addr, size uintptr) bool {
	if addr == 0 {
		panic("protect: EnsureWritable called with a null address")
	}

	base, alignedSize := AlignRegion(addr, size)
	if err := setRWX(base, alignedSize); err != nil {
		return false
	}
	return true
}

// EnsureWritableErr is EnsureWritable with the OS error preserved.
func EnsureWritableErr(addr, size uintptr) error {
	if addr == 0 {
		panic("protect: EnsureWritable called with a null address")
	}

	base, alignedSize := AlignRegion(addr, size)
	if err := setRWX(base, alignedSize); err != nil {
		return fmt.Errorf("protect 0x%X (+%d): %w", base, alignedSize, err)
	}
	return nil
}

// OS changes protection through the host operating system.
type OS struct{}

func (OS) EnsureWritable(addr, size uintptr) bool {
	return EnsureWritable(addr, size)
}

// Noop accepts every request without touching page protection. It is meant
// for buffers that are already writable, such as module images read from disk.
type Noop struct{}

func (Noop) EnsureWritable(addr, size uintptr) bool {
	return true
}
