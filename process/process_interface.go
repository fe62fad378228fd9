package process

import (
	"mempatch/process/memory_map"
	"mempatch/signature"
)

// Memory is the byte level access the patch engine needs.
type Memory interface {
	// IsValidAddress checks if the given memory address is valid and readable
	IsValidAddress(addr ProcessMemoryAddress) bool

	// ReadMemory reads size bytes at addr
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

	// WriteMemory writes data at addr
	WriteMemory(addr ProcessMemoryAddress, data []byte) error
}

// ModuleScanner resolves a signature to an absolute address inside a loaded module.
// A zero address is never returned together with a nil error.
type ModuleScanner interface {
	ScanModule(module string, pattern signature.Pattern) (ProcessMemoryAddress, error)
}

// Process is the current process as seen by the patch engine
type Process interface {
	Memory
	ModuleScanner

	// Close releases resources
	Close() error

	// GetPID returns the process ID
	GetPID() ProcessID

	// UpdateMemoryMap refreshes the memory map for the process
	UpdateMemoryMap() error

	// GetMemoryMap returns a copy of the current memory map
	GetMemoryMap() ([]memory_map.MemoryMapItem, error)
}
