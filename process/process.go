// Package process provides interfaces and types for reading, writing and
// scanning the memory of the current process
package process

import "errors"

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrModuleNotFound is returned when no loaded module matches the requested name or path.
	ErrModuleNotFound = errors.New("module not found")

	// ErrSignatureNotFound is returned when a signature has no match inside a module.
	ErrSignatureNotFound = errors.New("signature not found")

	// ErrMemoryFault is returned when touching mapped memory faulted anyway (for example a concurrent unmap).
	ErrMemoryFault = errors.New("memory fault")
)
