//go:build linux

package process_linux

import (
	"fmt"
	"unsafe"

	"mempatch/process"

	"golang.org/x/sys/unix"
)

// process_vm_writev uses the process_vm_writev syscall to copy localBuf into remote memory.
// The kernel honours page protection, so a write to a read-only page fails with EFAULT.
func process_vm_writev(
	pid process.ProcessID,
	localBuf []byte,
	remoteAddr process.ProcessMemoryAddress,
) (int, error) {
	localIov := unix.Iovec{Base: &localBuf[0]}
	localIov.SetLen(len(localBuf))

	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_WRITEV,
		uintptr(pid),                        // Remote process PID
		uintptr(unsafe.Pointer(&localIov)),  // Local iovec
		uintptr(1),                          // Number of local iovecs
		uintptr(unsafe.Pointer(&remoteIov)), // Remote iovec
		uintptr(1),                          // Number of remote iovecs
		uintptr(0),                          // Flags (reserved for future use)
	)

	if errno != 0 {
		return 0, fmt.Errorf("process_vm_writev failed: %w", errno)
	}

	return int(n), nil
}

// WriteMemory writes data to the process memory at the specified address.
// The target must already be writable; see package protect.
func (p *LinuxProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	pid := p.GetPID()
	if pid == 0 {
		return process.ErrProcessNotOpen
	}

	if len(data) == 0 {
		return nil
	}

	if !p.isReadable(addr, process.ProcessMemorySize(len(data))) {
		return fmt.Errorf("%w: %s", process.ErrAddressNotMapped, addr.ToString())
	}

	// Create a copy of the data to avoid potential modification during the write
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	written, err := process_vm_writev(pid, dataCopy, addr)
	if err != nil {
		return fmt.Errorf("failed to write process memory at %s: %w", addr.ToString(), err)
	}

	if written != len(data) {
		return fmt.Errorf("only wrote %d of %d bytes at %s", written, len(data), addr.ToString())
	}

	return nil
}
