//go:build linux

package process_linux

import (
	"fmt"
	"unsafe"

	"mempatch/process"

	"golang.org/x/sys/unix"
)

// process_vm_readv uses the process_vm_readv syscall to copy remote memory into localBuf
func process_vm_readv(
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
		unix.SYS_PROCESS_VM_READV,
		uintptr(pid),                        // Remote process PID
		uintptr(unsafe.Pointer(&localIov)),  // Local iovec
		uintptr(1),                          // Number of local iovecs
		uintptr(unsafe.Pointer(&remoteIov)), // Remote iovec
		uintptr(1),                          // Number of remote iovecs
		uintptr(0),                          // Flags (reserved for future use)
	)

	if errno != 0 {
		return 0, fmt.Errorf("process_vm_readv failed: %w", errno)
	}

	return int(n), nil
}

// ReadMemory reads memory from the process at the specified address
func (p *LinuxProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	pid := p.GetPID()
	if pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	if size == 0 {
		return []byte{}, nil
	}

	if !p.isReadable(addr, size) {
		return nil, fmt.Errorf("%w: %s", process.ErrAddressNotMapped, addr.ToString())
	}

	buf := make([]byte, size)
	n, err := process_vm_readv(pid, buf, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to read process memory at %s: %w", addr.ToString(), err)
	}

	if n != len(buf) {
		return nil, fmt.Errorf("partial read at %s: %d of %d bytes", addr.ToString(), n, len(buf))
	}

	return buf, nil
}
