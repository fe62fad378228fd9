//go:build windows

package process_windows

import (
	"fmt"
	"sync"

	"mempatch/process"
	"mempatch/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

// WindowsProcess implements process.Process for the current process on Windows.
// Reads and writes go through ReadProcessMemory/WriteProcessMemory on the
// current process pseudo handle, so bad addresses fail instead of faulting.
type WindowsProcess struct {
	pid    process.ProcessID
	handle windows.Handle
	log    *logger.Logger
	reader memory_map.MemoryMap
	mm     []memory_map.MemoryMapItem
	mu     sync.Mutex
}

var _ process.Process = (*WindowsProcess)(nil)

// New opens the current process
func New() (*WindowsProcess, error) {
	p := &WindowsProcess{
		pid:    process.ProcessID(windows.GetCurrentProcessId()),
		handle: windows.CurrentProcess(),
		reader: memory_map.NewWindowsMemoryMap(),
	}
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", p.pid)))

	if err := p.UpdateMemoryMap(); err != nil {
		return nil, fmt.Errorf("failed to initialize memory map: %w", err)
	}

	p.log.Infoln("Process opened")
	return p, nil
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// The pseudo handle from CurrentProcess needs no CloseHandle
	p.handle = 0
	p.pid = 0
	p.mm = nil
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))
	p.log.Infoln("Process closed")

	return nil
}

func (p *WindowsProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *WindowsProcess) getHandle() windows.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

func (p *WindowsProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()

	if pid == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := p.reader.ReadMemoryMap(int(pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}
	memory_map.Sort(mm)

	p.mu.Lock()
	p.mm = mm
	p.mu.Unlock()
	return nil
}

func (p *WindowsProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	return p.isReadable(addr, 1)
}

func (p *WindowsProcess) isReadable(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) bool {
	if addr == 0 {
		return false
	}

	p.mu.Lock()
	ok := memory_map.IsReadableRange(uint64(addr), uint64(size), p.mm)
	p.mu.Unlock()
	if ok {
		return true
	}

	if err := p.UpdateMemoryMap(); err != nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return memory_map.IsReadableRange(uint64(addr), uint64(size), p.mm)
}

func (p *WindowsProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}
	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)
	return result, nil
}

func (p *WindowsProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	handle := p.getHandle()
	if handle == 0 {
		return nil, process.ErrProcessNotOpen
	}

	if size == 0 {
		return []byte{}, nil
	}

	if !p.isReadable(addr, size) {
		return nil, fmt.Errorf("%w: %s", process.ErrAddressNotMapped, addr.ToString())
	}

	buf := make([]byte, size)
	var bytesRead uintptr
	if err := windows.ReadProcessMemory(handle, addr.Ptr(), &buf[0], uintptr(size), &bytesRead); err != nil {
		return nil, fmt.Errorf("ReadProcessMemory failed at %s: %w", addr.ToString(), err)
	}

	if bytesRead != uintptr(size) {
		return nil, fmt.Errorf("read incomplete: expected %d, got %d", size, bytesRead)
	}

	return buf, nil
}

// WriteMemory writes data at addr. The target must already be writable; see package protect.
func (p *WindowsProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	handle := p.getHandle()
	if handle == 0 {
		return process.ErrProcessNotOpen
	}

	if len(data) == 0 {
		return nil
	}

	if !p.isReadable(addr, process.ProcessMemorySize(len(data))) {
		return fmt.Errorf("%w: %s", process.ErrAddressNotMapped, addr.ToString())
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	var written uintptr
	if err := windows.WriteProcessMemory(handle, addr.Ptr(), &dataCopy[0], uintptr(len(dataCopy)), &written); err != nil {
		return fmt.Errorf("WriteProcessMemory failed at %s: %w", addr.ToString(), err)
	}

	if written != uintptr(len(data)) {
		return fmt.Errorf("only wrote %d of %d bytes", written, len(data))
	}

	return nil
}

