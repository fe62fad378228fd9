//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"sync"

	"mempatch/process"
	"mempatch/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// LinuxProcess implements process.Process for the current process on Linux.
// Reads and writes go through process_vm_readv/process_vm_writev on our own
// pid, so touching an unmapped or protected address returns an error
// instead of faulting.
type LinuxProcess struct {
	pid    process.ProcessID
	log    *logger.Logger
	reader memory_map.MemoryMap
	mm     []memory_map.MemoryMapItem
	mu     sync.Mutex
}

var _ process.Process = (*LinuxProcess)(nil)

// New opens the current process
func New() (*LinuxProcess, error) {
	p := &LinuxProcess{
		pid:    process.ProcessID(os.Getpid()),
		reader: memory_map.NewLinuxMemoryMap(),
	}
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", p.pid)))

	if err := p.UpdateMemoryMap(); err != nil {
		return nil, fmt.Errorf("failed to initialize memory map: %w", err)
	}

	p.log.Infoln("Process opened")

	return p, nil
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pid = 0
	p.mm = nil

	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))
	p.log.Infoln("Process closed")

	return nil
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *LinuxProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()

	if pid == 0 {
		return process.ErrProcessNotOpen
	}

	// Read memory map without holding the lock
	mm, err := p.reader.ReadMemoryMap(int(pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	// FindRegion requires the memory map to be sorted by address
	memory_map.Sort(mm)

	p.mu.Lock()
	p.mm = mm
	p.mu.Unlock()
	return nil
}

func (p *LinuxProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	return p.isReadable(addr, 1)
}

// isReadable checks [addr, addr+size) against the cached map, refreshing it
// once on a miss since modules and heaps come and go.
func (p *LinuxProcess) isReadable(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) bool {
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

func (p *LinuxProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	// Make a copy of the memory map to prevent external modification
	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)

	return result, nil
}
