// Package process_blob holds a module image in a byte buffer mapped at a
// chosen base address. It stands in for a loaded module when patching an
// image read from disk, and in tests.
package process_blob

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mempatch/process"
	"mempatch/process/memory_map"
	"mempatch/signature"
)

type ProcessBlob struct {
	name        string
	baseaddress process.ProcessMemoryAddress
	data        []byte
	mu          sync.RWMutex
}

var _ process.Memory = (*ProcessBlob)(nil)
var _ process.ModuleScanner = (*ProcessBlob)(nil)

// NewProcessBlob wraps data as module name mapped at baseAddress. The blob
// owns data from here on; writes modify it in place.
func NewProcessBlob(name string, baseAddress process.ProcessMemoryAddress, data []byte) *ProcessBlob {
	return &ProcessBlob{
		name:        name,
		baseaddress: baseAddress,
		data:        data,
	}
}

// Open reads a module image from disk. The module name is the file's base name.
func Open(path string, baseAddress process.ProcessMemoryAddress) (*ProcessBlob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return NewProcessBlob(filepath.Base(path), baseAddress, data), nil
}

func (p *ProcessBlob) Name() string {
	return p.name
}

func (p *ProcessBlob) BaseAddress() process.ProcessMemoryAddress {
	return p.baseaddress
}

// Data returns a copy of the current image bytes
func (p *ProcessBlob) Data() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]byte, len(p.data))
	copy(out, p.data)
	return out
}

// Offset converts an absolute address into an offset within the image
func (p *ProcessBlob) Offset(addr process.ProcessMemoryAddress) (int, bool) {
	if addr < p.baseaddress {
		return 0, false
	}
	off := uint64(addr - p.baseaddress)
	if off >= uint64(len(p.data)) {
		return 0, false
	}
	return int(off), true
}

func (p *ProcessBlob) inBounds(addr process.ProcessMemoryAddress, size uint64) bool {
	off, ok := p.Offset(addr)
	if !ok {
		return false
	}
	return uint64(off)+size <= uint64(len(p.data))
}

func (p *ProcessBlob) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	return p.inBounds(addr, 1)
}

func (p *ProcessBlob) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if !p.inBounds(addr, uint64(size)) {
		return nil, fmt.Errorf("%w: %s", process.ErrAddressNotMapped, addr.ToString())
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	offset := addr - p.baseaddress
	out := make([]byte, size)
	copy(out, p.data[offset:])
	return out, nil
}

func (p *ProcessBlob) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if !p.inBounds(addr, uint64(len(data))) {
		return fmt.Errorf("%w: %s", process.ErrAddressNotMapped, addr.ToString())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	copy(p.data[addr-p.baseaddress:], data)
	return nil
}

// ScanModule finds the first match of pattern in the image. module must be
// empty or name the blob: its name, that name without extension, or any
// path ending in it.
func (p *ProcessBlob) ScanModule(module string, pattern signature.Pattern) (process.ProcessMemoryAddress, error) {
	if module != "" && !memory_map.ModuleNameMatches(p.name, module) && filepath.Base(module) != p.name {
		return 0, fmt.Errorf("%w: %s", process.ErrModuleNotFound, module)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	offset, found := signature.Find(p.data, pattern)
	if !found {
		return 0, fmt.Errorf("%w in %s", process.ErrSignatureNotFound, p.name)
	}
	return p.baseaddress + process.ProcessMemoryAddress(offset), nil
}

// ScanModuleAll returns every match of pattern in the image
func (p *ProcessBlob) ScanModuleAll(pattern signature.Pattern) []process.ProcessMemoryAddress {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var results []process.ProcessMemoryAddress
	for _, offset := range signature.FindAll(p.data, pattern) {
		results = append(results, p.baseaddress+process.ProcessMemoryAddress(offset))
	}
	return results
}
