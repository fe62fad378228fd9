//go:build linux

package process_linux

import (
	"fmt"
	"runtime/debug"
	"unsafe"

	"mempatch/process"
	"mempatch/process/memory_map"
	"mempatch/signature"
)

// ScanModule searches the readable mappings of module for pattern and returns
// the absolute address of the first match. module is compared against the
// mapping path, or its base name when module has no directory part.
// Mappings are scanned in place without copying them out.
func (p *LinuxProcess) ScanModule(module string, pattern signature.Pattern) (process.ProcessMemoryAddress, error) {
	if len(pattern) == 0 {
		return 0, fmt.Errorf("empty pattern")
	}

	// Modules may have been loaded since the last refresh
	if err := p.UpdateMemoryMap(); err != nil {
		return 0, err
	}

	memMap, err := p.GetMemoryMap()
	if err != nil {
		return 0, fmt.Errorf("failed to get memory map: %w", err)
	}

	regions := memory_map.ModuleRegions(module, memMap)
	if len(regions) == 0 {
		return 0, fmt.Errorf("%w: %s", process.ErrModuleNotFound, module)
	}

	p.log.Debugln("Scanning", len(regions), "regions of", module, "for", pattern.String())

	for _, region := range regions {
		offset, found, err := scanInPlace(region.Address, region.Size, pattern)
		if err != nil {
			p.log.Debugln("Failed to scan region at", fmt.Sprintf("%x", region.Address), err)
			continue
		}

		if found {
			return process.ProcessMemoryAddress(region.Address + uint64(offset)), nil
		}
	}

	return 0, fmt.Errorf("%w in %s", process.ErrSignatureNotFound, module)
}

// scanInPlace runs the signature scanner directly over mapped memory. A fault
// (the mapping vanished under us) is turned into an error.
func scanInPlace(addr uint64, size uint, pattern signature.Pattern) (offset int, found bool, err error) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w at region 0x%x: %v", process.ErrMemoryFault, addr, r)
		}
	}()

	data := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), size)
	offset, found = signature.Find(data, pattern)
	return offset, found, nil
}
