//go:build windows

package process_windows

import (
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"
	"unsafe"

	"mempatch/process"
	"mempatch/process/memory_map"
	"mempatch/signature"

	"golang.org/x/sys/windows"
)

type moduleInfo struct {
	path string
	base uintptr
	size uintptr
}

// findModule enumerates the loaded modules and returns the one whose path,
// or base name with or without extension when module has no directory part,
// matches case-insensitively.
func (p *WindowsProcess) findModule(module string) (moduleInfo, error) {
	handle := p.getHandle()
	if handle == 0 {
		return moduleInfo{}, process.ErrProcessNotOpen
	}

	modules := make([]windows.Handle, 1024)
	var needed uint32
	for {
		cb := uint32(len(modules)) * uint32(unsafe.Sizeof(modules[0]))
		if err := windows.EnumProcessModules(handle, &modules[0], cb, &needed); err != nil {
			return moduleInfo{}, fmt.Errorf("EnumProcessModules failed: %w", err)
		}
		if needed <= cb {
			modules = modules[:needed/uint32(unsafe.Sizeof(modules[0]))]
			break
		}
		modules = make([]windows.Handle, needed/uint32(unsafe.Sizeof(modules[0])))
	}

	byName := !strings.ContainsAny(module, `/\`)
	var name [windows.MAX_PATH]uint16
	for _, mod := range modules {
		if err := windows.GetModuleFileNameEx(handle, mod, &name[0], uint32(len(name))); err != nil {
			continue
		}
		path := windows.UTF16ToString(name[:])

		if byName {
			base := filepath.Base(path)
			if !strings.EqualFold(base, module) && !strings.EqualFold(strings.TrimSuffix(base, filepath.Ext(base)), module) {
				continue
			}
		} else if !strings.EqualFold(path, module) {
			continue
		}

		var info windows.ModuleInfo
		if err := windows.GetModuleInformation(handle, mod, &info, uint32(unsafe.Sizeof(info))); err != nil {
			return moduleInfo{}, fmt.Errorf("GetModuleInformation failed for %s: %w", path, err)
		}
		return moduleInfo{path: path, base: info.BaseOfDll, size: uintptr(info.SizeOfImage)}, nil
	}

	return moduleInfo{}, fmt.Errorf("%w: %s", process.ErrModuleNotFound, module)
}

// ScanModule searches the readable committed pages of module for pattern and
// returns the absolute address of the first match, scanning in place.
func (p *WindowsProcess) ScanModule(module string, pattern signature.Pattern) (process.ProcessMemoryAddress, error) {
	if len(pattern) == 0 {
		return 0, fmt.Errorf("empty pattern")
	}

	mod, err := p.findModule(module)
	if err != nil {
		return 0, err
	}

	if err := p.UpdateMemoryMap(); err != nil {
		return 0, err
	}
	memMap, err := p.GetMemoryMap()
	if err != nil {
		return 0, err
	}

	// Clip the process map to the image and merge adjacent readable pieces
	var regions []memory_map.MemoryMapItem
	start, end := uint64(mod.base), uint64(mod.base+mod.size)
	for _, item := range memMap {
		if item.End() <= start || item.Address >= end || !item.IsReadable() {
			continue
		}
		lo, hi := max(item.Address, start), min(item.End(), end)
		if n := len(regions); n > 0 && regions[n-1].End() == lo {
			regions[n-1].Size += uint(hi - lo)
			continue
		}
		regions = append(regions, memory_map.MemoryMapItem{Address: lo, Size: uint(hi - lo), Perms: item.Perms, Path: mod.path})
	}

	p.log.Debugln("Scanning", len(regions), "regions of", mod.path, "for", pattern.String())

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
