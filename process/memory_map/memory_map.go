package memory_map

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address uint64 // The starting address of the memory region
	Size    uint   // The size of the memory region in bytes
	Perms   string // Permissions (e.g., "r-xp" for read, execute, private)
	Path    string // Backing file, empty for anonymous mappings
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s, Path: %s", mmItem.Address, mmItem.Size, mmItem.Perms, mmItem.Path)
}

// End returns the first address past the region
func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

// MemoryMap reads a process's memory map. Each OS has one implementation.
type MemoryMap interface {
	// ReadMemoryMap reads and parses the memory map for a process
	ReadMemoryMap(pid int) ([]MemoryMapItem, error)
}

// Helper functions for working with memory maps

// Sort orders the map by address, which FindRegion requires
func Sort(memoryMap []MemoryMapItem) {
	sort.Slice(memoryMap, func(i, j int) bool {
		return memoryMap[i].Address < memoryMap[j].Address
	})
}

// FindRegion returns the region containing addr. memoryMap must be sorted by address.
func FindRegion(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}

	return nil
}

// IsReadableRange reports whether every byte of [addr, addr+size) lies in a
// readable region. memoryMap must be sorted by address.
func IsReadableRange(addr uint64, size uint64, memoryMap []MemoryMapItem) bool {
	end := addr + size
	if size == 0 {
		end = addr + 1
	}
	// The range wraps the address space
	if end < addr {
		return false
	}
	for cur := addr; cur < end; {
		item := FindRegion(cur, memoryMap)
		if item == nil || !item.IsReadable() {
			return false
		}
		cur = item.End()
	}
	return true
}

// MatchesModule reports whether a region's backing file is the named module.
// See ModuleNameMatches.
func (mmItem MemoryMapItem) MatchesModule(module string) bool {
	return ModuleNameMatches(mmItem.Path, module)
}

// ModuleNameMatches reports whether module names the file at path. module
// may be the full path, the file name, or the file name without its
// extension ("server" for "server.dll").
func ModuleNameMatches(path, module string) bool {
	if path == "" || module == "" {
		return false
	}
	if path == module {
		return true
	}
	if strings.ContainsAny(module, `/\`) {
		return false
	}

	base := filepath.Base(path)
	return base == module || strings.TrimSuffix(base, filepath.Ext(base)) == module
}

// ModuleRegions returns the readable regions backed by module, with adjacent
// regions merged so a signature spanning two mappings can still be found.
// memoryMap must be sorted by address.
func ModuleRegions(module string, memoryMap []MemoryMapItem) []MemoryMapItem {
	var regions []MemoryMapItem
	for _, item := range memoryMap {
		if !item.MatchesModule(module) || !item.IsReadable() {
			continue
		}

		if n := len(regions); n > 0 && regions[n-1].End() == item.Address {
			regions[n-1].Size += item.Size
			continue
		}
		regions = append(regions, item)
	}
	return regions
}
