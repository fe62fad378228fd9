package patch

import (
	"fmt"
	"sync"

	"mempatch/process"
	"mempatch/signature"
)

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level string, v []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: fmt.Sprint(v...)})
}

func (l *recordingLogger) Debugln(v ...interface{}) { l.add("debug", v) }
func (l *recordingLogger) Infoln(v ...interface{}) { l.add("info", v) }
func (l *recordingLogger) Warn(v ...interface{}) { l.add("warn", v) }
func (l *recordingLogger) Error(v ...interface{}) { l.add("error", v) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

type protectCall struct {
	addr uintptr
	size uintptr
}

type fakeProtector struct {
	mu    sync.Mutex
	deny  bool
	calls []protectCall
}

func (p *fakeProtector) EnsureWritable(addr, size uintptr) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, protectCall{addr: addr, size: size})
	return !p.deny
}

// countingMemory wraps a Memory, counting writes and optionally failing
// writes to selected addresses.
type countingMemory struct {
	process.Memory

	mu         sync.Mutex
	writes     int
	failWrites map[process.ProcessMemoryAddress]bool
	unreadable map[process.ProcessMemoryAddress]bool
}

func (m *countingMemory) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	m.mu.Lock()
	bad := m.unreadable[addr]
	m.mu.Unlock()
	if bad {
		return false
	}
	return m.Memory.IsValidAddress(addr)
}

func (m *countingMemory) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	m.mu.Lock()
	fail := m.failWrites[addr]
	if !fail {
		m.writes++
	}
	m.mu.Unlock()

	if fail {
		return fmt.Errorf("injected write failure")
	}
	return m.Memory.WriteMemory(addr, data)
}

func (m *countingMemory) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// countingLocator wraps a Locator and counts calls
type countingLocator struct {
	Locator

	mu    sync.Mutex
	calls int
}

func (l *countingLocator) ScanModule(module string, pattern signature.Pattern) (process.ProcessMemoryAddress, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.Locator.ScanModule(module, pattern)
}

type locatorFunc func(module string, pattern signature.Pattern) (process.ProcessMemoryAddress, error)

func (f locatorFunc) ScanModule(module string, pattern signature.Pattern) (process.ProcessMemoryAddress, error) {
	return f(module, pattern)
}
