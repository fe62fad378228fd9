// Package patch applies named byte patches to loaded modules and restores
// them later. A patch is only written after the bytes at the match site
// have been checked against the expected baseline.
package patch

import (
	"errors"
	"fmt"
	"sync"

	"mempatch/process"
	"mempatch/protect"
	"mempatch/signature"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Logger receives the engine's diagnostics. Validation mismatches and
// lookups that find nothing are warnings; failures of the OS or of a
// collaborator are errors.
type Logger interface {
	Debugln(v ...interface{})
	Infoln(v ...interface{})
	Warn(v ...interface{})
	Error(v ...interface{})
}

var _ Logger = (*logger.Logger)(nil)

// Protector makes a byte range writable. See protect.OS.
type Protector interface {
	EnsureWritable(addr, size uintptr) bool
}

// Locator resolves a signature to an absolute address inside a module
type Locator interface {
	ScanModule(module string, pattern signature.Pattern) (process.ProcessMemoryAddress, error)
}

// Resolver maps a module name to whatever the locator expects, typically a path
type Resolver func(module string) (string, error)

// IdentityResolver hands the module name to the locator unchanged
func IdentityResolver(module string) (string, error) {
	return module, nil
}

// Applied records a successful write. Original holds the bytes read just
// before the write and is what RestoreAll puts back.
type Applied struct {
	Name     string
	Address  process.ProcessMemoryAddress
	Original []byte
}

// Engine owns the registry of applied patches for one table
type Engine struct {
	table     *Table
	mem       process.Memory
	locator   Locator
	protector Protector
	resolve   Resolver
	log       Logger

	mu      sync.Mutex
	applied []Applied
}

// Option configures an Engine
type Option func(*Engine)

func WithMemory(mem process.Memory) Option {
	return func(e *Engine) {
		e.mem = mem
	}
}

func WithLocator(locator Locator) Option {
	return func(e *Engine) {
		e.locator = locator
	}
}

// WithProcess uses p for both memory access and signature location
func WithProcess(p process.Process) Option {
	return func(e *Engine) {
		e.mem = p
		e.locator = p
	}
}

func WithProtector(protector Protector) Option {
	return func(e *Engine) {
		e.protector = protector
	}
}

func WithResolver(resolve Resolver) Option {
	return func(e *Engine) {
		e.resolve = resolve
	}
}

func WithLogger(log Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates an engine for table. Memory and a locator are required; the
// protector defaults to the host OS and the resolver to IdentityResolver.
func New(table *Table, options ...Option) (*Engine, error) {
	e := &Engine{
		table:     table,
		protector: protect.OS{},
		resolve:   IdentityResolver,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.table == nil {
		return nil, fmt.Errorf("patch table is required")
	}
	if e.mem == nil {
		return nil, fmt.Errorf("memory is required")
	}
	if e.locator == nil {
		return nil, fmt.Errorf("locator is required")
	}
	if e.log == nil {
		e.log = logger.NewLogger(coloransi.Color(coloransi.ColorOrange, coloransi.ColorPurple, "patch"))
	}

	return e, nil
}

// Table returns the engine's definitions
func (e *Engine) Table() *Table {
	return e.table
}

// Apply applies the named patch and reports whether it was written.
// Failures are logged, never propagated.
func (e *Engine) Apply(name string) bool {
	_, err := e.ApplyErr(name)
	return err == nil
}

// ApplyErr applies the named patch: locate, read, validate, make writable,
// write, record. Nothing is written unless validation passed. There is no
// already-applied guard; applying twice fails validation against the
// replaced bytes.
func (e *Engine) ApplyErr(name string) (Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	applied, err := e.apply(name)
	if err != nil {
		e.logFailure("apply", name, err)
		return Applied{}, err
	}

	e.log.Infoln(fmt.Sprintf("Patch '%s' applied at %s (%d bytes)", name, applied.Address.ToString(), len(applied.Original)))
	applied.Original = append([]byte(nil), applied.Original...)
	return applied, nil
}

func (e *Engine) apply(name string) (applied Applied, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnexpectedFault, r)
		}
	}()

	def, addr, original, err := e.check(name)
	if err != nil {
		return Applied{}, err
	}

	if !e.protector.EnsureWritable(addr.Ptr(), uintptr(len(def.Replacement))) {
		return Applied{}, fmt.Errorf("%w at %s", ErrProtectionChangeFailed, addr.ToString())
	}

	if err := e.mem.WriteMemory(addr, def.Replacement); err != nil {
		return Applied{}, fmt.Errorf("%w at %s: %w", ErrWriteFailed, addr.ToString(), err)
	}

	applied = Applied{Name: def.Name, Address: addr, Original: original}
	e.applied = append(e.applied, applied)
	return applied, nil
}

// check runs every step up to and including validation. It never writes.
func (e *Engine) check(name string) (Definition, process.ProcessMemoryAddress, []byte, error) {
	def, ok := e.table.Lookup(name)
	if !ok {
		return Definition{}, 0, nil, fmt.Errorf("%w: %s", ErrDefinitionNotFound, name)
	}

	// Tables validate on construction; check again before touching memory
	if err := def.Validate(); err != nil {
		return Definition{}, 0, nil, err
	}

	module, err := e.resolve(def.Module)
	if err != nil {
		return Definition{}, 0, nil, fmt.Errorf("%w: %s: %w", ErrModuleResolution, def.Module, err)
	}

	addr, err := e.locator.ScanModule(module, def.Signature)
	if err != nil {
		return Definition{}, 0, nil, fmt.Errorf("%w: %w", ErrSignatureNotFound, err)
	}
	if addr == 0 {
		return Definition{}, 0, nil, fmt.Errorf("%w in %s", ErrSignatureNotFound, module)
	}

	if !e.mem.IsValidAddress(addr) {
		return Definition{}, 0, nil, fmt.Errorf("%w: %s", ErrUnreadableAddress, addr.ToString())
	}

	actual, err := e.mem.ReadMemory(addr, process.ProcessMemorySize(len(def.Replacement)))
	if err != nil {
		return Definition{}, 0, nil, fmt.Errorf("%w: %s: %w", ErrUnreadableAddress, addr.ToString(), err)
	}

	if err := ValidateOriginal(actual, def.Expected); err != nil {
		return Definition{}, 0, nil, err
	}

	e.log.Debugln(fmt.Sprintf("Patch '%s': original bytes validated at %s", name, addr.ToString()))
	return def, addr, actual, nil
}

// Validate runs lookup, location, read and validation for the named patch
// without changing protection or writing.
func (e *Engine) Validate(name string) (addr process.ProcessMemoryAddress, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			addr, err = 0, fmt.Errorf("%w: %v", ErrUnexpectedFault, r)
		}
		if err != nil {
			e.logFailure("validate", name, err)
		}
	}()

	_, addr, _, err = e.check(name)
	if err != nil {
		return 0, err
	}

	e.log.Infoln(fmt.Sprintf("Patch '%s': original bytes validated successfully", name))
	return addr, nil
}

// ApplyAll applies every definition in table order and returns how many were written.
func (e *Engine) ApplyAll() int {
	count := 0
	for _, name := range e.table.Names() {
		if e.Apply(name) {
			count++
		}
	}

	e.log.Infoln(fmt.Sprintf("Applied %d/%d patches.", count, e.table.Len()))
	return count
}

// RestoreAll writes back the original bytes of every applied patch, in
// application order, and empties the registry. One failed restore does not
// stop the others. Calling it again is a no-op.
func (e *Engine) RestoreAll() {
	e.RestoreAllErr()
}

// RestoreAllErr is RestoreAll returning the per-patch failures
func (e *Engine) RestoreAllErr() []error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.applied
	e.applied = nil

	if len(entries) == 0 {
		return nil
	}

	var errs []error
	for _, entry := range entries {
		if err := e.restore(entry); err != nil {
			e.logFailure("restore", entry.Name, err)
			errs = append(errs, err)
			continue
		}
		e.log.Infoln(fmt.Sprintf("Patch '%s' restored at %s (%d bytes)", entry.Name, entry.Address.ToString(), len(entry.Original)))
	}

	e.log.Infoln(fmt.Sprintf("Restored %d/%d patches.", len(entries)-len(errs), len(entries)))
	return errs
}

func (e *Engine) restore(entry Applied) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnexpectedFault, r)
		}
	}()

	if entry.Address == 0 || !e.mem.IsValidAddress(entry.Address) {
		return fmt.Errorf("%w: %s", ErrUnreadableAddress, entry.Address.ToString())
	}

	if !e.protector.EnsureWritable(entry.Address.Ptr(), uintptr(len(entry.Original))) {
		return fmt.Errorf("%w at %s", ErrProtectionChangeFailed, entry.Address.ToString())
	}

	if err := e.mem.WriteMemory(entry.Address, entry.Original); err != nil {
		return fmt.Errorf("%w at %s: %w", ErrWriteFailed, entry.Address.ToString(), err)
	}

	return nil
}

// Applied returns the registry in application order
func (e *Engine) Applied() []Applied {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Applied, len(e.applied))
	for i, a := range e.applied {
		a.Original = append([]byte(nil), a.Original...)
		out[i] = a
	}
	return out
}

// IsApplied reports whether the named patch is currently in the registry
func (e *Engine) IsApplied(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range e.applied {
		if a.Name == name {
			return true
		}
	}
	return false
}

func (e *Engine) logFailure(op, name string, err error) {
	var mismatch *MismatchError
	switch {
	case errors.As(err, &mismatch):
		if op == "apply" {
			e.log.Warn(fmt.Sprintf("Patch '%s': %s - refusing to patch", name, mismatch.Error()))
		} else {
			e.log.Warn(fmt.Sprintf("Patch '%s': %s", name, mismatch.Error()))
		}
	case errors.Is(err, ErrDefinitionNotFound), errors.Is(err, ErrSignatureNotFound):
		e.log.Warn(fmt.Sprintf("Failed to %s patch '%s': %v", op, name, err))
	default:
		e.log.Error(fmt.Sprintf("Failed to %s patch '%s': %v", op, name, err))
	}
}
