//go:build windows

package patch

import "mempatch/process_windows"

// NewSelf creates an engine that patches modules loaded in the current process
func NewSelf(table *Table, options ...Option) (*Engine, error) {
	proc, err := process_windows.New()
	if err != nil {
		return nil, err
	}
	return New(table, append([]Option{WithProcess(proc)}, options...)...)
}
