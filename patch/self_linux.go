//go:build linux

package patch

import "mempatch/process_linux"

// NewSelf creates an engine that patches modules loaded in the current process
func NewSelf(table *Table, options ...Option) (*Engine, error) {
	proc, err := process_linux.New()
	if err != nil {
		return nil, err
	}
	return New(table, append([]Option{WithProcess(proc)}, options...)...)
}
