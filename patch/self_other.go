//go:build !linux && !windows

package patch

import "fmt"

// NewSelf is not supported on this platform
func NewSelf(table *Table, options ...Option) (*Engine, error) {
	return nil, fmt.Errorf("in-process patching is not supported on this platform")
}
