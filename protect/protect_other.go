//go:build !unix && !windows

package protect

import "errors"

func setRWX(base, size uintptr) error {
	return errors.New("page protection not supported on this platform")
}
