package patch

import (
	"errors"
	"fmt"
)

var (
	// ErrDefinitionNotFound is returned when the requested name is not in the table.
	ErrDefinitionNotFound = errors.New("patch definition not found")

	// ErrMalformedDefinition is returned for definitions whose signature,
	// replacement and expected fields disagree in length or fail to parse.
	ErrMalformedDefinition = errors.New("malformed patch definition")

	// ErrModuleResolution is returned when the module resolver fails.
	ErrModuleResolution = errors.New("module resolution failed")

	// ErrSignatureNotFound is returned when the locator finds no match.
	ErrSignatureNotFound = errors.New("signature not found")

	// ErrUnreadableAddress is returned when a located or recorded address cannot be read.
	ErrUnreadableAddress = errors.New("address not readable")

	// ErrValidationMismatch is returned when the bytes at the match site differ from the expected baseline.
	ErrValidationMismatch = errors.New("original bytes validation failed")

	// ErrProtectionChangeFailed is returned when the OS refuses to make the target writable.
	ErrProtectionChangeFailed = errors.New("protection change failed")

	// ErrWriteFailed is returned when writing to a writable target still fails.
	ErrWriteFailed = errors.New("write failed")

	// ErrUnexpectedFault wraps a panic recovered from a collaborator.
	ErrUnexpectedFault = errors.New("unexpected fault")
)

// MismatchError describes where validation failed. It unwraps to ErrValidationMismatch.
type MismatchError struct {
	// Offset is the first mismatching byte, or -1 for a count mismatch
	Offset   int
	Expected byte
	Actual   byte

	ExpectedCount int
	ActualCount   int
}

func (e *MismatchError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("byte count mismatch - expected %d, got %d", e.ExpectedCount, e.ActualCount)
	}
	return fmt.Sprintf("byte mismatch at offset %d - expected %02X, got %02X", e.Offset, e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error {
	return ErrValidationMismatch
}
