package patch

import "mempatch/signature"

// ValidateOriginal compares the bytes found at a match site against the
// expected baseline. Wildcard tokens accept any byte. A non-nil result is
// always a *MismatchError.
func ValidateOriginal(actual []byte, expected signature.Pattern) error {
	if len(actual) != len(expected) {
		return &MismatchError{
			Offset:        -1,
			ExpectedCount: len(expected),
			ActualCount:   len(actual),
		}
	}

	for i, token := range expected {
		if !token.Matches(actual[i]) {
			return &MismatchError{
				Offset:        i,
				Expected:      token.Value,
				Actual:        actual[i],
				ExpectedCount: len(expected),
				ActualCount:   len(actual),
			}
		}
	}

	return nil
}
