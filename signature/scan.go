package signature

// Find returns the offset of the leftmost window of buf matching p.
// An empty pattern or one longer than buf is never found.
func Find(buf []byte, p Pattern) (int, bool) {
	if len(p) == 0 || len(buf) < len(p) {
		return 0, false
	}

	for i := 0; i <= len(buf)-len(p); i++ {
		if p.Match(buf[i:]) {
			return i, true
		}
	}
	return 0, false
}

// FindAll returns the offsets of every window of buf matching p, including
// overlapping ones.
func FindAll(buf []byte, p Pattern) []int {
	if len(p) == 0 || len(buf) < len(p) {
		return nil
	}

	var matches []int
	for i := 0; i <= len(buf)-len(p); i++ {
		if p.Match(buf[i:]) {
			matches = append(matches, i)
		}
	}
	return matches
}
