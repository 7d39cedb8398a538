package common

// TruncateRunes shortens s to at most n runes. A non-positive n returns s unchanged.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
