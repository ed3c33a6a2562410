package domain

import "fmt"

// DirectPairKey normalizes an unordered participant pair into the key the
// storage layer enforces uniqueness on.
func DirectPairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}
