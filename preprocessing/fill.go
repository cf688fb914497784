package preprocessing

// ForwardFill replaces each missing entry with the nearest preceding present
// entry. present[i] reports whether values[i] holds a value. Leading missing
// entries stay missing; the returned mask marks which entries hold a value
// afterwards. The inputs are not modified.
func ForwardFill[T any](values []T, present []bool) ([]T, []bool) {
	out := make([]T, len(values))
	ok := make([]bool, len(values))
	copy(out, values)

	var last T
	seen := false
	for i := range values {
		if present[i] {
			last, seen = values[i], true
			ok[i] = true
			continue
		}
		if seen {
			out[i] = last
			ok[i] = true
		}
	}
	return out, ok
}

// BackFill replaces each missing entry with the nearest following present
// entry. Trailing missing entries stay missing.
func BackFill[T any](values []T, present []bool) ([]T, []bool) {
	out := make([]T, len(values))
	ok := make([]bool, len(values))
	copy(out, values)

	var next T
	seen := false
	for i := len(values) - 1; i >= 0; i-- {
		if present[i] {
			next, seen = values[i], true
			ok[i] = true
			continue
		}
		if seen {
			out[i] = next
			ok[i] = true
		}
	}
	return out, ok
}
