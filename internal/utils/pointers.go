package utils

// Value dereferences v, returning the zero value for nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}

// IfChanged returns a pointer to after when it differs from before, else nil.
// Partial updates use it to carry only the fields that changed.
func IfChanged[T comparable](before, after T) *T {
	if before == after {
		return nil
	}
	return &after
}
