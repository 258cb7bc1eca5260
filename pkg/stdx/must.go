package stdx

// Must0 is a helper function that panics if the provided error is not nil.
// It is intended to be used for error handling in situations where an error
// is not expected and should cause the program to terminate if it occurs.
//
// Parameters:
//   - err: The error to check. If it is not nil, the function will panic.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 is a generic function that takes a value of any type and an error.
// If the error is not nil, it panics with the error. Otherwise, it returns the value.
//
// This function is useful for simplifying error handling in cases where you
// are confident that an error will not occur, such as building canned
// protocol payloads in tests.
//
// T: The type of the value to be returned.
// v: The value to be returned if err is nil.
// err: The error to check.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
