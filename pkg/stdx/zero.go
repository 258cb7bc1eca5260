package stdx

// Zero is a generic function that returns the zero value for the type T.
// It exists so generic code can produce a typed zero in a single
// expression, for example when a blocking getter has to return something
// alongside a timeout error.
//
// T: The type whose zero value is returned.
//
// Returns:
//   - T: The zero value of the type T.
func Zero[T any]() T {
	var zero T
	return zero
}
