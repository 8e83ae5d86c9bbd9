package report

// Result is either loaded data or the zero value together with the error that
// prevented loading it. Callers can tell an empty store from a failed read.
type Result[T any] struct {
	Data T
	Err  error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Data: v}
}

// Failed carries fallback as the data to render alongside err.
func Failed[T any](fallback T, err error) Result[T] {
	return Result[T]{Data: fallback, Err: err}
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}
