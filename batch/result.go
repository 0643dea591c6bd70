package batch

// Result is the outcome of processing one batch.
// Exactly one of Value or Err is meaningful: Err == nil means success.
type Result[T any] struct {
	Batch int // 1-based batch number, in submission order
	Size  int // Number of input items in the batch
	Value T
	Err   error
}

// Ok reports whether the batch succeeded.
func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// Succeeded creates a successful result.
func Succeeded[T any](batch, size int, value T) Result[T] {
	return Result[T]{Batch: batch, Size: size, Value: value}
}

// Failed creates a failed result.
func Failed[T any](batch, size int, err error) Result[T] {
	return Result[T]{Batch: batch, Size: size, Err: err}
}

// Summary aggregates the outcome of a batched stage.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Complete reports whether every batch succeeded.
func (s Summary) Complete() bool {
	return s.Failed == 0
}

// Summarize counts successes and failures across results.
func Summarize[T any](results []Result[T]) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Ok() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}
