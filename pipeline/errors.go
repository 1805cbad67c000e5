package pipeline

import "errors"

var (
	// Returned when a compile of the same category is already in flight.
	// Compiles are not cancellable; callers must wait for the first to
	// finish.
	ErrAlreadyProcessing = errors.New("pipeline: a compile is already processing")

	// Returned by any operation after Dispose.
	ErrPipelineClosed = errors.New("pipeline: disposed")

	// Returned by UpdateMaterial before a successful scene compile.
	ErrNoCompiledScene = errors.New("pipeline: no compiled scene")

	// Returned by UpdateMaterial for an out-of-range material index.
	ErrMaterialIndex = errors.New("pipeline: material index out of range")
)
