package allocator

import "log/slog"

// AllocatorBuilderOption is a functional option for configuring an Allocator via NewAllocator.
type AllocatorBuilderOption func(*allocatorImpl)

// WithFragmentThreshold sets the free block count above which a Free triggers a defragment pass.
// Values <= 0 are ignored.
//
// Parameters:
//   - threshold: maximum number of free blocks tolerated before merging
//
// Returns:
//   - AllocatorBuilderOption: option function to apply
func WithFragmentThreshold(threshold int) AllocatorBuilderOption {
	return func(a *allocatorImpl) {
		if threshold > 0 {
			a.fragmentThreshold = threshold
		}
	}
}

// WithDefragmentInterval sets how many frees may occur between automatic defragment passes.
// Values <= 0 are ignored.
//
// Parameters:
//   - frees: number of Free calls between passes
//
// Returns:
//   - AllocatorBuilderOption: option function to apply
func WithDefragmentInterval(frees int) AllocatorBuilderOption {
	return func(a *allocatorImpl) {
		if frees > 0 {
			a.defragInterval = frees
		}
	}
}

// WithLogger sets the structured logger used for defragmentation records.
//
// Parameters:
//   - logger: the logger to use (nil keeps slog.Default)
//
// Returns:
//   - AllocatorBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) AllocatorBuilderOption {
	return func(a *allocatorImpl) {
		if logger != nil {
			a.logger = logger
		}
	}
}
