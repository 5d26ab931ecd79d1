package residency

import "log/slog"

// TableBuilderOption is a functional option for configuring a Table via NewTable.
type TableBuilderOption func(*tableImpl)

// WithLogger sets the structured logger used for out-of-range reports.
//
// Parameters:
//   - logger: the logger to use (nil keeps slog.Default)
//
// Returns:
//   - TableBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) TableBuilderOption {
	return func(t *tableImpl) {
		if logger != nil {
			t.logger = logger
		}
	}
}
