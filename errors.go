package glowtext

import "errors"

// Sentinel errors for the glowtext package.
var (
	// ErrEmptyText is returned when a component is given no text.
	ErrEmptyText = errors.New("glowtext: text is required")

	// ErrNilScheduler is returned by New without a frame scheduler.
	ErrNilScheduler = errors.New("glowtext: scheduler is nil")

	// ErrUnknownStrategy is returned for a Strategy outside the known set.
	ErrUnknownStrategy = errors.New("glowtext: unknown strategy")

	errNilField = errors.New("glowtext: create field: factory returned nil")
)
