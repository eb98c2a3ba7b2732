package profile

import "errors"

var (
	// ErrSourceUnreadable is returned when an input source cannot be opened or read.
	// No partial profile is returned alongside it.
	ErrSourceUnreadable = errors.New("source unreadable")
	// ErrSinkUnwritable is returned when generated lines cannot be written.
	ErrSinkUnwritable = errors.New("sink unwritable")
	// ErrPositionNotFound is returned when a character is requested for a
	// position the profile never observed.
	ErrPositionNotFound = errors.New("position not found")
	// ErrInvalidArgument is returned for malformed arguments such as a negative
	// count or an input path without the .txt extension.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFinalized is returned when sampling from a table that is still accumulating.
	ErrNotFinalized = errors.New("table not finalized")
	// ErrFinalized is returned when recording into, or finalizing, an already finalized table.
	ErrFinalized = errors.New("table already finalized")
	// ErrEmptyTable is returned when sampling from a table with no entries.
	ErrEmptyTable = errors.New("table is empty")
	// ErrOutcomesExhausted is returned when a unique batch cannot be completed
	// because the profile cannot produce enough distinct lines.
	ErrOutcomesExhausted = errors.New("distinct outcomes exhausted")
	// ErrProfileNotFound is returned by Store when no profile has the requested name.
	ErrProfileNotFound = errors.New("profile not found")
)
