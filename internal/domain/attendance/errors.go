package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// Argument errors
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidThreshold = fmt.Errorf("%w: threshold must be between 0 and 1 (exclusive)", ErrInvalidArgument)
	ErrNegativeCount    = fmt.Errorf("%w: class counts must not be negative", ErrInvalidArgument)
	ErrPresentExceeds   = fmt.Errorf("%w: present classes must not exceed total classes", ErrInvalidArgument)
	ErrInvalidMonth     = fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidArgument)

	ErrProjectionOverflow = fmt.Errorf("%w: classes needed to reach the threshold is out of range", ErrInvalidArgument)

	// Record errors
	ErrInvalidDate    = errors.New("date is missing or not a valid calendar date")
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrTooManyRecords = errors.New("too many records in a single request")
)
