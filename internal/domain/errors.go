package domain

import "errors"

var (
	// ErrUnknownMetric is a contract violation: the caller passed a metric
	// kind the classifier has no thresholds for.
	ErrUnknownMetric = errors.New("unknown metric kind")

	// ErrUnknownDataset is returned when a dataset name is not recognized.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrDateIndexOutOfRange is returned when a requested date column does
	// not exist in the table.
	ErrDateIndexOutOfRange = errors.New("date index out of range")

	// ErrInvalidDate is returned when the requested date column has an
	// unparseable header and cannot be plotted.
	ErrInvalidDate = errors.New("date column has no valid timestamp")

	// ErrDateNotFound is returned when a well-formed date has no column.
	ErrDateNotFound = errors.New("no column for date")
)
