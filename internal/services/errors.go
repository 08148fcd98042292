package services

import "errors"

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
)

// Query errors
var (
	ErrInvalidLimit   = errors.New("limit must not be negative")
	ErrMissingLine    = errors.New("line is required")
	ErrMissingStation = errors.New("station is required")
	ErrMissingDate    = errors.New("date is required")
)

// Dataset errors
var (
	ErrDatasetPathEmpty = errors.New("dataset path is empty")
)
