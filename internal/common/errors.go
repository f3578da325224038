// Package common defines shared sentinel errors used across the watcher and
// server layers of MovieCP. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrAlreadyTracked = errors.New("already tracked")

	// Workflow errors. ErrInvalidState is returned when a record is not in
	// the status required for the requested transition (e.g. a concurrent
	// approval already moved it to processing).
	ErrInvalidState = errors.New("invalid state")

	// Transfer errors. ErrShareUnavailable means the destination mount is
	// unreachable and the copy was aborted without byte-level retries.
	ErrShareUnavailable = errors.New("network share not accessible")
	ErrTransferFailed   = errors.New("transfer failed")

	// Renamer errors (timeout, non-zero exit, unparsable output).
	ErrRenamerFailed = errors.New("renamer failed")
)
