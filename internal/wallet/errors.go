package wallet

import "errors"

var (
	// ErrNotFound is returned when a card or group does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when inserting a group name or card id that
	// already exists.
	ErrDuplicate = errors.New("already exists")
)
