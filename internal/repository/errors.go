package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the repository.
// This keeps the storage engine out of the service layer.
var ErrNotFound = errors.New("record not found")
