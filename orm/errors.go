package orm

import "errors"

// ErrNotFound is returned when a query expects exactly one row but finds
// none, and by Update when no row has the given primary key.
var ErrNotFound = errors.New("orm: not found")
