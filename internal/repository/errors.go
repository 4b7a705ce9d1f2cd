package repository

import "errors"

// ErrNotFound is returned when a query for a single entity finds no rows.
//
// The service layer checks for this sentinel and translates it into a
// domain-level error, decoupling business logic from the data access
// implementation and from the driver's own errors (e.g. sql.ErrNoRows).
var ErrNotFound = errors.New("repository: not found")
