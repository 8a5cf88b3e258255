package repository

import "errors"

// ErrNoRowsAffected signals that a mutation matched no rows, which the
// service layer maps to a not-found response.
var ErrNoRowsAffected = errors.New("no rows affected")
