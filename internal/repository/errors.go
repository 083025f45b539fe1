package repository

import "errors"

// ErrDuplicateEmail is returned by Create when the email is already registered
// under any letter case.
var ErrDuplicateEmail = errors.New("repository: duplicate email")
