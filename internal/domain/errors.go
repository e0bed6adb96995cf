package domain

import "errors"

var ErrNotFound = errors.New("not found")
var ErrInvalidKind = errors.New("media kind must be movie, tv or person")
