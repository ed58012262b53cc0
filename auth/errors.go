package auth

import "errors"

var ErrInvalidName = errors.New("invalid-name")
