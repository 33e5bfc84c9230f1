package config

import "github.com/cockroachdb/errors"

// ErrInvalidConfig marks every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")
