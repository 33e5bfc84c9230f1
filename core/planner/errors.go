package planner

import "github.com/cockroachdb/errors"

// ErrInvalidConfig is returned by Config.Validate and Planner.Generate.
var ErrInvalidConfig = errors.New("invalid planner configuration")

// ErrUnknownTopic is returned when a plan query names a topic it does not
// contain.
var ErrUnknownTopic = errors.New("topic not in plan")

var ErrUnknownStatus = errors.New("unknown topic status")
