package ai

import "errors"

// ErrEmptyInput is returned when a tool receives an empty resume, job description or user input.
var ErrEmptyInput = errors.New("empty input")
