package api

import "errors"

// ErrorNullArgument a required pointer argument is missing.
var ErrorNullArgument = errors.New("colstore.nullargument")

// ErrorInvalidOperation preconditions for the operation are not met,
// like Read on a non-empty container.
var ErrorInvalidOperation = errors.New("colstore.invalidop")

// ErrorOutofRange index beyond capacity, or a key length prefix
// outside [1, buffer-length - 1].
var ErrorOutofRange = errors.New("colstore.outofrange")

// ErrorOutofMemory pool capacity exhausted.
var ErrorOutofMemory = errors.New("colstore.outofmemory")

// ErrorKeyNotFound map lookup with a required-match contract failed.
var ErrorKeyNotFound = errors.New("colstore.keynotfound")

// ErrorInsufficientSpace destination window or buffer exhausted.
var ErrorInsufficientSpace = errors.New("colstore.insufficientspace")
