package ml

import "errors"

var (
	ErrModelNotLoaded = errors.New("model not loaded")
	ErrInvalidInput   = errors.New("invalid input")
	ErrShapeMismatch  = errors.New("shape mismatch")
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	ErrUnknownKind    = errors.New("unknown artifact kind")
	ErrInvalidModel   = errors.New("invalid model")
)
