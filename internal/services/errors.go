package services

import "errors"

var (
	// ErrUnknownStep marks a pipeline step name known to neither the org
	// config nor the system defaults.
	ErrUnknownStep = errors.New("unknown pipeline step")

	// ErrUnknownModel marks a model key absent from the registry.
	ErrUnknownModel = errors.New("model not present in registry")
)
