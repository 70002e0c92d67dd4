// Package errors provides classified errors for moondial's infrastructure
// layers (config loading, angle storage, journal, NATS, daemon lifecycle).
//
// The dial state machine itself never returns errors; everything around it
// reports failures as ClassifiedError values so the CLI can pick an exit code
// and the HTTP server a status code.
//
//	err := errors.WrapError(cause, errors.CategoryStorage, "open angle slot").
//		WithContext("backend", "nats").
//		Retryable().
//		Build()
package errors
