// Package pkg holds shared utilities: domain errors, the HTTP response
// envelope, the blob store and the email sender.
//
// This file defines the domain error taxonomy. Services return these
// sentinels wrapped with context (`fmt.Errorf("%w: ...", pkg.ErrForbidden)`),
// the handler layer maps them to HTTP status codes with errors.Is.
package pkg

import "errors"

var (
	// ErrUnauthenticated: the caller presented no identity or an invalid one.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden: role or ownership violation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound: thread, message or group missing or soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrValidation: malformed input: empty content, quote depth > 1,
	// oversized excerpt, bad room id.
	ErrValidation = errors.New("validation error")

	// ErrPreconditionFailed: state forbids the operation: removing the sole
	// owner without a transfer, stale read cursor, group caps exceeded.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrUnavailable: broker fan-out unreachable. Mutations never fail on
	// this; it only surfaces from subscribe paths.
	ErrUnavailable = errors.New("unavailable")
)
