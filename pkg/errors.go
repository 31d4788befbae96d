// Package pkg holds small pieces shared by every layer of the storefront
// server: the domain error sentinels and the JSON response envelope.
//
// Services wrap one of the sentinels below with extra detail
//
//	return fmt.Errorf("%w: product %s", pkg.ErrNotFound, id)
//
// and the handler layer turns the sentinel back into an HTTP status with
// errors.Is, so wrapping never loses the mapping.
package pkg

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")

	// ErrSignature is returned when a payment webhook payload does not carry
	// a valid signature for the configured secret.
	ErrSignature = errors.New("webhook signature verification failed")

	// ErrUpstream covers failures of a dependency the request could not
	// complete without (payment provider, mail provider).
	ErrUpstream = errors.New("upstream service error")

	// ErrConfig means the server is missing configuration an operation
	// needs, e.g. an empty JWT signing secret.
	ErrConfig = errors.New("configuration error")
)
