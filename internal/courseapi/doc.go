// Package courseapi defines the persistence collaborator contract the
// engine saves through, and an HTTP implementation of it.
//
// The engine never speaks a wire protocol itself. It calls a Client
// and classifies failures through the error taxonomy in this package:
// network failures and rate limits are retryable, validation errors
// surface immediately, conflicts trigger a fresh fetch + reconcile
// instead of a blind retry, and fatal errors give up.
//
// All identifiers crossing this boundary are strings. Placeholder
// ("tmp_"-prefixed) identifiers may appear inside saved trees - the
// backend assigns permanent identifiers and echoes the saved tree back
// so the caller can reconcile - but identifier arguments to the
// reorder and move operations must already be permanent.
package courseapi
