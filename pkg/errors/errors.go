package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Pipeline error kinds. Every stage converts underlying faults into one of
// these before returning, so callers can classify with errors.Is and never
// see a raw transport or SDK error.

var (
	// ErrMissingField indicates the trigger payload had no usable record id
	ErrMissingField = errors.New("missing field")

	// ErrMalformedPayload indicates the trigger payload was not valid JSON
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrSecretStoreUnreachable indicates the secret store could not be reached
	ErrSecretStoreUnreachable = errors.New("secret store unreachable")

	// ErrSecretMissing indicates a named secret does not exist in the store
	ErrSecretMissing = errors.New("secret missing")

	// ErrCRMAuth indicates the CRM rejected the supplied credentials
	ErrCRMAuth = errors.New("crm authentication failed")

	// ErrRecordNotFound indicates the CRM has no record for the requested id
	ErrRecordNotFound = errors.New("record not found")

	// ErrRateLimited indicates the CRM refused the call due to API limits
	ErrRateLimited = errors.New("rate limited")

	// ErrCRMTransport indicates a network or protocol fault talking to the CRM
	ErrCRMTransport = errors.New("crm transport error")

	// ErrSendAuth indicates the notification backend rejected the credentials
	ErrSendAuth = errors.New("notifier authentication failed")

	// ErrSendTransport indicates a network or protocol fault sending the notification
	ErrSendTransport = errors.New("notifier transport error")
)

// MissingFieldError creates a missing field error naming the field
func MissingFieldError(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// MalformedPayloadError wraps a JSON decoding failure
func MalformedPayloadError(cause error) error {
	return fmt.Errorf("%v: %w", cause, ErrMalformedPayload)
}

// SecretMissingError creates a secret missing error naming the secret
func SecretMissingError(name string) error {
	return fmt.Errorf("%s: %w", name, ErrSecretMissing)
}

// SecretStoreError wraps a secret store access failure
func SecretStoreError(cause error) error {
	return fmt.Errorf("%v: %w", cause, ErrSecretStoreUnreachable)
}

// InsertError reports a warehouse streaming insert failure. Row-level errors
// are kept as plain strings for diagnostics; the orchestrator treats the whole
// insert stage as non-fatal.
type InsertError struct {
	RowErrors []string
}

func (e *InsertError) Error() string {
	if len(e.RowErrors) == 0 {
		return "warehouse insert failed"
	}
	return "warehouse insert failed: " + strings.Join(e.RowErrors, "; ")
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}
