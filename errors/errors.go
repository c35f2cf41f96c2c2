package errors

import "fmt"

var (
	// Authentication failures. The connection is rejected before admission
	// and no state is mutated.
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// Account validation.
	ErrInvalidPassword   = fmt.Errorf("password does not meet complexity requirements")
	ErrUserAlreadyExists = fmt.Errorf("user already exists")
	ErrUserNotFound      = fmt.Errorf("user not found")

	// Send validation. Reported to the sender, nothing persisted.
	ErrEmptyContent     = fmt.Errorf("message content is empty")
	ErrContentTooLong   = fmt.Errorf("message content exceeds the maximum length")
	ErrInvalidRecipient = fmt.Errorf("recipient id is malformed")
	ErrInvalidType      = fmt.Errorf("unsupported message type")

	// Storage failures. Surfaced to the caller as a failed operation,
	// never as partial data.
	ErrStoreFailure    = fmt.Errorf("durable store failure")
	ErrMessageNotFound = fmt.Errorf("message not found")

	// Supervision.
	ErrWorkerPanic = fmt.Errorf("worker panic")
)
