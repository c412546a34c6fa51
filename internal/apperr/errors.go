// Package apperr holds the error taxonomy shared by the reward flow: local validation failures,
// explicit rejections by the remote ledger, and transport failures whose outcome is unknown.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrWithdrawalInProgress = errors.New("withdrawal already in progress")
	ErrNegativeBalance      = errors.New("wallet balance cannot go negative")
	ErrMalformedReply       = errors.New("malformed ledger reply")
	ErrSessionNotFound      = errors.New("session not found")
)

// ValidationError is a failed local precondition. No remote call was made.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return e.Err }

// RemoteRejection means the ledger explicitly refused the operation. Nothing changed remotely.
type RemoteRejection struct {
	Op     string
	Reason string
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Reason)
}

// TransportError means the call failed in a way that leaves the remote outcome unknown.
// It must not be retried automatically.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: outcome unknown: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Normalize makes sure err is one of the taxonomy types. Anything unclassified is a transport error.
func Normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		rr *RemoteRejection
		te *TransportError
	)
	if errors.As(err, &ve) || errors.As(err, &rr) || errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// IsTimeout reports whether err came from a deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
