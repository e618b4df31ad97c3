package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrOrderNotFound       = errors.New("order not found")
	ErrTrackingNotFound    = errors.New("tracking code not found")
	ErrOrderAlreadyPaid    = errors.New("order is already paid")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrStatusMismatch      = errors.New("status mismatch")
	ErrPDFLocked           = errors.New("pdf generation already in progress")
	ErrPDFGenerationFailed = errors.New("pdf generation failed")
	ErrProviderUnsupported = errors.New("provider is not supported")
	ErrWebhookRejected     = errors.New("webhook rejected")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrTrackingCodeSpace   = errors.New("could not allocate a unique tracking code")
)

type StatusMismatchError struct {
	Expected string
	Current  string
}

func (e *StatusMismatchError) Error() string {
	return fmt.Sprintf("Expected status %s but order is currently in %s", e.Expected, e.Current)
}

func (e *StatusMismatchError) Is(target error) bool {
	return target == ErrStatusMismatch
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("Invalid transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
