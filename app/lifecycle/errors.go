package lifecycle

import (
	"errors"

	"github.com/vibast-solutions/ms-go-letters/app/client"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

// Error kinds. Every lifecycle failure matches exactly one of them with
// errors.Is. None of them is fatal to the client.
var (
	ErrValidation   = errors.New("validation failed")
	ErrCreateFailed = errors.New("order creation failed")
	ErrIntentFailed = errors.New("payment initiation failed")
	ErrHandoff      = errors.New("checkout hand-off failed")
	ErrQueryFailed  = errors.New("payment status query failed")
	ErrNotFound     = errors.New("order not found")
	ErrTrackFailed  = errors.New("tracking lookup failed")
	ErrTimedOut     = errors.New("payment confirmation timed out")
)

const (
	msgUnknownCreate = "Bilinmeyen hata"
	msgUnknownIntent = "Bilinmeyen Hata"
	msgUnreachable   = "Sunucuya ulaşılamıyor."
	msgInvalidCode   = "Geçersiz takip kodu"
	msgNoReference   = "Sipariş bulunamadı. Lütfen anasayfaya dönün."
	msgTimedOut      = "Ödeme doğrulaması beklenenden uzun sürüyor. Lütfen biraz sonra tekrar kontrol edin."
)

type Error struct {
	Kind    error
	Message string
	Fields  types.FieldErrors
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(kind error, cause error, fallback string) *Error {
	msg := client.ServerMessage(cause)
	if msg == "" {
		msg = fallback
	}
	return &Error{Kind: kind, Message: msg, Err: cause}
}
