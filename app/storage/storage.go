package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var ErrInvalidKey = errors.New("invalid storage key")

type PutInput struct {
	Key         string
	ContentType string
}

type PutResult struct {
	Key string
	URL string
}

type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}

// LetterPDFKey is the object key of the generated letter for an order.
func LetterPDFKey(orderID string) string {
	return path.Join(orderID, "generated", "letter.pdf")
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || strings.HasPrefix(cleaned, "..") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
