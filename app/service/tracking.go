package service

import (
	"crypto/rand"
	"strings"
	"unicode/utf8"
)

const (
	TrackingCodeLength = 12
	// A-Z and 2-9 without the look-alikes O, 0, I and 1.
	trackingAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateTrackingCode returns a random code over trackingAlphabet. The
// alphabet has 32 symbols so a byte modulo its size stays uniform.
func GenerateTrackingCode() (string, error) {
	buf := make([]byte, TrackingCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	code := make([]byte, TrackingCodeLength)
	for i, b := range buf {
		code[i] = trackingAlphabet[int(b)%len(trackingAlphabet)]
	}
	return string(code), nil
}

// MaskRecipientName keeps the first name and the initial of the last name,
// "Ahmet Yılmaz" becomes "Ahmet Y.".
func MaskRecipientName(name string) *string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return nil
	}

	masked := parts[0]
	if len(parts) > 1 {
		last := parts[len(parts)-1]
		initial, _ := utf8.DecodeRuneInString(last)
		masked += " " + string(initial) + "."
	}
	return &masked
}
