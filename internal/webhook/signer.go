// Package webhook verifies and decodes signed events delivered by the
// commerce platform.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	// TimestampHeader carries the unix seconds the event was signed at.
	TimestampHeader = "X-Guestlink-Timestamp"
	// SignatureHeader carries the hex HMAC-SHA256 of "{timestamp}.{body}".
	SignatureHeader = "X-Guestlink-Signature"

	// DefaultReplayWindow is the default replay protection window.
	DefaultReplayWindow = 5 * time.Minute
)

var (
	// ErrReplayWindowExceeded is returned when timestamp is outside replay window.
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrMissingSignature is returned when either signing header is absent.
	ErrMissingSignature = errors.New("missing signature headers")
)

// GenerateSignature creates the HMAC-SHA256 signature of an event body.
// The canonical string format is: "{timestamp}.{body}"
func GenerateSignature(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateSignature verifies an event signature with replay protection.
func ValidateSignature(secret, signature string, timestamp int64, body []byte, replayWindow time.Duration) error {
	return validateAt(time.Now(), secret, signature, timestamp, body, replayWindow)
}

func validateAt(now time.Time, secret, signature string, timestamp int64, body []byte, replayWindow time.Duration) error {
	if abs(now.Unix()-timestamp) > int64(replayWindow.Seconds()) {
		return ErrReplayWindowExceeded
	}

	expected := GenerateSignature(secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}

// VerifyRequest checks the signing headers of an inbound request against body.
func VerifyRequest(h http.Header, secret string, body []byte, replayWindow time.Duration) error {
	rawTS := h.Get(TimestampHeader)
	sig := h.Get(SignatureHeader)
	if rawTS == "" || sig == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}

	return ValidateSignature(secret, sig, ts, body, replayWindow)
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
